package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresBillingTables(t *testing.T) {
	body, err := fs.ReadFile(Files, "0001_billing.sql")
	require.NoError(t, err)

	schema := string(body)
	for _, table := range []string{"companies", "clients", "products", "documents", "document_items", "document_sequences", "idempotency_keys"} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ("), table)
	}
}
