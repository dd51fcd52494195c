package shared

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/clients?page=3&per_page=500&q=%20acme%20", nil)

	params := ParseListParams(req)

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, MaxPerPage, params.PerPage)
	assert.Equal(t, "acme", params.Search)
	assert.Equal(t, 200, params.Offset())

	defaults := ParseListParams(httptest.NewRequest("GET", "/clients", nil))
	assert.Equal(t, ListParams{Page: 1, PerPage: 20}, defaults)
}

func TestNewPage(t *testing.T) {
	page := NewPage[string](nil, ListParams{Page: 2, PerPage: 10}, 25)

	assert.NotNil(t, page.Items)
	assert.Equal(t, Pagination{Page: 2, PerPage: 10, Total: 25, TotalPages: 3}, page.Pagination)
}

type fakeKeysDB struct {
	keys map[string]*int64
}

type fakeRow struct {
	val *int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(**int64)) = r.val
	return nil
}

func (f *fakeKeysDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	key := args[0].(string) + "/" + args[1].(string)
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		if _, ok := f.keys[key]; ok {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		}
		f.keys[key] = nil
	case strings.HasPrefix(sql, "UPDATE"):
		id := args[2].(int64)
		f.keys[key] = &id
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeKeysDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeKeysDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	val, ok := f.keys[args[0].(string)+"/"+args[1].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{val: val}
}

func TestIdempotencyStoreFlow(t *testing.T) {
	store := NewIdempotencyStore(&fakeKeysDB{keys: map[string]*int64{}})
	store.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, ok, err := store.Lookup(ctx, "k1", "documents")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.CheckAndInsert(ctx, "k1", "documents"))
	assert.ErrorIs(t, store.CheckAndInsert(ctx, "k1", "documents"), ErrIdempotencyConflict)

	_, ok, err = store.Lookup(ctx, "k1", "documents")
	require.NoError(t, err)
	assert.False(t, ok, "in-flight key has no resource yet")

	require.NoError(t, store.Complete(ctx, "k1", "documents", 42))
	id, ok, err := store.Lookup(ctx, "k1", "documents")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestIdempotencyStoreRequiresKey(t *testing.T) {
	store := NewIdempotencyStore(&fakeKeysDB{keys: map[string]*int64{}})

	assert.Error(t, store.CheckAndInsert(context.Background(), "", "documents"))
	assert.Error(t, store.CheckAndInsert(context.Background(), "k", ""))
}

func TestUpdateStatement(t *testing.T) {
	query, args := UpdateStatement("clients", []string{"company_name", "email", "city"}, map[string]interface{}{
		"city":    "Berlin",
		"email":   "a@b.de",
		"ignored": true,
	}, 42)

	assert.Equal(t, "UPDATE clients SET updated_at = NOW(), email = $1, city = $2 WHERE id = $3", query)
	assert.Equal(t, []interface{}{"a@b.de", "Berlin", int64(42)}, args)
}

func TestWhereClause(t *testing.T) {
	assert.Equal(t, "", WhereClause(nil))
	assert.Equal(t, "WHERE a = $1 AND b = $2", WhereClause([]string{"a = $1", "b = $2"}))
}
