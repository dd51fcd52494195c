package shared

import (
	"fmt"
	"strings"
)

// UpdateStatement builds "UPDATE table SET updated_at = NOW(), col = $n ...
// WHERE id = $m" for the entries of updates whose key is in columns. Columns
// are emitted in the order given so the statement is stable.
func UpdateStatement(table string, columns []string, updates map[string]interface{}, id int64) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET updated_at = NOW()")
	args := make([]interface{}, 0, len(updates)+1)
	argPos := 1
	for _, col := range columns {
		v, ok := updates[col]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, ", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}
	fmt.Fprintf(&b, " WHERE id = $%d", argPos)
	args = append(args, id)
	return b.String(), args
}

// WhereClause joins conditions with AND. It returns "" for no conditions.
func WhereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions, " AND ")
}
