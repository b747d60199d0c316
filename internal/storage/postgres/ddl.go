package postgres

import (
	"fmt"
	"strings"

	"cleanse/internal/table"
)

// sqlType maps a semantic column type to its Postgres storage type.
func sqlType(t table.Type) (string, error) {
	switch t {
	case table.Text, table.Categorical:
		return "TEXT", nil
	case table.Integer:
		return "BIGINT", nil
	case table.Float:
		return "DOUBLE PRECISION", nil
	case table.Boolean:
		return "BOOLEAN", nil
	case table.Date:
		return "DATE", nil
	case table.DateTime:
		return "TIMESTAMPTZ", nil
	default:
		return "", fmt.Errorf("postgres: no storage type for column type %q", t)
	}
}

// createTableSQL renders CREATE TABLE IF NOT EXISTS from the final table's
// column types. Every column is nullable; Missing cells load as NULL.
func createTableSQL(dest string, t *table.Table) (string, error) {
	cols := t.Columns()
	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		st, err := sqlType(c.Type)
		if err != nil {
			return "", err
		}
		defs = append(defs, fmt.Sprintf("%s %s", pgIdent(c.Name), st))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgFQN(dest), strings.Join(defs, ", ")), nil
}
