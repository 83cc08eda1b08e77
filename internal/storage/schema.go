package storage

import (
	"context"
	"strings"
)

// SchemaSQL returns the CREATE TABLE statement for the deployment.
func (o Options) SchemaSQL() string {
	columns := []string{
		"description TEXT NOT NULL CHECK (description <> '')",
		"amount " + o.Dialect.amountColumn + " NOT NULL CHECK (amount > 0)",
		"category TEXT",
	}
	date := "date " + o.Dialect.dateColumn
	if o.RequireDate {
		date += " NOT NULL"
	}
	columns = append(columns, date)
	if o.Identity == IdentitySurrogate {
		columns = append([]string{o.Dialect.idColumn}, columns...)
	}
	return "CREATE TABLE IF NOT EXISTS " + tableName + " (\n\t" + strings.Join(columns, ",\n\t") + "\n)"
}

// EnsureSchema creates the expenses table if it does not exist. Existing
// tables are left untouched.
func (s *ExpenseStore) EnsureSchema(ctx context.Context) error {
	const op = "ensure schema"
	conn, err := s.provider.Acquire(ctx)
	if err != nil {
		return newError(op, ErrStorage, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, s.opts.SchemaSQL()); err != nil {
		return newError(op, ErrStorage, err)
	}
	return nil
}
