package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver     string
	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered   bool
	// NullSafeEq is the operator that treats NULL = NULL as true.
	NullSafeEq string
	// Returning selects INSERT ... RETURNING id over LastInsertId.
	Returning  bool

	idColumn     string
	amountColumn string
	dateColumn   string
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Driver:       "sqlite",
	NullSafeEq:   "IS",
	idColumn:     "id INTEGER PRIMARY KEY AUTOINCREMENT",
	amountColumn: "NUMERIC",
	dateColumn:   "TEXT",
}

// Postgres is the dialect for github.com/lib/pq.
var Postgres = Dialect{
	Driver:       "postgres",
	Numbered:     true,
	NullSafeEq:   "IS NOT DISTINCT FROM",
	Returning:    true,
	idColumn:     "id BIGSERIAL PRIMARY KEY",
	amountColumn: "NUMERIC(12,2)",
	dateColumn:   "DATE",
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Rebind rewrites ? placeholders into the dialect's form. Queries built by
// this package never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
