package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Register the postgres driver
	_ "github.com/lib/pq"
	// Register the sqlite driver
	_ "modernc.org/sqlite"
)

// ConnectionProvider supplies a live connection for one statement or
// transaction scope. Callers close the connection when done.
type ConnectionProvider interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

// Pool is a ConnectionProvider backed by a *sql.DB pool.
type Pool struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens a connection pool for driver and dsn and verifies it with a ping.
func Open(driver, dsn string) (*Pool, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" is a separate database.
	if dialect.Driver == SQLite.Driver && dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &Pool{db: db, dialect: dialect}, nil
}

// NewPool wraps an already opened pool.
func NewPool(db *sql.DB, dialect Dialect) *Pool {
	return &Pool{db: db, dialect: dialect}
}

// Acquire checks a connection out of the pool.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// Dialect returns the dialect of the pool's driver.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Close closes the pool.
func (p *Pool) Close() error {
	return p.db.Close()
}
