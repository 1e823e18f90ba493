// Package store is the record store: a thin layer over database/sql that
// owns the schema and runs parameterised statements. It knows nothing about
// business rules.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config selects and locates the database.
type Config struct {
	Driver string
	URL    string
}

// Querier runs statements, either directly against the pool or inside a
// unit of work started by InTx. Queries use ? placeholders.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryOne(ctx context.Context, query string, args ...any) (Row, error)
	QueryAll(ctx context.Context, query string, args ...any) ([]Row, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is the pooled handle. Every call acquires a connection from the
// pool and releases it before returning.
type Store struct {
	db      *sql.DB
	dialect Dialect
	conn
}

// Open connects to the configured database. For SQLite the file is created
// if it does not exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, cfg.Driver)
	}

	dsn := cfg.URL
	if d.Name == SQLite.Name {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db, d), nil
}

// New wraps an already opened handle.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d, conn: conn{ex: db, dialect: d}}
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &QueryError{Query: "BEGIN", Err: err}
	}
	defer tx.Rollback()

	if err := fn(conn{ex: tx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &QueryError{Query: "COMMIT", Err: err}
	}
	return nil
}

type conn struct {
	ex      execer
	dialect Dialect
}

// Exec executes a statement that returns no rows.
func (c conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.ex.ExecContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return 0, c.wrap(query, err)
	}
	// Not every driver reports affected rows; zero is fine for callers.
	n, _ := res.RowsAffected()
	return n, nil
}

// QueryOne returns the first row of the result, or nil when there is none.
func (c conn) QueryOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := c.QueryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// QueryAll returns every row of the result.
func (c conn) QueryAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.ex.QueryContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, c.wrap(query, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, c.wrap(query, err)
	}
	return out, nil
}

func (c conn) wrap(query string, err error) error {
	return &QueryError{Query: query, Err: err, duplicate: c.dialect.isUnique(err)}
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "bank.db"
	}
	if strings.Contains(path, "_pragma=") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
