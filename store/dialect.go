package store

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	// Name is the value accepted in configuration ("sqlite", "postgres").
	Name string
	// DriverName is the database/sql driver registered by the import.
	DriverName string
	// LockClause is appended to row reads inside a unit of work.
	LockClause string

	numbered bool
	schema   []string
	unique   func(error) bool
}

var (
	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		schema:     sqliteSchema,
		unique:     sqliteUnique,
	}

	Postgres = Dialect{
		Name:       "postgres",
		DriverName: "postgres",
		LockClause: " FOR UPDATE",
		numbered:   true,
		schema:     postgresSchema,
		unique:     postgresUnique,
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	}
	return Dialect{}, ErrUnknownDriver
}

// Rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (d Dialect) isUnique(err error) bool {
	return d.unique != nil && d.unique(err)
}

func sqliteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch code := se.Code(); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		// primary result code only when extended codes are off
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

func postgresUnique(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}
