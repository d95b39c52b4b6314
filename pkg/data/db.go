package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	// DataFileName is the default SQLite file name under the app home dir.
	DataFileName = "data.db"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// DB wraps sql.DB with the driver name so queries written with SQLite
// placeholders can be rebound for Postgres.
type DB struct {
	*sql.DB
	driver string
}

// Open opens the order database. For the sqlite driver dsn is a file path,
// for postgres a connection string.
func Open(driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("dsn not specified")
	}

	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database (%s): %w", driver, err)
	}

	return &DB{DB: conn, driver: driver}, nil
}

// Init creates the schema if it does not exist yet. Safe to call on
// every start, the DDL is idempotent on both drivers.
func (d *DB) Init() error {
	if d == nil || d.DB == nil {
		return errDBNotInitialized
	}

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return fmt.Errorf("failed to read the schema creation file: %w", err)
	}

	if _, err := d.Exec(string(b)); err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	return nil
}

// Driver returns the driver name the connection was opened with.
func (d *DB) Driver() string {
	return d.driver
}

func rollbackTransaction(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Debug("error rolling back transaction", "error", err)
	}
}

// rebind converts ? placeholders to $1..$n for the postgres driver.
// Queries in this package never embed literal question marks.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
