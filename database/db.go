package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite3  = "sqlite3" // mattn/go-sqlite3, cgo
	DriverSQLite   = "sqlite"  // modernc.org/sqlite, pure Go
	DriverPostgres = "pgx"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
	sqlx.BindDriver(DriverPostgres, sqlx.DOLLAR)
}

type DB struct {
	*sqlx.DB
	Driver string
}

// Open connects to dsn with driver and verifies the connection. SQLite file
// databases get their directory created and per-connection pragmas for
// foreign keys, WAL and a busy timeout.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dsn = withPragmas(driver, dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db, Driver: driver}, nil
}

// IsSQLite reports whether db uses either SQLite driver.
func (db *DB) IsSQLite() bool {
	return db.Driver == DriverSQLite3 || db.Driver == DriverSQLite
}

// PreparesLazily reports whether statements are only compiled on first use.
// modernc.org/sqlite defers sqlite3_prepare until the statement runs.
func (db *DB) PreparesLazily() bool {
	return db.Driver == DriverSQLite
}

func (db *DB) Close() error {
	return db.DB.Close()
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func withPragmas(driver, dsn string) string {
	var params string
	switch driver {
	case DriverSQLite3:
		if strings.Contains(dsn, "_foreign_keys") {
			return dsn
		}
		params = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	case DriverSQLite:
		if strings.Contains(dsn, "_pragma") {
			return dsn
		}
		params = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
