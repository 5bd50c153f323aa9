// Package storage implements the embedded relational graph store:
// schema, versioned migrations, and the per-file replacement
// contracts that keep symbols, edges, parameters, and the FTS
// projection consistent.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no cgo

	"bombe/internal/logging"
)

// DB wraps a pooled SQLite connection with the transaction helper
// every correctness-critical write goes through. database/sql checks
// out a connection from the pool per operation; combined with WAL
// mode this gives the "new connection per operation, writes serialize
// at the database" model without a real per-call sql.Open.
type DB struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the store at dbPath, applying WAL and
// durability pragmas, then creates the schema (new database) or runs
// pending migrations (existing database).
func Open(dbPath string, logger *logging.Logger) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("storage: create data dir: %w", err)
		}
	}

	existed := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-64000",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA mmap_size=268435456",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("storage: set pragma %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, logger: logger, dbPath: dbPath}

	if !existed {
		logger.Info("creating new store", logging.Fields{"path": dbPath})
		if err := db.initializeSchema(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("storage: initialize schema: %w", err)
		}
	} else {
		logger.Debug("running migrations", logging.Fields{"path": dbPath})
		if err := db.runMigrations(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("storage: run migrations: %w", err)
		}
	}

	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn exposes the underlying *sql.DB for callers that need raw
// access (federation's per-shard router, ad hoc diagnostics queries).
func (db *DB) Conn() *sql.DB { return db.conn }

// WithTx runs fn inside a transaction, committing on success and
// rolling back (re-panicking after rollback) otherwise. Every
// correctness-critical write path in this package goes through it.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("rollback failed", logging.Fields{
				"error":          err.Error(),
				"rollback_error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit transaction: %w", err)
	}
	return nil
}

// Exec runs a statement outside any explicit transaction.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query runs a query outside any explicit transaction.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow runs a single-row query outside any explicit transaction.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// QueryRows runs an arbitrary parameterized query and returns
// column-keyed row records. This is the utility surface spec.md §4.3
// names for tests and federation's cross-shard bookkeeping.
func (db *DB) QueryRows(query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
