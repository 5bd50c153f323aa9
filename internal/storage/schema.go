package storage

import (
	"database/sql"
	"fmt"
	"time"

	"bombe/internal/logging"
)

// CurrentSchemaVersion is SCHEMA_VERSION from spec.md §4.3/§6. A
// store whose schema_version exceeds this must be refused by the
// reading process rather than partially understood.
const CurrentSchemaVersion = 7

var baseTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		language TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		last_indexed_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		qualified_name TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		signature TEXT,
		return_type TEXT,
		visibility TEXT NOT NULL DEFAULT 'public',
		is_async INTEGER NOT NULL DEFAULT 0,
		is_static INTEGER NOT NULL DEFAULT 0,
		parent_symbol_id INTEGER REFERENCES symbols(id),
		docstring TEXT,
		pagerank_score REAL NOT NULL DEFAULT 0,
		UNIQUE(qualified_name, file_path)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file_path ON symbols(file_path)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_pagerank ON symbols(pagerank_score DESC)`,
	`CREATE TABLE IF NOT EXISTS parameters (
		symbol_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT,
		PRIMARY KEY (symbol_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL,
		target_id INTEGER NOT NULL,
		source_type TEXT NOT NULL,
		target_type TEXT NOT NULL,
		relationship TEXT NOT NULL,
		file_path TEXT,
		line_number INTEGER,
		confidence REAL NOT NULL DEFAULT 1.0,
		UNIQUE(source_id, target_id, source_type, target_type, relationship)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_relationship ON edges(relationship)`,
	`CREATE TABLE IF NOT EXISTS external_deps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_path TEXT NOT NULL,
		import_statement TEXT NOT NULL,
		module_name TEXT NOT NULL,
		line_number INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS repo_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS migration_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		applied_at TEXT NOT NULL
	)`,
}

const ftsTableStatement = `CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
	symbol_id UNINDEXED,
	name,
	qualified_name,
	docstring,
	signature
)`

// initializeSchema creates every table at CurrentSchemaVersion in one
// shot for a brand-new store, then records the version.
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		for _, stmt := range baseTableStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("create base tables: %w", err)
			}
		}
		// FTS5 may be unavailable on some builds; swallow the error
		// per spec.md §4.3 ("FTS errors are swallowed on builds
		// lacking it").
		tx.Exec(ftsTableStatement)

		for _, step := range migrationSteps {
			if err := step.up(tx); err != nil {
				return fmt.Errorf("apply migration v%d during init: %w", step.version, err)
			}
		}

		if _, err := tx.Exec(`INSERT OR REPLACE INTO repo_meta(key, value) VALUES ('schema_version', ?)`,
			fmt.Sprintf("%d", CurrentSchemaVersion)); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO migration_history(version, status, applied_at) VALUES (?, 'success', ?)`,
			CurrentSchemaVersion, nowRFC3339())
		return err
	})
}

type migrationStep struct {
	version int
	up      func(tx *sql.Tx) error
}

// migrationSteps implements v2 through v7; v1's tables are the base
// statements above. Each step is applied inside its own savepoint by
// runMigrations so a single step's failure rolls back only that step.
var migrationSteps = []migrationStep{
	{version: 2, up: func(tx *sql.Tx) error {
		// Rebuild the FTS index from existing symbols.
		tx.Exec(`DROP TABLE IF EXISTS symbols_fts`)
		if _, err := tx.Exec(ftsTableStatement); err != nil {
			return nil // FTS unavailable; swallow per spec.
		}
		_, err := tx.Exec(`INSERT INTO symbols_fts(symbol_id, name, qualified_name, docstring, signature)
			SELECT id, name, qualified_name, COALESCE(docstring, ''), COALESCE(signature, '') FROM symbols`)
		if err != nil {
			return nil
		}
		return nil
	}},
	{version: 3, up: func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_edges_file_line ON edges(file_path, line_number)`)
		return err
	}},
	{version: 4, up: func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS sync_state (
				repo_id TEXT PRIMARY KEY,
				last_synced_at TEXT,
				cross_repo_edge_count INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE TABLE IF NOT EXISTS job_queue (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				kind TEXT NOT NULL,
				payload TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				created_at TEXT NOT NULL,
				completed_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS circuit_breaker (
				name TEXT PRIMARY KEY,
				state TEXT NOT NULL DEFAULT 'closed',
				failure_count INTEGER NOT NULL DEFAULT 0,
				opened_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS index_events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				event_type TEXT NOT NULL,
				file_path TEXT,
				detail TEXT,
				occurred_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS index_metrics (
				name TEXT PRIMARY KEY,
				value REAL NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		}
		for _, s := range stmts {
			if _, err := tx.Exec(s); err != nil {
				return err
			}
		}
		return nil
	}},
	{version: 5, up: func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS trusted_signing_keys (
			fingerprint TEXT PRIMARY KEY,
			public_key TEXT NOT NULL,
			added_at TEXT NOT NULL
		)`)
		return err
	}},
	{version: 6, up: func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS index_diagnostics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			language TEXT,
			stage TEXT NOT NULL,
			message TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)`)
		return err
	}},
	{version: 7, up: func(tx *sql.Tx) error {
		if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_external_deps_module ON external_deps(module_name)`); err != nil {
			return err
		}
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_external_deps_file_module ON external_deps(file_path, module_name)`)
		return err
	}},
}

// getSchemaVersion reads repo_meta.schema_version, defaulting to 0
// for a store with no recorded version (treated as pre-v1).
func (db *DB) getSchemaVersion() (int, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM repo_meta WHERE key = 'schema_version'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, err
	}
	return v, nil
}

// runMigrations applies every pending step in order. Each step runs
// inside its own savepoint: failure rolls back only that step and
// records a failed migration-history row, per spec.md §4.3. Replay at
// CurrentSchemaVersion is a no-op and adds no rows.
func (db *DB) runMigrations() error {
	// Base tables must exist even on a pre-v1 store being upgraded
	// in place (defensive: idempotent CREATE TABLE IF NOT EXISTS).
	if err := db.WithTx(func(tx *sql.Tx) error {
		for _, stmt := range baseTableStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		tx.Exec(ftsTableStatement)
		return nil
	}); err != nil {
		return err
	}

	current, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if current == 0 {
		current = 1
	}

	for _, step := range migrationSteps {
		if step.version <= current {
			continue
		}
		if err := db.applyMigrationStep(step); err != nil {
			return err
		}
		current = step.version
	}
	return nil
}

// applyMigrationStep runs one step in its own transaction
// (SQLite's transactions are this store's savepoint granularity)
// recording success or failure in migration_history.
func (db *DB) applyMigrationStep(step migrationStep) error {
	runErr := db.WithTx(func(tx *sql.Tx) error {
		if err := step.up(tx); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO repo_meta(key, value) VALUES ('schema_version', ?)`,
			fmt.Sprintf("%d", step.version)); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO migration_history(version, status, applied_at) VALUES (?, 'success', ?)`,
			step.version, nowRFC3339())
		return err
	})
	if runErr != nil {
		db.logger.Error("migration step failed", logging.Fields{
			"version": step.version,
			"error":   runErr.Error(),
		})
		// Record the failure on its own connection since the step's
		// transaction already rolled back.
		db.conn.Exec(`INSERT INTO migration_history(version, status, error, applied_at) VALUES (?, 'failed', ?, ?)`,
			step.version, runErr.Error(), nowRFC3339())
		return fmt.Errorf("storage: migration v%d failed: %w", step.version, runErr)
	}
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
