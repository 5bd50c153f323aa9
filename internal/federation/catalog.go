// Package federation implements the cross-repository layer: a shard
// catalog tracking every indexed repository, a connection router over
// their individual stores, and a planner/executor pair that fans a
// single logical query out across shards.
package federation

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"bombe/internal/logging"
)

// Shard is one registered repository in the catalog.
type Shard struct {
	RepoID       string
	RepoPath     string
	DBPath       string
	Enabled      bool
	SymbolCount  int
	LastSyncedAt string
}

// ExportedSymbol mirrors a public symbol from a shard's store, the
// subset visible to cross-repo resolution.
type ExportedSymbol struct {
	RepoID        string
	QualifiedName string
	Name          string
	Kind          string
	FilePath      string
	Visibility    string
	Pagerank      float64
}

// CrossRepoEdge links a symbol in one shard to a symbol in another,
// built from unresolved imports during cross-repo sync.
type CrossRepoEdge struct {
	SourceRepoID        string
	SourceQualifiedName string
	SourceFilePath      string
	TargetRepoID        string
	TargetQualifiedName string
	TargetFilePath      string
	Relationship        string
	Confidence          float64
	Provenance          string
}

const (
	RelationshipImports = "IMPORTS"
	ProvenanceImport    = "import_resolution"
)

// Catalog is the federation's own persistent store, separate from
// each shard's embedded graph store, holding the shard list, the
// mirrored exported-symbol index, and cross-repo edges.
type Catalog struct {
	conn   *sql.DB
	logger *logging.Logger
}

// OpenCatalog opens or creates the catalog database at dbPath.
func OpenCatalog(dbPath string, logger *logging.Logger) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("federation: create catalog dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("federation: open catalog: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("federation: set pragma %q: %w", pragma, err)
		}
	}

	c := &Catalog{conn: conn, logger: logger}
	if err := c.initializeSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Close() error { return c.conn.Close() }

func (c *Catalog) initializeSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shards (
			repo_id TEXT PRIMARY KEY,
			repo_path TEXT NOT NULL,
			db_path TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			symbol_count INTEGER NOT NULL DEFAULT 0,
			last_synced_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS exported_symbols (
			repo_id TEXT NOT NULL,
			qualified_name TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_path TEXT NOT NULL,
			visibility TEXT NOT NULL,
			pagerank REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (repo_id, qualified_name, file_path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exported_symbols_name ON exported_symbols(name)`,
		`CREATE INDEX IF NOT EXISTS idx_exported_symbols_qualified ON exported_symbols(qualified_name)`,
		`CREATE TABLE IF NOT EXISTS cross_repo_edges (
			source_repo_id TEXT NOT NULL,
			source_qualified_name TEXT NOT NULL,
			source_file_path TEXT NOT NULL,
			target_repo_id TEXT NOT NULL,
			target_qualified_name TEXT NOT NULL,
			target_file_path TEXT NOT NULL,
			relationship TEXT NOT NULL,
			confidence REAL NOT NULL,
			provenance TEXT NOT NULL,
			PRIMARY KEY (source_repo_id, source_qualified_name, source_file_path,
				target_repo_id, target_qualified_name, target_file_path, relationship)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cross_repo_edges_source ON cross_repo_edges(source_repo_id, source_qualified_name)`,
		`CREATE INDEX IF NOT EXISTS idx_cross_repo_edges_target ON cross_repo_edges(target_repo_id, target_qualified_name)`,
	}
	for _, stmt := range stmts {
		if _, err := c.conn.Exec(stmt); err != nil {
			return fmt.Errorf("federation: apply catalog schema: %w", err)
		}
	}
	return nil
}

// RegisterShard upserts a shard entry, enabling it.
func (c *Catalog) RegisterShard(repoID, repoPath, dbPath string) error {
	_, err := c.conn.Exec(`INSERT INTO shards(repo_id, repo_path, db_path, enabled)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(repo_id) DO UPDATE SET repo_path = excluded.repo_path, db_path = excluded.db_path, enabled = 1`,
		repoID, repoPath, dbPath)
	return err
}

// UnregisterShard removes a shard and everything it contributed to
// the catalog.
func (c *Catalog) UnregisterShard(repoID string) error {
	if _, err := c.conn.Exec(`DELETE FROM exported_symbols WHERE repo_id = ?`, repoID); err != nil {
		return err
	}
	if _, err := c.conn.Exec(`DELETE FROM cross_repo_edges WHERE source_repo_id = ? OR target_repo_id = ?`, repoID, repoID); err != nil {
		return err
	}
	_, err := c.conn.Exec(`DELETE FROM shards WHERE repo_id = ?`, repoID)
	return err
}

// UpdateShardStats records the exported symbol count and bumps
// last_synced_at for repoID.
func (c *Catalog) UpdateShardStats(repoID string, symbolCount int) error {
	_, err := c.conn.Exec(`UPDATE shards SET symbol_count = ?, last_synced_at = datetime('now') WHERE repo_id = ?`,
		symbolCount, repoID)
	return err
}

// ListShards returns every registered shard.
func (c *Catalog) ListShards() ([]Shard, error) {
	return c.queryShards(`SELECT repo_id, repo_path, db_path, enabled, symbol_count, COALESCE(last_synced_at, '') FROM shards`)
}

// EnabledShards returns only shards with enabled = 1, the router's
// fallback set when symbol routing comes up empty.
func (c *Catalog) EnabledShards() ([]Shard, error) {
	return c.queryShards(`SELECT repo_id, repo_path, db_path, enabled, symbol_count, COALESCE(last_synced_at, '') FROM shards WHERE enabled = 1`)
}

func (c *Catalog) queryShards(query string, args ...interface{}) ([]Shard, error) {
	rows, err := c.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shards []Shard
	for rows.Next() {
		var s Shard
		var enabled int
		if err := rows.Scan(&s.RepoID, &s.RepoPath, &s.DBPath, &enabled, &s.SymbolCount, &s.LastSyncedAt); err != nil {
			return nil, err
		}
		s.Enabled = enabled != 0
		shards = append(shards, s)
	}
	return shards, rows.Err()
}

// UpsertExportedSymbols replaces repoID's mirrored symbol set. Callers
// are responsible for bounding symbols to MAX_EXPORTED_SYMBOLS_REFRESH
// before calling this (storage.ExportableSymbols already orders by
// pagerank DESC and applies the limit).
func (c *Catalog) UpsertExportedSymbols(repoID string, symbols []ExportedSymbol) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM exported_symbols WHERE repo_id = ?`, repoID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO exported_symbols(repo_id, qualified_name, name, kind, file_path, visibility, pagerank)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range symbols {
		if _, err := stmt.Exec(repoID, s.QualifiedName, s.Name, s.Kind, s.FilePath, s.Visibility, s.Pagerank); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SymbolsByName returns exported symbols across every shard whose
// bare name matches, ordered by pagerank DESC.
func (c *Catalog) SymbolsByName(name string) ([]ExportedSymbol, error) {
	return c.queryExportedSymbols(`SELECT repo_id, qualified_name, name, kind, file_path, visibility, pagerank
		FROM exported_symbols WHERE name = ? ORDER BY pagerank DESC`, name)
}

// ResolveExternalImport resolves an unresolved import's module name
// against the catalog, language-aware: TypeScript imports match on
// the module path's last segment as a bare name; other languages
// match as a qualified_name prefix. Results are ordered by pagerank
// DESC and capped at limit.
func (c *Catalog) ResolveExternalImport(moduleName, language string, limit int) ([]ExportedSymbol, error) {
	if language == "typescript" {
		segments := strings.Split(strings.TrimRight(moduleName, "/"), "/")
		lastSegment := segments[len(segments)-1]
		return c.queryExportedSymbols(`SELECT repo_id, qualified_name, name, kind, file_path, visibility, pagerank
			FROM exported_symbols WHERE name = ? ORDER BY pagerank DESC LIMIT ?`, lastSegment, limit)
	}
	return c.queryExportedSymbols(`SELECT repo_id, qualified_name, name, kind, file_path, visibility, pagerank
		FROM exported_symbols WHERE qualified_name LIKE ? ORDER BY pagerank DESC LIMIT ?`, moduleName+"%", limit)
}

func (c *Catalog) queryExportedSymbols(query string, args ...interface{}) ([]ExportedSymbol, error) {
	rows, err := c.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []ExportedSymbol
	for rows.Next() {
		var s ExportedSymbol
		if err := rows.Scan(&s.RepoID, &s.QualifiedName, &s.Name, &s.Kind, &s.FilePath, &s.Visibility, &s.Pagerank); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// DeleteCrossRepoEdgesForRepo removes every cross-repo edge sourced
// from repoID. Cross-repo sync calls this immediately before
// UpsertCrossRepoEdges; the two are not transactional together, so a
// crash between them can leave edges missing until the next sync.
func (c *Catalog) DeleteCrossRepoEdgesForRepo(repoID string) error {
	_, err := c.conn.Exec(`DELETE FROM cross_repo_edges WHERE source_repo_id = ?`, repoID)
	return err
}

// UpsertCrossRepoEdges inserts edges, replacing any with the same
// (source, target, relationship) identity.
func (c *Catalog) UpsertCrossRepoEdges(edges []CrossRepoEdge) error {
	if len(edges) == 0 {
		return nil
	}
	tx, err := c.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO cross_repo_edges(
		source_repo_id, source_qualified_name, source_file_path,
		target_repo_id, target_qualified_name, target_file_path,
		relationship, confidence, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_repo_id, source_qualified_name, source_file_path,
			target_repo_id, target_qualified_name, target_file_path, relationship)
		DO UPDATE SET confidence = excluded.confidence, provenance = excluded.provenance`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.Exec(e.SourceRepoID, e.SourceQualifiedName, e.SourceFilePath,
			e.TargetRepoID, e.TargetQualifiedName, e.TargetFilePath,
			e.Relationship, e.Confidence, e.Provenance); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CrossRepoEdgesForSymbol returns every cross-repo edge touching
// qualifiedName in repoID, in either direction.
func (c *Catalog) CrossRepoEdgesForSymbol(repoID, qualifiedName string) ([]CrossRepoEdge, error) {
	rows, err := c.conn.Query(`SELECT source_repo_id, source_qualified_name, source_file_path,
		target_repo_id, target_qualified_name, target_file_path, relationship, confidence, provenance
		FROM cross_repo_edges
		WHERE (source_repo_id = ? AND source_qualified_name = ?) OR (target_repo_id = ? AND target_qualified_name = ?)`,
		repoID, qualifiedName, repoID, qualifiedName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []CrossRepoEdge
	for rows.Next() {
		var e CrossRepoEdge
		if err := rows.Scan(&e.SourceRepoID, &e.SourceQualifiedName, &e.SourceFilePath,
			&e.TargetRepoID, &e.TargetQualifiedName, &e.TargetFilePath,
			&e.Relationship, &e.Confidence, &e.Provenance); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
