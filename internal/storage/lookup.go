package storage

import (
	"database/sql"
	"strings"
)

// ResolveSymbol finds a symbol by exact qualified_name first, then by
// bare name, tie-breaking on pagerank_score DESC. Returns nil, nil
// when nothing matches either way.
func (db *DB) ResolveSymbol(qualifiedOrName string) (*Symbol, error) {
	id, err := db.symbolIDByColumn("qualified_name", qualifiedOrName)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		id, err = db.symbolIDByColumn("name", qualifiedOrName)
		if err != nil {
			return nil, err
		}
	}
	if id == 0 {
		return nil, nil
	}
	return db.GetSymbolByID(id)
}

func (db *DB) symbolIDByColumn(column, value string) (int64, error) {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM symbols WHERE `+column+` = ? ORDER BY pagerank_score DESC LIMIT 1`, value).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// LikeSearchSymbols runs a lowercased LIKE %query% match against name
// and qualified_name, used as search's secondary strategy.
func (db *DB) LikeSearchSymbols(query string, limit int) ([]Symbol, error) {
	like := "%" + strings.ToLower(query) + "%"
	rows, err := db.conn.Query(`SELECT id FROM symbols
		WHERE LOWER(name) LIKE ? OR LOWER(qualified_name) LIKE ?
		ORDER BY pagerank_score DESC LIMIT ?`, like, like, limit)
	if err != nil {
		return nil, err
	}
	return db.symbolsFromIDRows(rows)
}

// LikeSearchSymbolsAnyTerm ORs a LIKE match for each term across name
// and qualified_name, per context assembly's seed-selection strategy
// (c).
func (db *DB) LikeSearchSymbolsAnyTerm(terms []string, limit int) ([]Symbol, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var clauses []string
	var args []interface{}
	for _, t := range terms {
		clauses = append(clauses, "LOWER(name) LIKE ? OR LOWER(qualified_name) LIKE ?")
		like := "%" + strings.ToLower(t) + "%"
		args = append(args, like, like)
	}
	query := `SELECT id FROM symbols WHERE (` + strings.Join(clauses, ") OR (") + `) ORDER BY pagerank_score DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return db.symbolsFromIDRows(rows)
}

func (db *DB) symbolsFromIDRows(rows *sql.Rows) ([]Symbol, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	symbols := make([]Symbol, 0, len(ids))
	for _, id := range ids {
		s, err := db.GetSymbolByID(id)
		if err != nil {
			return nil, err
		}
		if s != nil {
			symbols = append(symbols, *s)
		}
	}
	return symbols, nil
}

// SymbolsUnderDirectory returns every symbol whose file_path starts
// with prefix, ordered by file_path then pagerank_score DESC, as
// structure's per-directory listing needs.
func (db *DB) SymbolsUnderDirectory(prefix string) ([]Symbol, error) {
	rows, err := db.conn.Query(`SELECT id FROM symbols WHERE file_path LIKE ? ORDER BY file_path ASC, pagerank_score DESC`, prefix+"%")
	if err != nil {
		return nil, err
	}
	return db.symbolsFromIDRows(rows)
}

// ExportableSymbols returns up to limit public symbols ordered by
// pagerank_score DESC, the set the federation catalog mirrors into
// exported_symbols on each cross-repo sync.
func (db *DB) ExportableSymbols(limit int) ([]Symbol, error) {
	rows, err := db.conn.Query(`SELECT id FROM symbols WHERE visibility = ? ORDER BY pagerank_score DESC LIMIT ?`,
		VisibilityPublic, limit)
	if err != nil {
		return nil, err
	}
	return db.symbolsFromIDRows(rows)
}

// AllExternalDeps returns every unresolved import recorded across the
// repository, the input to federation's cross-repo edge resolution.
func (db *DB) AllExternalDeps() ([]ExternalDependency, error) {
	rows, err := db.conn.Query(`SELECT file_path, import_statement, module_name, line_number FROM external_deps`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []ExternalDependency
	for rows.Next() {
		var d ExternalDependency
		if err := rows.Scan(&d.FilePath, &d.ImportStatement, &d.ModuleName, &d.LineNumber); err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// AllFilePaths returns every path currently recorded in files, the
// known-files set the indexer diffs a fresh filesystem walk against
// to find deletions.
func (db *DB) AllFilePaths() ([]string, error) {
	rows, err := db.conn.Query(`SELECT path FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// AllSymbols returns every symbol in the repository, the candidate
// set the call-graph builder resolves call-sites against.
func (db *DB) AllSymbols() ([]Symbol, error) {
	rows, err := db.conn.Query(`SELECT id FROM symbols`)
	if err != nil {
		return nil, err
	}
	return db.symbolsFromIDRows(rows)
}

// SymbolIDByQualifiedNameAndFile backs the call-graph builder's
// optional id lookup: a resolved call target with a known
// (qualified_name, file_path) gets its real persisted id instead of
// the deterministic CRC-32 fallback.
func (db *DB) SymbolIDByQualifiedNameAndFile(qualifiedName, filePath string) (int64, bool) {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM symbols WHERE qualified_name = ? AND file_path = ?`,
		qualifiedName, filePath).Scan(&id)
	if err != nil {
		return 0, false
	}
	return id, true
}

// PageRankEligibleEdges returns every edge whose relationship feeds
// the PageRank graph (CALLS, IMPORTS_SYMBOL, EXTENDS, IMPLEMENTS),
// per spec.md §4.7.
func (db *DB) PageRankEligibleEdges() ([]Edge, error) {
	rows, err := db.conn.Query(`SELECT source_id, target_id FROM edges
		WHERE relationship IN (?, ?, ?, ?) AND source_type = ? AND target_type = ?`,
		RelCalls, RelImportsSymbol, RelExtends, RelImplements, EntitySymbol, EntitySymbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.SourceID, &e.TargetID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// UpdatePagerankScores writes PageRank's converged scores back onto
// their symbols, one UPDATE per entry in a single transaction.
func (db *DB) UpdatePagerankScores(scores map[int64]float64) error {
	return db.WithTx(func(tx *sql.Tx) error {
		for id, score := range scores {
			if _, err := tx.Exec(`UPDATE symbols SET pagerank_score = ? WHERE id = ?`, score, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountCallers returns the number of distinct CALLS edges targeting
// symbolID.
func (db *DB) CountCallers(symbolID int64) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM edges WHERE target_id = ? AND relationship = ?`, symbolID, RelCalls).Scan(&n)
	return n, err
}

// CountCallees returns the number of distinct CALLS edges originating
// from symbolID.
func (db *DB) CountCallees(symbolID int64) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM edges WHERE source_id = ? AND relationship = ?`, symbolID, RelCalls).Scan(&n)
	return n, err
}
