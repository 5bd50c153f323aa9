package storage

import (
	"database/sql"
	"strings"
)

// SearchHit is one FTS5 match, ordered by ascending bm25 rank (lower
// is more relevant).
type SearchHit struct {
	SymbolID      int64
	QualifiedName string
	Name          string
	Docstring     string
	Signature     string
	Rank          float64
}

// SearchSymbolsFTS runs an FTS5 MATCH query against symbols_fts,
// ordered by bm25(symbols_fts). Callers combine Rank with structural
// and semantic scores per the hybrid formula; this layer only
// supplies the lexical term.
func (db *DB) SearchSymbolsFTS(query string, limit int) ([]SearchHit, error) {
	q := sanitizeFTSQuery(query)
	if q == "" {
		return nil, nil
	}

	rows, err := db.conn.Query(`
		SELECT symbol_id, qualified_name, name, docstring, signature, bm25(symbols_fts) AS rank
		FROM symbols_fts
		WHERE symbols_fts MATCH ?
		ORDER BY rank ASC
		LIMIT ?`, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var docstring, signature sql.NullString
		if err := rows.Scan(&h.SymbolID, &h.QualifiedName, &h.Name, &docstring, &signature, &h.Rank); err != nil {
			return nil, err
		}
		h.Docstring = docstring.String
		h.Signature = signature.String
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// sanitizeFTSQuery strips FTS5 special characters the caller's raw
// query text might contain (symbol names often include characters
// like "." or "::" that MATCH would otherwise try to parse as query
// syntax), turning the input into a plain OR'd token list.
func sanitizeFTSQuery(raw string) string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '.', ':', '/', '\\', '-', '(', ')', '"', '*', '^':
			return true
		}
		return r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, " OR ")
}

// GetSymbolByID fetches a full Symbol row, including its parameters.
func (db *DB) GetSymbolByID(id int64) (*Symbol, error) {
	var s Symbol
	var signature, returnType, docstring sql.NullString
	var parentID sql.NullInt64
	err := db.conn.QueryRow(`SELECT id, qualified_name, name, kind, file_path, start_line, end_line,
		signature, return_type, visibility, is_async, is_static, parent_symbol_id, docstring, pagerank_score
		FROM symbols WHERE id = ?`, id).Scan(
		&s.ID, &s.QualifiedName, &s.Name, &s.Kind, &s.FilePath, &s.StartLine, &s.EndLine,
		&signature, &returnType, &s.Visibility, &s.IsAsync, &s.IsStatic, &parentID, &docstring, &s.PagerankScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Signature = signature.String
	s.ReturnType = returnType.String
	s.Docstring = docstring.String
	if parentID.Valid {
		v := parentID.Int64
		s.ParentSymbolID = &v
	}

	params, err := db.paramsForSymbol(id)
	if err != nil {
		return nil, err
	}
	s.Parameters = params
	return &s, nil
}

// GetSymbolsByQualifiedName returns every symbol sharing qualifiedName
// (overloads, or same name reused across files).
func (db *DB) GetSymbolsByQualifiedName(qualifiedName string) ([]Symbol, error) {
	rows, err := db.conn.Query(`SELECT id FROM symbols WHERE qualified_name = ?`, qualifiedName)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
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

func (db *DB) paramsForSymbol(symbolID int64) ([]Parameter, error) {
	rows, err := db.conn.Query(`SELECT name, type, position FROM parameters WHERE symbol_id = ? ORDER BY position ASC`, symbolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var params []Parameter
	for rows.Next() {
		var p Parameter
		var typ sql.NullString
		if err := rows.Scan(&p.Name, &typ, &p.Position); err != nil {
			return nil, err
		}
		p.Type = typ.String
		params = append(params, p)
	}
	return params, rows.Err()
}

// EdgesFrom returns every outgoing edge from sourceID, optionally
// filtered to a single relationship (pass "" for all relationships).
func (db *DB) EdgesFrom(sourceID int64, relationship string) ([]Edge, error) {
	return db.queryEdges(`source_id = ?`, sourceID, relationship)
}

// EdgesTo returns every incoming edge to targetID, optionally
// filtered to a single relationship.
func (db *DB) EdgesTo(targetID int64, relationship string) ([]Edge, error) {
	return db.queryEdges(`target_id = ?`, targetID, relationship)
}

func (db *DB) queryEdges(whereCol string, id int64, relationship string) ([]Edge, error) {
	query := `SELECT id, source_id, target_id, source_type, target_type, relationship,
		COALESCE(file_path, ''), COALESCE(line_number, 0), confidence FROM edges WHERE ` + whereCol
	args := []interface{}{id}
	if relationship != "" {
		query += ` AND relationship = ?`
		args = append(args, relationship)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.SourceType, &e.TargetType,
			&e.Relationship, &e.FilePath, &e.LineNumber, &e.Confidence); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CountSymbols returns the total number of indexed symbols, used by
// the adaptive graph-traversal cap (guards.AdaptiveGraphCap).
func (db *DB) CountSymbols() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&n)
	return n, err
}
