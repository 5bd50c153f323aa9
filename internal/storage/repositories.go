package storage

import (
	"database/sql"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"bombe/internal/logging"
)

// ContentHash returns the blake2b-256 hex digest of content. Used to
// populate File.ContentHash; spec.md names the column without
// mandating an algorithm (see DESIGN.md's Open Question decision).
func ContentHash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// UpsertFile inserts or replaces a File row.
func (db *DB) UpsertFile(f File) error {
	_, err := db.conn.Exec(`INSERT INTO files(path, language, content_hash, size_bytes, last_indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET language=excluded.language, content_hash=excluded.content_hash,
			size_bytes=excluded.size_bytes, last_indexed_at=excluded.last_indexed_at`,
		f.Path, f.Language, f.ContentHash, f.SizeBytes, f.LastIndexedAt)
	return err
}

// GetFile fetches a File by path.
func (db *DB) GetFile(path string) (*File, error) {
	var f File
	err := db.conn.QueryRow(`SELECT path, language, content_hash, size_bytes, last_indexed_at FROM files WHERE path = ?`, path).
		Scan(&f.Path, &f.Language, &f.ContentHash, &f.SizeBytes, &f.LastIndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFileGraph removes a file and everything derived from it:
// parameters, FTS rows, symbols, edges, and external deps for path.
// Mirrors the delete-then-insert shape replace_file_* uses, without
// the insert half.
func (db *DB) DeleteFileGraph(path string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		return deleteFileGraphTx(tx, path)
	})
}

func deleteFileGraphTx(tx *sql.Tx, path string) error {
	ids, err := symbolIDsForFile(tx, path)
	if err != nil {
		return err
	}
	if err := deleteFTSRows(tx, ids); err != nil {
		return err
	}
	if err := deleteParametersForSymbols(tx, ids); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM symbols WHERE file_path = ?`, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM edges WHERE file_path = ?`, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM external_deps WHERE file_path = ?`, path); err != nil {
		return err
	}
	_, err = tx.Exec(`DELETE FROM files WHERE path = ?`, path)
	return err
}

func symbolIDsForFile(tx *sql.Tx, path string) ([]int64, error) {
	rows, err := tx.Query(`SELECT id FROM symbols WHERE file_path = ?`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func deleteFTSRows(tx *sql.Tx, symbolIDs []int64) error {
	// Best-effort: FTS maintenance must never fail the transaction
	// (spec.md §5 and §7).
	for _, id := range symbolIDs {
		tx.Exec(`DELETE FROM symbols_fts WHERE symbol_id = ?`, id)
	}
	return nil
}

func deleteParametersForSymbols(tx *sql.Tx, symbolIDs []int64) error {
	for _, id := range symbolIDs {
		if _, err := tx.Exec(`DELETE FROM parameters WHERE symbol_id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceFileSymbols implements spec.md §4.3's per-file replacement
// contract: delete the file's FTS projection, then parameters, then
// symbols, then insert the deduped (by qualified_name, file_path) new
// set along with their parameters and FTS rows.
func (db *DB) ReplaceFileSymbols(path string, symbols []Symbol) error {
	return db.WithTx(func(tx *sql.Tx) error {
		ids, err := symbolIDsForFile(tx, path)
		if err != nil {
			return err
		}
		if err := deleteFTSRows(tx, ids); err != nil {
			return err
		}
		if err := deleteParametersForSymbols(tx, ids); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM symbols WHERE file_path = ?`, path); err != nil {
			return err
		}

		seen := make(map[string]bool, len(symbols))
		for _, s := range symbols {
			key := s.QualifiedName + "\x00" + s.FilePath
			if seen[key] {
				continue
			}
			seen[key] = true

			res, err := tx.Exec(`INSERT INTO symbols
				(qualified_name, name, kind, file_path, start_line, end_line, signature, return_type,
				 visibility, is_async, is_static, parent_symbol_id, docstring, pagerank_score)
				VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
				s.QualifiedName, s.Name, s.Kind, s.FilePath, s.StartLine, s.EndLine, s.Signature, s.ReturnType,
				s.Visibility, boolToInt(s.IsAsync), boolToInt(s.IsStatic), s.ParentSymbolID, s.Docstring, s.PagerankScore)
			if err != nil {
				return fmt.Errorf("insert symbol %s: %w", s.QualifiedName, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}

			for _, p := range s.Parameters {
				if _, err := tx.Exec(`INSERT INTO parameters(symbol_id, position, name, type) VALUES (?,?,?,?)`,
					id, p.Position, p.Name, p.Type); err != nil {
					return fmt.Errorf("insert parameter for %s: %w", s.QualifiedName, err)
				}
			}

			tx.Exec(`INSERT INTO symbols_fts(symbol_id, name, qualified_name, docstring, signature) VALUES (?,?,?,?,?)`,
				id, s.Name, s.QualifiedName, s.Docstring, s.Signature)
		}
		return nil
	})
}

// ReplaceFileEdges replaces all CALLS/IMPORTS_SYMBOL/etc edges whose
// file_path is path, using INSERT OR IGNORE on the uniqueness key so
// a duplicate from a fresh extraction pass is silently dropped rather
// than erroring.
func (db *DB) ReplaceFileEdges(path string, edges []Edge) error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM edges WHERE file_path = ?`, path); err != nil {
			return err
		}
		for _, e := range edges {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO edges
				(source_id, target_id, source_type, target_type, relationship, file_path, line_number, confidence)
				VALUES (?,?,?,?,?,?,?,?)`,
				e.SourceID, e.TargetID, e.SourceType, e.TargetType, e.Relationship, e.FilePath, e.LineNumber, e.Confidence); err != nil {
				return fmt.Errorf("insert edge %d->%d: %w", e.SourceID, e.TargetID, err)
			}
		}
		return nil
	})
}

// ReplaceExternalDeps replaces all external_deps rows for path.
func (db *DB) ReplaceExternalDeps(path string, deps []ExternalDependency) error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM external_deps WHERE file_path = ?`, path); err != nil {
			return err
		}
		for _, d := range deps {
			if _, err := tx.Exec(`INSERT INTO external_deps(file_path, import_statement, module_name, line_number)
				VALUES (?,?,?,?)`, d.FilePath, d.ImportStatement, d.ModuleName, d.LineNumber); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenameFile migrates file/symbols/edges/external-deps rows from
// oldPath to newPath.
func (db *DB) RenameFile(oldPath, newPath string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE files SET path = ? WHERE path = ?`, newPath, oldPath); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE symbols SET file_path = ? WHERE file_path = ?`, newPath, oldPath); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE edges SET file_path = ? WHERE file_path = ?`, newPath, oldPath); err != nil {
			return err
		}
		_, err := tx.Exec(`UPDATE external_deps SET file_path = ? WHERE file_path = ?`, newPath, oldPath)
		return err
	})
}

// GetCacheEpoch returns repo_meta's cache_epoch, auto-seeding to 1 if
// absent.
func (db *DB) GetCacheEpoch() (int64, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM repo_meta WHERE key = 'cache_epoch'`).Scan(&raw)
	if err == sql.ErrNoRows {
		if _, err := db.conn.Exec(`INSERT OR IGNORE INTO repo_meta(key, value) VALUES ('cache_epoch', '1')`); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var v int64
	_, err = fmt.Sscanf(raw, "%d", &v)
	return v, err
}

// BumpCacheEpoch atomically reads the current epoch, computes
// max(1, current+1), and upserts it. This is the one correctness-
// critical write under concurrent access spec.md §4.3 calls out.
func (db *DB) BumpCacheEpoch() (int64, error) {
	var next int64
	err := db.WithTx(func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRow(`SELECT value FROM repo_meta WHERE key = 'cache_epoch'`).Scan(&raw)
		var current int64
		if err == nil {
			fmt.Sscanf(raw, "%d", &current)
		} else if err != sql.ErrNoRows {
			return err
		}
		next = current + 1
		if next < 1 {
			next = 1
		}
		_, err = tx.Exec(`INSERT OR REPLACE INTO repo_meta(key, value) VALUES ('cache_epoch', ?)`, fmt.Sprintf("%d", next))
		return err
	})
	return next, err
}

// RecordDiagnostic logs a per-file extraction/index failure to the
// index_diagnostics table introduced at schema v6. Best-effort: a
// failure here is logged and swallowed, never surfaced.
func (db *DB) RecordDiagnostic(filePath, language, stage, message string) {
	if _, err := db.conn.Exec(`INSERT INTO index_diagnostics(file_path, language, stage, message, occurred_at)
		VALUES (?,?,?,?,?)`, filePath, language, stage, message, nowRFC3339()); err != nil {
		db.logger.Warn("failed to record diagnostic", logging.Fields{"file_path": filePath, "error": err.Error()})
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
