package query

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"bombe/internal/logging"
	"bombe/internal/storage"
)

func setupTestEngine(t *testing.T) (*Engine, *storage.DB, string) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "bombe-query-test-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}

	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
	db, err := storage.Open(filepath.Join(tmpDir, "bombe.db"), logger)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.RemoveAll(tmpDir)
	})

	engine := NewEngine(db, stubSourceReader{}, true, false)
	return engine, db, tmpDir
}

// stubSourceReader returns a fixed synthetic body for any file/span
// without touching the filesystem, so tests don't need real source
// files on disk.
type stubSourceReader struct{}

func (stubSourceReader) ReadSpan(filePath string, startLine, endLine int) (string, error) {
	return "func body for " + filePath, nil
}

func symFixture(qualifiedName, name, filePath string, startLine, endLine int) storage.Symbol {
	return storage.Symbol{
		QualifiedName: qualifiedName,
		Name:          name,
		Kind:          storage.KindFunction,
		FilePath:      filePath,
		StartLine:     startLine,
		EndLine:       endLine,
		Visibility:    storage.VisibilityPublic,
		Signature:     qualifiedName + "()",
	}
}

func mustInsertSymbol(t *testing.T, db *storage.DB, s storage.Symbol) int64 {
	t.Helper()
	if err := db.UpsertFile(storage.File{Path: s.FilePath, Language: "go", ContentHash: "x", SizeBytes: 1, LastIndexedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("upsert file: %v", err)
	}
	existing, err := db.SymbolsUnderDirectory(s.FilePath)
	if err != nil {
		t.Fatalf("list existing symbols: %v", err)
	}
	all := append([]storage.Symbol{}, existing...)
	all = append(all, s)
	if err := db.ReplaceFileSymbols(s.FilePath, all); err != nil {
		t.Fatalf("replace file symbols: %v", err)
	}
	got, err := db.GetSymbolsByQualifiedName(s.QualifiedName)
	if err != nil || len(got) == 0 {
		t.Fatalf("lookup inserted symbol %s: err=%v got=%v", s.QualifiedName, err, got)
	}
	return got[0].ID
}

// mustInsertEdges replaces every edge recorded against path with
// edges in one call, the shape ReplaceFileEdges expects.
func mustInsertEdges(t *testing.T, db *storage.DB, path string, edges []storage.Edge) {
	t.Helper()
	if err := db.ReplaceFileEdges(path, edges); err != nil {
		t.Fatalf("replace file edges: %v", err)
	}
}

func callEdge(sourceID, targetID int64, filePath string, line int) storage.Edge {
	return storage.Edge{
		SourceID: sourceID, TargetID: targetID,
		SourceType: storage.EntitySymbol, TargetType: storage.EntitySymbol,
		Relationship: storage.RelCalls, FilePath: filePath, LineNumber: line, Confidence: 1.0,
	}
}

func typeEdge(sourceID, targetID int64, relationship, filePath string, line int) storage.Edge {
	return storage.Edge{
		SourceID: sourceID, TargetID: targetID,
		SourceType: storage.EntitySymbol, TargetType: storage.EntitySymbol,
		Relationship: relationship, FilePath: filePath, LineNumber: line, Confidence: 1.0,
	}
}
