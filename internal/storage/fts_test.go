package storage

import "testing"

func seedSearchableSymbol(t *testing.T, db *DB, path, qualifiedName, name, docstring string) {
	t.Helper()
	if err := db.UpsertFile(File{Path: path, Language: "go", ContentHash: "x", SizeBytes: 1, LastIndexedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("upsert file: %v", err)
	}
	s := Symbol{QualifiedName: qualifiedName, Name: name, Kind: KindFunction, FilePath: path, Docstring: docstring, Visibility: VisibilityPublic}
	if err := db.ReplaceFileSymbols(path, []Symbol{s}); err != nil {
		t.Fatalf("replace symbols: %v", err)
	}
}

func TestSearchSymbolsFTSMatchesNameAndDocstring(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)

	seedSearchableSymbol(t, db, "a.go", "pkg.ParseConfig", "ParseConfig", "parses the on-disk configuration file")
	seedSearchableSymbol(t, db, "b.go", "pkg.WriteLog", "WriteLog", "writes a structured log entry")

	hits, err := db.SearchSymbolsFTS("ParseConfig", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "ParseConfig" {
		t.Fatalf("expected single ParseConfig hit, got %+v", hits)
	}

	hits, err = db.SearchSymbolsFTS("configuration", 10)
	if err != nil {
		t.Fatalf("search docstring: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "ParseConfig" {
		t.Fatalf("expected docstring match on ParseConfig, got %+v", hits)
	}
}

func TestSearchSymbolsFTSEmptyQuery(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)

	hits, err := db.SearchSymbolsFTS("   ", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for blank query, got %d", len(hits))
	}
}

func TestEdgesFromAndTo(t *testing.T) {
	db, tmpDir := setupTestDB(t)
	defer teardownTestDB(t, db, tmpDir)

	if err := db.UpsertFile(File{Path: "a.go", Language: "go", ContentHash: "x", SizeBytes: 1, LastIndexedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.ReplaceFileEdges("a.go", []Edge{
		{SourceID: 1, TargetID: 2, SourceType: EntitySymbol, TargetType: EntitySymbol, Relationship: RelCalls, FilePath: "a.go", LineNumber: 5, Confidence: 0.9},
		{SourceID: 1, TargetID: 3, SourceType: EntitySymbol, TargetType: EntitySymbol, Relationship: RelCalls, FilePath: "a.go", LineNumber: 8, Confidence: 0.5},
	}); err != nil {
		t.Fatalf("replace edges: %v", err)
	}

	out, err := db.EdgesFrom(1, RelCalls)
	if err != nil {
		t.Fatalf("edges from: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 outgoing edges, got %d", len(out))
	}

	in, err := db.EdgesTo(2, "")
	if err != nil {
		t.Fatalf("edges to: %v", err)
	}
	if len(in) != 1 || in[0].TargetID != 2 {
		t.Errorf("expected 1 incoming edge to symbol 2, got %+v", in)
	}
}
