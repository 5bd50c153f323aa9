package query

import "testing"

func TestStructureGroupsByFileAndMarksTop(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	mustInsertSymbol(t, db, symFixture("svc.handlers.Handle", "Handle", "svc/handlers/handle.go", 1, 5))
	mustInsertSymbol(t, db, symFixture("svc.handlers.Setup", "Setup", "svc/handlers/setup.go", 1, 5))

	result, err := e.Structure("svc/handlers", 10000)
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(result.Files))
	}
	if len(result.Lines) == 0 {
		t.Fatal("expected rendered lines")
	}
	if !result.Lines[0].IsTop {
		t.Errorf("expected first symbol per file to be marked top")
	}
}

func TestStructureStopsAtTokenBudget(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	for i := 0; i < 50; i++ {
		name := "Sym" + string(rune('A'+i%26)) + string(rune('0'+i/26))
		mustInsertSymbol(t, db, symFixture("pkg."+name, name, "big.go", i+1, i+2))
	}

	result, err := e.Structure("big.go", 5)
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if !result.Truncated {
		t.Error("expected truncation with a tiny token budget")
	}
	if result.TokensUsed > 5 {
		t.Errorf("expected tokens used to respect budget, got %d", result.TokensUsed)
	}
}

func TestStructureRenderYAML(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	mustInsertSymbol(t, db, symFixture("pkg.Foo", "Foo", "foo.go", 1, 5))

	result, err := e.Structure("foo.go", 10000)
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	out, err := result.RenderYAML()
	if err != nil {
		t.Fatalf("render yaml: %v", err)
	}
	if out == "" {
		t.Error("expected non-empty yaml output")
	}
}
