package query

import "testing"

func TestSearchFindsExactNameMatch(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	mustInsertSymbol(t, db, symFixture("pkg.DoWork", "DoWork", "worker.go", 1, 5))
	mustInsertSymbol(t, db, symFixture("pkg.DoOtherThing", "DoOtherThing", "worker.go", 10, 15))

	results, err := e.Search("DoWork", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Symbol.QualifiedName != "pkg.DoWork" {
		t.Errorf("expected exact match first, got %s", results[0].Symbol.QualifiedName)
	}
	if results[0].Score < results[len(results)-1].Score {
		t.Errorf("expected results sorted by score DESC")
	}
}

func TestSearchDedupesFTSOverLike(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	mustInsertSymbol(t, db, symFixture("pkg.Handler", "Handler", "h.go", 1, 2))

	results, err := e.Search("Handler", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	seen := map[string]int{}
	for _, r := range results {
		seen[r.Symbol.QualifiedName]++
	}
	for name, n := range seen {
		if n > 1 {
			t.Errorf("expected %s to appear once, appeared %d times", name, n)
		}
	}
}

func TestSearchLimitTruncates(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	for i := 0; i < 5; i++ {
		mustInsertSymbol(t, db, symFixture(
			"pkg.Item"+string(rune('A'+i)), "Item"+string(rune('A'+i)), "items.go", i+1, i+2))
	}

	results, err := e.Search("Item", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) > 2 {
		t.Errorf("expected at most 2 results, got %d", len(results))
	}
}
