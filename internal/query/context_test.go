package query

import (
	"testing"

	"bombe/internal/storage"
)

func TestContextEntryPointSeedIsIncludedWithSeedReason(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	target := mustInsertSymbol(t, db, symFixture("pkg.Target", "Target", "target.go", 1, 5))
	neighbor := mustInsertSymbol(t, db, symFixture("pkg.Neighbor", "Neighbor", "neighbor.go", 1, 5))
	mustInsertEdges(t, db, "target.go", []storage.Edge{callEdge(target, neighbor, "target.go", 2)})

	result, err := e.Context(ContextRequest{
		EntryPoints: []string{"pkg.Target"}, TokenBudget: 2000, ExpansionDepth: 2,
	})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if result.TotalIncluded == 0 {
		t.Fatal("expected at least one included symbol")
	}

	var foundSeed bool
	for _, f := range result.Files {
		for _, cs := range f.Symbols {
			if cs.Symbol.QualifiedName == "pkg.Target" {
				foundSeed = true
				if cs.Reason != "seed" {
					t.Errorf("expected seed reason for entry point, got %s", cs.Reason)
				}
			}
		}
	}
	if !foundSeed {
		t.Error("expected the entry point symbol to be included")
	}
	if result.QualityMetrics.SeedHitRate != 1.0 {
		t.Errorf("expected seed_hit_rate 1.0, got %v", result.QualityMetrics.SeedHitRate)
	}
}

func TestContextNeverExceedsTokenBudget(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	target := mustInsertSymbol(t, db, symFixture("pkg.Target", "Target", "target.go", 1, 5))
	for i := 0; i < 10; i++ {
		name := "Neighbor" + string(rune('A'+i))
		path := "neighbor" + string(rune('A'+i)) + ".go"
		n := mustInsertSymbol(t, db, symFixture("pkg."+name, name, path, 1, 5))
		mustInsertEdges(t, db, "target.go", append(edgesFrom(t, db, target), callEdge(target, n, "target.go", i+1)))
	}

	result, err := e.Context(ContextRequest{
		EntryPoints: []string{"pkg.Target"}, TokenBudget: 20, ExpansionDepth: 2,
	})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if result.TokensUsed > result.TokenBudget {
		t.Errorf("tokens_used %d exceeds token_budget %d", result.TokensUsed, result.TokenBudget)
	}
}

func TestContextFallsBackToFTSWhenNoEntryPoints(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	mustInsertSymbol(t, db, symFixture("pkg.ParseConfig", "ParseConfig", "config.go", 1, 5))

	result, err := e.Context(ContextRequest{Query: "ParseConfig", TokenBudget: 2000, ExpansionDepth: 1})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if result.TotalIncluded == 0 {
		t.Fatal("expected the FTS-seeded symbol to be included")
	}
}

func TestContextQualityMetricsRounded(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	mustInsertSymbol(t, db, symFixture("pkg.Target", "Target", "target.go", 1, 5))

	result, err := e.Context(ContextRequest{EntryPoints: []string{"pkg.Target"}, TokenBudget: 500, ExpansionDepth: 1})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if result.QualityMetrics.TokenEfficiency < 0 || result.QualityMetrics.TokenEfficiency > 1 {
		t.Errorf("unexpected token_efficiency %v", result.QualityMetrics.TokenEfficiency)
	}
}

// edgesFrom is a small test convenience for accumulating edges across
// calls to mustInsertEdges against the same file path.
func edgesFrom(t *testing.T, db *storage.DB, sourceID int64) []storage.Edge {
	t.Helper()
	edges, err := db.EdgesFrom(sourceID, storage.RelCalls)
	if err != nil {
		t.Fatalf("edges from: %v", err)
	}
	return edges
}
