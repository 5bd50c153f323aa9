package query

import (
	"testing"

	"bombe/internal/storage"
)

func TestDataFlowAnnotatesRoles(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	upstream := mustInsertSymbol(t, db, symFixture("pkg.Upstream", "Upstream", "upstream.go", 1, 5))
	target := mustInsertSymbol(t, db, symFixture("pkg.Target", "Target", "target.go", 1, 5))
	downstream := mustInsertSymbol(t, db, symFixture("pkg.Downstream", "Downstream", "downstream.go", 1, 5))

	mustInsertEdges(t, db, "upstream.go", []storage.Edge{callEdge(upstream, target, "upstream.go", 1)})
	mustInsertEdges(t, db, "target.go", []storage.Edge{callEdge(target, downstream, "target.go", 1)})

	result, err := e.DataFlow("pkg.Target", 2)
	if err != nil {
		t.Fatalf("data flow: %v", err)
	}

	roles := map[string]FlowRole{}
	for _, n := range result.Nodes {
		roles[n.Symbol.QualifiedName] = n.Role
	}
	if roles["pkg.Target"] != RoleTarget {
		t.Errorf("expected target role for pkg.Target, got %s", roles["pkg.Target"])
	}
	if roles["pkg.Upstream"] != RoleUpstream {
		t.Errorf("expected upstream role for pkg.Upstream, got %s", roles["pkg.Upstream"])
	}
	if roles["pkg.Downstream"] != RoleDownstream {
		t.Errorf("expected downstream role for pkg.Downstream, got %s", roles["pkg.Downstream"])
	}
}

func TestDataFlowNodesSortedByFileThenName(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	target := mustInsertSymbol(t, db, symFixture("pkg.Target", "Target", "target.go", 1, 5))
	zUp := mustInsertSymbol(t, db, symFixture("pkg.ZUp", "ZUp", "a_upstream.go", 1, 5))

	mustInsertEdges(t, db, "a_upstream.go", []storage.Edge{callEdge(zUp, target, "a_upstream.go", 1)})

	result, err := e.DataFlow("pkg.Target", 2)
	if err != nil {
		t.Fatalf("data flow: %v", err)
	}
	if len(result.Nodes) < 2 {
		t.Fatalf("expected at least 2 nodes, got %d", len(result.Nodes))
	}
	if result.Nodes[0].Symbol.FilePath > result.Nodes[1].Symbol.FilePath {
		t.Errorf("expected nodes sorted by file path ascending, got %s then %s",
			result.Nodes[0].Symbol.FilePath, result.Nodes[1].Symbol.FilePath)
	}
}

func TestDataFlowEdgesSortedByDepthThenLine(t *testing.T) {
	e, db, _ := setupTestEngine(t)
	target := mustInsertSymbol(t, db, symFixture("pkg.Target", "Target", "target.go", 1, 5))
	d1 := mustInsertSymbol(t, db, symFixture("pkg.D1", "D1", "d1.go", 1, 5))
	d2 := mustInsertSymbol(t, db, symFixture("pkg.D2", "D2", "d2.go", 1, 5))

	mustInsertEdges(t, db, "target.go", []storage.Edge{callEdge(target, d1, "target.go", 9)})
	mustInsertEdges(t, db, "d1.go", []storage.Edge{callEdge(d1, d2, "d1.go", 1)})

	result, err := e.DataFlow("pkg.Target", 3)
	if err != nil {
		t.Fatalf("data flow: %v", err)
	}
	for i := 1; i < len(result.Edges); i++ {
		if result.Edges[i-1].Depth > result.Edges[i].Depth {
			t.Errorf("edges not sorted by depth: %+v", result.Edges)
		}
	}
}
