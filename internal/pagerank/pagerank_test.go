package pagerank

import "testing"

func TestRunChainPrefersSink(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2, 1.0)
	g.AddEdge(2, 3, 1.0)

	scores := Run(g, nil)
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}

	byID := make(map[int64]float64, len(scores))
	for _, s := range scores {
		byID[s.SymbolID] = s.Value
	}
	if byID[3] <= byID[1] {
		t.Errorf("expected sink node 3 (%v) to outrank source node 1 (%v)", byID[3], byID[1])
	}
}

func TestRunScoresSumStable(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2, 1.0)
	g.AddEdge(2, 1, 1.0)

	scores := Run(g, nil)
	var total float64
	for _, s := range scores {
		total += s.Value
	}
	if total < 0.9 || total > 1.1 {
		t.Errorf("expected scores to sum near 1.0 for a closed 2-cycle, got %v", total)
	}
}

func TestRunPersonalizedFavorsSeedNeighborhood(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2, 1.0)
	g.AddEdge(3, 4, 1.0)

	scores := Run(g, []int64{1})
	byID := make(map[int64]float64, len(scores))
	for _, s := range scores {
		byID[s.SymbolID] = s.Value
	}
	if byID[2] <= byID[4] {
		t.Errorf("expected seed 1's neighbor 2 (%v) to outrank unrelated node 4 (%v)", byID[2], byID[4])
	}
}

func TestRunEmptyGraph(t *testing.T) {
	g := NewGraph()
	if scores := Run(g, nil); scores != nil {
		t.Errorf("expected nil scores for empty graph, got %+v", scores)
	}
}

func TestRunDanglingNodeRedistributes(t *testing.T) {
	g := NewGraph()
	g.AddEdge(1, 2, 1.0)
	g.AddNode(2) // 2 has no outgoing edges: dangling

	scores := Run(g, nil)
	var total float64
	for _, s := range scores {
		total += s.Value
	}
	if total < 0.9 || total > 1.1 {
		t.Errorf("dangling mass should be fully redistributed, total = %v", total)
	}
}
