package query

import (
	"sort"

	"bombe/internal/bombeerrors"
	"bombe/internal/guards"
	"bombe/internal/storage"
)

// FlowRole classifies a data-flow node relative to the queried target.
type FlowRole string

const (
	RoleTarget     FlowRole = "target"
	RoleUpstream   FlowRole = "upstream"
	RoleDownstream FlowRole = "downstream"
)

// FlowNode is one symbol reached during data-flow traversal.
type FlowNode struct {
	Symbol storage.Symbol
	Role   FlowRole
	Depth  int
}

// FlowEdge is one CALLS edge recorded during data-flow traversal.
type FlowEdge struct {
	FromID       int64
	ToID         int64
	Line         int
	Depth        int
	Relationship string
}

// DataFlowResult is the bidirectional CALLS traversal around a target.
type DataFlowResult struct {
	Nodes []FlowNode
	Edges []FlowEdge
}

// DataFlow walks CALLS edges both upstream (callers) and downstream
// (callees) of identifier, bounded by the adaptive visit cap and
// maxDepth in each direction.
func (e *Engine) DataFlow(identifier string, maxDepth int) (*DataFlowResult, error) {
	seed, err := e.resolveTarget(identifier)
	if err != nil {
		return nil, err
	}
	depth := guards.ClampDepth(maxDepth, guards.MaxFlowDepth)
	visitCap, err := e.adaptiveCap(guards.MaxGraphVisited)
	if err != nil {
		return nil, err
	}

	nodes := map[int64]FlowNode{seed.ID: {Symbol: *seed, Role: RoleTarget, Depth: 0}}
	var edges []FlowEdge

	if err := e.flowWalk(seed.ID, depth, visitCap, true, nodes, &edges); err != nil {
		return nil, err
	}
	if err := e.flowWalk(seed.ID, depth, visitCap, false, nodes, &edges); err != nil {
		return nil, err
	}

	nodeList := make([]FlowNode, 0, len(nodes))
	for _, n := range nodes {
		nodeList = append(nodeList, n)
	}
	sort.Slice(nodeList, func(i, j int) bool {
		if nodeList[i].Symbol.FilePath != nodeList[j].Symbol.FilePath {
			return nodeList[i].Symbol.FilePath < nodeList[j].Symbol.FilePath
		}
		return nodeList[i].Symbol.Name < nodeList[j].Symbol.Name
	})
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Depth != edges[j].Depth {
			return edges[i].Depth < edges[j].Depth
		}
		return edges[i].Line < edges[j].Line
	})

	return &DataFlowResult{Nodes: nodeList, Edges: edges}, nil
}

func (e *Engine) flowWalk(seedID int64, maxDepth, visitCap int, upstream bool, nodes map[int64]FlowNode, edges *[]FlowEdge) error {
	role := RoleDownstream
	if upstream {
		role = RoleUpstream
	}

	visited := map[int64]bool{seedID: true}
	queue := []frontierEntry{{id: seedID, depth: 0}}
	edgesWalked := 0

	for len(queue) > 0 && len(nodes) < visitCap {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}

		var callEdges []storage.Edge
		var err error
		if upstream {
			callEdges, err = e.db.EdgesTo(cur.id, storage.RelCalls)
		} else {
			callEdges, err = e.db.EdgesFrom(cur.id, storage.RelCalls)
		}
		if err != nil {
			return bombeerrors.Wrap(bombeerrors.Database, "walk data flow", err)
		}

		for _, ce := range callEdges {
			edgesWalked++
			if edgesWalked > guards.MaxGraphEdges {
				break
			}
			neighborID := ce.TargetID
			if upstream {
				neighborID = ce.SourceID
			}

			fromID, toID := cur.id, neighborID
			if upstream {
				fromID, toID = neighborID, cur.id
			}
			*edges = append(*edges, FlowEdge{FromID: fromID, ToID: toID, Line: ce.LineNumber, Depth: cur.depth + 1, Relationship: storage.RelCalls})

			if visited[neighborID] {
				continue
			}
			visited[neighborID] = true
			if _, exists := nodes[neighborID]; !exists {
				sym, err := e.db.GetSymbolByID(neighborID)
				if err != nil || sym == nil {
					continue
				}
				nodes[neighborID] = FlowNode{Symbol: *sym, Role: role, Depth: cur.depth + 1}
			}
			if len(nodes) < visitCap {
				queue = append(queue, frontierEntry{id: neighborID, depth: cur.depth + 1})
			}
		}
	}
	return nil
}
