package query

import (
	"sort"

	"bombe/internal/bombeerrors"
	"bombe/internal/guards"
	"bombe/internal/storage"
)

// ReferenceMode selects which edge set References walks.
type ReferenceMode string

const (
	ModeCallers      ReferenceMode = "callers"
	ModeCallees      ReferenceMode = "callees"
	ModeImplementors ReferenceMode = "implementors"
	ModeSupers       ReferenceMode = "supers"
)

// ReferenceHit is one node discovered while walking references.
type ReferenceHit struct {
	Symbol       storage.Symbol
	Depth        int
	LineNumber   int
	Relationship string // "CALLS", "IMPLEMENTS", or "EXTENDS_OR_IMPLEMENTS"
	Source       string // populated only when includeSource is set
}

type frontierEntry struct {
	id    int64
	depth int
}

// References walks outward from identifier in the chosen direction
// over CALLS (callers/callees) or over IMPLEMENTS/{EXTENDS,IMPLEMENTS}
// for implementors/supers, bounded by the adaptive visit and edge
// budgets and by maxDepth.
func (e *Engine) References(identifier string, mode ReferenceMode, maxDepth int, includeSource bool) ([]ReferenceHit, error) {
	seed, err := e.resolveTarget(identifier)
	if err != nil {
		return nil, err
	}
	depth := guards.ClampDepth(maxDepth, guards.MaxReferenceDepth)
	visitCap, err := e.adaptiveCap(guards.MaxGraphVisited)
	if err != nil {
		return nil, err
	}

	visited := map[int64]bool{seed.ID: true}
	var hits []ReferenceHit
	edgesWalked := 0

	queue := []frontierEntry{{id: seed.ID, depth: 0}}
	for len(queue) > 0 && len(visited) < visitCap {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= depth {
			continue
		}

		neighbors, err := e.referenceNeighbors(cur.id, mode)
		if err != nil {
			return nil, bombeerrors.Wrap(bombeerrors.Database, "walk references", err)
		}
		for _, n := range neighbors {
			edgesWalked++
			if edgesWalked > guards.MaxGraphEdges {
				break
			}
			if visited[n.neighborID] {
				continue
			}
			visited[n.neighborID] = true

			sym, err := e.db.GetSymbolByID(n.neighborID)
			if err != nil || sym == nil {
				continue
			}
			hit := ReferenceHit{Symbol: *sym, Depth: cur.depth + 1, LineNumber: n.lineNumber, Relationship: n.relationship}
			if includeSource {
				src, err := e.source.ReadSpan(sym.FilePath, sym.StartLine, sym.EndLine)
				if err == nil {
					hit.Source = src
				}
			}
			hits = append(hits, hit)
			if len(visited) < visitCap {
				queue = append(queue, frontierEntry{id: n.neighborID, depth: cur.depth + 1})
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Depth != hits[j].Depth {
			return hits[i].Depth < hits[j].Depth
		}
		return hits[i].Symbol.QualifiedName < hits[j].Symbol.QualifiedName
	})
	return hits, nil
}

type neighbor struct {
	neighborID   int64
	lineNumber   int
	relationship string
}

func (e *Engine) referenceNeighbors(id int64, mode ReferenceMode) ([]neighbor, error) {
	switch mode {
	case ModeCallers:
		edges, err := e.db.EdgesTo(id, storage.RelCalls)
		if err != nil {
			return nil, err
		}
		return toNeighbors(edges, true, "CALLS"), nil
	case ModeCallees:
		edges, err := e.db.EdgesFrom(id, storage.RelCalls)
		if err != nil {
			return nil, err
		}
		return toNeighbors(edges, false, "CALLS"), nil
	case ModeImplementors:
		edges, err := e.db.EdgesTo(id, storage.RelImplements)
		if err != nil {
			return nil, err
		}
		return toNeighbors(edges, true, "IMPLEMENTS"), nil
	case ModeSupers:
		extends, err := e.db.EdgesFrom(id, storage.RelExtends)
		if err != nil {
			return nil, err
		}
		implements, err := e.db.EdgesFrom(id, storage.RelImplements)
		if err != nil {
			return nil, err
		}
		all := append(toNeighbors(extends, false, "EXTENDS_OR_IMPLEMENTS"), toNeighbors(implements, false, "EXTENDS_OR_IMPLEMENTS")...)
		return all, nil
	default:
		return nil, nil
	}
}

func toNeighbors(edges []storage.Edge, useSource bool, relationship string) []neighbor {
	out := make([]neighbor, 0, len(edges))
	for _, e := range edges {
		id := e.TargetID
		if useSource {
			id = e.SourceID
		}
		out = append(out, neighbor{neighborID: id, lineNumber: e.LineNumber, relationship: relationship})
	}
	return out
}
