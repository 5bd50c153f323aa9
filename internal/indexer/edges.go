package indexer

import (
	"strings"

	"bombe/internal/callgraph"
	"bombe/internal/importresolve"
	"bombe/internal/pagerank"
	"bombe/internal/storage"
	"bombe/internal/symbols"
)

// buildCandidateSymbols converts a repository's full symbol table
// into the shape the call-graph builder resolves call-sites against.
func buildCandidateSymbols(all []storage.Symbol) []callgraph.CandidateSymbol {
	out := make([]callgraph.CandidateSymbol, len(all))
	for i, s := range all {
		out[i] = callgraph.CandidateSymbol{
			ID: s.ID, QualifiedName: s.QualifiedName, Name: s.Name,
			FilePath: s.FilePath, StartLine: s.StartLine, EndLine: s.EndLine, Kind: s.Kind,
		}
	}
	return out
}

// buildCallEdges runs the call-graph builder for one already-persisted
// file against the global candidate set, using the store as the id
// lookup so resolved targets get their real persisted id rather than
// the deterministic hash fallback.
func buildCallEdges(db *storage.DB, ex extraction, fileSymbols, candidates []callgraph.CandidateSymbol) []storage.Edge {
	return callgraph.BuildEdges(callgraph.Input{
		Source: string(ex.file.content), FilePath: ex.file.RelPath, Language: ex.file.Language,
		FileSymbols: fileSymbols, CandidateSymbols: candidates,
		Lookup: db.SymbolIDByQualifiedNameAndFile,
	})
}

// deriveHasMethodEdges links each method/constant symbol to the
// class/interface whose qualified name is its own with the trailing
// ".segment" removed, per the nesting convention spec.md §4.4 assigns
// every per-language extractor. This is a structural derivation, not
// a resolution strategy: no confidence below 1.0 applies.
func deriveHasMethodEdges(fileSymbols []storage.Symbol) []storage.Edge {
	byQName := make(map[string]storage.Symbol, len(fileSymbols))
	for _, s := range fileSymbols {
		byQName[s.QualifiedName] = s
	}

	var edges []storage.Edge
	for _, s := range fileSymbols {
		if s.Kind == storage.KindClass || s.Kind == storage.KindInterface {
			continue
		}
		idx := strings.LastIndexByte(s.QualifiedName, '.')
		if idx <= 0 {
			continue
		}
		parent, ok := byQName[s.QualifiedName[:idx]]
		if !ok || (parent.Kind != storage.KindClass && parent.Kind != storage.KindInterface) {
			continue
		}
		edges = append(edges, storage.Edge{
			SourceID: parent.ID, TargetID: s.ID,
			SourceType: storage.EntitySymbol, TargetType: storage.EntitySymbol,
			Relationship: storage.RelHasMethod, FilePath: s.FilePath, Confidence: 1.0,
		})
	}
	return edges
}

// resolveImports classifies every raw import in a file as a
// repository-internal IMPORTS edge (file-to-file, ids from the same
// deterministic hash the call-graph builder uses for paths lacking an
// integer id) or an external dependency row.
func resolveImports(sourceFile, language string, imports []symbols.Import, files *importresolve.FileSet, goModPrefix string) ([]storage.Edge, []storage.ExternalDependency) {
	var edges []storage.Edge
	var deps []storage.ExternalDependency
	sourceID := callgraph.HashSymbolID(sourceFile)

	for _, imp := range imports {
		res := importresolve.Resolve(language, sourceFile, imp.Statement, files, goModPrefix)
		if res.ResolvedPath == "" {
			deps = append(deps, storage.ExternalDependency{
				FilePath: sourceFile, ImportStatement: imp.Statement, ModuleName: res.ModuleName, LineNumber: imp.Line,
			})
			continue
		}
		if res.ResolvedPath == sourceFile {
			continue
		}
		edges = append(edges, storage.Edge{
			SourceID: sourceID, TargetID: callgraph.HashSymbolID(res.ResolvedPath),
			SourceType: storage.EntityFile, TargetType: storage.EntityFile,
			Relationship: storage.RelImports, FilePath: sourceFile, LineNumber: imp.Line, Confidence: 1.0,
		})
	}
	return edges, deps
}

// recomputePagerank rebuilds the PageRank graph from every eligible
// edge in the store and writes converged scores back onto symbols.
func recomputePagerank(db *storage.DB) error {
	edges, err := db.PageRankEligibleEdges()
	if err != nil {
		return err
	}
	symbolRows, err := db.AllSymbols()
	if err != nil {
		return err
	}

	g := pagerank.NewGraph()
	for _, s := range symbolRows {
		g.AddNode(s.ID)
	}
	for _, e := range edges {
		g.AddEdge(e.SourceID, e.TargetID, 1.0)
	}
	if g.NumNodes() == 0 {
		return nil
	}

	scores := pagerank.Run(g, nil)
	byID := make(map[int64]float64, len(scores))
	for _, sc := range scores {
		byID[sc.SymbolID] = sc.Value
	}
	return db.UpdatePagerankScores(byID)
}
