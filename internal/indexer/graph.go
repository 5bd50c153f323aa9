package indexer

import (
	"bombe/internal/bombeerrors"
	"bombe/internal/importresolve"
	"bombe/internal/storage"
)

// rebuildGraph rebuilds edges and external dependencies for every
// freshly indexed file. Candidate symbols and the repository file set
// are queried once, after every changed file's symbols are already
// persisted, since the call graph and import resolver both need the
// full repository picture rather than a single file's.
func rebuildGraph(db *storage.DB, discovered []discoveredFile, indexed []extraction, goModPrefix string) error {
	if len(indexed) == 0 {
		return nil
	}

	allSymbols, err := db.AllSymbols()
	if err != nil {
		return err
	}
	candidates := buildCandidateSymbols(allSymbols)

	var allPaths []string
	for _, f := range discovered {
		allPaths = append(allPaths, f.RelPath)
	}
	fileSet := importresolve.NewFileSet(allPaths)

	for _, ex := range indexed {
		fileSymbols := symbolsForFile(allSymbols, ex.file.RelPath)
		fileCandidates := buildCandidateSymbols(fileSymbols)

		edges := buildCallEdges(db, ex, fileCandidates, candidates)
		edges = append(edges, deriveHasMethodEdges(fileSymbols)...)

		importEdges, deps := resolveImports(ex.file.RelPath, ex.file.Language, ex.result.Imports, fileSet, goModPrefix)
		edges = append(edges, importEdges...)

		if err := db.ReplaceFileEdges(ex.file.RelPath, edges); err != nil {
			return bombeerrors.New(bombeerrors.Database, "replace file edges", err).WithDetails(ex.file.RelPath)
		}
		if err := db.ReplaceExternalDeps(ex.file.RelPath, deps); err != nil {
			return bombeerrors.New(bombeerrors.Database, "replace external deps", err).WithDetails(ex.file.RelPath)
		}
	}
	return nil
}

func symbolsForFile(all []storage.Symbol, path string) []storage.Symbol {
	var out []storage.Symbol
	for _, s := range all {
		if s.FilePath == path {
			out = append(out, s)
		}
	}
	return out
}
