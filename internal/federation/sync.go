package federation

import (
	"path/filepath"
	"strings"

	"bombe/internal/guards"
	"bombe/internal/paths"
	"bombe/internal/storage"
)

// languageExtensions maps file extensions to the language tag used by
// ResolveExternalImport's routing rule. Unlisted extensions fall back
// to prefix matching.
var languageExtensions = map[string]string{
	".ts":  "typescript",
	".tsx": "typescript",
}

func languageForFile(path string) string {
	if lang, ok := languageExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return ""
}

// PostIndexCrossRepoSync mirrors repoRoot's exported symbols into the
// catalog and rebuilds its cross-repo edges. It is the only writer of
// cross_repo_edges for a given repo_id; callers must not run it
// concurrently for the same repo, since the delete-then-rebuild is not
// wrapped in a single transaction across the two catalog calls.
func PostIndexCrossRepoSync(repoRoot, dbPath string, db *storage.DB, catalog *Catalog) error {
	repoID := paths.RepoID(repoRoot)

	if err := catalog.RegisterShard(repoID, repoRoot, dbPath); err != nil {
		return err
	}

	symbols, err := db.ExportableSymbols(guards.MaxExportedSymbolsRefresh)
	if err != nil {
		return err
	}
	exported := make([]ExportedSymbol, 0, len(symbols))
	for _, s := range symbols {
		exported = append(exported, ExportedSymbol{
			RepoID:        repoID,
			QualifiedName: s.QualifiedName,
			Name:          s.Name,
			Kind:          s.Kind,
			FilePath:      s.FilePath,
			Visibility:    s.Visibility,
			Pagerank:      s.PagerankScore,
		})
	}
	if err := catalog.UpsertExportedSymbols(repoID, exported); err != nil {
		return err
	}
	if err := catalog.UpdateShardStats(repoID, len(exported)); err != nil {
		return err
	}

	if err := catalog.DeleteCrossRepoEdgesForRepo(repoID); err != nil {
		return err
	}

	deps, err := db.AllExternalDeps()
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	var edges []CrossRepoEdge
	for _, dep := range deps {
		language := languageForFile(dep.FilePath)
		candidates, err := catalog.ResolveExternalImport(dep.ModuleName, language, 20)
		if err != nil {
			return err
		}
		for _, cand := range candidates {
			if cand.RepoID == repoID {
				continue
			}
			edge := CrossRepoEdge{
				SourceRepoID:        repoID,
				SourceQualifiedName: dep.ModuleName,
				SourceFilePath:      dep.FilePath,
				TargetRepoID:        cand.RepoID,
				TargetQualifiedName: cand.QualifiedName,
				TargetFilePath:      cand.FilePath,
				Relationship:        RelationshipImports,
				Confidence:          0.8,
				Provenance:          ProvenanceImport,
			}
			key := edge.SourceRepoID + "\x00" + edge.SourceQualifiedName + "\x00" + edge.SourceFilePath + "\x00" +
				edge.TargetRepoID + "\x00" + edge.TargetQualifiedName + "\x00" + edge.TargetFilePath + "\x00" + edge.Relationship
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, edge)
		}
	}

	return catalog.UpsertCrossRepoEdges(edges)
}
