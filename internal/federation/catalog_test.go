package federation

import (
	"io"
	"path/filepath"
	"testing"

	"bombe/internal/logging"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	logger := logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
	catalog, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"), logger)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func TestCatalogRegisterAndListShards(t *testing.T) {
	c := newTestCatalog(t)

	if err := c.RegisterShard("repo-a", "/repos/a", "/repos/a/.bombe/bombe.db"); err != nil {
		t.Fatalf("register shard: %v", err)
	}
	shards, err := c.ListShards()
	if err != nil {
		t.Fatalf("list shards: %v", err)
	}
	if len(shards) != 1 || shards[0].RepoID != "repo-a" || !shards[0].Enabled {
		t.Fatalf("unexpected shards: %+v", shards)
	}
}

func TestCatalogUnregisterShardRemovesDependents(t *testing.T) {
	c := newTestCatalog(t)
	mustRegister(t, c, "repo-a")
	if err := c.UpsertExportedSymbols("repo-a", []ExportedSymbol{{RepoID: "repo-a", QualifiedName: "pkg.Foo", Name: "Foo", Kind: "function", FilePath: "foo.go"}}); err != nil {
		t.Fatalf("upsert exported symbols: %v", err)
	}

	if err := c.UnregisterShard("repo-a"); err != nil {
		t.Fatalf("unregister shard: %v", err)
	}
	shards, _ := c.ListShards()
	if len(shards) != 0 {
		t.Errorf("expected no shards after unregister, got %d", len(shards))
	}
	hits, _ := c.SymbolsByName("Foo")
	if len(hits) != 0 {
		t.Errorf("expected exported symbols to be removed, got %+v", hits)
	}
}

func TestCatalogResolveExternalImportPrefixMatch(t *testing.T) {
	c := newTestCatalog(t)
	mustRegister(t, c, "repo-b")
	if err := c.UpsertExportedSymbols("repo-b", []ExportedSymbol{
		{RepoID: "repo-b", QualifiedName: "pkg.utils.Helper", Name: "Helper", Kind: "function", FilePath: "utils.go", Pagerank: 0.5},
	}); err != nil {
		t.Fatalf("upsert exported symbols: %v", err)
	}

	hits, err := c.ResolveExternalImport("pkg.utils", "go", 20)
	if err != nil {
		t.Fatalf("resolve external import: %v", err)
	}
	if len(hits) != 1 || hits[0].QualifiedName != "pkg.utils.Helper" {
		t.Fatalf("expected prefix match, got %+v", hits)
	}
}

func TestCatalogResolveExternalImportTypeScriptLastSegment(t *testing.T) {
	c := newTestCatalog(t)
	mustRegister(t, c, "repo-c")
	if err := c.UpsertExportedSymbols("repo-c", []ExportedSymbol{
		{RepoID: "repo-c", QualifiedName: "components/Button", Name: "Button", Kind: "function", FilePath: "Button.tsx"},
	}); err != nil {
		t.Fatalf("upsert exported symbols: %v", err)
	}

	hits, err := c.ResolveExternalImport("./components/Button", "typescript", 20)
	if err != nil {
		t.Fatalf("resolve external import: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "Button" {
		t.Fatalf("expected last-segment match, got %+v", hits)
	}
}

func TestCatalogCrossRepoEdgeUpsertAndDeleteForRepo(t *testing.T) {
	c := newTestCatalog(t)
	edge := CrossRepoEdge{
		SourceRepoID: "repo-a", SourceQualifiedName: "pkg.Caller", SourceFilePath: "a.go",
		TargetRepoID: "repo-b", TargetQualifiedName: "pkg.Callee", TargetFilePath: "b.go",
		Relationship: RelationshipImports, Confidence: 0.8, Provenance: ProvenanceImport,
	}
	if err := c.UpsertCrossRepoEdges([]CrossRepoEdge{edge}); err != nil {
		t.Fatalf("upsert cross repo edges: %v", err)
	}

	found, err := c.CrossRepoEdgesForSymbol("repo-a", "pkg.Caller")
	if err != nil {
		t.Fatalf("cross repo edges for symbol: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(found))
	}

	if err := c.DeleteCrossRepoEdgesForRepo("repo-a"); err != nil {
		t.Fatalf("delete cross repo edges: %v", err)
	}
	found, _ = c.CrossRepoEdgesForSymbol("repo-a", "pkg.Caller")
	if len(found) != 0 {
		t.Errorf("expected edges deleted, got %+v", found)
	}
}

func mustRegister(t *testing.T, c *Catalog, repoID string) {
	t.Helper()
	if err := c.RegisterShard(repoID, "/repos/"+repoID, "/repos/"+repoID+"/.bombe/bombe.db"); err != nil {
		t.Fatalf("register shard %s: %v", repoID, err)
	}
}
