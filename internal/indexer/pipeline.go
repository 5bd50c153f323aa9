// Package indexer walks a repository, extracts symbols and call
// edges per file, resolves imports, and recomputes PageRank, tying
// together the extraction, call-graph, import-resolution, and
// scoring packages into the single pipeline the "index" command
// drives. It owns no algorithm of its own: per-file extraction lives
// in internal/symbols, call-site resolution in internal/callgraph,
// import resolution in internal/importresolve, and ranking in
// internal/pagerank — this package sequences them against the store
// and records progress.
package indexer

import (
	"path/filepath"
	"time"

	"bombe/internal/bombeerrors"
	"bombe/internal/ignore"
	"bombe/internal/importresolve"
	"bombe/internal/logging"
	"bombe/internal/storage"
)

// Report summarizes the outcome of one Run.
type Report struct {
	FilesScanned int
	FilesIndexed int
	FilesSkipped int
	FilesDeleted int
	Errors       int
	Duration     time.Duration
}

// Options configures a Run.
type Options struct {
	// Force reindexes every discovered file regardless of content_hash.
	Force bool
	// Workers sizes the extraction worker pool; <=0 means 1.
	Workers int
}

// Run walks repoRoot, (re)indexes every changed file, rebuilds call
// and import edges, recomputes PageRank over the whole graph, and
// bumps the cache epoch. A single file's extraction failure is
// recorded to index_diagnostics and skipped; it never aborts the run.
func Run(repoRoot string, db *storage.DB, logger *logging.Logger, opts Options) (*Report, error) {
	start := time.Now()
	report := &Report{}

	lock, err := AcquireLock(filepath.Join(repoRoot, ".bombe"))
	if err != nil {
		return nil, bombeerrors.New(bombeerrors.Database, "acquire index lock", err)
	}
	defer lock.Release()

	matcher, err := ignore.Load(repoRoot)
	if err != nil {
		return nil, bombeerrors.New(bombeerrors.IO, "load ignore rules", err)
	}
	discovered, err := walkRepo(repoRoot, matcher)
	if err != nil {
		return nil, bombeerrors.New(bombeerrors.IO, "walk repository", err)
	}
	report.FilesScanned = len(discovered)

	goModPrefix, _ := importresolve.ReadGoModulePrefix(repoRoot)

	deleted, err := pruneDeletedFiles(db, discovered)
	if err != nil {
		return nil, bombeerrors.New(bombeerrors.Database, "prune deleted files", err)
	}
	report.FilesDeleted = deleted

	pending := readAndHash(discovered, db)
	changed, skipped := selectChangedFiles(db, pending, opts.Force)
	report.FilesSkipped = skipped

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	extractions := extractAll(changed, workers)
	indexedFiles := make([]extraction, 0, len(extractions))
	for _, ex := range extractions {
		if ex.err != nil {
			db.RecordDiagnostic(ex.file.RelPath, ex.file.Language, string(bombeerrors.Parse), ex.err.Error())
			report.Errors++
			continue
		}
		if err := db.UpsertFile(storage.File{
			Path: ex.file.RelPath, Language: ex.file.Language,
			ContentHash: ex.file.hash, SizeBytes: int64(len(ex.file.content)), LastIndexedAt: nowRFC3339(),
		}); err != nil {
			return nil, bombeerrors.New(bombeerrors.Database, "upsert file", err)
		}
		if err := db.ReplaceFileSymbols(ex.file.RelPath, ex.result.Symbols); err != nil {
			db.RecordDiagnostic(ex.file.RelPath, ex.file.Language, string(bombeerrors.Index), err.Error())
			report.Errors++
			continue
		}
		indexedFiles = append(indexedFiles, ex)
		report.FilesIndexed++
	}

	if err := rebuildGraph(db, discovered, indexedFiles, goModPrefix); err != nil {
		return nil, bombeerrors.New(bombeerrors.Database, "rebuild graph", err)
	}

	if err := recomputePagerank(db); err != nil {
		return nil, bombeerrors.New(bombeerrors.Database, "recompute pagerank", err)
	}

	if _, err := db.BumpCacheEpoch(); err != nil {
		return nil, bombeerrors.New(bombeerrors.Database, "bump cache epoch", err)
	}

	report.Duration = time.Since(start)
	logger.Info("index run complete", logging.Fields{
		"files_scanned": report.FilesScanned, "files_indexed": report.FilesIndexed,
		"files_skipped": report.FilesSkipped, "files_deleted": report.FilesDeleted,
		"errors": report.Errors, "duration_ms": report.Duration.Milliseconds(),
	})
	return report, nil
}

// pruneDeletedFiles removes the graph for every known file that no
// longer appears in the current walk.
func pruneDeletedFiles(db *storage.DB, discovered []discoveredFile) (int, error) {
	known, err := db.AllFilePaths()
	if err != nil {
		return 0, err
	}
	present := make(map[string]bool, len(discovered))
	for _, f := range discovered {
		present[f.RelPath] = true
	}
	deleted := 0
	for _, path := range known {
		if present[path] {
			continue
		}
		if err := db.DeleteFileGraph(path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// selectChangedFiles compares each already-hashed file against the
// store's recorded content_hash, returning only the files that are new
// or modified. Skip-when-unchanged is a whole-file decision, never a
// partial re-parse, so it stays inside the boundary that excludes
// incremental re-parsing.
func selectChangedFiles(db *storage.DB, pending []pendingFile, force bool) (changed []pendingFile, skipped int) {
	for _, f := range pending {
		if force {
			changed = append(changed, f)
			continue
		}
		existing, err := db.GetFile(f.RelPath)
		if err != nil || existing == nil || existing.ContentHash != f.hash {
			changed = append(changed, f)
			continue
		}
		skipped++
	}
	return changed, skipped
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
