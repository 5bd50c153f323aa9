package indexer

import (
	"os"
	"sync"

	"bombe/internal/bombeerrors"
	"bombe/internal/storage"
	"bombe/internal/symbols"
)

// extraction is one file's scan outcome.
type extraction struct {
	file   pendingFile
	result symbols.Result
	err    error
}

// readAndHash reads every discovered file once and computes its
// content hash, the input both change-detection and extraction need.
// A file that can no longer be read (removed mid-walk, permission
// change) is dropped with a diagnostic rather than failing the run.
func readAndHash(files []discoveredFile, db *storage.DB) []pendingFile {
	out := make([]pendingFile, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.AbsPath)
		if err != nil {
			db.RecordDiagnostic(f.RelPath, f.Language, string(bombeerrors.IO), err.Error())
			continue
		}
		out = append(out, pendingFile{discoveredFile: f, content: data, hash: storage.ContentHash(data)})
	}
	return out
}

// extractAll scans every pending file's already-read content across a
// bounded worker pool keyed by slice index, mirroring the teacher's
// job-runner channel/worker-pool shape at a much smaller scale (no
// queue persistence, no retries — a single indexing run is not a
// durable background job).
func extractAll(files []pendingFile, workers int) []extraction {
	type job struct {
		idx  int
		file pendingFile
	}
	jobs := make(chan job)
	results := make([]extraction, len(files))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result, err := symbols.Extract(j.file.RelPath, j.file.Language, string(j.file.content))
				results[j.idx] = extraction{file: j.file, result: result, err: err}
			}
		}()
	}

	for i, f := range files {
		jobs <- job{idx: i, file: f}
	}
	close(jobs)
	wg.Wait()

	return results
}
