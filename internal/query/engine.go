// Package query implements the seven read-side operations the store
// and graph layers serve: search, references, blast-radius,
// change-impact, data-flow, structure, and context assembly.
package query

import (
	"bufio"
	"os"
	"strings"

	"bombe/internal/bombeerrors"
	"bombe/internal/guards"
	"bombe/internal/storage"
)

// SourceReader reads a file's [startLine, endLine] span (1-based,
// inclusive) from wherever the indexed source actually lives.
type SourceReader interface {
	ReadSpan(filePath string, startLine, endLine int) (string, error)
}

// FileSourceReader reads spans directly off the local filesystem,
// rooted at repoRoot.
type FileSourceReader struct {
	RepoRoot string
}

// ReadSpan implements SourceReader.
func (r FileSourceReader) ReadSpan(filePath string, startLine, endLine int) (string, error) {
	f, err := os.Open(joinRepoPath(r.RepoRoot, filePath))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		if line < startLine {
			continue
		}
		if line > endLine {
			break
		}
		b.WriteString(scanner.Text())
		b.WriteByte('\n')
	}
	return b.String(), scanner.Err()
}

func joinRepoPath(root, rel string) string {
	if root == "" {
		return rel
	}
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(rel, "/")
}

// Engine coordinates the store, source reader, and scoring toggles
// every query operation needs.
type Engine struct {
	db              *storage.DB
	source          SourceReader
	hybridSearch    bool
	semanticEnabled bool
}

// NewEngine builds an Engine over db, reading full source spans via
// source and applying the given scoring toggles.
func NewEngine(db *storage.DB, source SourceReader, hybridSearch, semanticEnabled bool) *Engine {
	return &Engine{db: db, source: source, hybridSearch: hybridSearch, semanticEnabled: semanticEnabled}
}

// resolveTarget resolves a symbol by exact qualified name, then name,
// tie-breaking by pagerank DESC, and fails with a typed Query error
// when nothing matches — the shared entry step every engine runs.
func (e *Engine) resolveTarget(identifier string) (*storage.Symbol, error) {
	identifier = guards.TruncateQuery(identifier)
	sym, err := e.db.ResolveSymbol(identifier)
	if err != nil {
		return nil, bombeerrors.Wrap(bombeerrors.Database, "resolve symbol", err)
	}
	if sym == nil {
		return nil, bombeerrors.NotFound(identifier)
	}
	return sym, nil
}

func (e *Engine) adaptiveCap(baseCap int) (int, error) {
	total, err := e.db.CountSymbols()
	if err != nil {
		return 0, bombeerrors.Wrap(bombeerrors.Database, "count symbols", err)
	}
	return guards.AdaptiveGraphCap(total, baseCap, nil), nil
}
