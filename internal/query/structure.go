package query

import (
	"fmt"
	"sort"

	"bombe/internal/bombeerrors"
	"bombe/internal/guards"
	"bombe/internal/storage"
	"bombe/internal/tokenizer"

	"gopkg.in/yaml.v3"
)

// StructureLine is one rendered line of a structure listing.
type StructureLine struct {
	FilePath string
	Text     string
	IsTop    bool // among the first 10 symbols of its file by pagerank
}

// StructureFile groups a file's symbols for YAML rendering.
type StructureFile struct {
	Path    string   `yaml:"path"`
	Symbols []string `yaml:"symbols"`
}

// StructureResult is the directory listing produced by Structure.
type StructureResult struct {
	Lines       []StructureLine
	Files       []StructureFile
	TokensUsed  int
	Truncated   bool
}

// Structure lists every symbol under a directory prefix, grouped by
// file and ordered within each file by pagerank DESC (marking the
// first 10 per file as [TOP]), rendering line by line until the
// cumulative token estimate would exceed budget.
func (e *Engine) Structure(directoryPrefix string, tokenBudget int) (*StructureResult, error) {
	budget := guards.ClampInt(tokenBudget, guards.MinContextTokenBudget, guards.MaxContextTokenBudget)

	symbols, err := e.db.SymbolsUnderDirectory(directoryPrefix)
	if err != nil {
		return nil, bombeerrors.Wrap(bombeerrors.Database, "list directory symbols", err)
	}

	byFile := map[string][]storage.Symbol{}
	var filePaths []string
	for _, s := range symbols {
		if _, ok := byFile[s.FilePath]; !ok {
			filePaths = append(filePaths, s.FilePath)
		}
		byFile[s.FilePath] = append(byFile[s.FilePath], s)
	}
	sort.Strings(filePaths)

	result := &StructureResult{}
	tokensUsed := 0

outer:
	for _, path := range filePaths {
		fileSymbols := byFile[path]
		sort.Slice(fileSymbols, func(i, j int) bool { return fileSymbols[i].PagerankScore > fileSymbols[j].PagerankScore })

		var names []string
		for i, s := range fileSymbols {
			isTop := i < 10
			marker := ""
			if isTop {
				marker = "[TOP] "
			}
			line := fmt.Sprintf("%s%s (%s) %s:%d", marker, s.QualifiedName, s.Kind, s.FilePath, s.StartLine)
			cost := tokenizer.EstimateTokens(line)
			if tokensUsed+cost > budget {
				result.Truncated = true
				break outer
			}
			tokensUsed += cost
			result.Lines = append(result.Lines, StructureLine{FilePath: path, Text: line, IsTop: isTop})
			names = append(names, s.QualifiedName)
		}
		result.Files = append(result.Files, StructureFile{Path: path, Symbols: names})
	}

	result.TokensUsed = tokensUsed
	return result, nil
}

// RenderYAML marshals a StructureResult's file grouping as YAML, an
// alternate rendering mode alongside the default line-by-line text.
func (r *StructureResult) RenderYAML() (string, error) {
	out, err := yaml.Marshal(r.Files)
	if err != nil {
		return "", bombeerrors.Wrap(bombeerrors.Query, "render structure as yaml", err)
	}
	return string(out), nil
}
