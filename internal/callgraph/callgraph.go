// Package callgraph extracts call-site expressions from source text
// and resolves each to a target symbol using the cascading strategies
// described by the indexing pipeline, then emits scored CALLS edges.
package callgraph

import (
	"hash/crc32"
	"regexp"
	"sort"
	"strings"

	"bombe/internal/storage"
)

// CandidateSymbol is the minimal shape the resolver needs for a
// symbol defined anywhere in the repository (not just the file being
// processed).
type CandidateSymbol struct {
	ID            int64
	QualifiedName string
	Name          string
	FilePath      string
	StartLine     int
	EndLine       int
	Kind          string
}

// IDLookup resolves a (qualified_name, file_path) pair to a persisted
// symbol id; nil means "fall back to deterministic hashing".
type IDLookup func(qualifiedName, filePath string) (int64, bool)

// ReceiverHints maps (line, receiver_name) to the set of type names a
// semantic hints sidecar believes the receiver could be.
type ReceiverHints map[HintKey]map[string]bool

// HintKey identifies a single call-site receiver for hint lookup.
type HintKey struct {
	Line     int
	Receiver string
}

// Input bundles everything BuildEdges needs for one file.
type Input struct {
	Source            string
	FilePath          string
	Language          string
	FileSymbols       []CandidateSymbol
	CandidateSymbols  []CandidateSymbol
	Lookup            IDLookup
	ReceiverTypeHints ReceiverHints
}

var callSiteRe = regexp.MustCompile(`(?:(\w+)\s*\.\s*)?(\w+)\s*\(`)

var skipNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true,
	"return": true, "new": true, "function": true, "class": true, "catch": true,
}

var definitionPrefixes = []string{"def", "function", "func", "class", "new"}

type callSite struct {
	line     int
	receiver string
	name     string
}

func extractCallSites(source string) []callSite {
	lines := strings.Split(source, "\n")
	var sites []callSite
	for i, line := range lines {
		for _, m := range callSiteRe.FindAllStringSubmatchIndex(line, -1) {
			receiver := ""
			if m[2] >= 0 {
				receiver = line[m[2]:m[3]]
			}
			name := line[m[4]:m[5]]
			if skipNames[name] {
				continue
			}
			prefix := strings.TrimSpace(line[:m[0]])
			if hasDefinitionSuffix(prefix) {
				continue
			}
			sites = append(sites, callSite{line: i + 1, receiver: receiver, name: name})
		}
	}
	return sites
}

func hasDefinitionSuffix(prefix string) bool {
	for _, kw := range definitionPrefixes {
		if strings.HasSuffix(prefix, kw) {
			return true
		}
	}
	return false
}

// ImportHints is the parsed import-statement hint set for a file:
// full module names, their last path/dot segment, and an alias map.
type ImportHints struct {
	Modules []string
	Aliases map[string][]string
}

var (
	pyImportRe     = regexp.MustCompile(`^\s*import\s+([\w.]+)(?:\s+as\s+(\w+))?`)
	pyFromImportRe = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s+(\w+)(?:\s+as\s+(\w+))?`)
	javaImportRe2  = regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+)\s*;`)
	goImportRe2    = regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"`)
	tsImportRe2    = regexp.MustCompile(`^\s*import\s+(?:\{([^}]*)\}|(\w+))?.*?\sfrom\s+['"]([^'"]+)['"]`)
)

// ParseImportHints scans source for per-language import statements,
// building the module-hint set and alias map step 2 of resolution
// needs.
func ParseImportHints(source, language string) ImportHints {
	hints := ImportHints{Aliases: make(map[string][]string)}
	add := func(module string) {
		hints.Modules = append(hints.Modules, module, lastSegment(module))
	}

	for _, line := range strings.Split(source, "\n") {
		switch language {
		case "python":
			if m := pyFromImportRe.FindStringSubmatch(line); m != nil {
				add(m[1] + "." + m[2])
				if m[3] != "" {
					hints.Aliases[m[3]] = append(hints.Aliases[m[3]], m[2])
				}
			} else if m := pyImportRe.FindStringSubmatch(line); m != nil {
				add(m[1])
				if m[2] != "" {
					hints.Aliases[m[2]] = append(hints.Aliases[m[2]], lastSegment(m[1]))
				}
			}
		case "java":
			if m := javaImportRe2.FindStringSubmatch(line); m != nil {
				add(m[1])
			}
		case "go":
			if m := goImportRe2.FindStringSubmatch(line); m != nil {
				add(m[1])
			}
		case "typescript":
			if m := tsImportRe2.FindStringSubmatch(line); m != nil {
				add(m[3])
				if m[2] != "" {
					hints.Aliases[m[2]] = append(hints.Aliases[m[2]], lastSegment(m[3]))
				}
				for _, name := range strings.Split(m[1], ",") {
					name = strings.TrimSpace(name)
					if name != "" {
						hints.Aliases[name] = append(hints.Aliases[name], lastSegment(m[3]))
					}
				}
			}
		}
	}
	return hints
}

func lastSegment(module string) string {
	module = strings.ReplaceAll(module, "\\", "/")
	if idx := strings.LastIndexAny(module, "./"); idx >= 0 {
		return module[idx+1:]
	}
	return module
}

var assignmentRes = []*regexp.Regexp{
	regexp.MustCompile(`(\w+)\s*=\s*(\w+)\s*\(`),                // x = Type(...)
	regexp.MustCompile(`\b\w[\w.<>\[\]]*\s+(\w+)\s*=\s*new\s+(\w+)\s*\(`), // Type x = new C(...)
	regexp.MustCompile(`const\s+(\w+)\s*:\s*\w+\s*=\s*new\s+(\w+)\s*\(`), // const x: T = new C(...)
	regexp.MustCompile(`(\w+)\s*:=\s*&(\w+)\{`),                 // x := &T{...}
}

// lexicalHints scans up to 60 lines above callLine for assignment
// patterns that associate a variable name with a constructed type.
func lexicalHints(lines []string, callLine int, receiver string) map[string]bool {
	hints := make(map[string]bool)
	start := callLine - 60
	if start < 0 {
		start = 0
	}
	for i := start; i < callLine-1 && i < len(lines); i++ {
		for _, re := range assignmentRes {
			if m := re.FindStringSubmatch(lines[i]); m != nil && m[1] == receiver {
				hints[m[2]] = true
			}
		}
	}
	return hints
}

// findCaller returns the smallest-span symbol in fileSymbols whose
// [StartLine, EndLine] contains line, or nil if none contains it.
func findCaller(fileSymbols []CandidateSymbol, line int) *CandidateSymbol {
	var best *CandidateSymbol
	bestSpan := -1
	for i := range fileSymbols {
		s := &fileSymbols[i]
		if line < s.StartLine || line > s.EndLine {
			continue
		}
		span := s.EndLine - s.StartLine
		if best == nil || span < bestSpan {
			best = s
			bestSpan = span
		}
	}
	return best
}

const (
	selfReceiver = ""
)

var selfLikeReceivers = map[string]bool{"": true, "self": true, "cls": true, "this": true}

func classPrefix(qualifiedName string) string {
	idx := strings.LastIndex(qualifiedName, ".")
	if idx < 0 {
		return ""
	}
	return qualifiedName[:idx]
}

func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range regexp.MustCompile(`[.:/]+`).Split(s, -1) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out[part] = true
		}
	}
	return out
}

// resolveTarget runs the cascading strategies a-h and returns the
// matched candidates plus the edge confidence of the strategy that
// fired, or nil and 0 if nothing matched.
func resolveTarget(site callSite, caller *CandidateSymbol, candidates []CandidateSymbol, hints ImportHints,
	lexical map[string]bool, receiverHints map[string]bool, filePath string) ([]CandidateSymbol, float64) {

	byName := filterByName(candidates, site.name)
	if len(byName) == 0 {
		return nil, 0
	}

	// a: class-scoped methods
	if caller != nil && caller.Kind == storage.KindMethod && selfLikeReceivers[site.receiver] {
		prefix := classPrefix(caller.QualifiedName)
		matches := filterFunc(byName, func(c CandidateSymbol) bool { return classPrefix(c.QualifiedName) == prefix })
		if len(matches) > 0 {
			return matches, confidenceFor(matches, 1.0, 0.78)
		}
	}

	// b: combined type hints (lexical-window hints + semantic receiver-type
	// hints from the sidecar); no separate explicit receiver-type hint is added
	combined := make(map[string]bool)
	for k := range lexical {
		combined[k] = true
	}
	for k := range receiverHints {
		combined[k] = true
	}
	if len(combined) > 0 {
		var matches []CandidateSymbol
		for _, c := range byName {
			owner := classPrefix(c.QualifiedName)
			ownerTokens := tokenize(owner)
			for hint := range combined {
				if ownerTokens[strings.ToLower(hint)] {
					matches = append(matches, c)
					break
				}
			}
		}
		if len(matches) > 0 {
			return matches, confidenceFor(matches, 1.0, 0.84)
		}
	}

	// c: alias-derived type hints on receiver
	if site.receiver != "" {
		if aliasTargets, ok := hints.Aliases[site.receiver]; ok {
			var matches []CandidateSymbol
			for _, c := range byName {
				owner := classPrefix(c.QualifiedName)
				for _, t := range aliasTargets {
					if strings.EqualFold(owner, t) || strings.HasSuffix(owner, "."+t) {
						matches = append(matches, c)
						break
					}
				}
			}
			if len(matches) > 0 {
				return matches, confidenceFor(matches, 1.0, 0.83)
			}
		}
	}

	// d: direct receiver-name equality with method owner
	if site.receiver != "" && !selfLikeReceivers[site.receiver] {
		matches := filterFunc(byName, func(c CandidateSymbol) bool {
			owner := classPrefix(c.QualifiedName)
			return strings.EqualFold(owner, site.receiver) || strings.HasSuffix(strings.ToLower(owner), strings.ToLower(site.receiver))
		})
		if len(matches) > 0 {
			return matches, confidenceFor(matches, 1.0, 0.79)
		}

		// e: receiver name appears inside qualified_name (".receiver.")
		needle := "." + strings.ToLower(site.receiver) + "."
		matches = filterFunc(byName, func(c CandidateSymbol) bool {
			return strings.Contains(strings.ToLower(c.QualifiedName), needle)
		})
		if len(matches) > 0 {
			return matches, confidenceFor(matches, 1.0, 0.75)
		}
	}

	// f: same file as caller
	matches := filterFunc(byName, func(c CandidateSymbol) bool { return c.FilePath == filePath })
	if len(matches) > 0 {
		return matches, confidenceFor(matches, 1.0, 0.80)
	}

	// g: import-scoped
	moduleSet := make(map[string]bool, len(hints.Modules))
	for _, m := range hints.Modules {
		moduleSet[strings.ToLower(m)] = true
	}
	if len(moduleSet) > 0 {
		matches = filterFunc(byName, func(c CandidateSymbol) bool {
			return moduleSet[strings.ToLower(lastSegment(classPrefix(c.QualifiedName)))] || moduleSet[strings.ToLower(c.FilePath)]
		})
		if len(matches) > 0 {
			return matches, confidenceFor(matches, 1.0, 0.70)
		}
	}

	// h: fallback, all name-matched candidates
	return byName, confidenceFor(byName, 1.0, 0.50)
}

func confidenceFor(matches []CandidateSymbol, single, multi float64) float64 {
	if len(matches) == 1 {
		return single
	}
	return multi
}

func filterByName(candidates []CandidateSymbol, name string) []CandidateSymbol {
	return filterFunc(candidates, func(c CandidateSymbol) bool { return c.Name == name })
}

func filterFunc(candidates []CandidateSymbol, pred func(CandidateSymbol) bool) []CandidateSymbol {
	var out []CandidateSymbol
	for _, c := range candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// HashSymbolID deterministically derives a synthetic id from a
// qualified name: CRC-32/IEEE of its UTF-8 bytes, masked with
// 0x7FFF_FFFF, used only when no (qualified_name, file_path) → id
// lookup is supplied.
func HashSymbolID(qualifiedName string) int64 {
	return int64(crc32.ChecksumIEEE([]byte(qualifiedName))) & 0x7FFFFFFF
}

// BuildEdges runs the full pipeline (call-site extraction, import
// hints, caller lookup, cascading resolution) and returns deduplicated
// CALLS edges sorted by (line_number, source_id, target_id).
func BuildEdges(in Input) []storage.Edge {
	sites := extractCallSites(in.Source)
	hints := ParseImportHints(in.Source, in.Language)
	lines := strings.Split(in.Source, "\n")

	type key struct {
		source, target int64
		line           int
	}
	seen := make(map[key]bool)
	var edges []storage.Edge

	for _, site := range sites {
		caller := findCaller(in.FileSymbols, site.line)
		if caller == nil {
			continue
		}

		lexical := lexicalHints(lines, site.line, site.receiver)
		receiverHints := in.ReceiverTypeHints[HintKey{Line: site.line, Receiver: site.receiver}]

		matches, confidence := resolveTarget(site, caller, in.CandidateSymbols, hints, lexical, receiverHints, in.FilePath)
		if len(matches) == 0 {
			continue
		}

		sourceID := resolveID(caller.QualifiedName, caller.FilePath, in.Lookup)
		if sourceID == 0 {
			continue
		}

		for _, target := range matches {
			targetID := resolveID(target.QualifiedName, target.FilePath, in.Lookup)
			if targetID == 0 {
				continue
			}
			k := key{source: sourceID, target: targetID, line: site.line}
			if seen[k] {
				continue
			}
			seen[k] = true
			edges = append(edges, storage.Edge{
				SourceID:     sourceID,
				TargetID:     targetID,
				SourceType:   storage.EntitySymbol,
				TargetType:   storage.EntitySymbol,
				Relationship: storage.RelCalls,
				FilePath:     in.FilePath,
				LineNumber:   site.line,
				Confidence:   confidence,
			})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].LineNumber != edges[j].LineNumber {
			return edges[i].LineNumber < edges[j].LineNumber
		}
		if edges[i].SourceID != edges[j].SourceID {
			return edges[i].SourceID < edges[j].SourceID
		}
		return edges[i].TargetID < edges[j].TargetID
	})
	return edges
}

func resolveID(qualifiedName, filePath string, lookup IDLookup) int64 {
	if lookup != nil {
		if id, ok := lookup(qualifiedName, filePath); ok {
			return id
		}
		return 0
	}
	return HashSymbolID(qualifiedName)
}
