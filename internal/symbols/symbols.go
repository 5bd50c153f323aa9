// Package symbols extracts symbols, parameters, and import statements
// from source text using per-language line scanners. No language
// needs a full parse tree for the three scanned here (Java,
// TypeScript, Go); Python symbols arrive pre-extracted from an
// external process and are merged upstream without going through
// this package.
package symbols

import (
	"fmt"
	"regexp"
	"strings"

	"bombe/internal/storage"
)

// Import is a single raw import statement found in a file, not yet
// resolved to a repository path or external dependency.
type Import struct {
	Statement string
	Line      int
}

// Result is the shared output shape every per-language extractor
// produces.
type Result struct {
	Symbols []storage.Symbol
	Imports []Import
}

// Language identifiers accepted by Extract.
const (
	LangJava       = "java"
	LangTypeScript = "typescript"
	LangGo         = "go"
	LangPython     = "python"
)

// Extract dispatches to the per-language scanner for filePath's
// contents. Python is opaque: its symbols are merged in from an
// external process, so Extract returns an empty result without error.
func Extract(filePath, language, source string) (Result, error) {
	switch language {
	case LangJava:
		return extractJava(filePath, source), nil
	case LangTypeScript:
		return extractTypeScript(filePath, source), nil
	case LangGo:
		return extractGo(filePath, source), nil
	case LangPython:
		return Result{}, nil
	default:
		return Result{}, fmt.Errorf("symbols: unsupported language %q", language)
	}
}

// toModuleName strips filePath's extension and joins its path
// components with dots, per spec's TypeScript qualified-name rule.
func toModuleName(filePath string) string {
	p := filePath
	if idx := strings.LastIndex(p, "."); idx >= 0 {
		p = p[:idx]
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	return strings.Join(parts, ".")
}

// buildParameters splits raw on commas and applies per-language
// name/type splitting. Empty chunks are skipped; position is the
// surviving 0-based index.
func buildParameters(raw, language string) []storage.Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	chunks := splitTopLevelCommas(raw)
	params := make([]storage.Parameter, 0, len(chunks))
	pos := 0
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		var name, typ string
		switch language {
		case LangTypeScript:
			if idx := strings.Index(chunk, ":"); idx >= 0 {
				name = strings.TrimSpace(chunk[:idx])
				typ = strings.TrimSpace(chunk[idx+1:])
			} else {
				name = chunk
			}
		case LangGo:
			fields := strings.Fields(chunk)
			if len(fields) == 0 {
				continue
			}
			name = strings.TrimPrefix(fields[0], "...")
			typ = strings.TrimSpace(strings.Join(fields[1:], " "))
		default: // Java and others
			fields := strings.Fields(chunk)
			if len(fields) == 0 {
				continue
			}
			name = strings.TrimPrefix(fields[len(fields)-1], "...")
			typ = strings.TrimSpace(strings.Join(fields[:len(fields)-1], " "))
		}
		params = append(params, storage.Parameter{Name: name, Type: typ, Position: pos})
		pos++
	}
	return params
}

// splitTopLevelCommas splits on commas that are not nested inside
// angle brackets, parens, or generic braces, so parameter types like
// Map<String, Integer> survive intact.
func splitTopLevelCommas(raw string) []string {
	var out []string
	depth := 0
	last := 0
	for i, r := range raw {
		switch r {
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, raw[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, raw[last:])
	return out
}

func defaultVisibility(name string) string {
	if strings.HasPrefix(name, "_") {
		return storage.VisibilityPrivate
	}
	return storage.VisibilityPublic
}

var paramListRe = regexp.MustCompile(`\(([^)]*)\)`)

func extractParamList(signature string) string {
	m := paramListRe.FindStringSubmatch(signature)
	if m == nil {
		return ""
	}
	return m[1]
}
