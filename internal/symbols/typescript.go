package symbols

import (
	"regexp"
	"strings"

	"bombe/internal/storage"
)

var (
	tsImportRe = regexp.MustCompile(`^\s*import\s+.*?\sfrom\s+['"]([^'"]+)['"]`)
	tsClassRe  = regexp.MustCompile(`^\s*export\s*(?:default\s+)?(?:abstract\s+)?(class|interface)\s+(\w+)`)
	tsMethodRe = regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(static\s+)?(async\s+)?(\w+)\s*\(([^)]*)\)\s*(?::\s*([\w<>\[\],.\s|]+))?\s*\{?`)
	tsFuncRe   = regexp.MustCompile(`^\s*export\s*(?:default\s+)?(async\s+)?function\s+(\w+)\s*\(([^)]*)\)\s*(?::\s*([\w<>\[\],.\s|]+))?`)
	tsConstRe  = regexp.MustCompile(`^\s*export\s+const\s+(\w+)\s*[:=]`)
)

type tsClassFrame struct {
	name      string
	qualified string
	depth     int
}

func extractTypeScript(filePath, source string) Result {
	module := toModuleName(filePath)
	lines := strings.Split(source, "\n")
	var symbols []storage.Symbol
	var imports []Import
	var stack []tsClassFrame
	depth := 0

	for i, line := range lines {
		lineNo := i + 1

		if m := tsImportRe.FindStringSubmatch(line); m != nil {
			imports = append(imports, Import{Statement: m[1], Line: lineNo})
		}

		switch {
		case tsClassRe.MatchString(line):
			m := tsClassRe.FindStringSubmatch(line)
			className := m[2]
			qualified := module + "." + className
			kind := storage.KindClass
			if m[1] == "interface" {
				kind = storage.KindInterface
			}
			symbols = append(symbols, storage.Symbol{
				QualifiedName: qualified,
				Name:          className,
				Kind:          kind,
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Visibility:    storage.VisibilityPublic,
			})
			stack = append(stack, tsClassFrame{name: className, qualified: qualified, depth: depth})

		case len(stack) > 0 && tsMethodRe.MatchString(line):
			m := tsMethodRe.FindStringSubmatch(line)
			methodName := m[3]
			if isTSKeyword(methodName) {
				break
			}
			owner := stack[len(stack)-1]
			qualified := owner.qualified + "." + methodName
			symbols = append(symbols, storage.Symbol{
				QualifiedName: qualified,
				Name:          methodName,
				Kind:          storage.KindMethod,
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Signature:     strings.TrimSpace(line),
				ReturnType:    strings.TrimSpace(m[5]),
				IsStatic:      m[1] != "",
				IsAsync:       m[2] != "",
				Visibility:    defaultVisibility(methodName),
				Parameters:    buildParameters(m[4], LangTypeScript),
			})

		case len(stack) == 0 && tsFuncRe.MatchString(line):
			m := tsFuncRe.FindStringSubmatch(line)
			funcName := m[2]
			qualified := module + "." + funcName
			symbols = append(symbols, storage.Symbol{
				QualifiedName: qualified,
				Name:          funcName,
				Kind:          storage.KindFunction,
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Signature:     strings.TrimSpace(line),
				ReturnType:    strings.TrimSpace(m[4]),
				IsAsync:       m[1] != "",
				Visibility:    defaultVisibility(funcName),
				Parameters:    buildParameters(m[3], LangTypeScript),
			})

		case len(stack) == 0 && tsConstRe.MatchString(line):
			m := tsConstRe.FindStringSubmatch(line)
			constName := m[1]
			symbols = append(symbols, storage.Symbol{
				QualifiedName: module + "." + constName,
				Name:          constName,
				Kind:          storage.KindConstant,
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Visibility:    defaultVisibility(constName),
			})
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		for len(stack) > 0 && depth <= stack[len(stack)-1].depth {
			top := stack[len(stack)-1]
			for j := range symbols {
				if symbols[j].QualifiedName == top.qualified && symbols[j].Kind != storage.KindMethod {
					symbols[j].EndLine = lineNo
				}
			}
			stack = stack[:len(stack)-1]
		}
	}

	return Result{Symbols: symbols, Imports: imports}
}

var tsKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true, "new": true, "constructor": false,
}

func isTSKeyword(name string) bool {
	return tsKeywords[name]
}
