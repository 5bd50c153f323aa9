package symbols

import (
	"regexp"
	"strings"

	"bombe/internal/storage"
)

var (
	javaPackageRe = regexp.MustCompile(`^\s*package\s+([\w.]+)\s*;`)
	javaImportRe  = regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.*]+)\s*;`)
	javaClassRe   = regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(?:static\s+)?(?:final\s+)?(?:abstract\s+)?(class|interface|enum)\s+(\w+)`)
	javaMethodRe  = regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(static\s+)?(?:final\s+|synchronized\s+|abstract\s+)*(?:<[^>]*>\s*)?[\w<>\[\],.\s]+?\s+(\w+)\s*\(([^)]*)\)\s*(?:throws\s+[\w.,\s]+)?\s*\{?`)
	javaFieldRe   = regexp.MustCompile(`^\s*(?:public|private|protected)?\s*(static\s+)?(?:final\s+)?[\w<>\[\],.]+\s+(\w+)\s*=.*;`)
)

type javaClassFrame struct {
	name      string
	qualified string
	startLine int
	depth     int
}

func extractJava(filePath, source string) Result {
	lines := strings.Split(source, "\n")
	pkg := ""
	var symbols []storage.Symbol
	var imports []Import
	var stack []javaClassFrame
	depth := 0

	for i, line := range lines {
		lineNo := i + 1

		if m := javaPackageRe.FindStringSubmatch(line); m != nil {
			pkg = m[1]
		}
		if m := javaImportRe.FindStringSubmatch(line); m != nil {
			imports = append(imports, Import{Statement: m[1], Line: lineNo})
		}

		if m := javaClassRe.FindStringSubmatch(line); m != nil {
			className := m[2]
			qualified := className
			if len(stack) > 0 {
				qualified = stack[len(stack)-1].qualified + "." + className
			} else if pkg != "" {
				qualified = pkg + "." + className
			}
			symbols = append(symbols, storage.Symbol{
				QualifiedName: qualified,
				Name:          className,
				Kind:          javaClassKind(m[1]),
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Visibility:    classVisibility(line),
			})
			stack = append(stack, javaClassFrame{name: className, qualified: qualified, startLine: lineNo, depth: depth})
		} else if m := javaMethodRe.FindStringSubmatch(line); m != nil && len(stack) > 0 && !isJavaKeyword(m[2]) {
			methodName := m[2]
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
				IsStatic:      m[1] != "",
				Visibility:    defaultVisibility(methodName),
				Parameters:    buildParameters(m[3], LangJava),
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
		_ = javaFieldRe
	}

	return Result{Symbols: symbols, Imports: imports}
}

func javaClassKind(keyword string) string {
	if keyword == "interface" {
		return storage.KindInterface
	}
	return storage.KindClass
}

func classVisibility(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "private") {
		return storage.VisibilityPrivate
	}
	if strings.HasPrefix(trimmed, "public") {
		return storage.VisibilityPublic
	}
	return storage.VisibilityPackage
}

var javaKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true, "new": true,
}

func isJavaKeyword(name string) bool {
	return javaKeywords[name]
}
