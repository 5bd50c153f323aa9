package symbols

import (
	"regexp"
	"strings"
	"unicode"

	"bombe/internal/storage"
)

var (
	goPackageRe       = regexp.MustCompile(`^\s*package\s+(\w+)`)
	goImportSingleRe  = regexp.MustCompile(`^\s*import\s+"([^"]+)"`)
	goImportBlockOpen = regexp.MustCompile(`^\s*import\s+\(`)
	goImportLineRe    = regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"`)
	goFuncRe          = regexp.MustCompile(`^\s*func\s+(?:\(([^)]*)\)\s*)?(\w+)\s*\(([^)]*)\)\s*([\w\[\]*.,\s{}()]*)\{?`)
	goConstRe         = regexp.MustCompile(`^\s*const\s+(\w+)\s*(?:[\w.\[\]]+)?\s*=`)
	goTypeRe          = regexp.MustCompile(`^\s*type\s+(\w+)\s+(struct|interface)\b`)
)

func extractGo(filePath, source string) Result {
	lines := strings.Split(source, "\n")
	pkg := ""
	var symbols []storage.Symbol
	var imports []Import
	inImportBlock := false

	for i, line := range lines {
		lineNo := i + 1

		if m := goPackageRe.FindStringSubmatch(line); m != nil && pkg == "" {
			pkg = m[1]
			continue
		}

		if inImportBlock {
			trimmed := strings.TrimSpace(line)
			if trimmed == ")" {
				inImportBlock = false
				continue
			}
			if m := goImportLineRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, Import{Statement: m[1], Line: lineNo})
			}
			continue
		}
		if goImportBlockOpen.MatchString(line) {
			inImportBlock = true
			continue
		}
		if m := goImportSingleRe.FindStringSubmatch(line); m != nil {
			imports = append(imports, Import{Statement: m[1], Line: lineNo})
			continue
		}

		if m := goTypeRe.FindStringSubmatch(line); m != nil {
			typeName := m[1]
			kind := storage.KindClass
			if m[2] == "interface" {
				kind = storage.KindInterface
			}
			symbols = append(symbols, storage.Symbol{
				QualifiedName: pkg + "." + typeName,
				Name:          typeName,
				Kind:          kind,
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Visibility:    goVisibility(typeName),
			})
			continue
		}

		if m := goConstRe.FindStringSubmatch(line); m != nil {
			constName := m[1]
			symbols = append(symbols, storage.Symbol{
				QualifiedName: pkg + "." + constName,
				Name:          constName,
				Kind:          storage.KindConstant,
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Visibility:    goVisibility(constName),
			})
			continue
		}

		if m := goFuncRe.FindStringSubmatch(line); m != nil {
			receiver := strings.TrimSpace(m[1])
			funcName := m[2]
			var qualified, kind string
			if receiver != "" {
				recvType := receiverType(receiver)
				qualified = pkg + "." + recvType + "." + funcName
				kind = storage.KindMethod
			} else {
				qualified = pkg + "." + funcName
				kind = storage.KindFunction
			}
			symbols = append(symbols, storage.Symbol{
				QualifiedName: qualified,
				Name:          funcName,
				Kind:          kind,
				FilePath:      filePath,
				StartLine:     lineNo,
				EndLine:       lineNo,
				Signature:     strings.TrimSpace(line),
				ReturnType:    strings.TrimSpace(m[4]),
				Visibility:    goVisibility(funcName),
				Parameters:    buildParameters(m[3], LangGo),
			})
		}
	}

	return Result{Symbols: symbols, Imports: imports}
}

// receiverType extracts the receiver's type name from `func (recv *T)`
// style receiver text, stripping a leading pointer "*".
func receiverType(receiver string) string {
	fields := strings.Fields(receiver)
	if len(fields) == 0 {
		return ""
	}
	t := fields[len(fields)-1]
	return strings.TrimPrefix(t, "*")
}

func goVisibility(name string) string {
	if name == "" {
		return storage.VisibilityPrivate
	}
	r := []rune(name)[0]
	if unicode.IsUpper(r) {
		return storage.VisibilityPublic
	}
	return storage.VisibilityPrivate
}
