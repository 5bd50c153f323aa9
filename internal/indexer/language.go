package indexer

import "strings"

// languageByExtension maps a source extension to the language
// identifier the symbol extractor and import resolver key on.
var languageByExtension = map[string]string{
	".go":   "go",
	".java": "java",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "typescript",
	".jsx":  "typescript",
	".py":   "python",
}

// languageForPath returns the language for path's extension, or ""
// for an extension the engine doesn't index.
func languageForPath(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return ""
	}
	return languageByExtension[strings.ToLower(path[dot:])]
}
