// Package importresolve maps raw import statements captured by
// internal/symbols to file paths inside a repository, or classifies
// them as external dependencies when they resolve nowhere.
package importresolve

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// FileSet holds the repository-relative paths known to exist, indexed
// for quick resolution lookups.
type FileSet struct {
	paths map[string]bool
	all   []string
}

// NewFileSet builds a FileSet from a flat list of repository-relative
// paths (forward-slash separated).
func NewFileSet(paths []string) *FileSet {
	fs := &FileSet{paths: make(map[string]bool, len(paths)), all: append([]string(nil), paths...)}
	for _, p := range paths {
		fs.paths[p] = true
	}
	sort.Strings(fs.all)
	return fs
}

func (fs *FileSet) has(p string) bool { return fs.paths[p] }

// Resolution is the outcome of resolving a single import statement.
type Resolution struct {
	ResolvedPath string // non-empty when the import resolved to a known file
	ModuleName   string // the import's module identity, used for external_deps
}

// Resolve dispatches to the per-language resolver. sourceFile is the
// repository-relative path of the file containing the import;
// goModulePrefix is the module path read from go.mod (ignored for
// non-Go languages).
func Resolve(language, sourceFile, rawImport string, files *FileSet, goModulePrefix string) Resolution {
	switch language {
	case "python":
		return resolvePython(sourceFile, rawImport, files)
	case "java":
		return resolveJava(rawImport, files)
	case "typescript":
		return resolveTypeScript(sourceFile, rawImport, files)
	case "go":
		return resolveGo(sourceFile, rawImport, files, goModulePrefix)
	default:
		return Resolution{ModuleName: rawImport}
	}
}

func resolvePython(sourceFile, rawImport string, files *FileSet) Resolution {
	dir := path.Dir(sourceFile)
	var base string
	if strings.HasPrefix(rawImport, ".") {
		rel := strings.TrimLeft(rawImport, ".")
		up := len(rawImport) - len(rel)
		for i := 1; i < up; i++ {
			dir = path.Dir(dir)
		}
		base = path.Join(dir, strings.ReplaceAll(rel, ".", "/"))
	} else {
		base = strings.ReplaceAll(rawImport, ".", "/")
	}

	if files.has(base + ".py") {
		return Resolution{ResolvedPath: base + ".py", ModuleName: rawImport}
	}
	if files.has(path.Join(base, "__init__.py")) {
		return Resolution{ResolvedPath: path.Join(base, "__init__.py"), ModuleName: rawImport}
	}
	return Resolution{ModuleName: rawImport}
}

func resolveJava(rawImport string, files *FileSet) Resolution {
	if strings.HasSuffix(rawImport, ".*") {
		pkg := strings.TrimSuffix(rawImport, ".*")
		dir := strings.ReplaceAll(pkg, ".", "/")
		var candidates []string
		for _, p := range files.all {
			if path.Dir(p) == dir && strings.HasSuffix(p, ".java") {
				candidates = append(candidates, p)
			}
		}
		sort.Strings(candidates)
		if len(candidates) > 0 {
			return Resolution{ResolvedPath: candidates[0], ModuleName: rawImport}
		}
		return Resolution{ModuleName: rawImport}
	}

	candidate := strings.ReplaceAll(rawImport, ".", "/") + ".java"
	if files.has(candidate) {
		return Resolution{ResolvedPath: candidate, ModuleName: rawImport}
	}
	return Resolution{ModuleName: rawImport}
}

var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

func resolveTypeScript(sourceFile, rawImport string, files *FileSet) Resolution {
	if !strings.HasPrefix(rawImport, ".") {
		return Resolution{ModuleName: rawImport}
	}

	dir := path.Dir(sourceFile)
	base := path.Join(dir, rawImport)

	for _, ext := range tsExtensions {
		if files.has(base + ext) {
			return Resolution{ResolvedPath: base + ext, ModuleName: rawImport}
		}
	}
	for _, ext := range tsExtensions {
		candidate := path.Join(base, "index"+ext)
		if files.has(candidate) {
			return Resolution{ResolvedPath: candidate, ModuleName: rawImport}
		}
	}
	return Resolution{ModuleName: rawImport}
}

func resolveGo(sourceFile, rawImport string, files *FileSet, goModulePrefix string) Resolution {
	if strings.HasPrefix(rawImport, ".") {
		dir := path.Join(path.Dir(sourceFile), rawImport)
		for _, p := range files.all {
			if path.Dir(p) == dir && strings.HasSuffix(p, ".go") {
				return Resolution{ResolvedPath: p, ModuleName: rawImport}
			}
		}
		return Resolution{ModuleName: rawImport}
	}

	if goModulePrefix != "" && strings.HasPrefix(rawImport, goModulePrefix) {
		pkgDir := strings.TrimPrefix(rawImport, goModulePrefix)
		pkgDir = strings.TrimPrefix(pkgDir, "/")
		for _, p := range files.all {
			if path.Dir(p) == pkgDir && strings.HasSuffix(p, ".go") {
				return Resolution{ResolvedPath: p, ModuleName: rawImport}
			}
		}
	}
	return Resolution{ModuleName: rawImport}
}

var goModuleRe = regexp.MustCompile(`^\s*module\s+(\S+)`)

// ReadGoModulePrefix reads the module directive from go.mod at
// repoRoot, returning "" if the file is absent or has no module line.
func ReadGoModulePrefix(repoRoot string) (string, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, "go.mod"))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if m := goModuleRe.FindStringSubmatch(line); m != nil {
			return m[1], nil
		}
	}
	return "", nil
}
