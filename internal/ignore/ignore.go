// Package ignore implements the minimal .gitignore / .bombeignore
// glob matcher consulted by the ingestion stream before a file
// reaches the extractor.
package ignore

import (
	"bufio"
	"os"
	"path"
	"strings"
)

// Rule is a single ignore pattern.
type Rule struct {
	pattern   string
	dirOnly   bool
	anchored  bool // pattern contained a "/" before the trailing one
}

// Matcher holds the ordered rule set for a repository: .gitignore
// rules first, then .bombeignore, plus the implicit .git/.bombe
// exclusions.
type Matcher struct {
	rules []Rule
}

// implicitPatterns are always ignored regardless of ignore files.
var implicitPatterns = []string{".git/", ".bombe/"}

// Load reads .gitignore then .bombeignore from repoRoot, in that
// order, and returns a Matcher. Missing files are not an error.
func Load(repoRoot string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range implicitPatterns {
		m.rules = append(m.rules, parseLine(p))
	}
	for _, name := range []string{".gitignore", ".bombeignore"} {
		if err := m.loadFile(path.Join(repoRoot, name)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Matcher) loadFile(p string) error {
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.rules = append(m.rules, parseLine(line))
	}
	return scanner.Err()
}

func parseLine(line string) Rule {
	r := Rule{pattern: line}
	if strings.HasSuffix(r.pattern, "/") {
		r.dirOnly = true
		r.pattern = strings.TrimSuffix(r.pattern, "/")
	}
	if strings.Contains(r.pattern, "/") {
		r.anchored = true
		r.pattern = strings.TrimPrefix(r.pattern, "/")
	}
	return r
}

// Match reports whether relPath (forward-slashed, relative to repo
// root) should be ignored. isDir indicates whether relPath names a
// directory.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	ignored := false
	base := path.Base(relPath)
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			if dirPrefixMatch(relPath, r.pattern) {
				ignored = true
			}
			continue
		}
		var hit bool
		if r.anchored {
			hit, _ = path.Match(r.pattern, relPath)
		} else {
			hit, _ = path.Match(r.pattern, base)
			if !hit {
				hit, _ = path.Match(r.pattern, relPath)
			}
		}
		if hit {
			ignored = true
		}
	}
	return ignored
}

// dirPrefixMatch reports whether relPath is itself the directory a
// dirOnly rule names, or lies beneath it.
func dirPrefixMatch(relPath, pattern string) bool {
	if ok, _ := path.Match(pattern, relPath); ok {
		return true
	}
	return strings.HasPrefix(relPath, pattern+"/")
}
