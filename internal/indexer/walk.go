package indexer

import (
	"io/fs"
	"os"
	"path/filepath"

	"bombe/internal/ignore"
)

// discoveredFile is one source file found by a repository walk,
// already filtered by ignore rules and language support.
type discoveredFile struct {
	AbsPath  string
	RelPath  string
	Language string
}

// pendingFile is a discoveredFile whose content has already been read
// once, carried through the rest of the pipeline so no stage reads
// the same file twice.
type pendingFile struct {
	discoveredFile
	content []byte
	hash    string
}

// walkRepo returns every non-ignored, indexable source file under
// repoRoot, relative paths forward-slashed per the store's path
// convention.
func walkRepo(repoRoot string, matcher *ignore.Matcher) ([]discoveredFile, error) {
	var files []discoveredFile
	err := filepath.WalkDir(repoRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}
		if path == repoRoot {
			return nil
		}
		rel, err := filepath.Rel(repoRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.Match(rel, true) {
				return fs.SkipDir
			}
			return nil
		}
		if matcher.Match(rel, false) {
			return nil
		}
		lang := languageForPath(rel)
		if lang == "" {
			return nil
		}
		files = append(files, discoveredFile{AbsPath: path, RelPath: rel, Language: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
