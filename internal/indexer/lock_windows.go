//go:build windows

package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const lockFileName = "index.lock"

// Lock is a best-effort, PID-based lock on Windows; there is no
// atomic flock equivalent used here.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes a best-effort lock on dataDir.
func AcquireLock(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("indexer: create data dir: %w", err)
	}

	path := filepath.Join(dataDir, lockFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("indexer: open lock file: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("indexer: write pid to lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release releases the lock, best-effort.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
}
