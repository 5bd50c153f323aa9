package federation

import (
	"io"
	"path/filepath"
	"testing"

	"bombe/internal/logging"
	"bombe/internal/storage"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
}

// newTestShardDB creates a fresh on-disk store and returns its path,
// closing the initial connection so a Router can open its own.
func newTestShardDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shard.db")
	db, err := storage.Open(path, testLogger())
	if err != nil {
		t.Fatalf("open shard db: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close shard db: %v", err)
	}
	return path
}
