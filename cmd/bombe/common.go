package main

import (
	"encoding/json"
	"fmt"
	"os"

	"bombe/internal/config"
	"bombe/internal/logging"
	"bombe/internal/paths"
	"bombe/internal/query"
	"bombe/internal/storage"
)

func newLogger(format string) *logging.Logger {
	f := logging.HumanFormat
	if format == "json" {
		f = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{Format: f, Level: logging.InfoLevel, Output: os.Stderr})
}

func mustGetRepoRoot() string {
	root, err := paths.FindRepoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: resolve repository root: %v\n", err)
		os.Exit(1)
	}
	return root
}

func mustLoadConfig(repoRoot string) config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func mustOpenStore(repoRoot string, logger *logging.Logger, cfg config.Config) *storage.DB {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = paths.LocalDatabasePath(repoRoot)
	}
	db, err := storage.Open(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open store (run `bombe index` first?): %v\n", err)
		os.Exit(1)
	}
	return db
}

func mustGetEngine(repoRoot string, logger *logging.Logger) (*query.Engine, *storage.DB) {
	cfg := mustLoadConfig(repoRoot)
	db := mustOpenStore(repoRoot, logger, cfg)
	source := query.FileSourceReader{RepoRoot: repoRoot}
	return query.NewEngine(db, source, cfg.HybridSearch, cfg.HybridVector), db
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
