package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bombe/internal/indexer"
	"bombe/internal/paths"
	"bombe/internal/storage"
)

var (
	indexForce  bool
	indexFormat string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the current repository",
	Long: `Walk the repository, extract symbols and the call graph, resolve
imports, and recompute PageRank, skipping any file whose content is
unchanged since the last run.`,
	Args: cobra.NoArgs,
	Run:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "reindex every file regardless of content hash")
	indexCmd.Flags().StringVar(&indexFormat, "format", "human", "log output format (human, json)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	logger := newLogger(indexFormat)
	repoRoot := mustGetRepoRoot()
	cfg := mustLoadConfig(repoRoot)

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = paths.LocalDatabasePath(repoRoot)
	}
	if err := os.MkdirAll(paths.JoinRepoPath(repoRoot, paths.DataDirName), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error: create data directory: %v\n", err)
		os.Exit(1)
	}
	db, err := storage.Open(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	report, err := indexer.Run(repoRoot, db, logger, indexer.Options{
		Force:   indexForce,
		Workers: cfg.Workers,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: index: %v\n", err)
		os.Exit(1)
	}

	printJSON(report)
}
