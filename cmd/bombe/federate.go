package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bombe/internal/federation"
	"bombe/internal/paths"
	"bombe/internal/storage"
)

var federateCmd = &cobra.Command{
	Use:   "federate",
	Short: "Manage multi-repository federations",
}

var federateCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new federation",
	Args:  cobra.ExactArgs(1),
	Run:   runFederateCreate,
}

var federateAddCmd = &cobra.Command{
	Use:   "add <name> <repo-path>",
	Short: "Register a repository as a federation shard",
	Args:  cobra.ExactArgs(2),
	Run:   runFederateAdd,
}

var federateListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List a federation's shards",
	Args:  cobra.ExactArgs(1),
	Run:   runFederateList,
}

var federateSyncCmd = &cobra.Command{
	Use:   "sync <name>",
	Short: "Rebuild cross-repo edges for the current repo's shard",
	Long: `Re-registers the current repository as a shard, re-exports its
public symbols into the federation catalog, and rebuilds cross-repo
edges from its unresolved imports.`,
	Args: cobra.ExactArgs(1),
	Run:  runFederateSync,
}

func init() {
	federateCmd.AddCommand(federateCreateCmd, federateAddCmd, federateListCmd, federateSyncCmd)
	rootCmd.AddCommand(federateCmd)
}

func withFederation(name string, fn func(f *federation.Federation)) {
	logger := newLogger("human")
	exists, err := federation.Exists(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: check federation: %v\n", err)
		os.Exit(1)
	}
	var f *federation.Federation
	if exists {
		f, err = federation.Open(name, logger)
	} else {
		f, err = federation.Create(name, "", logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open federation: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	fn(f)
}

func runFederateCreate(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	f, err := federation.Create(args[0], "", logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: create federation: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	fmt.Printf("created federation %q\n", f.Name())
}

func runFederateAdd(cmd *cobra.Command, args []string) {
	name, repoPath := args[0], args[1]
	withFederation(name, func(f *federation.Federation) {
		repoID := paths.RepoID(repoPath)
		dbPath := paths.LocalDatabasePath(repoPath)
		shard, err := f.AddShard(repoID, repoPath, dbPath, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: add shard: %v\n", err)
			os.Exit(1)
		}
		printJSON(shard)
	})
}

func runFederateList(cmd *cobra.Command, args []string) {
	withFederation(args[0], func(f *federation.Federation) {
		shards, err := f.ListShards()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: list shards: %v\n", err)
			os.Exit(1)
		}
		printJSON(shards)
	})
}

func runFederateSync(cmd *cobra.Command, args []string) {
	repoRoot := mustGetRepoRoot()
	logger := newLogger("human")
	cfg := mustLoadConfig(repoRoot)
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = paths.LocalDatabasePath(repoRoot)
	}
	db, err := storage.Open(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	withFederation(args[0], func(f *federation.Federation) {
		if err := federation.PostIndexCrossRepoSync(repoRoot, dbPath, db, f.Catalog()); err != nil {
			fmt.Fprintf(os.Stderr, "error: sync: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("sync complete")
	})
}
