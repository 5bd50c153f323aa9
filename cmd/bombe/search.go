package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for symbols by name",
	Args:  cobra.ExactArgs(1),
	Run:   runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	engine, db := mustGetEngine(repoRoot, logger)
	defer db.Close()

	results, err := engine.Search(args[0], searchLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: search: %v\n", err)
		os.Exit(1)
	}
	printJSON(results)
}
