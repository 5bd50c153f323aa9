package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bombe/internal/query"
)

var (
	contextEntryPoints    string
	contextTokenBudget    int
	contextSignaturesOnly bool
	contextExpansionDepth int
)

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Assemble a token-budgeted context around a query",
	Args:  cobra.ExactArgs(1),
	Run:   runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextEntryPoints, "entry-points", "", "comma-separated seed symbol identifiers")
	contextCmd.Flags().IntVar(&contextTokenBudget, "budget", 8000, "token budget")
	contextCmd.Flags().BoolVar(&contextSignaturesOnly, "signatures-only", false, "pack signatures instead of full source")
	contextCmd.Flags().IntVar(&contextExpansionDepth, "depth", 2, "graph expansion depth")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	engine, db := mustGetEngine(repoRoot, logger)
	defer db.Close()

	var entryPoints []string
	if contextEntryPoints != "" {
		entryPoints = strings.Split(contextEntryPoints, ",")
	}

	result, err := engine.Context(query.ContextRequest{
		Query:                 args[0],
		EntryPoints:           entryPoints,
		TokenBudget:           contextTokenBudget,
		IncludeSignaturesOnly: contextSignaturesOnly,
		ExpansionDepth:        contextExpansionDepth,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: context: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}
