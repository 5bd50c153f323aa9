package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bombe/internal/query"
)

var (
	refsMode          string
	refsMaxDepth      int
	refsIncludeSource bool
)

var refsCmd = &cobra.Command{
	Use:   "refs <identifier>",
	Short: "Walk references from a symbol",
	Long: `Walk outward from a symbol over CALLS (callers/callees) or over
EXTENDS/IMPLEMENTS (implementors/supers).`,
	Args: cobra.ExactArgs(1),
	Run:  runRefs,
}

func init() {
	refsCmd.Flags().StringVar(&refsMode, "mode", "callers", "callers, callees, implementors, or supers")
	refsCmd.Flags().IntVar(&refsMaxDepth, "depth", 2, "maximum walk depth")
	refsCmd.Flags().BoolVar(&refsIncludeSource, "include-source", false, "include each hit's source span")
	rootCmd.AddCommand(refsCmd)
}

func runRefs(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	engine, db := mustGetEngine(repoRoot, logger)
	defer db.Close()

	mode := query.ReferenceMode(refsMode)
	hits, err := engine.References(args[0], mode, refsMaxDepth, refsIncludeSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: refs: %v\n", err)
		os.Exit(1)
	}
	printJSON(hits)
}
