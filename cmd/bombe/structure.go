package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var structureTokenBudget int

var structureCmd = &cobra.Command{
	Use:   "structure <directory-prefix>",
	Short: "List symbols under a directory, ranked by pagerank",
	Args:  cobra.ExactArgs(1),
	Run:   runStructure,
}

func init() {
	structureCmd.Flags().IntVar(&structureTokenBudget, "budget", 4000, "token budget")
	rootCmd.AddCommand(structureCmd)
}

func runStructure(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	engine, db := mustGetEngine(repoRoot, logger)
	defer db.Close()

	result, err := engine.Structure(args[0], structureTokenBudget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: structure: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}
