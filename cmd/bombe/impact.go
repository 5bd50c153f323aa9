package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var blastRadiusCmd = &cobra.Command{
	Use:   "blast-radius <identifier>",
	Short: "Show every symbol transitively affected by changing one",
	Args:  cobra.ExactArgs(1),
	Run:   runBlastRadius,
}

var changeImpactCmd = &cobra.Command{
	Use:   "change-impact <identifier>",
	Short: "Summarize the blast radius with risk weighting",
	Args:  cobra.ExactArgs(1),
	Run:   runChangeImpact,
}

var dataFlowMaxDepth int

var dataFlowCmd = &cobra.Command{
	Use:   "data-flow <identifier>",
	Short: "Trace value flow upstream and downstream of a symbol",
	Args:  cobra.ExactArgs(1),
	Run:   runDataFlow,
}

func init() {
	dataFlowCmd.Flags().IntVar(&dataFlowMaxDepth, "depth", 3, "maximum traversal depth")
	rootCmd.AddCommand(blastRadiusCmd, changeImpactCmd, dataFlowCmd)
}

func runBlastRadius(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	engine, db := mustGetEngine(repoRoot, logger)
	defer db.Close()

	result, err := engine.BlastRadius(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: blast-radius: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func runChangeImpact(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	engine, db := mustGetEngine(repoRoot, logger)
	defer db.Close()

	result, err := engine.ChangeImpact(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: change-impact: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}

func runDataFlow(cmd *cobra.Command, args []string) {
	logger := newLogger("human")
	repoRoot := mustGetRepoRoot()
	engine, db := mustGetEngine(repoRoot, logger)
	defer db.Close()

	result, err := engine.DataFlow(args[0], dataFlowMaxDepth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: data-flow: %v\n", err)
		os.Exit(1)
	}
	printJSON(result)
}
