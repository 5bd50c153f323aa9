package main

import (
	"bombe/internal/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bombe",
	Short: "bombe - code intelligence engine",
	Long: `bombe indexes a repository's symbols and call graph into an
embedded store and serves search, reference, blast-radius,
change-impact, data-flow, structure, and context-assembly queries
against it.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("bombe version {{.Version}}\n")
}
