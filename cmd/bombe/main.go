package main

import (
	"os"

	"bombe/internal/logging"
)

func main() {
	logger := logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.InfoLevel})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}
}
