package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "v0.1.0"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "pick-engine",
		Short:   "Fortuna pick engine",
		Version: version,
		Long: `Pick engine turns market snapshots into graded betting picks.

It detects sharp-money signals (reverse line movement, split divergence,
frozen lines), aggregates them into a confidence score and tier, and
re-evaluates issued picks as the market moves.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newEvaluateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
