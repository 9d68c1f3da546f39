// Command marketforge generates niche market-analysis reports through a
// resumable module pipeline with deterministic fallbacks for every
// generation tier.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Absent .env files are fine; the environment may be set another way
	_ = godotenv.Load()

	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "marketforge",
		Short:        "Niche market-analysis report generator",
		Long:         "marketforge runs a resumable pipeline of analysis modules (keywords, personas, pricing, funnels, avatars and more) and assembles the results into a single report.",
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newSessionCommand())
	return root
}
