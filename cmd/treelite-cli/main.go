// Command treelite-cli is thin glue around the treelite package: load an
// XGBoost JSON model, then dump it or run it over a whitespace-separated
// feature matrix. It is not a normative part of the module.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "treelite-cli:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "treelite-cli",
	Short: "Load and run a decision-tree ensemble",
}

func init() {
	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newPredictCmd())
}
