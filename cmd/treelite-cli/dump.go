package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/treelite/treelite"
	"github.com/treelite/treelite/xgbjson"
)

func newDumpCmd() *cobra.Command {
	var pretty bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "dump <model.json>",
		Short: "Print a model's JSON dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				treelite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
			}
			m, err := xgbjson.Load(args[0], nil)
			if err != nil {
				return fmt.Errorf("load model: %w", err)
			}
			text, err := m.DumpAsJSON(pretty)
			if err != nil {
				return fmt.Errorf("dump model: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty-print the dump")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log deserialization warnings to stderr")
	return cmd
}
