package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/treelite/treelite"
	"github.com/treelite/treelite/xgbjson"
)

func newPredictCmd() *cobra.Command {
	var nThread int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "predict <model.json> <rows.txt>",
		Short: "Run inference over a whitespace-separated feature matrix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				treelite.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
			}
			m, err := xgbjson.Load(args[0], nil)
			if err != nil {
				return fmt.Errorf("load model: %w", err)
			}
			numFeature := int(m.NumFeatureAny())
			rows, err := readMatrix(args[1], numFeature)
			if err != nil {
				return fmt.Errorf("read feature matrix: %w", err)
			}
			out, err := treelite.Predict(m, rows, len(rows)/numFeature, treelite.PredictConfig{NumThread: nThread})
			if err != nil {
				return fmt.Errorf("predict: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(out.Data)
		},
	}

	cmd.Flags().IntVar(&nThread, "nthread", 0, "prediction worker count (0 = runtime.NumCPU())")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log deserialization warnings to stderr")
	return cmd
}

func readMatrix(path string, numFeature int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var flat []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != numFeature {
			return nil, fmt.Errorf("row has %d fields, model expects %d", len(fields), numFeature)
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, err
			}
			flat = append(flat, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return flat, nil
}
