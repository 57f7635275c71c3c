// Command validation differentially checks the XGBoost JSON loader and
// prediction engine in github.com/treelite/treelite against
// github.com/dmitryikh/leaves, an independent Go inference engine that also
// loads XGBoost models. It is a separate module (with its own go.mod and a
// replace directive back to the parent) so the main treelite module never
// needs to require leaves.
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitryikh/leaves"

	"github.com/treelite/treelite"
	"github.com/treelite/treelite/xgbjson"
)

const tolerance = 1e-9

type testData struct {
	Inputs    [][]float64 `json:"inputs"`
	NFeatures int         `json:"n_features"`
	NClasses  int         `json:"n_classes"`
}

type modelResult struct {
	Name              string
	TestCases         int
	MaxAbsDiff        float64
	MeanAbsDiff       float64
	Pass              bool
	Error             string
	LeavesUnsupported bool
}

type modelConfig struct {
	Name       string
	ModelFile  string
	DataFile   string
	Multiclass bool
}

func loadTestData(path string) (testData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return testData{}, fmt.Errorf("read test data %s: %w", path, err)
	}
	var td testData
	if err := json.Unmarshal(raw, &td); err != nil {
		return testData{}, fmt.Errorf("parse test data %s: %w", path, err)
	}
	return td, nil
}

// compareModel loads cfg.ModelFile with both xgbjson.Load (driving the
// treelite builder and prediction engine) and leaves.XGEnsembleFromFile,
// then checks that every row in cfg.DataFile produces the same
// fully-postprocessed prediction from both, within tolerance.
func compareModel(cfg modelConfig) modelResult {
	m, err := xgbjson.Load(cfg.ModelFile, nil)
	if err != nil {
		return modelResult{Name: cfg.Name, Error: fmt.Sprintf("treelite load: %v", err)}
	}

	leavesModel, err := leaves.XGEnsembleFromFile(cfg.ModelFile, true)
	if err != nil {
		return modelResult{
			Name:              cfg.Name,
			Error:             fmt.Sprintf("leaves cannot load: %v", err),
			LeavesUnsupported: true,
		}
	}

	td, err := loadTestData(cfg.DataFile)
	if err != nil {
		return modelResult{Name: cfg.Name, Error: fmt.Sprintf("test data: %v", err)}
	}

	var maxDiff, sumDiff float64
	totalComparisons := 0
	maxClass := int(m.MaxNumClassAny())

	for _, input := range td.Inputs {
		out, err := treelite.Predict(m, input, 1, treelite.DefaultPredictConfig())
		if err != nil {
			return modelResult{Name: cfg.Name, Error: fmt.Sprintf("treelite predict: %v", err)}
		}

		if cfg.Multiclass {
			leavesOut := make([]float64, leavesModel.NOutputGroups())
			if err := leavesModel.Predict(input, 0, leavesOut); err != nil {
				return modelResult{Name: cfg.Name, Error: fmt.Sprintf("leaves predict: %v", err)}
			}
			for c := 0; c < maxClass && c < len(leavesOut); c++ {
				diff := math.Abs(out.At(0, 0, c) - leavesOut[c])
				if diff > maxDiff {
					maxDiff = diff
				}
				sumDiff += diff
				totalComparisons++
			}
		} else {
			leavesPred := leavesModel.PredictSingle(input, 0)
			diff := math.Abs(out.At(0, 0, 0) - leavesPred)
			if diff > maxDiff {
				maxDiff = diff
			}
			sumDiff += diff
			totalComparisons++
		}
	}

	meanDiff := 0.0
	if totalComparisons > 0 {
		meanDiff = sumDiff / float64(totalComparisons)
	}

	return modelResult{
		Name:        cfg.Name,
		TestCases:   len(td.Inputs),
		MaxAbsDiff:  maxDiff,
		MeanAbsDiff: meanDiff,
		Pass:        maxDiff <= tolerance,
	}
}

func writeReport(results []modelResult, outputPath string) error {
	var sb strings.Builder

	sb.WriteString("# treelite vs leaves comparison report\n\n")
	sb.WriteString(fmt.Sprintf("**Generated**: %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString(fmt.Sprintf("**Tolerance**: %.0e\n\n", tolerance))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Model Type | Test Cases | Max Abs Diff | Mean Abs Diff | Status |\n")
	sb.WriteString("|------------|-----------|-------------|--------------|--------|\n")

	allPass := true
	hasUnsupported := false
	for _, r := range results {
		if r.LeavesUnsupported {
			sb.WriteString(fmt.Sprintf("| %s | - | - | - | SKIP (leaves unsupported) |\n", r.Name))
			hasUnsupported = true
			continue
		}
		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("| %s | - | - | - | FAIL (error) |\n", r.Name))
			allPass = false
			continue
		}
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
			allPass = false
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2e | %.2e | %s |\n",
			r.Name, r.TestCases, r.MaxAbsDiff, r.MeanAbsDiff, status))
	}

	sb.WriteString("\n## Overall Result\n\n")
	if allPass {
		sb.WriteString("All comparable models matched leaves within tolerance.\n")
		if hasUnsupported {
			sb.WriteString("\nSome model types were skipped because leaves does not support them.\n")
		}
	} else {
		sb.WriteString("Some models failed to match leaves; see details above.\n")
	}

	sb.WriteString("\n## Details\n\n")
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("### %s\n\n", r.Name))
		if r.LeavesUnsupported {
			sb.WriteString(fmt.Sprintf("**Skipped**: %s\n\n", r.Error))
			continue
		}
		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("**Error**: %s\n\n", r.Error))
			continue
		}
		sb.WriteString(fmt.Sprintf("- **Test cases**: %d\n", r.TestCases))
		sb.WriteString(fmt.Sprintf("- **Max absolute difference**: %.2e\n", r.MaxAbsDiff))
		sb.WriteString(fmt.Sprintf("- **Mean absolute difference**: %.2e\n", r.MeanAbsDiff))
		sb.WriteString(fmt.Sprintf("- **Status**: %s\n\n", map[bool]string{true: "PASS", false: "FAIL"}[r.Pass]))
	}

	return os.WriteFile(outputPath, []byte(sb.String()), 0644)
}

func main() {
	modelsDir := "models"
	testdataDir := "testdata"
	reportPath := "REPORT.md"

	configs := []modelConfig{
		{
			Name:       "Binary classification",
			ModelFile:  filepath.Join(modelsDir, "binary.json"),
			DataFile:   filepath.Join(testdataDir, "binary.json"),
			Multiclass: false,
		},
		{
			Name:       "Multiclass classification",
			ModelFile:  filepath.Join(modelsDir, "multiclass.json"),
			DataFile:   filepath.Join(testdataDir, "multiclass.json"),
			Multiclass: true,
		},
		{
			Name:       "Regression",
			ModelFile:  filepath.Join(modelsDir, "regression.json"),
			DataFile:   filepath.Join(testdataDir, "regression.json"),
			Multiclass: false,
		},
		{
			Name:       "Ranking",
			ModelFile:  filepath.Join(modelsDir, "ranking.json"),
			DataFile:   filepath.Join(testdataDir, "ranking.json"),
			Multiclass: false,
		},
	}

	for _, cfg := range configs {
		if _, err := os.Stat(cfg.ModelFile); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: model file %s not found.\n", cfg.ModelFile)
			fmt.Fprintf(os.Stderr, "Populate validation/models and validation/testdata before running this harness.\n")
			os.Exit(1)
		}
		if _, err := os.Stat(cfg.DataFile); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error: test data file %s not found.\n", cfg.DataFile)
			os.Exit(1)
		}
	}

	fmt.Println("Running validation...")
	var results []modelResult
	for _, cfg := range configs {
		fmt.Printf("  Comparing %s...\n", cfg.Name)
		result := compareModel(cfg)
		switch {
		case result.LeavesUnsupported:
			fmt.Printf("    SKIP (leaves unsupported: %s)\n", result.Error)
		case result.Error != "":
			fmt.Printf("    ERROR: %s\n", result.Error)
		case result.Pass:
			fmt.Printf("    PASS (max diff: %.2e)\n", result.MaxAbsDiff)
		default:
			fmt.Printf("    FAIL (max diff: %.2e)\n", result.MaxAbsDiff)
		}
		results = append(results, result)
	}

	if err := writeReport(results, reportPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nReport written to %s\n", reportPath)
}
