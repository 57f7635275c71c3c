package treelite

import (
	"bytes"
	"encoding/json"
)

// PredictConfig selects the shape and parallelism of a Predict call. The
// zero value is PredictDefault with NumThread 0 (meaning runtime.NumCPU()).
type PredictConfig struct {
	Kind      PredictKind
	NumThread int
}

// DefaultPredictConfig returns the configuration used when a caller wants
// the ensemble's ordinary, fully post-processed output.
func DefaultPredictConfig() PredictConfig {
	return PredictConfig{Kind: PredictDefault}
}

type predictConfigWire struct {
	PredictType string `json:"predict_type"`
	NThread     int    `json:"nthread"`
}

// ParsePredictConfig decodes a predict configuration from JSON text of the
// form {"predict_type": "...", "nthread": N}. Unlike post-processor
// configuration, unknown keys are a fatal parse error here.
func ParsePredictConfig(data []byte) (PredictConfig, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return DefaultPredictConfig(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var wire predictConfigWire
	if err := dec.Decode(&wire); err != nil {
		return PredictConfig{}, &ParseError{Detail: "predict config: " + err.Error()}
	}
	kind, err := ParsePredictKind(wire.PredictType)
	if err != nil {
		return PredictConfig{}, err
	}
	return PredictConfig{Kind: kind, NumThread: wire.NThread}, nil
}

// PredictOutput holds the flattened result of a Predict call along with
// the shape metadata needed to index into it. Data's layout depends on
// Kind:
//
//   - PredictDefault, PredictRaw, NumTarget == 1: [NumRow][MaxClass]
//   - PredictDefault, PredictRaw, NumTarget  > 1: [NumTarget][NumRow][MaxClass]
//   - PredictLeafID:                              [NumRow][NumTree]
//   - PredictScorePerTree:                        [NumRow][NumTree][MaxClass]
//
// The target-major layout for multi-target models keeps every target's
// rows contiguous, so a caller that only wants one target's predictions
// can slice Data once instead of striding through every row.
type PredictOutput struct {
	NumRow    int
	NumTarget uint32
	NumClass  []uint32
	MaxClass  uint32
	NumTree   int
	Kind      PredictKind
	Data      []float64
}

// OutputShape returns the logical shape of Data for the output's Kind.
func (o *PredictOutput) OutputShape() []int {
	switch o.Kind {
	case PredictLeafID:
		return []int{o.NumRow, o.NumTree}
	case PredictScorePerTree:
		return []int{o.NumRow, o.NumTree, int(o.MaxClass)}
	default:
		if o.NumTarget > 1 {
			return []int{int(o.NumTarget), o.NumRow, int(o.MaxClass)}
		}
		return []int{o.NumRow, int(o.MaxClass)}
	}
}

// At returns the (row, target, class) cell of a PredictDefault/PredictRaw
// output, regardless of whether that output is laid out row-major
// (NumTarget == 1) or target-major (NumTarget > 1).
func (o *PredictOutput) At(row, target, class int) float64 {
	maxClass := int(o.MaxClass)
	if o.NumTarget <= 1 {
		return o.Data[row*maxClass+class]
	}
	return o.Data[(target*o.NumRow+row)*maxClass+class]
}

// LeafID returns the node id reached by tree in row, for a PredictLeafID
// output.
func (o *PredictOutput) LeafID(row, tree int) int {
	return int(o.Data[row*o.NumTree+tree])
}

// ScorePerTree returns tree's contribution to class in row, for a
// PredictScorePerTree output.
func (o *PredictOutput) ScorePerTree(row, tree, class int) float64 {
	return o.Data[(row*o.NumTree+tree)*int(o.MaxClass)+class]
}

// OutputShape returns the shape Predict's output would have for numRow
// rows under cfg, without running inference.
func OutputShape(m AnyModel, numRow int, cfg PredictConfig) ([]uint64, error) {
	if m.NumFeatureAny() <= 0 {
		return nil, &ValidationError{Detail: "model num_feature is not set"}
	}
	maxClass := uint64(m.MaxNumClassAny())
	switch cfg.Kind {
	case PredictLeafID:
		return []uint64{uint64(numRow), uint64(m.NumTreeAny())}, nil
	case PredictScorePerTree:
		return []uint64{uint64(numRow), uint64(m.NumTreeAny()), maxClass}, nil
	default:
		numTarget := m.NumTargetAny()
		if numTarget > 1 {
			return []uint64{uint64(numTarget), uint64(numRow), maxClass}, nil
		}
		return []uint64{uint64(numRow), maxClass}, nil
	}
}

// Predict runs inference over a dense, row-major feature matrix of
// numRow*model.NumFeatureAny() values. See PredictOutput for the available
// output layouts and predict_batch.go for how the traversal and
// worker-pool fan-out are implemented.
func Predict(m AnyModel, features []float64, numRow int, cfg PredictConfig) (*PredictOutput, error) {
	return m.predictDispatch(features, numRow, cfg)
}
