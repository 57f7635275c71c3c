package treelite

import (
	"errors"
	"math"
	"testing"
)

func TestPredict_NumericalRouting(t *testing.T) {
	m := buildStump(t, false)
	cases := []struct {
		desc     string
		feature  float64
		expected float64
	}{
		{"left branch, below threshold", 0.1, 1.0},
		{"right branch, above threshold", 0.9, 2.0},
		{"left branch, exactly the threshold (<=)", 0.5, 1.0},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			out, err := Predict(m, []float64{c.feature}, 1, DefaultPredictConfig())
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if got := out.At(0, 0, 0); got != c.expected {
				t.Fatalf("At(0,0,0) = %v, want %v", got, c.expected)
			}
		})
	}
}

func TestPredict_NaNFollowsDefaultLeft(t *testing.T) {
	mLeft := buildStump(t, true)
	mRight := buildStump(t, false)

	outLeft, err := Predict(mLeft, []float64{math.NaN()}, 1, DefaultPredictConfig())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got := outLeft.At(0, 0, 0); got != 1.0 {
		t.Fatalf("default_left=true, NaN feature: got %v, want 1.0 (left leaf)", got)
	}

	outRight, err := Predict(mRight, []float64{math.NaN()}, 1, DefaultPredictConfig())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got := outRight.At(0, 0, 0); got != 2.0 {
		t.Fatalf("default_left=false, NaN feature: got %v, want 2.0 (right leaf)", got)
	}
}

func TestPredict_CategoricalRouting(t *testing.T) {
	m := buildCategoricalStump(t)
	cases := []struct {
		desc     string
		feature  float64
		expected float64
	}{
		{"member of category list", 3.0, 10.0},
		{"other member of category list", 1.0, 10.0},
		{"non-member integer", 2.0, 20.0},
		{"negative value is never a member", -1.0, 20.0},
		{"fractional value is never a member", 1.5, 20.0},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			out, err := Predict(m, []float64{c.feature}, 1, DefaultPredictConfig())
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if got := out.At(0, 0, 0); got != c.expected {
				t.Fatalf("At(0,0,0) = %v, want %v", got, c.expected)
			}
		})
	}
}

func TestPredict_GroveMulticlassSoftmaxSumsToOne(t *testing.T) {
	m := buildGroveMulticlass(t)
	out, err := Predict(m, []float64{0.0}, 1, DefaultPredictConfig())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	var sum float64
	for c := 0; c < 3; c++ {
		v := out.At(0, 0, c)
		if v < 0 || v > 1 {
			t.Fatalf("softmax output out of [0,1]: %v", v)
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("softmax outputs sum to %v, want 1.0", sum)
	}
}

func TestPredict_GroveMulticlassRawIsPreSoftmax(t *testing.T) {
	m := buildGroveMulticlass(t)
	out, err := Predict(m, []float64{0.0}, 1, PredictConfig{Kind: PredictRaw})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// Tree i contributes 0.1*i to class i%3; with 6 trees, class 0 gets
	// trees 0 and 3 (0 + 0.3 = 0.3), class 1 gets trees 1 and 4
	// (0.1 + 0.4 = 0.5), class 2 gets trees 2 and 5 (0.2 + 0.5 = 0.7).
	want := []float64{0.3, 0.5, 0.7}
	for c, w := range want {
		if got := out.At(0, 0, c); math.Abs(got-w) > 1e-9 {
			t.Fatalf("raw class %d = %v, want %v", c, got, w)
		}
	}
}

func TestPredict_ForestLeafVectorAveraging(t *testing.T) {
	m := buildForestLeafVector(t)
	out, err := Predict(m, []float64{0.0}, 1, PredictConfig{Kind: PredictRaw})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	// Votes {1,0,0} and {0,1,0} averaged over 2 trees: {0.5, 0.5, 0}.
	want := []float64{0.5, 0.5, 0}
	for c, w := range want {
		if got := out.At(0, 0, c); math.Abs(got-w) > 1e-9 {
			t.Fatalf("averaged class %d = %v, want %v", c, got, w)
		}
	}
}

func TestPredict_LeafIDKind(t *testing.T) {
	m := buildStump(t, false)
	out, err := Predict(m, []float64{0.1, 0.9}, 2, PredictConfig{Kind: PredictLeafID})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got := out.LeafID(0, 0); got != 1 {
		t.Fatalf("row 0 leaf id = %d, want 1", got)
	}
	if got := out.LeafID(1, 0); got != 2 {
		t.Fatalf("row 1 leaf id = %d, want 2", got)
	}
}

func TestPredict_ScorePerTreeKind(t *testing.T) {
	m := buildGroveMulticlass(t)
	out, err := Predict(m, []float64{0.0}, 1, PredictConfig{Kind: PredictScorePerTree})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := 0; i < 6; i++ {
		want := float64(i) * 0.1
		cls := i % 3
		if got := out.ScorePerTree(0, i, cls); math.Abs(got-want) > 1e-9 {
			t.Fatalf("tree %d class %d score = %v, want %v", i, cls, got, want)
		}
	}
}

func TestPredict_SequentialAndParallelAgree(t *testing.T) {
	m := buildGroveMulticlass(t)
	numRow := 50
	features := make([]float64, numRow)
	for i := range features {
		features[i] = float64(i % 2)
	}

	seq, err := Predict(m, features, numRow, PredictConfig{Kind: PredictRaw, NumThread: 1})
	if err != nil {
		t.Fatalf("sequential predict: %v", err)
	}
	par, err := Predict(m, features, numRow, PredictConfig{Kind: PredictRaw, NumThread: 8})
	if err != nil {
		t.Fatalf("parallel predict: %v", err)
	}
	if len(seq.Data) != len(par.Data) {
		t.Fatalf("output length mismatch: %d vs %d", len(seq.Data), len(par.Data))
	}
	for i := range seq.Data {
		if seq.Data[i] != par.Data[i] {
			t.Fatalf("Data[%d] differs between sequential (%v) and parallel (%v)", i, seq.Data[i], par.Data[i])
		}
	}
}

func TestPredict_ShortInputRowIsValidationError(t *testing.T) {
	m := buildStump(t, false)
	_, err := Predict(m, []float64{}, 1, DefaultPredictConfig())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("short feature row: err = %v, want ErrValidation", err)
	}
}

func TestPredict_MultiTargetIsTargetMajor(t *testing.T) {
	m := buildMultiTargetRegressor(t)
	rows := []float64{0, 0, 0}
	out, err := Predict(m, rows, 3, DefaultPredictConfig())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	shape := out.OutputShape()
	want := []int{2, 3, 1}
	if len(shape) != len(want) {
		t.Fatalf("OutputShape = %v, want %v", shape, want)
	}
	for i := range want {
		if shape[i] != want[i] {
			t.Fatalf("OutputShape = %v, want %v", shape, want)
		}
	}
	// target-major: target 0's three rows come first, then target 1's.
	wantData := []float64{1.0, 1.0, 1.0, 2.0, 2.0, 2.0}
	if len(out.Data) != len(wantData) {
		t.Fatalf("Data = %v, want %v", out.Data, wantData)
	}
	for i := range wantData {
		if out.Data[i] != wantData[i] {
			t.Fatalf("Data = %v, want %v", out.Data, wantData)
		}
	}
	for row := 0; row < 3; row++ {
		if got := out.At(row, 0, 0); got != 1.0 {
			t.Errorf("At(%d,0,0) = %v, want 1.0", row, got)
		}
		if got := out.At(row, 1, 0); got != 2.0 {
			t.Errorf("At(%d,1,0) = %v, want 2.0", row, got)
		}
	}
}

func TestOutputShape_MultiTargetIsTargetMajor(t *testing.T) {
	m := buildMultiTargetRegressor(t)
	shape, err := OutputShape(m, 5, DefaultPredictConfig())
	if err != nil {
		t.Fatalf("OutputShape: %v", err)
	}
	want := []uint64{2, 5, 1}
	if len(shape) != len(want) {
		t.Fatalf("OutputShape = %v, want %v", shape, want)
	}
	for i := range want {
		if shape[i] != want[i] {
			t.Fatalf("OutputShape = %v, want %v", shape, want)
		}
	}
}

func TestOutputShape_MatchesPredictDefaultLayout(t *testing.T) {
	m := buildGroveMulticlass(t)
	shape, err := OutputShape(m, 7, DefaultPredictConfig())
	if err != nil {
		t.Fatalf("OutputShape: %v", err)
	}
	want := []uint64{7, 3}
	if len(shape) != len(want) {
		t.Fatalf("OutputShape = %v, want %v", shape, want)
	}
	for i := range want {
		if shape[i] != want[i] {
			t.Fatalf("OutputShape = %v, want %v", shape, want)
		}
	}
}

func TestOutputShape_LeafIDKind(t *testing.T) {
	m := buildGroveMulticlass(t)
	shape, err := OutputShape(m, 4, PredictConfig{Kind: PredictLeafID})
	if err != nil {
		t.Fatalf("OutputShape: %v", err)
	}
	if len(shape) != 2 || shape[0] != 4 || shape[1] != 6 {
		t.Fatalf("OutputShape = %v, want [4 6]", shape)
	}
}
