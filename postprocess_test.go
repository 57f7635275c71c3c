package treelite

import (
	"errors"
	"math"
	"testing"
)

func TestApplyPostprocessor_UnknownNameIsUnknownIdentifier(t *testing.T) {
	row := []float64{1.0}
	err := applyPostprocessor("not_a_real_postprocessor", row, 1, 1)
	if !errors.Is(err, ErrUnknownIdentifier) {
		t.Fatalf("err = %v, want ErrUnknownIdentifier", err)
	}
}

func TestApplyPostprocessor_ScalarEntries(t *testing.T) {
	cases := []struct {
		name     string
		input    float64
		alpha    float32
		ratioC   float32
		expected float64
	}{
		{"identity", -3.5, 1, 1, -3.5},
		{"signed_square", -2.0, 1, 1, -4.0},
		{"signed_square", 2.0, 1, 1, 4.0},
		{"hinge", 0.5, 1, 1, 1},
		{"hinge", -0.5, 1, 1, 0},
		{"hinge", 0, 1, 1, 0},
		{"sigmoid", 0, 1, 1, 0.5},
		{"exponential", 0, 1, 1, 1.0},
		{"exponential_standard_ratio", 0, 1, 2, 1.0},
		{"logarithm_one_plus_exp", 0, 1, 1, math.Log(2)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			row := []float64{c.input}
			if err := applyPostprocessor(c.name, row, c.alpha, c.ratioC); err != nil {
				t.Fatalf("applyPostprocessor(%s): %v", c.name, err)
			}
			if math.Abs(row[0]-c.expected) > 1e-9 {
				t.Fatalf("%s(%v) = %v, want %v", c.name, c.input, row[0], c.expected)
			}
		})
	}
}

func TestApplyPostprocessor_SigmoidAlphaScalesSteepness(t *testing.T) {
	lowAlpha := []float64{1.0}
	highAlpha := []float64{1.0}
	if err := applyPostprocessor("sigmoid", lowAlpha, 1, 1); err != nil {
		t.Fatalf("applyPostprocessor: %v", err)
	}
	if err := applyPostprocessor("sigmoid", highAlpha, 5, 1); err != nil {
		t.Fatalf("applyPostprocessor: %v", err)
	}
	if highAlpha[0] <= lowAlpha[0] {
		t.Fatalf("larger alpha should push a positive input closer to 1: low=%v high=%v", lowAlpha[0], highAlpha[0])
	}
}

func TestApplyPostprocessor_RowEntries(t *testing.T) {
	t.Run("identity_multiclass leaves the row untouched", func(t *testing.T) {
		row := []float64{0.1, -0.2, 0.3}
		want := append([]float64(nil), row...)
		if err := applyPostprocessor("identity_multiclass", row, 1, 1); err != nil {
			t.Fatalf("applyPostprocessor: %v", err)
		}
		for i := range want {
			if row[i] != want[i] {
				t.Fatalf("identity_multiclass altered the row: got %v, want %v", row, want)
			}
		}
	})

	t.Run("softmax produces a probability distribution", func(t *testing.T) {
		row := []float64{1.0, 2.0, 3.0}
		if err := applyPostprocessor("softmax", row, 1, 1); err != nil {
			t.Fatalf("applyPostprocessor: %v", err)
		}
		var sum float64
		for _, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("softmax output out of range: %v", v)
			}
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("softmax row sums to %v, want 1.0", sum)
		}
		if !(row[2] > row[1] && row[1] > row[0]) {
			t.Fatalf("softmax should preserve input ordering: %v", row)
		}
	})

	t.Run("softmax is invariant to a constant shift", func(t *testing.T) {
		a := []float64{1.0, 2.0, 3.0}
		b := []float64{101.0, 102.0, 103.0}
		if err := applyPostprocessor("softmax", a, 1, 1); err != nil {
			t.Fatalf("applyPostprocessor: %v", err)
		}
		if err := applyPostprocessor("softmax", b, 1, 1); err != nil {
			t.Fatalf("applyPostprocessor: %v", err)
		}
		for i := range a {
			if math.Abs(a[i]-b[i]) > 1e-9 {
				t.Fatalf("softmax not shift-invariant: %v vs %v", a, b)
			}
		}
	})

	t.Run("multiclass_ova applies sigmoid independently per class", func(t *testing.T) {
		row := []float64{0, 0, 0}
		if err := applyPostprocessor("multiclass_ova", row, 1, 1); err != nil {
			t.Fatalf("applyPostprocessor: %v", err)
		}
		for _, v := range row {
			if math.Abs(v-0.5) > 1e-9 {
				t.Fatalf("multiclass_ova(0) = %v, want 0.5", v)
			}
		}
	})
}
