package treelite

import "testing"

// buildStump builds a single-tree regressor: feature 0 <= 0.5 routes left
// to leaf 1.0, otherwise right to leaf 2.0; NaN goes left when defaultLeft
// is true and right otherwise.
func buildStump(t *testing.T, defaultLeft bool) AnyModel {
	t.Helper()
	cfg := BuilderConfig{
		NumFeature:      1,
		Task:            Regressor,
		NumTarget:       1,
		NumClass:        []uint32{1},
		LeafVectorShape: [2]uint32{1, 1},
		TreeTargetID:    []int32{0},
		TreeClassID:     []int32{-1},
		Postprocessor:   "identity",
		BaseScores:      []float64{0},
		ExpectedNumTree: 1,
	}
	b, err := NewBuilder[float32, float32](cfg)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("builder call failed: %v", err)
		}
	}
	must(b.StartTree())
	must(b.StartNode(0))
	must(b.NumericalTest(0, 0.5, defaultLeft, OpLE, 1, 2))
	must(b.EndNode())
	must(b.StartNode(1))
	must(b.LeafScalar(1.0))
	must(b.EndNode())
	must(b.StartNode(2))
	must(b.LeafScalar(2.0))
	must(b.EndNode())
	must(b.EndTree())
	m, err := b.CommitModel()
	if err != nil {
		t.Fatalf("CommitModel: %v", err)
	}
	return m
}

// buildCategoricalStump builds a single-tree regressor whose root splits on
// category membership of feature 0: {1,3} (inserted out of order, with a
// duplicate) routes left to leaf 10.0, everything else right to leaf 20.0.
func buildCategoricalStump(t *testing.T) AnyModel {
	t.Helper()
	cfg := BuilderConfig{
		NumFeature:      1,
		Task:            Regressor,
		NumTarget:       1,
		NumClass:        []uint32{1},
		LeafVectorShape: [2]uint32{1, 1},
		TreeTargetID:    []int32{0},
		TreeClassID:     []int32{-1},
		Postprocessor:   "identity",
		BaseScores:      []float64{0},
		ExpectedNumTree: 1,
	}
	b, err := NewBuilder[float64, float64](cfg)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if err := b.StartTree(); err != nil {
		t.Fatalf("StartTree: %v", err)
	}
	if err := b.StartNode(0); err != nil {
		t.Fatalf("StartNode: %v", err)
	}
	if err := b.CategoricalTest(0, false, []uint32{3, 1, 3}, false, 1, 2); err != nil {
		t.Fatalf("CategoricalTest: %v", err)
	}
	if err := b.EndNode(); err != nil {
		t.Fatalf("EndNode: %v", err)
	}
	if err := b.StartNode(1); err != nil {
		t.Fatalf("StartNode: %v", err)
	}
	if err := b.LeafScalar(10.0); err != nil {
		t.Fatalf("LeafScalar: %v", err)
	}
	if err := b.EndNode(); err != nil {
		t.Fatalf("EndNode: %v", err)
	}
	if err := b.StartNode(2); err != nil {
		t.Fatalf("StartNode: %v", err)
	}
	if err := b.LeafScalar(20.0); err != nil {
		t.Fatalf("LeafScalar: %v", err)
	}
	if err := b.EndNode(); err != nil {
		t.Fatalf("EndNode: %v", err)
	}
	if err := b.EndTree(); err != nil {
		t.Fatalf("EndTree: %v", err)
	}
	m, err := b.CommitModel()
	if err != nil {
		t.Fatalf("CommitModel: %v", err)
	}
	return m
}

// buildGroveMulticlass builds a 3-class, 6-tree grove-per-class model: tree
// i is tagged to class i%3 and contributes a fixed scalar to that class
// only, for a deterministic softmax-ready score vector.
func buildGroveMulticlass(t *testing.T) AnyModel {
	t.Helper()
	const numClass = 3
	const numTree = 6
	targetID := make([]int32, numTree)
	classID := make([]int32, numTree)
	for i := range targetID {
		targetID[i] = 0
		classID[i] = int32(i % numClass)
	}
	cfg := BuilderConfig{
		NumFeature:      1,
		Task:            MultiClf,
		NumTarget:       1,
		NumClass:        []uint32{numClass},
		LeafVectorShape: [2]uint32{1, 1},
		TreeTargetID:    targetID,
		TreeClassID:     classID,
		Postprocessor:   "softmax",
		BaseScores:      []float64{0, 0, 0},
		ExpectedNumTree: numTree,
	}
	b, err := NewBuilder[float64, float64](cfg)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	for i := 0; i < numTree; i++ {
		if err := b.StartTree(); err != nil {
			t.Fatalf("StartTree: %v", err)
		}
		if err := b.StartNode(0); err != nil {
			t.Fatalf("StartNode: %v", err)
		}
		if err := b.LeafScalar(float64(i) * 0.1); err != nil {
			t.Fatalf("LeafScalar: %v", err)
		}
		if err := b.EndNode(); err != nil {
			t.Fatalf("EndNode: %v", err)
		}
		if err := b.EndTree(); err != nil {
			t.Fatalf("EndTree: %v", err)
		}
	}
	m, err := b.CommitModel()
	if err != nil {
		t.Fatalf("CommitModel: %v", err)
	}
	return m
}

// buildMultiTargetRegressor builds a 2-target regressor, one tree per
// target: tree 0 always outputs 1.0 for target 0, tree 1 always outputs
// 2.0 for target 1. Used to exercise the target-major PredictOutput
// layout.
func buildMultiTargetRegressor(t *testing.T) AnyModel {
	t.Helper()
	cfg := BuilderConfig{
		NumFeature:      1,
		Task:            Regressor,
		NumTarget:       2,
		NumClass:        []uint32{1, 1},
		LeafVectorShape: [2]uint32{1, 1},
		TreeTargetID:    []int32{0, 1},
		TreeClassID:     []int32{-1, -1},
		Postprocessor:   "identity",
		BaseScores:      []float64{0, 0},
		ExpectedNumTree: 2,
	}
	b, err := NewBuilder[float64, float64](cfg)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	leaves := []float64{1.0, 2.0}
	for _, v := range leaves {
		if err := b.StartTree(); err != nil {
			t.Fatalf("StartTree: %v", err)
		}
		if err := b.StartNode(0); err != nil {
			t.Fatalf("StartNode: %v", err)
		}
		if err := b.LeafScalar(v); err != nil {
			t.Fatalf("LeafScalar: %v", err)
		}
		if err := b.EndNode(); err != nil {
			t.Fatalf("EndNode: %v", err)
		}
		if err := b.EndTree(); err != nil {
			t.Fatalf("EndTree: %v", err)
		}
	}
	m, err := b.CommitModel()
	if err != nil {
		t.Fatalf("CommitModel: %v", err)
	}
	return m
}

// buildForestLeafVector builds a 2-tree, 3-class random-forest-style model
// where every tree emits a full class-axis leaf vector and contributions
// are averaged rather than summed.
func buildForestLeafVector(t *testing.T) AnyModel {
	t.Helper()
	const numClass = 3
	const numTree = 2
	cfg := BuilderConfig{
		NumFeature:        1,
		Task:              MultiClf,
		AverageTreeOutput: true,
		NumTarget:         1,
		NumClass:          []uint32{numClass},
		LeafVectorShape:   [2]uint32{1, numClass},
		TreeTargetID:      []int32{0, 0},
		TreeClassID:       []int32{-1, -1},
		Postprocessor:     "identity_multiclass",
		BaseScores:        []float64{0, 0, 0},
		ExpectedNumTree:   numTree,
	}
	b, err := NewBuilder[float64, float64](cfg)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	votes := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
	}
	for _, v := range votes {
		if err := b.StartTree(); err != nil {
			t.Fatalf("StartTree: %v", err)
		}
		if err := b.StartNode(0); err != nil {
			t.Fatalf("StartNode: %v", err)
		}
		if err := b.LeafVector(v); err != nil {
			t.Fatalf("LeafVector: %v", err)
		}
		if err := b.EndNode(); err != nil {
			t.Fatalf("EndNode: %v", err)
		}
		if err := b.EndTree(); err != nil {
			t.Fatalf("EndTree: %v", err)
		}
	}
	m, err := b.CommitModel()
	if err != nil {
		t.Fatalf("CommitModel: %v", err)
	}
	return m
}
