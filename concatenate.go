package treelite

import (
	"fmt"
	"reflect"
)

// Concatenate appends the trees of several models sharing the same
// (ThresholdT, LeafOutputT) pair, num_feature, task type, target/class
// shape, post-processor (with its config), and base_scores, into a single
// model. Trees are appended in order; target_id/class_id are concatenated
// alongside them. average_tree_output must agree across all inputs.
func Concatenate(models []AnyModel) (AnyModel, error) {
	if len(models) == 0 {
		return nil, &ValidationError{Detail: "concatenate requires at least one model"}
	}
	first := models[0]
	for i, m := range models[1:] {
		if err := checkConcatCompatible(first, m); err != nil {
			return nil, fmt.Errorf("model %d: %w", i+1, err)
		}
	}
	switch typed := first.(type) {
	case *Model[float32, float32]:
		return concatenateTyped(typed, models)
	case *Model[float64, float64]:
		return concatenateTyped(typed, models)
	case *Model[float32, uint32]:
		return concatenateTyped(typed, models)
	case *Model[float64, uint32]:
		return concatenateTyped(typed, models)
	default:
		return nil, &TypeMismatchError{Detail: "unrecognized model variant"}
	}
}

func checkConcatCompatible(a, b AnyModel) error {
	if a.ThresholdTypeAny() != b.ThresholdTypeAny() || a.LeafOutputTypeAny() != b.LeafOutputTypeAny() {
		return &TypeMismatchError{Detail: "models have different (threshold,leaf) type pairs"}
	}
	if a.NumFeatureAny() != b.NumFeatureAny() {
		return &ValidationError{Detail: "models have different num_feature"}
	}
	if a.TaskTypeAny() != b.TaskTypeAny() {
		return &ValidationError{Detail: "models have different task_type"}
	}
	if a.AverageTreeOutputAny() != b.AverageTreeOutputAny() {
		return &ValidationError{Detail: "models disagree on average_tree_output"}
	}
	if a.NumTargetAny() != b.NumTargetAny() {
		return &ValidationError{Detail: "models have different num_target"}
	}
	if !reflect.DeepEqual(a.NumClassAny(), b.NumClassAny()) {
		return &ValidationError{Detail: "models have different num_class"}
	}
	if a.LeafVectorShapeAny() != b.LeafVectorShapeAny() {
		return &ValidationError{Detail: "models have different leaf_vector_shape"}
	}
	if a.PostprocessorAny() != b.PostprocessorAny() {
		return &ValidationError{Detail: "models have different postprocessor"}
	}
	if a.SigmoidAlphaAny() != b.SigmoidAlphaAny() || a.RatioCAny() != b.RatioCAny() {
		return &ValidationError{Detail: "models have different postprocessor config"}
	}
	if !reflect.DeepEqual(a.BaseScoresAny(), b.BaseScoresAny()) {
		return &ValidationError{Detail: "models have different base_scores"}
	}
	return nil
}

func concatenateTyped[T Threshold, L Leaf](first *Model[T, L], models []AnyModel) (AnyModel, error) {
	out := &Model[T, L]{
		NumFeature:        first.NumFeature,
		Task:              first.Task,
		AverageTreeOutput: first.AverageTreeOutput,
		NumTarget:         first.NumTarget,
		NumClass:          append([]uint32(nil), first.NumClass...),
		LeafVectorShape:   first.LeafVectorShape,
		Postprocessor:     first.Postprocessor,
		SigmoidAlpha:      first.SigmoidAlpha,
		RatioC:            first.RatioC,
		BaseScores:        append([]float64(nil), first.BaseScores...),
		Attributes:        first.Attributes,
		VersionMajor:      currentVersionMajor,
		VersionMinor:      currentVersionMinor,
		VersionPatch:      currentVersionPatch,
	}
	for _, m := range models {
		typed, ok := m.(*Model[T, L])
		if !ok {
			return nil, &TypeMismatchError{Detail: "model variant mismatch during concatenation"}
		}
		out.Trees = append(out.Trees, typed.Trees...)
		out.TreeTargetID = append(out.TreeTargetID, typed.TreeTargetID...)
		out.TreeClassID = append(out.TreeClassID, typed.TreeClassID...)
	}
	if err := checkCommittedModel(out); err != nil {
		return nil, err
	}
	return out, nil
}
