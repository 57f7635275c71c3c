package treelite

import "fmt"

// checkCommittedModel re-validates the metadata invariants of spec.md §4.D
// against an already-assembled model — used by the builder at commit_model
// and again by the deserializer, since a model arriving over the wire must
// satisfy the same constraints a freshly built one does.
func checkCommittedModel[T Threshold, L Leaf](m *Model[T, L]) error {
	if m.NumTarget < 1 {
		return &ValidationError{Detail: "num_target must be >= 1"}
	}
	if uint32(len(m.NumClass)) != m.NumTarget {
		return &ValidationError{Detail: "num_class length must equal num_target"}
	}
	for i, c := range m.NumClass {
		if c < 1 {
			return &ValidationError{Detail: fmt.Sprintf("num_class[%d] must be >= 1", i)}
		}
	}
	maxClass := m.MaxNumClass()

	shape := m.LeafVectorShape
	if !(shape[0] == 1 || shape[0] == m.NumTarget) {
		return &ValidationError{Detail: "leaf_vector_shape[0] must be 1 or num_target"}
	}
	if !(shape[1] == 1 || shape[1] == maxClass) {
		return &ValidationError{Detail: "leaf_vector_shape[1] must be 1 or max(num_class)"}
	}

	if len(m.TreeTargetID) != len(m.Trees) || len(m.TreeClassID) != len(m.Trees) {
		return &ValidationError{Detail: "target_id/class_id length must equal num_tree"}
	}
	for i := range m.Trees {
		tid := m.TreeTargetID[i]
		if tid != -1 && (tid < 0 || uint32(tid) >= m.NumTarget) {
			return &ValidationError{Detail: fmt.Sprintf("target_id[%d] out of range", i)}
		}
		cid := m.TreeClassID[i]
		if cid != -1 {
			if tid < 0 {
				return &ValidationError{Detail: fmt.Sprintf("class_id[%d] set without a concrete target_id", i)}
			}
			if cid < 0 || uint32(cid) >= m.NumClass[tid] {
				return &ValidationError{Detail: fmt.Sprintf("class_id[%d] out of range", i)}
			}
		}
	}

	wantBase := uint64(m.NumTarget) * uint64(maxClass)
	if maxClass <= 1 {
		wantBase = uint64(m.NumTarget)
	}
	if uint64(len(m.BaseScores)) != wantBase {
		return &ValidationError{Detail: "base_scores length must equal num_target*max(num_class)"}
	}

	if _, err := lookupPostprocessor(m.Postprocessor); err != nil {
		return err
	}

	for i, t := range m.Trees {
		if err := t.checkStructure(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
