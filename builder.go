package treelite

import (
	"encoding/json"
	"fmt"
)

// builderState is the finite state machine driving tree construction,
// per spec.md §4.D. An explicit discriminant plus a switch (rather than a
// GoF State-pattern object graph) is enough to make every illegal call
// fail at the earliest possible point.
type builderState uint8

const (
	stateExpectTree builderState = iota
	stateExpectNode
	stateExpectDetail
	stateNodeComplete
	stateModelComplete
)

func (s builderState) String() string {
	switch s {
	case stateExpectTree:
		return "ExpectTree"
	case stateExpectNode:
		return "ExpectNode"
	case stateExpectDetail:
		return "ExpectDetail"
	case stateNodeComplete:
		return "NodeComplete"
	case stateModelComplete:
		return "ModelComplete"
	default:
		return "Unknown"
	}
}

// leafKind records whether a tree's leaves so far are scalar or vector
// valued; spec.md §9 requires every leaf in one tree to agree (an open
// question resolved against coexistence).
type leafKind uint8

const (
	leafKindUnknown leafKind = iota
	leafKindScalar
	leafKindVector
)

type pendingChildren struct {
	nodeID       int
	leftKey      int64
	rightKey     int64
}

// BuilderConfig is the ensemble-wide metadata supplied before any tree is
// built. Every field here is pre-validated by NewBuilder per spec.md §4.D's
// "Metadata pre-validation" list, before a single tree construction call is
// legal.
type BuilderConfig struct {
	NumFeature        int32
	Task              TaskType
	AverageTreeOutput bool
	NumTarget         uint32
	NumClass          []uint32
	LeafVectorShape   [2]uint32

	// TreeTargetID and TreeClassID must each have length ExpectedNumTree.
	TreeTargetID []int32
	TreeClassID  []int32

	Postprocessor string
	// PostprocessorConfig is an optional raw JSON object, e.g.
	// {"sigmoid_alpha": 2.0} or {"ratio_c": 3.0}. Unknown keys are
	// ignored; malformed JSON is a fatal ParseError.
	PostprocessorConfig json.RawMessage

	BaseScores []float64
	Attributes string

	ExpectedNumTree int

	// sigmoidAlpha and ratioC are resolved from PostprocessorConfig (or
	// default to 1.0) by applyPostprocessorConfig; callers never set
	// these directly.
	sigmoidAlpha float32
	ratioC       float32
}

// Builder drives construction of a single Model[T,L]. A Builder instance
// must be used by a single goroutine; to construct ensembles in parallel,
// build independent Builders and Concatenate the resulting models.
type Builder[T Threshold, L Leaf] struct {
	state builderState
	cfg   BuilderConfig

	trees []*Tree[T, L]

	curTree     *Tree[T, L]
	curKeyToID  map[int64]int
	curPending  []pendingChildren
	curLeafKind leafKind

	curNodeID int
}

// NewBuilder validates cfg and returns a Builder ready to accept
// start_tree calls. Construction fails immediately (TypeMismatch) if
// (T,L) is not one of the two builder-legal pairs: (float32,float32) or
// (float64,float64).
func NewBuilder[T Threshold, L Leaf](cfg BuilderConfig) (*Builder[T, L], error) {
	_, builderLegal := pairValid(typeInfoOf[T](), typeInfoOf[L]())
	if !builderLegal {
		return nil, &TypeMismatchError{Detail: "builder only supports matched (float32,float32) or (float64,float64) pairs"}
	}
	if err := validateBuilderConfig(cfg); err != nil {
		return nil, err
	}
	if err := applyPostprocessorConfig(&cfg); err != nil {
		return nil, err
	}
	return &Builder[T, L]{state: stateExpectTree, cfg: cfg}, nil
}

func validateBuilderConfig(cfg BuilderConfig) error {
	if cfg.NumTarget < 1 {
		return &ValidationError{Detail: "num_target must be >= 1"}
	}
	if uint32(len(cfg.NumClass)) != cfg.NumTarget {
		return &ValidationError{Detail: "num_class length must equal num_target"}
	}
	var maxClass uint32
	for i, c := range cfg.NumClass {
		if c < 1 {
			return &ValidationError{Detail: fmt.Sprintf("num_class[%d] must be >= 1", i)}
		}
		if c > maxClass {
			maxClass = c
		}
	}
	if !(cfg.LeafVectorShape[0] == 1 || cfg.LeafVectorShape[0] == cfg.NumTarget) {
		return &ValidationError{Detail: "leaf_vector_shape[0] must be 1 or num_target"}
	}
	if !(cfg.LeafVectorShape[1] == 1 || cfg.LeafVectorShape[1] == maxClass) {
		return &ValidationError{Detail: "leaf_vector_shape[1] must be 1 or max(num_class)"}
	}
	if len(cfg.TreeTargetID) != cfg.ExpectedNumTree || len(cfg.TreeClassID) != cfg.ExpectedNumTree {
		return &ValidationError{Detail: "target_id/class_id length must equal expected_num_tree"}
	}
	for i := 0; i < cfg.ExpectedNumTree; i++ {
		tid := cfg.TreeTargetID[i]
		if tid != -1 && (tid < 0 || uint32(tid) >= cfg.NumTarget) {
			return &ValidationError{Detail: fmt.Sprintf("target_id[%d] out of range", i)}
		}
		cid := cfg.TreeClassID[i]
		if cid != -1 {
			if tid < 0 {
				return &ValidationError{Detail: fmt.Sprintf("class_id[%d] set without a concrete target_id", i)}
			}
			if cid < 0 || uint32(cid) >= cfg.NumClass[tid] {
				return &ValidationError{Detail: fmt.Sprintf("class_id[%d] out of range", i)}
			}
		}
	}
	wantBase := uint64(cfg.NumTarget) * uint64(maxClass)
	if maxClass <= 1 {
		wantBase = uint64(cfg.NumTarget)
	}
	if uint64(len(cfg.BaseScores)) != wantBase {
		return &ValidationError{Detail: "base_scores length must equal num_target*max(num_class)"}
	}
	if _, err := lookupPostprocessor(cfg.Postprocessor); err != nil {
		return err
	}
	return nil
}

// applyPostprocessorConfig decodes the optional per-postprocessor JSON
// snippet. Unknown keys are ignored; malformed JSON is a ParseError.
func applyPostprocessorConfig(cfg *BuilderConfig) error {
	cfg.SigmoidAlphaDefault()
	if len(cfg.PostprocessorConfig) == 0 {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(cfg.PostprocessorConfig, &raw); err != nil {
		return &ParseError{Detail: "malformed postprocessor config: " + err.Error()}
	}
	if v, ok := raw["sigmoid_alpha"]; ok && cfg.Postprocessor == "sigmoid" {
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return &ParseError{Detail: "sigmoid_alpha must be numeric"}
		}
		f, err := n.Float64()
		if err != nil {
			return &ParseError{Detail: "sigmoid_alpha must be numeric"}
		}
		cfg.sigmoidAlpha = float32(f)
	}
	if v, ok := raw["ratio_c"]; ok && cfg.Postprocessor == "exponential_standard_ratio" {
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return &ParseError{Detail: "ratio_c must be numeric"}
		}
		f, err := n.Float64()
		if err != nil {
			return &ParseError{Detail: "ratio_c must be numeric"}
		}
		cfg.ratioC = float32(f)
	}
	return nil
}

// sigmoidAlpha and ratioC default to 1.0 per spec.md §3; they are stored
// unexported because BuilderConfig's exported fields are the caller's
// input, while these are the resolved values Commit writes onto the model.
func (cfg *BuilderConfig) SigmoidAlphaDefault() {
	if cfg.sigmoidAlpha == 0 {
		cfg.sigmoidAlpha = 1.0
	}
	if cfg.ratioC == 0 {
		cfg.ratioC = 1.0
	}
}

func (b *Builder[T, L]) illegal(call string) error {
	return &BuilderStateError{Call: call, State: b.state.String()}
}

// StartTree begins construction of the next tree.
func (b *Builder[T, L]) StartTree() error {
	if b.state != stateExpectTree {
		return b.illegal("start_tree")
	}
	if len(b.trees) >= b.cfg.ExpectedNumTree {
		return &ValidationError{Detail: "start_tree called beyond expected_num_tree"}
	}
	b.curTree = &Tree[T, L]{}
	b.curKeyToID = make(map[int64]int)
	b.curPending = nil
	b.curLeafKind = leafKindUnknown
	b.state = stateExpectNode
	return nil
}

// StartNode registers a user-chosen node key and allocates its internal
// dense id.
func (b *Builder[T, L]) StartNode(key int64) error {
	if b.state != stateExpectNode {
		return b.illegal("start_node")
	}
	if _, exists := b.curKeyToID[key]; exists {
		return &ValidationError{Detail: fmt.Sprintf("node key %d already registered in this tree", key)}
	}
	id := b.curTree.allocNode()
	b.curKeyToID[key] = id
	b.curNodeID = id
	b.state = stateExpectDetail
	return nil
}

// LeafScalar sets the current node to a scalar leaf.
func (b *Builder[T, L]) LeafScalar(value L) error {
	if b.state != stateExpectDetail {
		return b.illegal("leaf_scalar")
	}
	if !(b.cfg.LeafVectorShape[0] == 1 && b.cfg.LeafVectorShape[1] == 1) {
		return &ValidationError{Detail: "leaf_scalar requires leaf_vector_shape == [1,1]"}
	}
	if b.curLeafKind == leafKindVector {
		return &ValidationError{Detail: "tree mixes scalar and vector leaves"}
	}
	b.curLeafKind = leafKindScalar
	b.curTree.SetLeaf(b.curNodeID, value)
	b.state = stateNodeComplete
	return nil
}

// LeafVector sets the current node to a multi-valued leaf.
func (b *Builder[T, L]) LeafVector(values []L) error {
	if b.state != stateExpectDetail {
		return b.illegal("leaf_vector")
	}
	want := int(b.cfg.LeafVectorShape[0]) * int(b.cfg.LeafVectorShape[1])
	if len(values) != want {
		return &ValidationError{Detail: fmt.Sprintf("leaf_vector length %d does not match shape product %d", len(values), want)}
	}
	if b.curLeafKind == leafKindScalar {
		return &ValidationError{Detail: "tree mixes scalar and vector leaves"}
	}
	b.curLeafKind = leafKindVector
	b.curTree.SetLeafVector(b.curNodeID, values)
	b.state = stateNodeComplete
	return nil
}

// NumericalTest sets the current node to a numerical split. leftKey and
// rightKey are the caller's own keys for the two children, resolved to
// internal ids at end_tree.
func (b *Builder[T, L]) NumericalTest(feature uint32, thresholdVal T, defaultLeft bool, op Operator, leftKey, rightKey int64) error {
	if b.state != stateExpectDetail {
		return b.illegal("numerical_test")
	}
	if err := b.curTree.SetNumericalSplit(b.curNodeID, feature, thresholdVal, defaultLeft, op); err != nil {
		return err
	}
	b.curPending = append(b.curPending, pendingChildren{nodeID: b.curNodeID, leftKey: leftKey, rightKey: rightKey})
	b.state = stateNodeComplete
	return nil
}

// CategoricalTest sets the current node to a categorical split.
func (b *Builder[T, L]) CategoricalTest(feature uint32, defaultLeft bool, categories []uint32, listIsRightChild bool, leftKey, rightKey int64) error {
	if b.state != stateExpectDetail {
		return b.illegal("categorical_test")
	}
	if err := b.curTree.SetCategoricalSplit(b.curNodeID, feature, defaultLeft, categories, listIsRightChild); err != nil {
		return err
	}
	b.curPending = append(b.curPending, pendingChildren{nodeID: b.curNodeID, leftKey: leftKey, rightKey: rightKey})
	b.state = stateNodeComplete
	return nil
}

// SetGain records the optional gain statistic on the current node. Legal
// in ExpectDetail (alongside the detail choice) and in NodeComplete (a
// "late" optional stat call).
func (b *Builder[T, L]) SetGain(gain float64) error {
	if b.state != stateExpectDetail && b.state != stateNodeComplete {
		return b.illegal("set_gain")
	}
	b.curTree.SetGain(b.curNodeID, gain)
	return nil
}

// SetDataCount records the optional data_count statistic on the current node.
func (b *Builder[T, L]) SetDataCount(count uint64) error {
	if b.state != stateExpectDetail && b.state != stateNodeComplete {
		return b.illegal("set_data_count")
	}
	b.curTree.SetDataCount(b.curNodeID, count)
	return nil
}

// SetSumHess records the optional sum_hess statistic on the current node.
func (b *Builder[T, L]) SetSumHess(sum float64) error {
	if b.state != stateExpectDetail && b.state != stateNodeComplete {
		return b.illegal("set_sum_hess")
	}
	b.curTree.SetSumHess(b.curNodeID, sum)
	return nil
}

// EndNode completes the current node.
func (b *Builder[T, L]) EndNode() error {
	if b.state != stateNodeComplete {
		return b.illegal("end_node")
	}
	b.state = stateExpectNode
	return nil
}

// EndTree resolves pending child key references to internal dense ids,
// checks for orphaned nodes and cycles, and appends the finished tree.
func (b *Builder[T, L]) EndTree() error {
	if b.state != stateExpectNode {
		return b.illegal("end_tree")
	}
	for _, p := range b.curPending {
		leftID, ok := b.curKeyToID[p.leftKey]
		if !ok {
			return &StructuralError{Detail: fmt.Sprintf("left child key %d never registered via start_node", p.leftKey)}
		}
		rightID, ok := b.curKeyToID[p.rightKey]
		if !ok {
			return &StructuralError{Detail: fmt.Sprintf("right child key %d never registered via start_node", p.rightKey)}
		}
		b.curTree.leftChild[p.nodeID] = int32(leftID)
		b.curTree.rightChild[p.nodeID] = int32(rightID)
	}
	if err := b.curTree.checkStructure(); err != nil {
		return err
	}
	b.trees = append(b.trees, b.curTree)
	b.curTree = nil
	b.state = stateExpectTree
	return nil
}

// CommitModel finalizes construction and returns the assembled model.
// Requires exactly ExpectedNumTree trees to have been built.
func (b *Builder[T, L]) CommitModel() (AnyModel, error) {
	if b.state != stateExpectTree {
		return nil, b.illegal("commit_model")
	}
	if len(b.trees) != b.cfg.ExpectedNumTree {
		return nil, &ValidationError{Detail: fmt.Sprintf("committed %d trees, expected %d", len(b.trees), b.cfg.ExpectedNumTree)}
	}
	m := &Model[T, L]{
		NumFeature:        b.cfg.NumFeature,
		Task:              b.cfg.Task,
		AverageTreeOutput: b.cfg.AverageTreeOutput,
		NumTarget:         b.cfg.NumTarget,
		NumClass:          append([]uint32(nil), b.cfg.NumClass...),
		LeafVectorShape:   b.cfg.LeafVectorShape,
		TreeTargetID:      append([]int32(nil), b.cfg.TreeTargetID...),
		TreeClassID:       append([]int32(nil), b.cfg.TreeClassID...),
		Postprocessor:     b.cfg.Postprocessor,
		SigmoidAlpha:      b.cfg.sigmoidAlpha,
		RatioC:            b.cfg.ratioC,
		BaseScores:        append([]float64(nil), b.cfg.BaseScores...),
		Attributes:        b.cfg.Attributes,
		Trees:             b.trees,
		VersionMajor:      currentVersionMajor,
		VersionMinor:      currentVersionMinor,
		VersionPatch:      currentVersionPatch,
	}
	if err := checkCommittedModel(m); err != nil {
		return nil, err
	}
	b.state = stateModelComplete
	return m, nil
}
