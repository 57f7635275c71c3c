package treelite

// Model is an ensemble of trees sharing one (ThresholdT, LeafOutputT) type
// pair plus ensemble-wide metadata: task type, target/class shape, the
// tree→(target,class) annotation, a post-processor spec, and base scores.
//
// Model is mutated only by Builder during construction or by the
// deserializer during loading; once returned by CommitModel, FromPyBuffer
// or DeserializeFromStream it is
// immutable from the package's perspective other than bulk ownership
// transfer, and is safe for concurrent reads (DumpAsJSON, Serialize*,
// Predict).
type Model[T Threshold, L Leaf] struct {
	NumFeature int32

	Task              TaskType
	AverageTreeOutput bool

	NumTarget       uint32
	NumClass        []uint32
	LeafVectorShape [2]uint32

	TreeTargetID []int32
	TreeClassID  []int32

	Postprocessor string
	SigmoidAlpha  float32
	RatioC        float32

	BaseScores []float64
	Attributes string

	Trees []*Tree[T, L]

	VersionMajor int32
	VersionMinor int32
	VersionPatch int32
}

// currentVersion is the version triple stamped onto models created by this
// package, and the "our" column of the compatibility matrix in spec.md §4.E.
const (
	currentVersionMajor = 4
	currentVersionMinor = 1
	currentVersionPatch = 0
)

// MaxNumClass returns max(NumClass), the width of the base_scores /
// leaf_vector_shape class axis.
func (m *Model[T, L]) MaxNumClass() uint32 {
	var mx uint32
	for _, c := range m.NumClass {
		if c > mx {
			mx = c
		}
	}
	return mx
}

// NumTree returns the number of trees in the ensemble.
func (m *Model[T, L]) NumTree() int { return len(m.Trees) }

// ThresholdType returns the runtime TypeInfo tag for T.
func (m *Model[T, L]) ThresholdType() TypeInfo { return typeInfoOf[T]() }

// LeafOutputType returns the runtime TypeInfo tag for L.
func (m *Model[T, L]) LeafOutputType() TypeInfo { return typeInfoOf[L]() }

// Version returns the (major, minor, patch) triple stamped at creation and
// preserved through round-trip.
func (m *Model[T, L]) Version() (major, minor, patch int32) {
	return m.VersionMajor, m.VersionMinor, m.VersionPatch
}

// SetTreeLimit truncates the ensemble to the first n trees. It is intended
// for use only by front-end loaders (e.g. xgbjson) that honor a
// caller-requested tree limit; it is not part of the normal builder flow.
func (m *Model[T, L]) SetTreeLimit(n int) error {
	if n < 0 || n > len(m.Trees) {
		return &ValidationError{Detail: "tree limit out of range"}
	}
	m.Trees = m.Trees[:n]
	m.TreeTargetID = m.TreeTargetID[:n]
	m.TreeClassID = m.TreeClassID[:n]
	return nil
}

// AnyModel is the runtime-dispatched, type-erased view of Model[T,L] used
// everywhere a caller does not need compile-time knowledge of the model's
// (ThresholdT, LeafOutputT) pair: the builder's Commit, the deserializer,
// DumpAsJSON, Predict, and Concatenate. Exactly four concrete types
// implement it: Model[float32,float32], Model[float64,float64],
// Model[float32,uint32], and Model[float64,uint32] — the last two legal
// only as deserialized/leaf-id-output variants, never as a builder target.
type AnyModel interface {
	NumFeatureAny() int32
	TaskTypeAny() TaskType
	AverageTreeOutputAny() bool
	NumTargetAny() uint32
	NumClassAny() []uint32
	MaxNumClassAny() uint32
	LeafVectorShapeAny() [2]uint32
	TreeTargetIDAny() []int32
	TreeClassIDAny() []int32
	PostprocessorAny() string
	SigmoidAlphaAny() float32
	RatioCAny() float32
	BaseScoresAny() []float64
	AttributesAny() string
	NumTreeAny() int
	ThresholdTypeAny() TypeInfo
	LeafOutputTypeAny() TypeInfo
	VersionAny() (int32, int32, int32)

	DumpAsJSON(pretty bool) (string, error)
	predictDispatch(input []float64, numRow int, cfg PredictConfig) (*PredictOutput, error)
	toFrames() []Frame
}

func (m *Model[T, L]) NumFeatureAny() int32               { return m.NumFeature }
func (m *Model[T, L]) TaskTypeAny() TaskType               { return m.Task }
func (m *Model[T, L]) AverageTreeOutputAny() bool          { return m.AverageTreeOutput }
func (m *Model[T, L]) NumTargetAny() uint32                { return m.NumTarget }
func (m *Model[T, L]) NumClassAny() []uint32               { return m.NumClass }
func (m *Model[T, L]) MaxNumClassAny() uint32              { return m.MaxNumClass() }
func (m *Model[T, L]) LeafVectorShapeAny() [2]uint32       { return m.LeafVectorShape }
func (m *Model[T, L]) TreeTargetIDAny() []int32            { return m.TreeTargetID }
func (m *Model[T, L]) TreeClassIDAny() []int32             { return m.TreeClassID }
func (m *Model[T, L]) PostprocessorAny() string            { return m.Postprocessor }
func (m *Model[T, L]) SigmoidAlphaAny() float32            { return m.SigmoidAlpha }
func (m *Model[T, L]) RatioCAny() float32                  { return m.RatioC }
func (m *Model[T, L]) BaseScoresAny() []float64            { return m.BaseScores }
func (m *Model[T, L]) AttributesAny() string               { return m.Attributes }
func (m *Model[T, L]) NumTreeAny() int                     { return m.NumTree() }
func (m *Model[T, L]) ThresholdTypeAny() TypeInfo          { return m.ThresholdType() }
func (m *Model[T, L]) LeafOutputTypeAny() TypeInfo         { return m.LeafOutputType() }
func (m *Model[T, L]) VersionAny() (int32, int32, int32)   { return m.Version() }

var (
	_ AnyModel = (*Model[float32, float32])(nil)
	_ AnyModel = (*Model[float64, float64])(nil)
	_ AnyModel = (*Model[float32, uint32])(nil)
	_ AnyModel = (*Model[float64, uint32])(nil)
)
