package treelite

// NodeType identifies the kind of a tree node.
type NodeType uint8

const (
	LeafNode NodeType = iota
	NumericalTestNode
	CategoricalTestNode
)

func (n NodeType) String() string {
	switch n {
	case LeafNode:
		return "leaf_node"
	case NumericalTestNode:
		return "numerical_test_node"
	case CategoricalTestNode:
		return "categorical_test_node"
	default:
		return "unknown"
	}
}

// ParseNodeType resolves a canonical node-type string back to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "leaf_node":
		return LeafNode, nil
	case "numerical_test_node":
		return NumericalTestNode, nil
	case "categorical_test_node":
		return CategoricalTestNode, nil
	default:
		return 0, &UnknownIdentifierError{Kind: "node_type", Name: s}
	}
}

// Operator is a numerical-test comparison operator.
type Operator uint8

const (
	OpLT Operator = iota
	OpLE
	OpEQ
	OpGT
	OpGE
)

func (op Operator) String() string {
	switch op {
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpEQ:
		return "=="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return "?"
	}
}

// ParseOperator resolves a canonical operator string back to an Operator.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "<":
		return OpLT, nil
	case "<=":
		return OpLE, nil
	case "==":
		return OpEQ, nil
	case ">":
		return OpGT, nil
	case ">=":
		return OpGE, nil
	default:
		return 0, &UnknownIdentifierError{Kind: "comparison_op", Name: s}
	}
}

// evaluate applies the operator to (lhs OP rhs), lhs being the observed
// feature value and rhs the stored threshold.
func (op Operator) evaluate(lhs, rhs float64) bool {
	switch op {
	case OpLT:
		return lhs < rhs
	case OpLE:
		return lhs <= rhs
	case OpEQ:
		return lhs == rhs
	case OpGT:
		return lhs > rhs
	case OpGE:
		return lhs >= rhs
	default:
		return false
	}
}

// TaskType identifies the ensemble's prediction task.
type TaskType uint8

const (
	Regressor TaskType = iota
	BinaryClf
	MultiClf
	LearningToRank
	IsolationForest
)

func (t TaskType) String() string {
	switch t {
	case Regressor:
		return "kRegressor"
	case BinaryClf:
		return "kBinaryClf"
	case MultiClf:
		return "kMultiClf"
	case LearningToRank:
		return "kLearningToRank"
	case IsolationForest:
		return "kIsolationForest"
	default:
		return "kUnknown"
	}
}

// ParseTaskType resolves a canonical task-type string back to a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	switch s {
	case "kRegressor":
		return Regressor, nil
	case "kBinaryClf":
		return BinaryClf, nil
	case "kMultiClf":
		return MultiClf, nil
	case "kLearningToRank":
		return LearningToRank, nil
	case "kIsolationForest":
		return IsolationForest, nil
	default:
		return 0, &UnknownIdentifierError{Kind: "task_type", Name: s}
	}
}

// PredictKind selects the shape and semantics of a prediction call.
type PredictKind uint8

const (
	PredictDefault PredictKind = iota
	PredictRaw
	PredictLeafID
	PredictScorePerTree
)

func (k PredictKind) String() string {
	switch k {
	case PredictDefault:
		return "default"
	case PredictRaw:
		return "raw"
	case PredictLeafID:
		return "leaf_id"
	case PredictScorePerTree:
		return "score_per_tree"
	default:
		return "unknown"
	}
}

// ParsePredictKind resolves a predict_type configuration string.
func ParsePredictKind(s string) (PredictKind, error) {
	switch s {
	case "", "default":
		return PredictDefault, nil
	case "raw":
		return PredictRaw, nil
	case "leaf_id":
		return PredictLeafID, nil
	case "score_per_tree":
		return PredictScorePerTree, nil
	default:
		return 0, &UnknownIdentifierError{Kind: "predict_type", Name: s}
	}
}
