package treelite

import "encoding/json"

// modelDump is the deterministic, schema-stable rendering used as the
// equality oracle in tests (spec.md §4.F / §8). Field order, names, and
// the set of keys are stable; pretty only toggles whitespace.
type modelDump struct {
	NumFeature        int32      `json:"num_feature"`
	TaskType          string     `json:"task_type"`
	AverageTreeOutput bool       `json:"average_tree_output"`
	NumTarget         uint32     `json:"num_target"`
	NumClass          []uint32   `json:"num_class"`
	LeafVectorShape   [2]uint32  `json:"leaf_vector_shape"`
	TargetID          []int32    `json:"target_id"`
	ClassID           []int32    `json:"class_id"`
	Postprocessor     string     `json:"postprocessor"`
	SigmoidAlpha      float32    `json:"sigmoid_alpha"`
	RatioC            float32    `json:"ratio_c"`
	BaseScores        []float64  `json:"base_scores"`
	Attributes        string     `json:"attributes"`
	Trees             []treeDump `json:"trees"`
}

type treeDump struct {
	NumNodes            int               `json:"num_nodes"`
	HasCategoricalSplit bool              `json:"has_categorical_split"`
	Nodes               []json.RawMessage `json:"nodes"`
}

type leafScalarDump struct {
	LeafValue float64 `json:"leaf_value"`
}

type leafVectorDump struct {
	LeafValue []float64 `json:"leaf_value"`
}

type numericalNodeDump struct {
	SplitFeatureID int32   `json:"split_feature_id"`
	DefaultLeft    bool    `json:"default_left"`
	NodeType       string  `json:"node_type"`
	ComparisonOp   string  `json:"comparison_op"`
	Threshold      float64 `json:"threshold"`
	LeftChild      int32   `json:"left_child"`
	RightChild     int32   `json:"right_child"`
}

type categoricalNodeDump struct {
	SplitFeatureID          int32    `json:"split_feature_id"`
	DefaultLeft             bool     `json:"default_left"`
	NodeType                string   `json:"node_type"`
	CategoryList            []uint32 `json:"category_list"`
	CategoryListRightChild  bool     `json:"category_list_right_child"`
	LeftChild               int32    `json:"left_child"`
	RightChild              int32    `json:"right_child"`
}

// DumpAsJSON renders the model as deterministic JSON text.
func (m *Model[T, L]) DumpAsJSON(pretty bool) (string, error) {
	d := modelDump{
		NumFeature:        m.NumFeature,
		TaskType:          m.Task.String(),
		AverageTreeOutput: m.AverageTreeOutput,
		NumTarget:         m.NumTarget,
		NumClass:          m.NumClass,
		LeafVectorShape:   m.LeafVectorShape,
		TargetID:          m.TreeTargetID,
		ClassID:           m.TreeClassID,
		Postprocessor:     m.Postprocessor,
		SigmoidAlpha:      m.SigmoidAlpha,
		RatioC:            m.RatioC,
		BaseScores:        m.BaseScores,
		Attributes:        m.Attributes,
	}
	for _, t := range m.Trees {
		td, err := dumpTree(t)
		if err != nil {
			return "", err
		}
		d.Trees = append(d.Trees, td)
	}
	var (
		buf []byte
		err error
	)
	if pretty {
		buf, err = json.MarshalIndent(d, "", "  ")
	} else {
		buf, err = json.Marshal(d)
	}
	if err != nil {
		return "", &SerializationError{Detail: "json dump: " + err.Error()}
	}
	return string(buf), nil
}

func dumpTree[T Threshold, L Leaf](t *Tree[T, L]) (treeDump, error) {
	td := treeDump{NumNodes: t.numNodes, HasCategoricalSplit: t.hasCategoricalSplit}
	for nid := 0; nid < t.numNodes; nid++ {
		raw, err := dumpNode(t, nid)
		if err != nil {
			return treeDump{}, err
		}
		td.Nodes = append(td.Nodes, raw)
	}
	return td, nil
}

func dumpNode[T Threshold, L Leaf](t *Tree[T, L], nid int) (json.RawMessage, error) {
	if t.nodeType[nid] == LeafNode {
		if t.HasLeafVector(nid) {
			vec := t.LeafVector(nid)
			out := make([]float64, len(vec))
			for i, v := range vec {
				out[i] = float64(v)
			}
			return json.Marshal(leafVectorDump{LeafValue: out})
		}
		return json.Marshal(leafScalarDump{LeafValue: float64(t.leafValue[nid])})
	}
	if t.nodeType[nid] == CategoricalTestNode {
		return json.Marshal(categoricalNodeDump{
			SplitFeatureID:         int32(t.splitFeatureIndex[nid]),
			DefaultLeft:            t.defaultLeft[nid],
			NodeType:               t.nodeType[nid].String(),
			CategoryList:           t.CategoryList(nid),
			CategoryListRightChild: t.categoryListRightChild[nid],
			LeftChild:              t.leftChild[nid],
			RightChild:             t.rightChild[nid],
		})
	}
	return json.Marshal(numericalNodeDump{
		SplitFeatureID: int32(t.splitFeatureIndex[nid]),
		DefaultLeft:    t.defaultLeft[nid],
		NodeType:       t.nodeType[nid].String(),
		ComparisonOp:   t.comparisonOp[nid].String(),
		Threshold:      float64(t.threshold[nid]),
		LeftChild:      t.leftChild[nid],
		RightChild:     t.rightChild[nid],
	})
}
