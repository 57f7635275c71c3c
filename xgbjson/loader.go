// Package xgbjson loads an XGBoost "JSON model" dump into a treelite
// model. It is a thin front-end: it understands just enough of XGBoost's
// on-disk schema to drive the treelite.Builder[float64,float64] call
// sequence documented in the root package; it is not a general XGBoost
// client and does not attempt to reproduce every objective's exact
// numerical semantics.
package xgbjson

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/treelite/treelite"
)

type xgbRoot struct {
	Learner struct {
		LearnerModelParam struct {
			BaseScore string `json:"base_score"`
			NumFeature string `json:"num_feature"`
			NumClass   string `json:"num_class"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		GradientBooster struct {
			Model struct {
				Trees    []xgbTree `json:"trees"`
				TreeInfo []int32   `json:"tree_info"`
			} `json:"model"`
		} `json:"gradient_booster"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren       []int32   `json:"left_children"`
	RightChildren      []int32   `json:"right_children"`
	SplitIndices       []uint32  `json:"split_indices"`
	SplitConditions    []float64 `json:"split_conditions"`
	SplitType          []int32   `json:"split_type"`
	DefaultLeft        []int32   `json:"default_left"`
	BaseWeights        []float64 `json:"base_weights"`
	CategoriesSegments []int32   `json:"categories_segments"`
	CategoriesSizes    []int32   `json:"categories_sizes"`
	Categories         []uint32  `json:"categories"`
}

// loadConfigWire is the optional second argument to Load: currently the
// only recognized key truncates the ensemble after loading. Unknown keys
// are a fatal ParseError, matching the predict configuration's strictness.
type loadConfigWire struct {
	TreeLimit int `json:"tree_limit"`
}

// Load reads an XGBoost JSON model dump from path and issues the
// equivalent treelite.Builder call sequence, returning the assembled
// model. config may be nil.
func Load(path string, config json.RawMessage) (treelite.AnyModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBytes(data, config)
}

// LoadBytes is Load without the filesystem dependency, for callers that
// already have the JSON document in memory.
func LoadBytes(data []byte, config json.RawMessage) (treelite.AnyModel, error) {
	var doc xgbRoot
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &treelite.ParseError{Detail: "xgboost json: " + err.Error()}
	}

	treeLimit := 0
	if len(bytes.TrimSpace(config)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(config))
		dec.DisallowUnknownFields()
		var wire loadConfigWire
		if err := dec.Decode(&wire); err != nil {
			return nil, &treelite.ParseError{Detail: "xgbjson load config: " + err.Error()}
		}
		treeLimit = wire.TreeLimit
	}

	numFeature, err := parseIntField(doc.Learner.LearnerModelParam.NumFeature, "num_feature")
	if err != nil {
		return nil, err
	}
	numClass, err := parseIntField(doc.Learner.LearnerModelParam.NumClass, "num_class")
	if err != nil {
		return nil, err
	}
	if numClass < 1 {
		numClass = 1
	}
	baseScore, err := parseFloatField(doc.Learner.LearnerModelParam.BaseScore, "base_score")
	if err != nil {
		return nil, err
	}

	task, postprocessor := taskAndPostprocessor(doc.Learner.Objective.Name, numClass)

	trees := doc.Learner.GradientBooster.Model.Trees
	numTree := len(trees)

	targetID := make([]int32, numTree)
	classID := make([]int32, numTree)
	for i := range trees {
		targetID[i] = 0
		if numClass <= 1 {
			classID[i] = -1
			continue
		}
		if i < len(doc.Learner.GradientBooster.Model.TreeInfo) {
			classID[i] = doc.Learner.GradientBooster.Model.TreeInfo[i]
		} else {
			classID[i] = int32(i % numClass)
		}
	}

	baseScores := make([]float64, numClass)
	for i := range baseScores {
		baseScores[i] = baseScore
	}

	cfg := treelite.BuilderConfig{
		NumFeature:        int32(numFeature),
		Task:              task,
		AverageTreeOutput: false,
		NumTarget:         1,
		NumClass:          []uint32{uint32(numClass)},
		LeafVectorShape:   [2]uint32{1, 1},
		TreeTargetID:      targetID,
		TreeClassID:       classID,
		Postprocessor:     postprocessor,
		BaseScores:        baseScores,
		ExpectedNumTree:   numTree,
	}

	b, err := treelite.NewBuilder[float64, float64](cfg)
	if err != nil {
		return nil, err
	}
	for _, xt := range trees {
		if err := loadTree(b, xt); err != nil {
			return nil, err
		}
	}
	m, err := b.CommitModel()
	if err != nil {
		return nil, err
	}
	if treeLimit > 0 && treeLimit < numTree {
		if err := m.(interface{ SetTreeLimit(int) error }).SetTreeLimit(treeLimit); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func loadTree(b *treelite.Builder[float64, float64], xt xgbTree) error {
	if err := b.StartTree(); err != nil {
		return err
	}
	for i := range xt.LeftChildren {
		if err := b.StartNode(int64(i)); err != nil {
			return err
		}
		if xt.LeftChildren[i] < 0 {
			if err := b.LeafScalar(xt.BaseWeights[i]); err != nil {
				return err
			}
		} else {
			feature := xt.SplitIndices[i]
			defaultLeft := xt.DefaultLeft[i] != 0
			left, right := int64(xt.LeftChildren[i]), int64(xt.RightChildren[i])
			if len(xt.SplitType) > i && xt.SplitType[i] == 1 {
				cats := categoriesForNode(xt, i)
				if err := b.CategoricalTest(feature, defaultLeft, cats, false, left, right); err != nil {
					return err
				}
			} else {
				if err := b.NumericalTest(feature, xt.SplitConditions[i], defaultLeft, treelite.OpLT, left, right); err != nil {
					return err
				}
			}
		}
		if err := b.EndNode(); err != nil {
			return err
		}
	}
	return b.EndTree()
}

func categoriesForNode(xt xgbTree, nodeID int) []uint32 {
	if nodeID >= len(xt.CategoriesSegments) || nodeID >= len(xt.CategoriesSizes) {
		return nil
	}
	begin := xt.CategoriesSegments[nodeID]
	size := xt.CategoriesSizes[nodeID]
	if begin < 0 || size <= 0 || int(begin+size) > len(xt.Categories) {
		return nil
	}
	return xt.Categories[begin : begin+size]
}

func taskAndPostprocessor(objective string, numClass int) (treelite.TaskType, string) {
	switch objective {
	case "binary:logistic":
		return treelite.BinaryClf, "sigmoid"
	case "binary:logitraw", "binary:hinge":
		return treelite.BinaryClf, "identity"
	case "multi:softprob":
		return treelite.MultiClf, "softmax"
	case "multi:softmax":
		return treelite.MultiClf, "identity_multiclass"
	case "rank:pairwise", "rank:ndcg", "rank:map":
		return treelite.LearningToRank, "identity"
	case "count:poisson", "reg:gamma", "reg:tweedie":
		return treelite.Regressor, "exponential"
	default:
		if numClass > 1 {
			return treelite.MultiClf, "softmax"
		}
		return treelite.Regressor, "identity"
	}
}

func parseIntField(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &treelite.ParseError{Detail: "xgboost json: invalid " + name + ": " + err.Error()}
	}
	return v, nil
}

func parseFloatField(s, name string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &treelite.ParseError{Detail: "xgboost json: invalid " + name + ": " + err.Error()}
	}
	return v, nil
}
