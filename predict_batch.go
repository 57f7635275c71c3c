package treelite

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
)

// traverse walks features from the root of t and returns the id of the
// leaf node reached. A NaN feature value follows the node's default_left
// branch; the walk is capped at numNodes+1 steps so a corrupted tree fails
// with a StructuralError instead of spinning forever.
func (t *Tree[T, L]) traverse(features []float64) (int, error) {
	nid := 0
	for steps := 0; steps <= t.numNodes; steps++ {
		if t.nodeType[nid] == LeafNode {
			return nid, nil
		}
		fidx := int(t.splitFeatureIndex[nid])
		if fidx >= len(features) {
			return 0, &ValidationError{Detail: "split feature index out of range of input row"}
		}
		val := features[fidx]

		var goLeft bool
		switch t.nodeType[nid] {
		case NumericalTestNode:
			if math.IsNaN(val) {
				goLeft = t.defaultLeft[nid]
			} else {
				goLeft = t.comparisonOp[nid].evaluate(val, float64(t.threshold[nid]))
			}
		case CategoricalTestNode:
			if math.IsNaN(val) {
				goLeft = t.defaultLeft[nid]
			} else {
				goLeft = t.categoricalGoLeft(nid, val)
			}
		default:
			return 0, &StructuralError{Detail: "unrecognized node type during traversal"}
		}
		if goLeft {
			nid = int(t.leftChild[nid])
		} else {
			nid = int(t.rightChild[nid])
		}
	}
	return 0, &StructuralError{Detail: "node iteration cap exceeded (cycle?)"}
}

// categoricalGoLeft reports whether val routes to the left child of a
// categorical test node. A value is a category member only if it is a
// non-negative integer representable as uint32; any other value (negative,
// fractional, or overflowing) is simply not in the list.
func (t *Tree[T, L]) categoricalGoLeft(nid int, val float64) bool {
	member := false
	if val >= 0 && val == math.Trunc(val) && val <= float64(math.MaxUint32) {
		cat := uint32(val)
		list := t.CategoryList(nid)
		idx := sort.Search(len(list), func(i int) bool { return list[i] >= cat })
		member = idx < len(list) && list[idx] == cat
	}
	if t.categoryListRightChild[nid] {
		return !member
	}
	return member
}

// leafContribution returns the scalar or vector output stored at a leaf.
func (t *Tree[T, L]) leafContribution(nid int) (scalar float64, vector []float64, isVector bool) {
	if t.HasLeafVector(nid) {
		raw := t.LeafVector(nid)
		vector = make([]float64, len(raw))
		for i, v := range raw {
			vector[i] = float64(v)
		}
		return 0, vector, true
	}
	return float64(t.leafValue[nid]), nil, false
}

// predictOneRow runs every tree over one feature row and returns the leaf
// id reached by each tree, the accumulated (target,class) matrix with base
// scores and averaging applied but before post-processing, and the
// per-tree contribution matrix used by PredictScorePerTree.
func (m *Model[T, L]) predictOneRow(features []float64) (leafIDs []int32, matrix, scorePerTree []float64, err error) {
	maxClass := int(m.MaxNumClass())
	numTarget := int(m.NumTarget)

	leafIDs = make([]int32, len(m.Trees))
	scorePerTree = make([]float64, len(m.Trees)*maxClass)
	acc := make([]float64, numTarget*maxClass)
	treeCount := make([]int, numTarget)

	for i, tr := range m.Trees {
		nid, err := tr.traverse(features)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("tree %d: %w", i, err)
		}
		leafIDs[i] = int32(nid)
		scalar, vector, isVector := tr.leafContribution(nid)

		contribAt := func(class int) float64 {
			if isVector {
				if class < len(vector) {
					return vector[class]
				}
				if len(vector) == 1 {
					return vector[0]
				}
				return 0
			}
			return scalar
		}

		tid := m.TreeTargetID[i]
		cid := m.TreeClassID[i]
		switch {
		case tid == -1:
			for tg := 0; tg < numTarget; tg++ {
				treeCount[tg]++
				for c := 0; c < maxClass; c++ {
					v := contribAt(c)
					acc[tg*maxClass+c] += v
					scorePerTree[i*maxClass+c] += v
				}
			}
		case cid == -1:
			tg := int(tid)
			treeCount[tg]++
			for c := 0; c < maxClass; c++ {
				v := contribAt(c)
				acc[tg*maxClass+c] += v
				scorePerTree[i*maxClass+c] += v
			}
		default:
			tg, cl := int(tid), int(cid)
			treeCount[tg]++
			v := contribAt(0)
			acc[tg*maxClass+cl] += v
			scorePerTree[i*maxClass+cl] += v
		}
	}

	if m.AverageTreeOutput {
		for tg := 0; tg < numTarget; tg++ {
			if treeCount[tg] == 0 {
				continue
			}
			for c := 0; c < maxClass; c++ {
				acc[tg*maxClass+c] /= float64(treeCount[tg])
			}
		}
	}
	for i := range acc {
		acc[i] += m.BaseScores[i]
	}
	return leafIDs, acc, scorePerTree, nil
}

// predictDispatch implements AnyModel.predictDispatch: it validates the
// input matrix, fans row work out across cfg.NumThread workers (following
// the same row-partitioned worker-pool shape as the teacher's PredictDense
// — a sync.WaitGroup plus a buffered, first-error-wins channel — and falls
// back to a sequential loop when the row count doesn't justify threads),
// and assembles the output in the layout PredictOutput.Kind calls for.
func (m *Model[T, L]) predictDispatch(input []float64, numRow int, cfg PredictConfig) (*PredictOutput, error) {
	nCols := int(m.NumFeature)
	if nCols <= 0 {
		return nil, &ValidationError{Detail: "model num_feature is not set"}
	}
	if len(input) < numRow*nCols {
		return nil, &ValidationError{Detail: "input slice shorter than numRow*num_feature"}
	}

	maxClass := int(m.MaxNumClass())
	numTarget := int(m.NumTarget)
	numTree := len(m.Trees)

	out := &PredictOutput{
		NumRow:    numRow,
		NumTarget: m.NumTarget,
		NumClass:  append([]uint32(nil), m.NumClass...),
		MaxClass:  uint32(maxClass),
		NumTree:   numTree,
		Kind:      cfg.Kind,
	}
	switch cfg.Kind {
	case PredictLeafID:
		out.Data = make([]float64, numRow*numTree)
	case PredictScorePerTree:
		out.Data = make([]float64, numRow*numTree*maxClass)
	default:
		out.Data = make([]float64, numRow*numTarget*maxClass)
	}
	if numRow == 0 {
		return out, nil
	}

	// writeRow scatters one row's target-major-within-the-row matrix
	// (length numTarget*maxClass, ordered target*maxClass+class) into
	// out.Data. With a single target this is a plain contiguous copy; with
	// more than one it lands each target's maxClass-wide chunk in that
	// target's own contiguous run of rows, matching PredictOutput's
	// [NumTarget][NumRow][MaxClass] layout. Per-row writes never overlap
	// across rows either way, so concurrent callers stay data-race free.
	writeRow := func(row int, matrix []float64) {
		if numTarget <= 1 {
			copy(out.Data[row*maxClass:(row+1)*maxClass], matrix)
			return
		}
		for tg := 0; tg < numTarget; tg++ {
			dst := (tg*numRow + row) * maxClass
			copy(out.Data[dst:dst+maxClass], matrix[tg*maxClass:(tg+1)*maxClass])
		}
	}

	process := func(row int) error {
		features := input[row*nCols : (row+1)*nCols]
		leafIDs, matrix, scorePerTree, err := m.predictOneRow(features)
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		switch cfg.Kind {
		case PredictLeafID:
			base := row * numTree
			for i, id := range leafIDs {
				out.Data[base+i] = float64(id)
			}
		case PredictScorePerTree:
			copy(out.Data[row*numTree*maxClass:(row+1)*numTree*maxClass], scorePerTree)
		case PredictRaw:
			writeRow(row, matrix)
		default:
			processed := append([]float64(nil), matrix...)
			for tg := 0; tg < numTarget; tg++ {
				rowSlice := processed[tg*maxClass : (tg+1)*maxClass]
				if err := applyPostprocessor(m.Postprocessor, rowSlice, m.SigmoidAlpha, m.RatioC); err != nil {
					return fmt.Errorf("row %d target %d: %w", row, tg, err)
				}
			}
			writeRow(row, processed)
		}
		return nil
	}

	nThreads := cfg.NumThread
	if nThreads == 0 {
		nThreads = runtime.NumCPU()
	}
	if nThreads < 1 {
		nThreads = 1
	}

	if nThreads == 1 || numRow <= nThreads {
		for r := 0; r < numRow; r++ {
			if err := process(r); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, nThreads)
	rowsPerThread := (numRow + nThreads - 1) / nThreads
	for w := 0; w < nThreads; w++ {
		start := w * rowsPerThread
		end := start + rowsPerThread
		if end > numRow {
			end = numRow
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for r := s; r < e; r++ {
				if err := process(r); err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
			}
		}(start, end)
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return nil, err
	}
	return out, nil
}
