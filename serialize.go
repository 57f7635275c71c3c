package treelite

import "fmt"

// frameCursor walks a []Frame sequence, giving each consumer a simple
// next()/skip() API instead of threading an index by hand.
type frameCursor struct {
	frames []Frame
	pos    int
}

func (c *frameCursor) next() (Frame, error) {
	if c.pos >= len(c.frames) {
		return Frame{}, &SerializationError{Detail: "truncated frame sequence"}
	}
	f := c.frames[c.pos]
	c.pos++
	return f, nil
}

func (c *frameCursor) skip(n int) error {
	if c.pos+n > len(c.frames) {
		return &SerializationError{Detail: "truncated frame sequence (extension slot)"}
	}
	c.pos += n
	return nil
}

// toFrames builds the full logical frame sequence for a model: version,
// type tags, tree count, model-level scalars/arrays, the per-model
// extension slot, then per-tree frames. GetPyBuffer and
// SerializeToStream both consume exactly this sequence; only the outer
// transport differs.
func (m *Model[T, L]) toFrames() []Frame {
	frames := make([]Frame, 0, 16+16*len(m.Trees))

	frames = append(frames,
		int32Frame([]int32{m.VersionMajor, m.VersionMinor, m.VersionPatch}),
		uint8Frame([]uint8{uint8(m.ThresholdType()), uint8(m.LeafOutputType())}),
		uint64Frame([]uint64{uint64(len(m.Trees))}),
		int32Frame([]int32{m.NumFeature}),
		uint8Frame([]uint8{uint8(m.Task)}),
		boolFrame([]bool{m.AverageTreeOutput}),
		uint32Frame([]uint32{m.NumTarget}),
		uint32Frame(m.NumClass),
		uint32Frame(m.LeafVectorShape[:]),
		int32Frame(m.TreeTargetID),
		int32Frame(m.TreeClassID),
		stringFrame(m.Postprocessor),
		float32Frame([]float32{m.SigmoidAlpha}),
		float32Frame([]float32{m.RatioC}),
		float64Frame(m.BaseScores),
		stringFrame(m.Attributes),
		int32Frame([]int32{0}), // num_opt_field_per_model
	)

	for _, t := range m.Trees {
		nodeTypeBytes := make([]uint8, t.numNodes)
		for i, nt := range t.nodeType {
			nodeTypeBytes[i] = uint8(nt)
		}
		opBytes := make([]uint8, t.numNodes)
		for i, op := range t.comparisonOp {
			opBytes[i] = uint8(op)
		}

		frames = append(frames,
			int32Frame([]int32{int32(t.numNodes)}),
			boolFrame([]bool{t.hasCategoricalSplit}),
			uint8Frame(nodeTypeBytes),
			int32Frame(t.leftChild),
			int32Frame(t.rightChild),
			uint32Frame(t.splitFeatureIndex),
			boolFrame(t.defaultLeft),
			leafFrame(t.leafValue),
			thresholdFrame(t.threshold),
			uint8Frame(opBytes),
			boolFrame(t.categoryListRightChild),
			leafFrame(t.leafVectorPool),
			uint64Frame(t.leafVectorBegin),
			uint64Frame(t.leafVectorEnd),
			uint32Frame(t.categoryListPool),
			uint64Frame(t.categoryListBegin),
			uint64Frame(t.categoryListEnd),
			uint64Frame(t.dataCount),
			boolFrame(t.dataCountPresent),
			float64Frame(t.sumHess),
			boolFrame(t.sumHessPresent),
			float64Frame(t.gain),
			boolFrame(t.gainPresent),
			int32Frame([]int32{0}), // num_opt_field_per_tree
			int32Frame([]int32{0}), // num_opt_field_per_node
		)
	}
	return frames
}

// peekVersionAndType reads the fixed header prefix of a frame sequence
// (version triple + type tags) without consuming the rest, so the caller
// can decide which concrete Model[T,L] to instantiate.
func peekVersionAndType(frames []Frame) (major, minor, patch int32, threshold, leaf TypeInfo, rest []Frame, err error) {
	c := &frameCursor{frames: frames}
	vf, err := c.next()
	if err != nil {
		return
	}
	versions, err := decodeInt32Frame(vf)
	if err != nil || len(versions) != 3 {
		err = &SerializationError{Detail: "malformed version frame"}
		return
	}
	tf, err := c.next()
	if err != nil {
		return
	}
	tags, err := decodeUint8Frame(tf)
	if err != nil || len(tags) != 2 {
		err = &SerializationError{Detail: "malformed type-info frame"}
		return
	}
	return versions[0], versions[1], versions[2], TypeInfo(tags[0]), TypeInfo(tags[1]), frames[2:], nil
}

// checkVersionCompat implements the compatibility matrix of spec.md §4.E.
func checkVersionCompat(major, minor int32) error {
	switch {
	case major == 3 && minor == 9:
		return nil // bridged forward to current
	case major == currentVersionMajor:
		if minor > currentVersionMinor {
			warnf("deserializing model from newer minor version %d.%d (reader is %d.%d); skipping unknown extension fields",
				major, minor, currentVersionMajor, currentVersionMinor)
		}
		return nil
	default:
		return &SerializationError{Detail: fmt.Sprintf("incompatible major version %d (reader supports %d, plus the 3.9 bridge)", major, currentVersionMajor)}
	}
}

// fromModelFrames reconstructs Model[T,L] from the frame sequence that
// follows the version/type-tag prefix (see peekVersionAndType).
func fromModelFrames[T Threshold, L Leaf](rest []Frame, major, minor, patch int32) (*Model[T, L], error) {
	c := &frameCursor{frames: rest}

	numTreeF, err := c.next()
	if err != nil {
		return nil, err
	}
	numTrees, err := decodeUint64Frame(numTreeF)
	if err != nil || len(numTrees) != 1 {
		return nil, &SerializationError{Detail: "malformed num_tree frame"}
	}

	m := &Model[T, L]{VersionMajor: major, VersionMinor: minor, VersionPatch: patch}

	next32 := func() (int32, error) {
		f, err := c.next()
		if err != nil {
			return 0, err
		}
		vals, err := decodeInt32Frame(f)
		if err != nil || len(vals) != 1 {
			return 0, &SerializationError{Detail: "malformed scalar i4 frame"}
		}
		return vals[0], nil
	}

	numFeature, err := next32()
	if err != nil {
		return nil, err
	}
	m.NumFeature = numFeature

	taskF, err := c.next()
	if err != nil {
		return nil, err
	}
	taskBytes, err := decodeUint8Frame(taskF)
	if err != nil || len(taskBytes) != 1 {
		return nil, &SerializationError{Detail: "malformed task_type frame"}
	}
	m.Task = TaskType(taskBytes[0])

	avgF, err := c.next()
	if err != nil {
		return nil, err
	}
	avg, err := decodeBoolFrame(avgF)
	if err != nil || len(avg) != 1 {
		return nil, &SerializationError{Detail: "malformed average_tree_output frame"}
	}
	m.AverageTreeOutput = avg[0]

	numTargetF, err := c.next()
	if err != nil {
		return nil, err
	}
	numTarget, err := decodeUint32Frame(numTargetF)
	if err != nil || len(numTarget) != 1 {
		return nil, &SerializationError{Detail: "malformed num_target frame"}
	}
	m.NumTarget = numTarget[0]

	numClassF, err := c.next()
	if err != nil {
		return nil, err
	}
	m.NumClass, err = decodeUint32Frame(numClassF)
	if err != nil {
		return nil, err
	}

	shapeF, err := c.next()
	if err != nil {
		return nil, err
	}
	shape, err := decodeUint32Frame(shapeF)
	if err != nil || len(shape) != 2 {
		return nil, &SerializationError{Detail: "malformed leaf_vector_shape frame"}
	}
	m.LeafVectorShape = [2]uint32{shape[0], shape[1]}

	targetIDF, err := c.next()
	if err != nil {
		return nil, err
	}
	m.TreeTargetID, err = decodeInt32Frame(targetIDF)
	if err != nil {
		return nil, err
	}

	classIDF, err := c.next()
	if err != nil {
		return nil, err
	}
	m.TreeClassID, err = decodeInt32Frame(classIDF)
	if err != nil {
		return nil, err
	}

	postF, err := c.next()
	if err != nil {
		return nil, err
	}
	m.Postprocessor, err = decodeStringFrame(postF)
	if err != nil {
		return nil, err
	}

	sigF, err := c.next()
	if err != nil {
		return nil, err
	}
	sig, err := decodeFloat32Frame(sigF)
	if err != nil || len(sig) != 1 {
		return nil, &SerializationError{Detail: "malformed sigmoid_alpha frame"}
	}
	m.SigmoidAlpha = sig[0]

	ratioF, err := c.next()
	if err != nil {
		return nil, err
	}
	ratio, err := decodeFloat32Frame(ratioF)
	if err != nil || len(ratio) != 1 {
		return nil, &SerializationError{Detail: "malformed ratio_c frame"}
	}
	m.RatioC = ratio[0]

	baseF, err := c.next()
	if err != nil {
		return nil, err
	}
	m.BaseScores, err = decodeFloat64Frame(baseF)
	if err != nil {
		return nil, err
	}

	attrF, err := c.next()
	if err != nil {
		return nil, err
	}
	m.Attributes, err = decodeStringFrame(attrF)
	if err != nil {
		return nil, err
	}

	numOptModel, err := next32()
	if err != nil {
		return nil, err
	}
	if err := c.skip(int(numOptModel)); err != nil {
		return nil, err
	}

	m.Trees = make([]*Tree[T, L], numTrees[0])
	for ti := range m.Trees {
		t := &Tree[T, L]{}

		nn, err := next32()
		if err != nil {
			return nil, err
		}
		t.numNodes = int(nn)

		hasCatF, err := c.next()
		if err != nil {
			return nil, err
		}
		hasCat, err := decodeBoolFrame(hasCatF)
		if err != nil || len(hasCat) != 1 {
			return nil, &SerializationError{Detail: "malformed has_categorical_split frame"}
		}
		t.hasCategoricalSplit = hasCat[0]

		ntF, err := c.next()
		if err != nil {
			return nil, err
		}
		ntBytes, err := decodeUint8Frame(ntF)
		if err != nil {
			return nil, err
		}
		t.nodeType = make([]NodeType, len(ntBytes))
		for i, b := range ntBytes {
			t.nodeType[i] = NodeType(b)
		}

		lcF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.leftChild, err = decodeInt32Frame(lcF); err != nil {
			return nil, err
		}
		rcF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.rightChild, err = decodeInt32Frame(rcF); err != nil {
			return nil, err
		}
		siF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.splitFeatureIndex, err = decodeUint32Frame(siF); err != nil {
			return nil, err
		}
		dlF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.defaultLeft, err = decodeBoolFrame(dlF); err != nil {
			return nil, err
		}
		lvF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.leafValue, err = decodeLeafFrame[L](lvF); err != nil {
			return nil, err
		}
		thF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.threshold, err = decodeThresholdFrame[T](thF); err != nil {
			return nil, err
		}
		opF, err := c.next()
		if err != nil {
			return nil, err
		}
		opBytes, err := decodeUint8Frame(opF)
		if err != nil {
			return nil, err
		}
		t.comparisonOp = make([]Operator, len(opBytes))
		for i, b := range opBytes {
			t.comparisonOp[i] = Operator(b)
		}
		clrF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.categoryListRightChild, err = decodeBoolFrame(clrF); err != nil {
			return nil, err
		}
		lvpF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.leafVectorPool, err = decodeLeafFrame[L](lvpF); err != nil {
			return nil, err
		}
		lvbF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.leafVectorBegin, err = decodeUint64Frame(lvbF); err != nil {
			return nil, err
		}
		lveF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.leafVectorEnd, err = decodeUint64Frame(lveF); err != nil {
			return nil, err
		}
		clpF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.categoryListPool, err = decodeUint32Frame(clpF); err != nil {
			return nil, err
		}
		clbF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.categoryListBegin, err = decodeUint64Frame(clbF); err != nil {
			return nil, err
		}
		cleF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.categoryListEnd, err = decodeUint64Frame(cleF); err != nil {
			return nil, err
		}
		dcF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.dataCount, err = decodeUint64Frame(dcF); err != nil {
			return nil, err
		}
		dcpF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.dataCountPresent, err = decodeBoolFrame(dcpF); err != nil {
			return nil, err
		}
		shF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.sumHess, err = decodeFloat64Frame(shF); err != nil {
			return nil, err
		}
		shpF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.sumHessPresent, err = decodeBoolFrame(shpF); err != nil {
			return nil, err
		}
		gF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.gain, err = decodeFloat64Frame(gF); err != nil {
			return nil, err
		}
		gpF, err := c.next()
		if err != nil {
			return nil, err
		}
		if t.gainPresent, err = decodeBoolFrame(gpF); err != nil {
			return nil, err
		}

		numOptTree, err := next32()
		if err != nil {
			return nil, err
		}
		if err := c.skip(int(numOptTree)); err != nil {
			return nil, err
		}
		numOptNode, err := next32()
		if err != nil {
			return nil, err
		}
		if err := c.skip(int(numOptNode)); err != nil {
			return nil, err
		}

		m.Trees[ti] = t
	}

	if err := checkCommittedModel(m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetPyBuffer returns a zero-copy framed representation of m, suitable for
// handing to another process or language binding without re-encoding.
func GetPyBuffer(m AnyModel) ([]Frame, error) {
	if m == nil {
		return nil, &ValidationError{Detail: "nil model"}
	}
	return m.toFrames(), nil
}

// FromPyBuffer reconstructs a Model from frames produced by GetPyBuffer.
func FromPyBuffer(frames []Frame) (AnyModel, error) {
	major, minor, patch, threshold, leaf, rest, err := peekVersionAndType(frames)
	if err != nil {
		return nil, err
	}
	if err := checkVersionCompat(major, minor); err != nil {
		return nil, err
	}
	valid, _ := pairValid(threshold, leaf)
	if !valid {
		return nil, &TypeMismatchError{Detail: "unrecognized (threshold,leaf) type pair on wire"}
	}
	switch {
	case threshold == TypeInfoFloat32 && leaf == TypeInfoFloat32:
		return fromModelFrames[float32, float32](rest, major, minor, patch)
	case threshold == TypeInfoFloat64 && leaf == TypeInfoFloat64:
		return fromModelFrames[float64, float64](rest, major, minor, patch)
	case threshold == TypeInfoFloat32 && leaf == TypeInfoUInt32:
		return fromModelFrames[float32, uint32](rest, major, minor, patch)
	case threshold == TypeInfoFloat64 && leaf == TypeInfoUInt32:
		return fromModelFrames[float64, uint32](rest, major, minor, patch)
	default:
		return nil, &TypeMismatchError{Detail: "unrecognized (threshold,leaf) type pair on wire"}
	}
}
