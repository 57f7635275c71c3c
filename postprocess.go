package treelite

import "math"

// scalarPostprocessor transforms one accumulated (target,class) cell.
type scalarPostprocessor func(x float64, alpha, ratioC float32) float64

// rowPostprocessor transforms a full class-axis row in place.
type rowPostprocessor func(row []float64, alpha, ratioC float32)

// postprocessorEntry is one row of the registry in spec.md §4.H: a
// post-processor is either applied element-wise (scalar) or across the
// class axis of a row (row); exactly one of the two function pointers is
// set.
type postprocessorEntry struct {
	scalar scalarPostprocessor
	row    rowPostprocessor
}

var postprocessorRegistry = map[string]postprocessorEntry{
	"identity":                    {scalar: ppIdentity},
	"signed_square":               {scalar: ppSignedSquare},
	"hinge":                       {scalar: ppHinge},
	"sigmoid":                     {scalar: ppSigmoid},
	"exponential":                 {scalar: ppExponential},
	"exponential_standard_ratio":  {scalar: ppExponentialStandardRatio},
	"logarithm_one_plus_exp":      {scalar: ppLogOnePlusExp},
	"identity_multiclass":         {row: ppIdentityMulticlass},
	"softmax":                     {row: ppSoftmax},
	"multiclass_ova":              {row: ppMulticlassOVA},
}

// lookupPostprocessor resolves a post-processor name, failing with
// UnknownIdentifier if it is not in the closed registry.
func lookupPostprocessor(name string) (postprocessorEntry, error) {
	e, ok := postprocessorRegistry[name]
	if !ok {
		return postprocessorEntry{}, &UnknownIdentifierError{Kind: "postprocessor", Name: name}
	}
	return e, nil
}

// applyPostprocessor runs the named post-processor over one row (one
// target's class axis), in place.
func applyPostprocessor(name string, row []float64, alpha, ratioC float32) error {
	e, err := lookupPostprocessor(name)
	if err != nil {
		return err
	}
	if e.row != nil {
		e.row(row, alpha, ratioC)
		return nil
	}
	for i, x := range row {
		row[i] = e.scalar(x, alpha, ratioC)
	}
	return nil
}

func ppIdentity(x float64, _, _ float32) float64 { return x }

func ppSignedSquare(x float64, _, _ float32) float64 {
	if x < 0 {
		return -(x * x)
	}
	return x * x
}

func ppHinge(x float64, _, _ float32) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func ppSigmoid(x float64, alpha, _ float32) float64 {
	return 1.0 / (1.0 + math.Exp(-float64(alpha)*x))
}

func ppExponential(x float64, _, _ float32) float64 { return math.Exp(x) }

func ppExponentialStandardRatio(x float64, _, ratioC float32) float64 {
	return math.Exp2(-x / float64(ratioC))
}

func ppLogOnePlusExp(x float64, _, _ float32) float64 { return math.Log1p(math.Exp(x)) }

func ppIdentityMulticlass(row []float64, _, _ float32) {}

func ppSoftmax(row []float64, _, _ float32) {
	if len(row) == 0 {
		return
	}
	maxVal := row[0]
	for _, v := range row[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for i, v := range row {
		row[i] = math.Exp(v - maxVal)
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
}

func ppMulticlassOVA(row []float64, alpha, ratioC float32) {
	for i, v := range row {
		row[i] = ppSigmoid(v, alpha, ratioC)
	}
}
