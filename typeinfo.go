package treelite

// Threshold is the type constraint for a tree's split-threshold column.
// Only float32 and float64 are legal threshold representations.
type Threshold interface {
	~float32 | ~float64
}

// Leaf is the type constraint for a tree's leaf-value and leaf-vector
// columns. float32/float64 are the two fully functional pairs; uint32 is
// reserved for leaf-id prediction output and is never legal for builder
// construction (see pairValid).
type Leaf interface {
	~float32 | ~float64 | ~uint32
}

// TypeInfo reifies a Go numeric type at runtime so that Model's four-way
// variant can be discriminated without reflection. It is also the on-wire
// byte tag written by the serializer.
type TypeInfo uint8

const (
	TypeInfoInvalid TypeInfo = iota
	TypeInfoFloat32
	TypeInfoFloat64
	TypeInfoUInt32
)

func (t TypeInfo) String() string {
	switch t {
	case TypeInfoFloat32:
		return "float32"
	case TypeInfoFloat64:
		return "float64"
	case TypeInfoUInt32:
		return "uint32"
	default:
		return "invalid"
	}
}

// typeInfoOf returns the TypeInfo tag for one of the supported Go numeric
// types. It is resolved via a type switch on a zero value of T, so it must
// only be called with the three concrete types the package instantiates
// generics over.
func typeInfoOf[T Threshold | Leaf]() TypeInfo {
	var zero T
	switch any(zero).(type) {
	case float32:
		return TypeInfoFloat32
	case float64:
		return TypeInfoFloat64
	case uint32:
		return TypeInfoUInt32
	default:
		return TypeInfoInvalid
	}
}

// pairValid reports whether (thresholdType, leafType) is one of the four
// legal variant tags, and whether it is additionally legal for builder
// construction (the two matched pairs only).
func pairValid(threshold, leaf TypeInfo) (valid, builderLegal bool) {
	switch {
	case threshold == TypeInfoFloat32 && leaf == TypeInfoFloat32:
		return true, true
	case threshold == TypeInfoFloat64 && leaf == TypeInfoFloat64:
		return true, true
	case threshold == TypeInfoFloat32 && leaf == TypeInfoUInt32:
		return true, false
	case threshold == TypeInfoFloat64 && leaf == TypeInfoUInt32:
		return true, false
	default:
		return false, false
	}
}
