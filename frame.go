package treelite

import (
	"encoding/binary"
	"math"
)

// Frame is one entry of the zero-copy "framed buffer" transport: a typed,
// flat byte run plus the format tag and item size needed to reinterpret it
// (mirroring treelite's native PyBuffer/frame interchange). NumItems is
// len(Data)/ItemSize.
type Frame struct {
	Format   string
	ItemSize int
	Data     []byte
}

// NumItems returns the number of logical elements the frame encodes.
func (f Frame) NumItems() int {
	if f.ItemSize == 0 {
		return 0
	}
	return len(f.Data) / f.ItemSize
}

func scalarFrame(format string, itemSize int, data []byte) Frame {
	return Frame{Format: format, ItemSize: itemSize, Data: data}
}

func int32Frame(data []int32) Frame {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return Frame{Format: "i4", ItemSize: 4, Data: buf}
}

func decodeInt32Frame(f Frame) ([]int32, error) {
	if f.Format != "i4" || f.ItemSize != 4 {
		return nil, &SerializationError{Detail: "expected i4 frame, got " + f.Format}
	}
	n := f.NumItems()
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(binary.LittleEndian.Uint32(f.Data[i*4:]))
	}
	return out, nil
}

func uint32Frame(data []uint32) Frame {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return Frame{Format: "u4", ItemSize: 4, Data: buf}
}

func decodeUint32Frame(f Frame) ([]uint32, error) {
	if f.Format != "u4" || f.ItemSize != 4 {
		return nil, &SerializationError{Detail: "expected u4 frame, got " + f.Format}
	}
	n := f.NumItems()
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(f.Data[i*4:])
	}
	return out, nil
}

func uint64Frame(data []uint64) Frame {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}
	return Frame{Format: "u8", ItemSize: 8, Data: buf}
}

func decodeUint64Frame(f Frame) ([]uint64, error) {
	if f.Format != "u8" || f.ItemSize != 8 {
		return nil, &SerializationError{Detail: "expected u8 frame, got " + f.Format}
	}
	n := f.NumItems()
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint64(f.Data[i*8:])
	}
	return out, nil
}

func float64Frame(data []float64) Frame {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return Frame{Format: "f8", ItemSize: 8, Data: buf}
}

func decodeFloat64Frame(f Frame) ([]float64, error) {
	if f.Format != "f8" || f.ItemSize != 8 {
		return nil, &SerializationError{Detail: "expected f8 frame, got " + f.Format}
	}
	n := f.NumItems()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(f.Data[i*8:]))
	}
	return out, nil
}

func float32Frame(data []float32) Frame {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return Frame{Format: "f4", ItemSize: 4, Data: buf}
}

func decodeFloat32Frame(f Frame) ([]float32, error) {
	if f.Format != "f4" || f.ItemSize != 4 {
		return nil, &SerializationError{Detail: "expected f4 frame, got " + f.Format}
	}
	n := f.NumItems()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(f.Data[i*4:]))
	}
	return out, nil
}

func boolFrame(data []bool) Frame {
	buf := make([]byte, len(data))
	for i, v := range data {
		if v {
			buf[i] = 1
		}
	}
	return Frame{Format: "u1", ItemSize: 1, Data: buf}
}

func decodeBoolFrame(f Frame) ([]bool, error) {
	if f.Format != "u1" || f.ItemSize != 1 {
		return nil, &SerializationError{Detail: "expected u1 frame, got " + f.Format}
	}
	out := make([]bool, len(f.Data))
	for i, v := range f.Data {
		out[i] = v != 0
	}
	return out, nil
}

func uint8Frame(data []uint8) Frame {
	buf := append([]byte(nil), data...)
	return Frame{Format: "u1", ItemSize: 1, Data: buf}
}

func decodeUint8Frame(f Frame) ([]uint8, error) {
	if f.Format != "u1" || f.ItemSize != 1 {
		return nil, &SerializationError{Detail: "expected u1 frame, got " + f.Format}
	}
	return append([]uint8(nil), f.Data...), nil
}

func stringFrame(s string) Frame {
	return Frame{Format: "c", ItemSize: 1, Data: []byte(s)}
}

func decodeStringFrame(f Frame) (string, error) {
	if f.Format != "c" || f.ItemSize != 1 {
		return "", &SerializationError{Detail: "expected c frame, got " + f.Format}
	}
	return string(f.Data), nil
}

// thresholdFrame encodes a Threshold-typed column, tagging it f4 or f8
// according to the runtime TypeInfo of T.
func thresholdFrame[T Threshold](data []T) Frame {
	switch typeInfoOf[T]() {
	case TypeInfoFloat32:
		vals := make([]float32, len(data))
		for i, v := range data {
			vals[i] = float32(v)
		}
		return float32Frame(vals)
	default:
		vals := make([]float64, len(data))
		for i, v := range data {
			vals[i] = float64(v)
		}
		return float64Frame(vals)
	}
}

func decodeThresholdFrame[T Threshold](f Frame) ([]T, error) {
	switch typeInfoOf[T]() {
	case TypeInfoFloat32:
		raw, err := decodeFloat32Frame(f)
		if err != nil {
			return nil, err
		}
		out := make([]T, len(raw))
		for i, v := range raw {
			out[i] = T(v)
		}
		return out, nil
	default:
		raw, err := decodeFloat64Frame(f)
		if err != nil {
			return nil, err
		}
		out := make([]T, len(raw))
		for i, v := range raw {
			out[i] = T(v)
		}
		return out, nil
	}
}

// leafFrame encodes a Leaf-typed column (f4, f8, or u4 per the runtime
// TypeInfo of L).
func leafFrame[L Leaf](data []L) Frame {
	switch typeInfoOf[L]() {
	case TypeInfoFloat32:
		vals := make([]float32, len(data))
		for i, v := range data {
			vals[i] = float32(v)
		}
		return float32Frame(vals)
	case TypeInfoUInt32:
		vals := make([]uint32, len(data))
		for i, v := range data {
			vals[i] = uint32(v)
		}
		return uint32Frame(vals)
	default:
		vals := make([]float64, len(data))
		for i, v := range data {
			vals[i] = float64(v)
		}
		return float64Frame(vals)
	}
}

func decodeLeafFrame[L Leaf](f Frame) ([]L, error) {
	switch typeInfoOf[L]() {
	case TypeInfoFloat32:
		raw, err := decodeFloat32Frame(f)
		if err != nil {
			return nil, err
		}
		out := make([]L, len(raw))
		for i, v := range raw {
			out[i] = L(v)
		}
		return out, nil
	case TypeInfoUInt32:
		raw, err := decodeUint32Frame(f)
		if err != nil {
			return nil, err
		}
		out := make([]L, len(raw))
		for i, v := range raw {
			out[i] = L(v)
		}
		return out, nil
	default:
		raw, err := decodeFloat64Frame(f)
		if err != nil {
			return nil, err
		}
		out := make([]L, len(raw))
		for i, v := range raw {
			out[i] = L(v)
		}
		return out, nil
	}
}
