package formats

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// Index and attribute decode errors.
var (
	ErrUnsupportedIndexType = fmt.Errorf("%w: unsupported index component type", ErrDecode)
	ErrIndexOutOfRange      = fmt.Errorf("%w: index out of range", ErrDecode)
	ErrAttributeOutOfRange  = fmt.Errorf("%w: attribute read past vertex data", ErrDecode)
)

// Indices widens the raw index data to uint32 according to the declared
// component type. Only 16- and 32-bit unsigned indices are supported.
// A trailing partial index is ignored.
func (ib *IndexBuffer) Indices() ([]uint32, error) {
	switch ib.ComponentType {
	case ComponentUint16:
		return widen(ib.Data, 2, binary.LittleEndian.Uint16), nil
	case ComponentUint32:
		return widen(ib.Data, 4, binary.LittleEndian.Uint32), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedIndexType, ib.ComponentType)
	}
}

func widen[T constraints.Unsigned](data []byte, size int, read func([]byte) T) []uint32 {
	out := make([]uint32, len(data)/size)
	for i := range out {
		out[i] = uint32(read(data[i*size:]))
	}
	return out
}

// readComponent decodes one component of type ct from the start of b and
// converts it to float32. b must hold at least ct.Size() bytes.
func readComponent(ct ComponentType, b []byte) float32 {
	switch ct {
	case ComponentUint8:
		return toFloat(b[0])
	case ComponentInt8:
		return toFloat(int8(b[0]))
	case ComponentUint16:
		return toFloat(binary.LittleEndian.Uint16(b))
	case ComponentInt16:
		return toFloat(int16(binary.LittleEndian.Uint16(b)))
	case ComponentUint32:
		return toFloat(binary.LittleEndian.Uint32(b))
	case ComponentInt32:
		return toFloat(int32(binary.LittleEndian.Uint32(b)))
	case ComponentUint64:
		return toFloat(binary.LittleEndian.Uint64(b))
	case ComponentInt64:
		return toFloat(int64(binary.LittleEndian.Uint64(b)))
	case ComponentFloat16:
		return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
	case ComponentFloat64:
		return float32(gomath.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return gomath.Float32frombits(binary.LittleEndian.Uint32(b))
	}
}

func toFloat[T constraints.Integer](v T) float32 {
	return float32(v)
}

// componentLayout returns how a value of width components is read for attr:
// the per-component type, how many components come from the buffer and the
// number of bytes that must be available. Unknown component types are read
// as Float32. Missing components are left zero.
func componentLayout(attr VertexAttribute, width int) (ComponentType, int, int) {
	ct := attr.ComponentType
	if ct.Size() == 0 {
		ct = ComponentFloat32
	}
	n := width
	if attr.ComponentCount > 0 && int(attr.ComponentCount) < width {
		n = int(attr.ComponentCount)
	}
	return ct, n, n * ct.Size()
}
