package formats

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ComponentType is the numeric kind of a single vertex or index component.
type ComponentType uint32

const (
	ComponentUint8   ComponentType = 1
	ComponentInt8    ComponentType = 2
	ComponentUint16  ComponentType = 3
	ComponentInt16   ComponentType = 4
	ComponentUint32  ComponentType = 5
	ComponentInt32   ComponentType = 6
	ComponentUint64  ComponentType = 7
	ComponentInt64   ComponentType = 8
	ComponentFloat16 ComponentType = 9
	ComponentFloat32 ComponentType = 10
	ComponentFloat64 ComponentType = 11
)

// Size returns the component size in bytes, or 0 for unknown types.
func (c ComponentType) Size() int {
	switch c {
	case ComponentUint8, ComponentInt8:
		return 1
	case ComponentUint16, ComponentInt16, ComponentFloat16:
		return 2
	case ComponentUint32, ComponentInt32, ComponentFloat32:
		return 4
	case ComponentUint64, ComponentInt64, ComponentFloat64:
		return 8
	default:
		return 0
	}
}

// String returns a human-readable component type name.
func (c ComponentType) String() string {
	switch c {
	case ComponentUint8:
		return "UnsignedInt8"
	case ComponentInt8:
		return "Int8"
	case ComponentUint16:
		return "UnsignedInt16"
	case ComponentInt16:
		return "Int16"
	case ComponentUint32:
		return "UnsignedInt32"
	case ComponentInt32:
		return "Int32"
	case ComponentUint64:
		return "UnsignedInt64"
	case ComponentInt64:
		return "Int64"
	case ComponentFloat16:
		return "Float16"
	case ComponentFloat32:
		return "Float32"
	case ComponentFloat64:
		return "Float64"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(c))
	}
}

// DrawMode is the primitive topology the subset vertices are assembled into.
type DrawMode uint32

const (
	DrawPoints        DrawMode = 1
	DrawLineStrip     DrawMode = 2
	DrawLineLoop      DrawMode = 3
	DrawLines         DrawMode = 4
	DrawTriangleStrip DrawMode = 5
	DrawTriangleFan   DrawMode = 6
	DrawTriangles     DrawMode = 7
	DrawPatches       DrawMode = 8
)

// String returns a human-readable draw mode name.
func (d DrawMode) String() string {
	switch d {
	case DrawPoints:
		return "Points"
	case DrawLineStrip:
		return "LineStrip"
	case DrawLineLoop:
		return "LineLoop"
	case DrawLines:
		return "Lines"
	case DrawTriangleStrip:
		return "TriangleStrip"
	case DrawTriangleFan:
		return "TriangleFan"
	case DrawTriangles:
		return "Triangles"
	case DrawPatches:
		return "Patches"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(d))
	}
}

// WindingMode is the front-face winding order.
type WindingMode uint32

const (
	WindingClockwise        WindingMode = 1
	WindingCounterClockwise WindingMode = 2
)

// String returns a human-readable winding name.
func (w WindingMode) String() string {
	switch w {
	case WindingClockwise:
		return "Clockwise"
	case WindingCounterClockwise:
		return "CounterClockwise"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(w))
	}
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// VertexAttribute describes one attribute inside an interleaved vertex record.
type VertexAttribute struct {
	Name            string        // Semantic name, e.g. "attr_pos", "attr_uv0"
	ComponentType   ComponentType // Type of each component
	ComponentCount  uint32        // Components per value
	FirstItemOffset uint32        // Byte offset inside one vertex record
}

// VertexBuffer holds interleaved vertex records.
type VertexBuffer struct {
	Stride     uint32
	Attributes []VertexAttribute
	Data       []byte
}

// VertexCount returns the number of whole vertex records in Data.
func (vb *VertexBuffer) VertexCount() int {
	if vb.Stride == 0 {
		return 0
	}
	return len(vb.Data) / int(vb.Stride)
}

// IndexBuffer holds raw index data of a declared width.
type IndexBuffer struct {
	ComponentType ComponentType
	Data          []byte
}

// RawSubset is a subset record as stored in the mesh, before extraction.
type RawSubset struct {
	Count      uint32 // Number of vertices
	Offset     uint32 // Start offset into the logical index array
	Bounds     Bounds
	NameLength uint32 // Name length in UTF-16 code units
	Name       []byte // UTF-16LE name bytes
}

// Joint is a skeleton joint. Matrices are converted from the row-major
// on-disk layout to mathgl's column-major layout.
type Joint struct {
	ID              uint32
	ParentID        uint32
	InverseBindPose mgl32.Mat4
	LocalToGlobal   mgl32.Mat4
}
