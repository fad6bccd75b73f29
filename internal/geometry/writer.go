package geometry

import (
	"encoding/binary"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshscope/pkg/formats"
	"github.com/Faultbox/meshscope/pkg/math"
)

// vertexWriter appends float32 components and uint32 indices and tracks the
// bounds of every position written.
type vertexWriter struct {
	data     []byte
	indices  []byte
	vertices int
	count    int // indices
	min, max mgl32.Vec3
}

func newVertexWriter(vertices, stride int) *vertexWriter {
	return &vertexWriter{
		data: make([]byte, 0, vertices*stride),
		min:  mgl32.Vec3{gomath.MaxFloat32, gomath.MaxFloat32, gomath.MaxFloat32},
		max:  mgl32.Vec3{-gomath.MaxFloat32, -gomath.MaxFloat32, -gomath.MaxFloat32},
	}
}

func (w *vertexWriter) floats(v ...float32) {
	for _, f := range v {
		w.data = binary.LittleEndian.AppendUint32(w.data, gomath.Float32bits(f))
	}
}

// position starts a new vertex record.
func (w *vertexWriter) position(p mgl32.Vec3) {
	w.vertices++
	w.min, w.max = math.Extend(w.min, w.max, p)
	w.floats(p[:]...)
}

func (w *vertexWriter) index(i ...uint32) {
	for _, v := range i {
		w.indices = binary.LittleEndian.AppendUint32(w.indices, v)
		w.count++
	}
}

// line appends the segment (from, from+dir*scale) as two vertices with
// sequential indices.
func (w *vertexWriter) line(from, dir mgl32.Vec3, scale float32) {
	base := uint32(w.vertices)
	w.position(from)
	w.position(from.Add(dir.Mul(scale)))
	w.index(base, base+1)
}

func (w *vertexWriter) bounds() formats.Bounds {
	if w.vertices == 0 {
		return formats.Bounds{}
	}
	return formats.Bounds{Min: w.min, Max: w.max}
}

// lines finishes a position-only line list.
func (w *vertexWriter) lines() *Geometry {
	return &Geometry{
		VertexData:  w.data,
		Stride:      12,
		Attributes:  []Attribute{{Semantic: SemanticPosition, Offset: 0, Components: 3}},
		IndexData:   w.indices,
		IndexType:   formats.ComponentUint32,
		VertexCount: w.vertices,
		IndexCount:  w.count,
		Bounds:      w.bounds(),
		Primitive:   PrimitiveLines,
	}
}
