// Package geometry builds renderable vertex and index buffers from decoded
// subsets: the original triangles, a wireframe, and line segments showing
// normals, tangents and binormals.
package geometry

import (
	"bytes"
	"encoding/binary"
	gomath "math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshscope/pkg/formats"
)

// Semantic names the meaning of one vertex attribute.
type Semantic int

const (
	SemanticPosition Semantic = iota
	SemanticNormal
	SemanticTexCoord
	SemanticTangent
	SemanticBinormal
	SemanticColor
)

func (s Semantic) String() string {
	switch s {
	case SemanticPosition:
		return "Position"
	case SemanticNormal:
		return "Normal"
	case SemanticTexCoord:
		return "TexCoord"
	case SemanticTangent:
		return "Tangent"
	case SemanticBinormal:
		return "Binormal"
	case SemanticColor:
		return "Color"
	default:
		return "Unknown"
	}
}

// Primitive is the topology of a geometry's vertices.
type Primitive int

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveLines
)

func (p Primitive) String() string {
	if p == PrimitiveLines {
		return "Lines"
	}
	return "Triangles"
}

// Attribute describes one float32 attribute inside a vertex record.
type Attribute struct {
	Semantic   Semantic
	Offset     uint32 // Byte offset inside one vertex record
	Components int
	Channel    int // UV channel for SemanticTexCoord
}

// Geometry is one renderable buffer set. Vertex data is interleaved
// little-endian float32; index data, when present, is little-endian uint32.
type Geometry struct {
	VertexData  []byte
	Stride      uint32
	Attributes  []Attribute
	IndexData   []byte
	IndexType   formats.ComponentType
	VertexCount int
	IndexCount  int
	Bounds      formats.Bounds
	Primitive   Primitive
}

// Buffers holds the five outputs of one build. A nil field is an empty output.
type Buffers struct {
	Original  *Geometry
	Wireframe *Geometry
	Normals   *Geometry
	Tangents  *Geometry
	Binormals *Geometry
}

// Empty reports whether no output holds any vertices.
func (b *Buffers) Empty() bool {
	if b == nil {
		return true
	}
	for _, g := range b.All() {
		if g != nil && g.VertexCount > 0 {
			return false
		}
	}
	return true
}

// All returns the outputs in the order original, wireframe, normals,
// tangents, binormals.
func (b *Buffers) All() []*Geometry {
	return []*Geometry{b.Original, b.Wireframe, b.Normals, b.Tangents, b.Binormals}
}

// Clone returns a deep copy of every output.
func (b *Buffers) Clone() *Buffers {
	if b == nil {
		return nil
	}
	return &Buffers{
		Original:  b.Original.Clone(),
		Wireframe: b.Wireframe.Clone(),
		Normals:   b.Normals.Clone(),
		Tangents:  b.Tangents.Clone(),
		Binormals: b.Binormals.Clone(),
	}
}

// Clone returns a copy that shares no slices with g.
func (g *Geometry) Clone() *Geometry {
	if g == nil {
		return nil
	}
	c := *g
	c.VertexData = bytes.Clone(g.VertexData)
	c.IndexData = bytes.Clone(g.IndexData)
	c.Attributes = slices.Clone(g.Attributes)
	return &c
}

// Attribute returns the first attribute with the given semantic.
func (g *Geometry) Attribute(s Semantic) (Attribute, bool) {
	for _, a := range g.Attributes {
		if a.Semantic == s {
			return a, true
		}
	}
	return Attribute{}, false
}

// Vec3s decodes the three-component attribute with semantic s for every
// vertex. It returns nil if the attribute is absent.
func (g *Geometry) Vec3s(s Semantic) []mgl32.Vec3 {
	a, ok := g.Attribute(s)
	if !ok || a.Components < 3 {
		return nil
	}
	out := make([]mgl32.Vec3, g.VertexCount)
	for i := range out {
		base := uint32(i)*g.Stride + a.Offset
		for c := 0; c < 3; c++ {
			out[i][c] = gomath.Float32frombits(binary.LittleEndian.Uint32(g.VertexData[base+uint32(c)*4:]))
		}
	}
	return out
}

// Positions decodes the vertex positions.
func (g *Geometry) Positions() []mgl32.Vec3 {
	return g.Vec3s(SemanticPosition)
}

// Indices returns the index list, or sequential indices when the geometry
// carries no index data.
func (g *Geometry) Indices() []uint32 {
	if len(g.IndexData) == 0 {
		out := make([]uint32, g.VertexCount)
		for i := range out {
			out[i] = uint32(i)
		}
		return out
	}
	out := make([]uint32, g.IndexCount)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(g.IndexData[i*4:])
	}
	return out
}
