package geometry

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshscope/pkg/formats"
	"github.com/Faultbox/meshscope/pkg/math"
)

// UVPolicy selects which UV channels go into the original buffer.
type UVPolicy int

const (
	// UVAllChannels interleaves every present channel in ascending order.
	UVAllChannels UVPolicy = iota
	// UVChannel0Only keeps channel 0 and drops the rest, as some format
	// revisions do.
	UVChannel0Only
)

// DefaultNormalScaleDivisor divides the largest bounds extent to get the
// length of normal, tangent and binormal segments.
const DefaultNormalScaleDivisor = 100

// ErrInvalidOptions is returned for a negative scale divisor.
var ErrInvalidOptions = errors.New("invalid geometry options")

// Options controls a build.
type Options struct {
	UVPolicy           UVPolicy
	NormalScaleDivisor float32 // 0 means DefaultNormalScaleDivisor
}

// DefaultOptions returns all UV channels and the default segment scale.
func DefaultOptions() Options {
	return Options{UVPolicy: UVAllChannels, NormalScaleDivisor: DefaultNormalScaleDivisor}
}

// Build generates every output for subset. A nil subset, or one whose draw
// mode is not Triangles, yields empty Buffers. Vertices past the last
// complete triangle are ignored by the wireframe and line outputs.
func Build(subset *formats.Subset, opts Options) (*Buffers, error) {
	if opts.NormalScaleDivisor < 0 {
		return nil, fmt.Errorf("%w: normal scale divisor %v", ErrInvalidOptions, opts.NormalScaleDivisor)
	}
	if opts.NormalScaleDivisor == 0 {
		opts.NormalScaleDivisor = DefaultNormalScaleDivisor
	}
	if subset == nil || subset.DrawMode() != formats.DrawTriangles {
		return &Buffers{}, nil
	}

	s, err := newSource(subset)
	if err != nil {
		return nil, err
	}
	scale := math.MaxExtent(s.bounds.Min, s.bounds.Max) / opts.NormalScaleDivisor

	return &Buffers{
		Original:  buildOriginal(s, opts.UVPolicy),
		Wireframe: buildWireframe(s),
		Normals:   buildNormalLines(s, scale),
		Tangents:  buildCornerLines(s, s.tangents, scale),
		Binormals: buildCornerLines(s, s.binormals, scale),
	}, nil
}

// source is a snapshot of the subset arrays one build reads.
type source struct {
	count     int
	bounds    formats.Bounds
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	tangents  []mgl32.Vec3
	binormals []mgl32.Vec3
	colors    []mgl32.Vec4
	uvs       map[int][]mgl32.Vec2
	channels  []int
}

func newSource(subset *formats.Subset) (*source, error) {
	s := &source{
		count:     subset.Count(),
		bounds:    subset.Bounds(),
		positions: subset.Positions(),
		normals:   subset.Normals(),
		tangents:  subset.Tangents(),
		binormals: subset.Binormals(),
		colors:    subset.Colors(),
		uvs:       subset.UVs(),
		channels:  subset.UVChannels(),
	}
	lengths := map[string]int{
		"positions": len(s.positions),
		"normals":   len(s.normals),
		"tangents":  len(s.tangents),
		"binormals": len(s.binormals),
		"colors":    len(s.colors),
	}
	for ch, uv := range s.uvs {
		lengths[fmt.Sprintf("uv%d", ch)] = len(uv)
	}
	for name, n := range lengths {
		if n != 0 && n != s.count {
			return nil, fmt.Errorf("%w: %s has %d values for %d vertices",
				formats.ErrAttributeLengthMismatch, name, n, s.count)
		}
	}
	return s, nil
}

// triangles returns the number of complete triangles with positions.
func (s *source) triangles() int {
	return len(s.positions) / 3
}

// faceNormal is the shared normal of triangle k: the normalised sum of
// its corner normals when present, otherwise the normalised cross product
// of its first two edges.
func (s *source) faceNormal(k int) mgl32.Vec3 {
	i := 3 * k
	if s.normals != nil {
		return math.AverageNormal(s.normals[i], s.normals[i+1], s.normals[i+2])
	}
	return math.FaceNormal(s.positions[i], s.positions[i+1], s.positions[i+2])
}

func buildOriginal(s *source, policy UVPolicy) *Geometry {
	channels := s.channels
	if policy == UVChannel0Only {
		channels = nil
		if _, ok := s.uvs[0]; ok {
			channels = []int{0}
		}
	}

	var attrs []Attribute
	var stride uint32
	add := func(sem Semantic, components, channel int) {
		attrs = append(attrs, Attribute{Semantic: sem, Offset: stride, Components: components, Channel: channel})
		stride += uint32(components * 4)
	}
	if s.positions != nil {
		add(SemanticPosition, 3, 0)
	}
	if s.normals != nil {
		add(SemanticNormal, 3, 0)
	}
	for _, ch := range channels {
		add(SemanticTexCoord, 2, ch)
	}
	if s.tangents != nil {
		add(SemanticTangent, 3, 0)
	}
	if s.binormals != nil {
		add(SemanticBinormal, 3, 0)
	}
	if s.colors != nil {
		add(SemanticColor, 4, 0)
	}

	w := newVertexWriter(s.count, int(stride))
	if stride > 0 {
		for i := 0; i < s.count; i++ {
			if s.positions != nil {
				w.floats(s.positions[i][:]...)
			}
			if s.normals != nil {
				w.floats(s.normals[i][:]...)
			}
			for _, ch := range channels {
				w.floats(s.uvs[ch][i][:]...)
			}
			if s.tangents != nil {
				w.floats(s.tangents[i][:]...)
			}
			if s.binormals != nil {
				w.floats(s.binormals[i][:]...)
			}
			if s.colors != nil {
				w.floats(s.colors[i][:]...)
			}
		}
	}

	vertices := 0
	if stride > 0 {
		vertices = s.count
	}
	return &Geometry{
		VertexData:  w.data,
		Stride:      stride,
		Attributes:  attrs,
		VertexCount: vertices,
		Bounds:      s.bounds,
		Primitive:   PrimitiveTriangles,
	}
}

func buildWireframe(s *source) *Geometry {
	w := newVertexWriter(3*s.triangles(), 24)
	for k := 0; k < s.triangles(); k++ {
		n := s.faceNormal(k)
		b := uint32(3 * k)
		for c := 0; c < 3; c++ {
			w.position(s.positions[3*k+c])
			w.floats(n[:]...)
		}
		w.index(b, b+1, b+1, b+2, b+2, b)
	}

	g := w.lines()
	g.Stride = 24
	g.Attributes = []Attribute{
		{Semantic: SemanticPosition, Offset: 0, Components: 3},
		{Semantic: SemanticNormal, Offset: 12, Components: 3},
	}
	return g
}

// buildNormalLines emits a face segment from each triangle's centroid and,
// when the subset has normals, one segment per corner.
func buildNormalLines(s *source, scale float32) *Geometry {
	perTriangle := 2
	if s.normals != nil {
		perTriangle = 8
	}
	w := newVertexWriter(perTriangle*s.triangles(), 12)
	for k := 0; k < s.triangles(); k++ {
		i := 3 * k
		center := math.Centroid(s.positions[i], s.positions[i+1], s.positions[i+2])
		w.line(center, s.faceNormal(k), scale)
		if s.normals != nil {
			for c := i; c < i+3; c++ {
				w.line(s.positions[c], s.normals[c], scale)
			}
		}
	}
	return w.lines()
}

// buildCornerLines emits one segment per triangle corner along dirs. It
// returns nil when dirs is absent.
func buildCornerLines(s *source, dirs []mgl32.Vec3, scale float32) *Geometry {
	if dirs == nil {
		return nil
	}
	w := newVertexWriter(6*s.triangles(), 12)
	for k := 0; k < s.triangles(); k++ {
		for c := 3 * k; c < 3*k+3; c++ {
			w.line(s.positions[c], dirs[c], scale)
		}
	}
	return w.lines()
}
