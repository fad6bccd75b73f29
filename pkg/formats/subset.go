package formats

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshscope/pkg/encoding"
)

// ErrSubsetOutOfRange is returned when a subset index does not exist.
var ErrSubsetOutOfRange = fmt.Errorf("%w: subset index out of range", ErrDecode)

// Subset is a named range of vertices with deinterleaved attribute arrays.
// It owns copies of its data and never changes after extraction. Every
// array is either Count long or absent.
type Subset struct {
	name        string
	bounds      Bounds
	drawMode    DrawMode
	windingMode WindingMode
	count       int

	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       map[int][]mgl32.Vec2
	tangents  []mgl32.Vec3
	binormals []mgl32.Vec3
	colors    []mgl32.Vec4
	joints    []mgl32.Vec4
	weights   []mgl32.Vec4
	morphs    map[MorphKind]map[int][]mgl32.Vec3
}

// Name returns the subset name.
func (s *Subset) Name() string { return s.name }

// Bounds returns the subset bounds as stored in the mesh.
func (s *Subset) Bounds() Bounds { return s.bounds }

// DrawMode returns the primitive topology inherited from the mesh.
func (s *Subset) DrawMode() DrawMode { return s.drawMode }

// WindingMode returns the winding order inherited from the mesh.
func (s *Subset) WindingMode() WindingMode { return s.windingMode }

// Count returns the number of vertices in the subset.
func (s *Subset) Count() int { return s.count }

// Positions returns a copy of the vertex positions, or nil if absent.
func (s *Subset) Positions() []mgl32.Vec3 { return cloneSlice(s.positions) }

// Normals returns a copy of the vertex normals, or nil if absent.
func (s *Subset) Normals() []mgl32.Vec3 { return cloneSlice(s.normals) }

// Tangents returns a copy of the vertex tangents, or nil if absent.
func (s *Subset) Tangents() []mgl32.Vec3 { return cloneSlice(s.tangents) }

// Binormals returns a copy of the vertex binormals, or nil if absent.
func (s *Subset) Binormals() []mgl32.Vec3 { return cloneSlice(s.binormals) }

// Colors returns a copy of the vertex colors, or nil if absent.
func (s *Subset) Colors() []mgl32.Vec4 { return cloneSlice(s.colors) }

// Joints returns a copy of the joint indices, or nil if absent.
func (s *Subset) Joints() []mgl32.Vec4 { return cloneSlice(s.joints) }

// Weights returns a copy of the joint weights, or nil if absent.
func (s *Subset) Weights() []mgl32.Vec4 { return cloneSlice(s.weights) }

// UVs returns a copy of the texture coordinates keyed by channel.
func (s *Subset) UVs() map[int][]mgl32.Vec2 { return cloneChannels(s.uvs) }

// UVChannels returns the present UV channels in ascending order.
func (s *Subset) UVChannels() []int { return sortedKeys(s.uvs) }

// MorphTargets returns a copy of the morph target deltas of one kind keyed
// by channel.
func (s *Subset) MorphTargets(kind MorphKind) map[int][]mgl32.Vec3 {
	return cloneChannels(s.morphs[kind])
}

// MorphChannels returns the present morph channels of one kind in ascending order.
func (s *Subset) MorphChannels(kind MorphKind) []int { return sortedKeys(s.morphs[kind]) }

// MorphTargetPositions returns position deltas keyed by channel.
func (s *Subset) MorphTargetPositions() map[int][]mgl32.Vec3 { return s.MorphTargets(MorphPosition) }

// MorphTargetNormals returns normal deltas keyed by channel.
func (s *Subset) MorphTargetNormals() map[int][]mgl32.Vec3 { return s.MorphTargets(MorphNormal) }

// MorphTargetTangents returns tangent deltas keyed by channel.
func (s *Subset) MorphTargetTangents() map[int][]mgl32.Vec3 { return s.MorphTargets(MorphTangent) }

// MorphTargetBinormals returns binormal deltas keyed by channel.
func (s *Subset) MorphTargetBinormals() map[int][]mgl32.Vec3 { return s.MorphTargets(MorphBinormal) }

// ExtractSubset builds the decoded subset for mesh.RawSubsets[index] by
// walking the index buffer and reading each attribute out of the
// interleaved vertex data. Any out-of-range index or byte range fails the
// whole subset.
func ExtractSubset(mesh *Mesh, index int) (*Subset, error) {
	if index < 0 || index >= len(mesh.RawSubsets) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSubsetOutOfRange, index, len(mesh.RawSubsets))
	}
	raw := &mesh.RawSubsets[index]

	indices, err := mesh.IndexBuffer.Indices()
	if err != nil {
		return nil, err
	}

	// Resolve vertex indices once; every attribute reads the same vertices.
	count := int(raw.Count)
	start := uint64(raw.Offset)
	if start+uint64(count) > uint64(len(indices)) {
		return nil, fmt.Errorf("%w: subset range [%d, %d) exceeds %d indices",
			ErrIndexOutOfRange, start, start+uint64(count), len(indices))
	}
	vertices := indices[start : start+uint64(count)]

	x := extractor{
		data:     mesh.VertexBuffer.Data,
		stride:   uint64(mesh.VertexBuffer.Stride),
		vertices: vertices,
	}
	attrs := mesh.VertexBuffer.Attributes

	s := &Subset{
		name:        encoding.UTF16LEToUTF8(raw.Name),
		bounds:      raw.Bounds,
		drawMode:    mesh.DrawMode,
		windingMode: mesh.WindingMode,
		count:       count,
	}

	if s.positions, err = x.vec3(attrs, AttrPosition); err != nil {
		return nil, err
	}
	if s.normals, err = x.vec3(attrs, AttrNormal); err != nil {
		return nil, err
	}
	if s.tangents, err = x.vec3(attrs, AttrTangent); err != nil {
		return nil, err
	}
	if s.binormals, err = x.vec3(attrs, AttrBinormal); err != nil {
		return nil, err
	}
	if s.colors, err = x.vec4(attrs, AttrColor); err != nil {
		return nil, err
	}
	if s.joints, err = x.vec4(attrs, AttrJoints); err != nil {
		return nil, err
	}
	if s.weights, err = x.vec4(attrs, AttrWeights); err != nil {
		return nil, err
	}

	// UV channels
	for ch, attr := range channelAttributes(attrs, AttrUV) {
		values, err := readAttribute(x, attr, 2, func(c []float32) mgl32.Vec2 {
			return mgl32.Vec2{c[0], c[1]}
		})
		if err != nil {
			return nil, fmt.Errorf("uv channel %d: %w", ch, err)
		}
		if s.uvs == nil {
			s.uvs = make(map[int][]mgl32.Vec2)
		}
		s.uvs[ch] = values
	}

	// Morph targets
	for kind, channels := range morphAttributes(attrs) {
		for ch, attr := range channels {
			values, err := readAttribute(x, attr, 3, toVec3)
			if err != nil {
				return nil, fmt.Errorf("morph target %q: %w", attr.Name, err)
			}
			if s.morphs == nil {
				s.morphs = make(map[MorphKind]map[int][]mgl32.Vec3)
			}
			if s.morphs[kind] == nil {
				s.morphs[kind] = make(map[int][]mgl32.Vec3)
			}
			s.morphs[kind][ch] = values
		}
	}

	return s, nil
}

// extractor reads attribute values for a fixed list of global vertex indices.
type extractor struct {
	data     []byte
	stride   uint64
	vertices []uint32
}

func (x extractor) vec3(attrs []VertexAttribute, tag string) ([]mgl32.Vec3, error) {
	attr, ok := findAttribute(attrs, tag)
	if !ok {
		return nil, nil
	}
	values, err := readAttribute(x, attr, 3, toVec3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attr.Name, err)
	}
	return values, nil
}

func (x extractor) vec4(attrs []VertexAttribute, tag string) ([]mgl32.Vec4, error) {
	attr, ok := findAttribute(attrs, tag)
	if !ok {
		return nil, nil
	}
	values, err := readAttribute(x, attr, 4, func(c []float32) mgl32.Vec4 {
		return mgl32.Vec4{c[0], c[1], c[2], c[3]}
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attr.Name, err)
	}
	return values, nil
}

// readAttribute decodes one width-component value per subset vertex. The
// byte range of every value is checked against the vertex data first.
func readAttribute[T any](x extractor, attr VertexAttribute, width int, build func([]float32) T) ([]T, error) {
	ct, n, size := componentLayout(attr, width)
	compSize := ct.Size()
	out := make([]T, len(x.vertices))
	components := make([]float32, width)

	for i, global := range x.vertices {
		byteOffset := x.stride*uint64(global) + uint64(attr.FirstItemOffset)
		if byteOffset+uint64(size) > uint64(len(x.data)) {
			return nil, fmt.Errorf("%w: vertex %d at byte %d (+%d) of %d",
				ErrAttributeOutOfRange, global, byteOffset, size, len(x.data))
		}
		for c := range components {
			components[c] = 0
		}
		for c := 0; c < n; c++ {
			components[c] = readComponent(ct, x.data[byteOffset+uint64(c*compSize):])
		}
		out[i] = build(components)
	}
	return out, nil
}

func toVec3(c []float32) mgl32.Vec3 {
	return mgl32.Vec3{c[0], c[1], c[2]}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneChannels[T any](m map[int][]T) map[int][]T {
	out := make(map[int][]T, len(m))
	for ch, values := range m {
		out[ch] = cloneSlice(values)
	}
	return out
}

func sortedKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// ErrAttributeLengthMismatch is returned by NewSubset when an attribute
// array is neither Count long nor absent.
var ErrAttributeLengthMismatch = fmt.Errorf("%w: attribute length does not match vertex count", ErrDecode)

// SubsetData is the content of a subset built outside the decoder, for
// tools and tests that synthesize geometry.
type SubsetData struct {
	Name        string
	Bounds      Bounds
	DrawMode    DrawMode
	WindingMode WindingMode
	Count       int

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       map[int][]mgl32.Vec2
	Tangents  []mgl32.Vec3
	Binormals []mgl32.Vec3
	Colors    []mgl32.Vec4
	Joints    []mgl32.Vec4
	Weights   []mgl32.Vec4
	Morphs    map[MorphKind]map[int][]mgl32.Vec3
}

// NewSubset copies d into a Subset. Every non-empty array must hold
// exactly d.Count values; empty arrays are treated as absent.
func NewSubset(d SubsetData) (*Subset, error) {
	check := func(name string, n int) error {
		if n != 0 && n != d.Count {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrAttributeLengthMismatch, name, n, d.Count)
		}
		return nil
	}
	for _, a := range []struct {
		name string
		n    int
	}{
		{"positions", len(d.Positions)},
		{"normals", len(d.Normals)},
		{"tangents", len(d.Tangents)},
		{"binormals", len(d.Binormals)},
		{"colors", len(d.Colors)},
		{"joints", len(d.Joints)},
		{"weights", len(d.Weights)},
	} {
		if err := check(a.name, a.n); err != nil {
			return nil, err
		}
	}
	for ch, uv := range d.UVs {
		if err := check(fmt.Sprintf("uv%d", ch), len(uv)); err != nil {
			return nil, err
		}
	}
	for kind, channels := range d.Morphs {
		for ch, values := range channels {
			if err := check(fmt.Sprintf("morph %d channel %d", kind, ch), len(values)); err != nil {
				return nil, err
			}
		}
	}

	s := &Subset{
		name:        d.Name,
		bounds:      d.Bounds,
		drawMode:    d.DrawMode,
		windingMode: d.WindingMode,
		count:       d.Count,
		positions:   nonEmpty(d.Positions),
		normals:     nonEmpty(d.Normals),
		tangents:    nonEmpty(d.Tangents),
		binormals:   nonEmpty(d.Binormals),
		colors:      nonEmpty(d.Colors),
		joints:      nonEmpty(d.Joints),
		weights:     nonEmpty(d.Weights),
	}
	for ch, uv := range d.UVs {
		if len(uv) == 0 {
			continue
		}
		if s.uvs == nil {
			s.uvs = make(map[int][]mgl32.Vec2)
		}
		s.uvs[ch] = cloneSlice(uv)
	}
	for kind, channels := range d.Morphs {
		for ch, values := range channels {
			if len(values) == 0 {
				continue
			}
			if s.morphs == nil {
				s.morphs = make(map[MorphKind]map[int][]mgl32.Vec3)
			}
			if s.morphs[kind] == nil {
				s.morphs[kind] = make(map[int][]mgl32.Vec3)
			}
			s.morphs[kind][ch] = cloneSlice(values)
		}
	}
	return s, nil
}

func nonEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return cloneSlice(s)
}
