package formats

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshscope/pkg/encoding"
)

const (
	// MeshMagic identifies a mesh header.
	MeshMagic uint32 = 3365961549
	// MeshVersion is the only supported mesh version.
	MeshVersion uint16 = 3

	meshHeaderSize     = 12
	meshBodySize       = 56
	attributeEntrySize = 16
	subsetEntrySize    = 40
	jointEntrySize     = 136
)

// Mesh format errors.
var (
	ErrInvalidMeshMagic       = fmt.Errorf("%w: invalid mesh magic", ErrFormat)
	ErrUnsupportedMeshVersion = fmt.Errorf("%w: unsupported mesh version", ErrFormat)
	ErrTruncatedMeshData      = fmt.Errorf("%w: truncated mesh data", ErrDecode)
)

// MeshHeader is the 12-byte header at the start of every mesh.
type MeshHeader struct {
	Magic       uint32
	Version     uint16
	Flags       uint16
	SizeInBytes uint32 // Declared total size of the mesh
}

// IsValid reports whether magic and version match the supported format.
func (h MeshHeader) IsValid() bool {
	return h.Magic == MeshMagic && h.Version == MeshVersion
}

// Mesh is a decoded mesh. It owns its buffers and the subsets extracted
// from them.
type Mesh struct {
	Header       MeshHeader
	VertexBuffer VertexBuffer
	IndexBuffer  IndexBuffer
	RawSubsets   []RawSubset
	Joints       []Joint
	DrawMode     DrawMode
	WindingMode  WindingMode

	subsets []*Subset
}

// Subsets returns the decoded subsets in record order.
func (m *Mesh) Subsets() []*Subset {
	out := make([]*Subset, len(m.subsets))
	copy(out, m.subsets)
	return out
}

// Subset returns the subset at index i, or nil if out of range.
func (m *Mesh) Subset(i int) *Subset {
	if i < 0 || i >= len(m.subsets) {
		return nil
	}
	return m.subsets[i]
}

// ParseMesh decodes a single mesh that starts at the beginning of data.
func ParseMesh(data []byte) (*Mesh, error) {
	return DecodeMesh(bytes.NewReader(data), int64(len(data)), 0)
}

// DecodeMeshFile decodes the mesh that starts at offset in the file at path.
func DecodeMeshFile(path string, offset uint64) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening mesh file: %w", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat mesh file: %w", ErrIO, err)
	}
	return DecodeMesh(f, info.Size(), offset)
}

// DecodeMesh decodes the mesh that starts at offset within r, where size is
// the total length of r. Subsets are extracted before returning, so a mesh
// whose subsets reference data outside its buffers fails as a whole.
func DecodeMesh(r io.ReaderAt, size int64, offset uint64) (*Mesh, error) {
	if offset > uint64(size) {
		return nil, fmt.Errorf("%w: mesh offset 0x%x past end of data", ErrTruncatedMeshData, offset)
	}
	br := &binReader{r: r, size: size, pos: int64(offset)}
	mesh := &Mesh{}

	// Read header
	h := &mesh.Header
	var err error
	if h.Magic, err = br.u32(); err != nil {
		return nil, err
	}
	if h.Version, err = br.u16(); err != nil {
		return nil, err
	}
	if h.Flags, err = br.u16(); err != nil {
		return nil, err
	}
	if h.SizeInBytes, err = br.u32(); err != nil {
		return nil, err
	}
	if h.Magic != MeshMagic {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMeshMagic, h.Magic)
	}
	if h.Version != MeshVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMeshVersion, h.Version)
	}

	tracker := newOffsetTracker(int64(offset) + meshHeaderSize)
	br.seek(tracker.offset())

	// Read mesh body
	var (
		entriesOffset, entriesSize        uint32
		vertexDataOffset, vertexDataSize  uint32
		indexType, indexOffset, indexSize uint32
		subsetsOffset, subsetsSize        uint32
		jointsOffset, jointsSize          uint32
		drawMode, windingMode             uint32
	)
	if err := br.u32s(
		&entriesOffset, &entriesSize, &mesh.VertexBuffer.Stride,
		&vertexDataOffset, &vertexDataSize,
		&indexType, &indexOffset, &indexSize,
		&subsetsOffset, &subsetsSize,
		&jointsOffset, &jointsSize,
		&drawMode, &windingMode,
	); err != nil {
		return nil, fmt.Errorf("reading mesh body: %w", err)
	}
	mesh.IndexBuffer.ComponentType = ComponentType(indexType)
	mesh.DrawMode = DrawMode(drawMode)
	mesh.WindingMode = WindingMode(windingMode)
	tracker.advance(meshBodySize)

	// Read vertex attribute table
	if err := br.ensure(entriesSize, attributeEntrySize); err != nil {
		return nil, fmt.Errorf("reading vertex attributes: %w", err)
	}
	mesh.VertexBuffer.Attributes = make([]VertexAttribute, entriesSize)
	var entriesBytes uint64
	for i := range mesh.VertexBuffer.Attributes {
		var nameOffset, componentType uint32
		attr := &mesh.VertexBuffer.Attributes[i]
		if err := br.u32s(&nameOffset, &componentType, &attr.ComponentCount, &attr.FirstItemOffset); err != nil {
			return nil, fmt.Errorf("reading vertex attribute %d: %w", i, err)
		}
		attr.ComponentType = ComponentType(componentType)
		entriesBytes += attributeEntrySize
	}
	tracker.alignedAdvance(entriesBytes)
	br.seek(tracker.offset())

	// Read vertex attribute names
	for i := range mesh.VertexBuffer.Attributes {
		nameLength, err := br.u32()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d name length: %w", i, err)
		}
		tracker.advance(4)
		name, err := br.bytes(uint64(nameLength))
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d name: %w", i, err)
		}
		mesh.VertexBuffer.Attributes[i].Name = encoding.TrimNullString(name)
		tracker.alignedAdvance(uint64(nameLength))
		br.seek(tracker.offset())
	}

	// Read vertex data
	if mesh.VertexBuffer.Data, err = br.bytes(uint64(vertexDataSize)); err != nil {
		return nil, fmt.Errorf("reading vertex data: %w", err)
	}
	tracker.alignedAdvance(uint64(vertexDataSize))
	br.seek(tracker.offset())

	// Read index data
	if mesh.IndexBuffer.Data, err = br.bytes(uint64(indexSize)); err != nil {
		return nil, fmt.Errorf("reading index data: %w", err)
	}
	tracker.alignedAdvance(uint64(indexSize))
	br.seek(tracker.offset())

	// Read subset table
	if err := br.ensure(subsetsSize, subsetEntrySize); err != nil {
		return nil, fmt.Errorf("reading subsets: %w", err)
	}
	mesh.RawSubsets = make([]RawSubset, subsetsSize)
	var subsetBytes uint64
	for i := range mesh.RawSubsets {
		s := &mesh.RawSubsets[i]
		if err := br.u32s(&s.Count, &s.Offset); err != nil {
			return nil, fmt.Errorf("reading subset %d: %w", i, err)
		}
		b, err := br.f32s(6)
		if err != nil {
			return nil, fmt.Errorf("reading subset %d bounds: %w", i, err)
		}
		s.Bounds = Bounds{
			Min: mgl32.Vec3{b[0], b[1], b[2]},
			Max: mgl32.Vec3{b[3], b[4], b[5]},
		}
		var nameOffset uint32
		if err := br.u32s(&nameOffset, &s.NameLength); err != nil {
			return nil, fmt.Errorf("reading subset %d: %w", i, err)
		}
		subsetBytes += subsetEntrySize
	}
	tracker.alignedAdvance(subsetBytes)
	br.seek(tracker.offset())

	// Read subset names (UTF-16LE)
	for i := range mesh.RawSubsets {
		s := &mesh.RawSubsets[i]
		nameBytes := uint64(s.NameLength) * 2
		if s.Name, err = br.bytes(nameBytes); err != nil {
			return nil, fmt.Errorf("reading subset %d name: %w", i, err)
		}
		tracker.alignedAdvance(nameBytes)
		br.seek(tracker.offset())
	}

	// Read joints
	if err := br.ensure(jointsSize, jointEntrySize); err != nil {
		return nil, fmt.Errorf("reading joints: %w", err)
	}
	mesh.Joints = make([]Joint, jointsSize)
	for i := range mesh.Joints {
		j := &mesh.Joints[i]
		if err := br.u32s(&j.ID, &j.ParentID); err != nil {
			return nil, fmt.Errorf("reading joint %d: %w", i, err)
		}
		m, err := br.f32s(32)
		if err != nil {
			return nil, fmt.Errorf("reading joint %d matrices: %w", i, err)
		}
		j.InverseBindPose = rowMajorMat4(m[:16])
		j.LocalToGlobal = rowMajorMat4(m[16:])
		tracker.alignedAdvance(jointEntrySize)
		br.seek(tracker.offset())
	}

	// Extract subsets
	mesh.subsets = make([]*Subset, 0, len(mesh.RawSubsets))
	for i := range mesh.RawSubsets {
		subset, err := ExtractSubset(mesh, i)
		if err != nil {
			return nil, fmt.Errorf("extracting subset %d: %w", i, err)
		}
		mesh.subsets = append(mesh.subsets, subset)
	}

	return mesh, nil
}

// rowMajorMat4 converts 16 row-major floats to a column-major mgl32.Mat4.
func rowMajorMat4(v []float32) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], v)
	return m.Transpose()
}
