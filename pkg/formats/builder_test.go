package formats

import (
	"bytes"
	"encoding/binary"
	gomath "math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshscope/pkg/encoding"
)

// padByte fills alignment gaps so a reader that skips the wrong amount
// picks up obviously wrong values.
const padByte = 0xAB

type testAttr struct {
	name   string
	ct     ComponentType
	count  uint32
	offset uint32
}

type testSubset struct {
	count, offset uint32
	min, max      [3]float32
	name          string
}

type testJoint struct {
	id, parent uint32
	inv, l2g   [16]float32 // row-major
}

type testMesh struct {
	magic     uint32
	version   uint16
	flags     uint16
	zeroSize  bool
	stride    uint32
	attrs     []testAttr
	vertices  []byte
	indexType ComponentType
	indices   []byte
	subsets   []testSubset
	joints    []testJoint
	drawMode  DrawMode
	winding   WindingMode
}

// meshWriter mirrors the decoder's running counter: the buffer length past
// the header always equals the counter.
type meshWriter struct {
	buf bytes.Buffer
}

func (w *meshWriter) u16(v uint16) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *meshWriter) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *meshWriter) u64(v uint64) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *meshWriter) f32(v float32) { binary.Write(&w.buf, binary.LittleEndian, v) }

// pad appends the aligned-advance gap: always 1 to 4 bytes.
func (w *meshWriter) pad() {
	counter := w.buf.Len() - meshHeaderSize
	for i := 0; i < 4-counter%4; i++ {
		w.buf.WriteByte(padByte)
	}
}

func (m testMesh) encode() []byte {
	if m.magic == 0 {
		m.magic = MeshMagic
	}
	if m.version == 0 {
		m.version = MeshVersion
	}
	if m.drawMode == 0 {
		m.drawMode = DrawTriangles
	}
	if m.winding == 0 {
		m.winding = WindingCounterClockwise
	}
	if m.indexType == 0 {
		m.indexType = ComponentUint32
	}

	w := &meshWriter{}

	// Header; size is patched below
	w.u32(m.magic)
	w.u16(m.version)
	w.u16(m.flags)
	w.u32(0)

	// Body
	w.u32(0)
	w.u32(uint32(len(m.attrs)))
	w.u32(m.stride)
	w.u32(0)
	w.u32(uint32(len(m.vertices)))
	w.u32(uint32(m.indexType))
	w.u32(0)
	w.u32(uint32(len(m.indices)))
	w.u32(0)
	w.u32(uint32(len(m.subsets)))
	w.u32(0)
	w.u32(uint32(len(m.joints)))
	w.u32(uint32(m.drawMode))
	w.u32(uint32(m.winding))

	// Attribute table
	for _, a := range m.attrs {
		ct := a.ct
		if ct == 0 {
			ct = ComponentFloat32
		}
		w.u32(0)
		w.u32(uint32(ct))
		w.u32(a.count)
		w.u32(a.offset)
	}
	w.pad()

	// Attribute names
	for _, a := range m.attrs {
		w.u32(uint32(len(a.name)))
		w.buf.WriteString(a.name)
		w.pad()
	}

	w.buf.Write(m.vertices)
	w.pad()
	w.buf.Write(m.indices)
	w.pad()

	// Subsets
	names := make([][]byte, len(m.subsets))
	for i, s := range m.subsets {
		names[i] = encoding.UTF8ToUTF16LE(s.name)
		w.u32(s.count)
		w.u32(s.offset)
		for _, v := range s.min {
			w.f32(v)
		}
		for _, v := range s.max {
			w.f32(v)
		}
		w.u32(0)
		w.u32(uint32(len(names[i]) / 2))
	}
	w.pad()
	for _, name := range names {
		w.buf.Write(name)
		w.pad()
	}

	// Joints
	for _, j := range m.joints {
		w.u32(j.id)
		w.u32(j.parent)
		for _, v := range j.inv {
			w.f32(v)
		}
		for _, v := range j.l2g {
			w.f32(v)
		}
		w.pad()
	}

	data := w.buf.Bytes()
	if !m.zeroSize {
		binary.LittleEndian.PutUint32(data[8:], uint32(len(data)))
	}
	return data
}

type containerEntry struct {
	id   uint32
	mesh []byte
}

// buildContainer concatenates meshes and appends the trailer.
func buildContainer(magic, version uint32, entries ...containerEntry) []byte {
	var buf bytes.Buffer
	offsets := make([]uint64, len(entries))
	for i, e := range entries {
		offsets[i] = uint64(buf.Len())
		buf.Write(e.mesh)
	}
	for i, e := range entries {
		binary.Write(&buf, binary.LittleEndian, offsets[i])
		binary.Write(&buf, binary.LittleEndian, e.id)
		binary.Write(&buf, binary.LittleEndian, uint32(0))
	}
	binary.Write(&buf, binary.LittleEndian, magic)
	binary.Write(&buf, binary.LittleEndian, version)
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(len(entries)))
	return buf.Bytes()
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mesh")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func f32Bytes(values ...float32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], gomath.Float32bits(v))
	}
	return out
}

func u16Bytes(values ...uint16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func u32Bytes(values ...uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// triangleMesh is one triangle with positions only, stride 12.
func triangleMesh() testMesh {
	return testMesh{
		stride:   12,
		attrs:    []testAttr{{name: "attr_pos", count: 3, offset: 0}},
		vertices: f32Bytes(0, 0, 0, 1, 0, 0, 0, 1, 0),
		indices:  u32Bytes(0, 1, 2),
		subsets: []testSubset{{
			count: 3, offset: 0,
			min:  [3]float32{0, 0, 0},
			max:  [3]float32{1, 1, 0},
			name: "Triangle",
		}},
	}
}
