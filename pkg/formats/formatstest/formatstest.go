// Package formatstest writes small mesh containers for tests in other
// packages.
package formatstest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshscope/pkg/encoding"
	"github.com/Faultbox/meshscope/pkg/formats"
)

// Subset is one named run of triangle-list positions.
type Subset struct {
	Name      string
	Positions []mgl32.Vec3
}

// Triangle is a unit right triangle in the XY plane.
func Triangle(name string) Subset {
	return Subset{Name: name, Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) u16(v uint16) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *writer) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *writer) f32(v float32) { binary.Write(&w.buf, binary.LittleEndian, v) }

func (w *writer) pad() {
	counter := w.buf.Len() - 12
	for i := 0; i < 4-counter%4; i++ {
		w.buf.WriteByte(0)
	}
}

// Mesh encodes one position-only triangle mesh holding every subset in order.
func Mesh(subsets ...Subset) []byte {
	var vertices, indices bytes.Buffer
	var n uint32
	for _, s := range subsets {
		for _, p := range s.Positions {
			binary.Write(&vertices, binary.LittleEndian, p)
			binary.Write(&indices, binary.LittleEndian, n)
			n++
		}
	}

	w := &writer{}
	w.u32(formats.MeshMagic)
	w.u16(formats.MeshVersion)
	w.u16(0)
	w.u32(0)

	for _, v := range []uint32{
		0, 1, 12, 0, uint32(vertices.Len()),
		uint32(formats.ComponentUint32), 0, uint32(indices.Len()),
		0, uint32(len(subsets)), 0, 0,
		uint32(formats.DrawTriangles), uint32(formats.WindingCounterClockwise),
	} {
		w.u32(v)
	}

	// One float32 position attribute
	w.u32(0)
	w.u32(uint32(formats.ComponentFloat32))
	w.u32(3)
	w.u32(0)
	w.pad()
	w.u32(uint32(len("attr_pos")))
	w.buf.WriteString("attr_pos")
	w.pad()

	w.buf.Write(vertices.Bytes())
	w.pad()
	w.buf.Write(indices.Bytes())
	w.pad()

	names := make([][]byte, len(subsets))
	var offset uint32
	for i, s := range subsets {
		names[i] = encoding.UTF8ToUTF16LE(s.Name)
		lo, hi := bounds(s.Positions)
		w.u32(uint32(len(s.Positions)))
		w.u32(offset)
		for _, v := range lo {
			w.f32(v)
		}
		for _, v := range hi {
			w.f32(v)
		}
		w.u32(0)
		w.u32(uint32(len(names[i]) / 2))
		offset += uint32(len(s.Positions))
	}
	w.pad()
	for _, name := range names {
		w.buf.Write(name)
		w.pad()
	}

	data := w.buf.Bytes()
	binary.LittleEndian.PutUint32(data[8:], uint32(len(data)))
	return data
}

// Container wraps meshes in a container trailer. Mesh i gets id i+1.
func Container(meshes ...[]byte) []byte {
	var buf bytes.Buffer
	offsets := make([]uint64, len(meshes))
	for i, m := range meshes {
		offsets[i] = uint64(buf.Len())
		buf.Write(m)
	}
	for i := range meshes {
		binary.Write(&buf, binary.LittleEndian, offsets[i])
		binary.Write(&buf, binary.LittleEndian, uint32(i+1))
		binary.Write(&buf, binary.LittleEndian, uint32(0))
	}
	binary.Write(&buf, binary.LittleEndian, uint32(formats.ContainerMagic))
	binary.Write(&buf, binary.LittleEndian, uint32(formats.ContainerVersion))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(len(meshes)))
	return buf.Bytes()
}

// WriteFile writes data to name inside a fresh temporary directory.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func bounds(ps []mgl32.Vec3) (lo, hi mgl32.Vec3) {
	if len(ps) == 0 {
		return lo, hi
	}
	lo, hi = ps[0], ps[0]
	for _, p := range ps[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	return lo, hi
}
