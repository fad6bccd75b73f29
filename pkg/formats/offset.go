package formats

import (
	"encoding/binary"
	"fmt"
	"io"
	gomath "math"
)

// offsetTracker is the running byte counter that positions every
// variable-length region of a mesh. alignedAdvance always moves to the
// next 4-byte boundary: an already aligned counter still gains 4 bytes.
type offsetTracker struct {
	start   int64
	counter uint64
}

func newOffsetTracker(start int64) *offsetTracker {
	return &offsetTracker{start: start}
}

// offset returns the absolute file position of the counter.
func (t *offsetTracker) offset() int64 {
	return t.start + int64(t.counter)
}

func (t *offsetTracker) advance(n uint64) {
	t.counter += n
}

func (t *offsetTracker) alignedAdvance(n uint64) {
	t.advance(n)
	t.counter += 4 - t.counter%4
}

// binReader reads little-endian values from an io.ReaderAt at an explicit
// position. Reads past size fail with ErrTruncatedMeshData instead of
// allocating or returning short data.
type binReader struct {
	r    io.ReaderAt
	size int64
	pos  int64
}

func (b *binReader) seek(pos int64) {
	b.pos = pos
}

// remaining returns the bytes left between the position and the end.
func (b *binReader) remaining() int64 {
	if b.pos >= b.size {
		return 0
	}
	return b.size - b.pos
}

// ensure reports whether count records of recordSize bytes fit in the rest of the input.
func (b *binReader) ensure(count uint32, recordSize int64) error {
	if int64(count)*recordSize > b.remaining() {
		return fmt.Errorf("%w: %d records of %d bytes at 0x%x", ErrTruncatedMeshData, count, recordSize, b.pos)
	}
	return nil
}

func (b *binReader) bytes(n uint64) ([]byte, error) {
	if b.pos < 0 || int64(n) > b.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at 0x%x", ErrTruncatedMeshData, n, b.pos)
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := b.r.ReadAt(buf, b.pos); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading at 0x%x: %w", ErrIO, b.pos, err)
	}
	b.pos += int64(n)
	return buf, nil
}

func (b *binReader) u16() (uint16, error) {
	buf, err := b.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (b *binReader) u32() (uint32, error) {
	buf, err := b.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// u32s reads len(dst) consecutive uint32 values.
func (b *binReader) u32s(dst ...*uint32) error {
	for _, d := range dst {
		v, err := b.u32()
		if err != nil {
			return err
		}
		*d = v
	}
	return nil
}

// f32s reads n consecutive float32 values.
func (b *binReader) f32s(n int) ([]float32, error) {
	buf, err := b.bytes(uint64(n) * 4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = gomath.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}
