package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
)

const (
	// ContainerMagic identifies a multi-mesh container trailer.
	ContainerMagic uint32 = 555777497
	// ContainerVersion is the only supported container version.
	ContainerVersion uint32 = 1

	trailerSize      = 16
	trailerEntrySize = 16
)

// Container format errors.
var (
	ErrInvalidContainerMagic       = fmt.Errorf("%w: invalid container magic", ErrFormat)
	ErrUnsupportedContainerVersion = fmt.Errorf("%w: unsupported container version", ErrFormat)
	ErrTruncatedContainer          = fmt.Errorf("%w: truncated container trailer", ErrDecode)
	ErrEmptyMesh                   = fmt.Errorf("%w: mesh declares zero size", ErrDecode)
)

// ContainerTrailer is the table at the end of a container file.
type ContainerTrailer struct {
	Magic   uint32
	Version uint32
	Entries map[uint32]uint64 // Mesh id to byte offset
}

// IsValid reports whether magic and version match the supported format.
func (t *ContainerTrailer) IsValid() bool {
	return t.Magic == ContainerMagic && t.Version == ContainerVersion
}

// IDs returns the mesh ids in ascending order.
func (t *ContainerTrailer) IDs() []uint32 {
	ids := make([]uint32, 0, len(t.Entries))
	for id := range t.Entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Option configures container loading.
type Option func(*loadOptions)

type loadOptions struct {
	log *zap.Logger
}

// WithLogger sets the logger used to report meshes that fail to decode.
func WithLogger(log *zap.Logger) Option {
	return func(o *loadOptions) {
		if log != nil {
			o.log = log
		}
	}
}

// ReadTrailer reads the container trailer from r, where size is the total
// length of r. The trailer is returned even when its magic or version is
// unsupported, without entries; use IsValid to check it.
func ReadTrailer(r io.ReaderAt, size int64) (*ContainerTrailer, error) {
	if size < trailerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedContainer, size)
	}

	// Read trailer header
	header := make([]byte, trailerSize)
	if _, err := r.ReadAt(header, size-trailerSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading trailer: %w", ErrIO, err)
	}
	t := &ContainerTrailer{
		Magic:   binary.LittleEndian.Uint32(header[0:]),
		Version: binary.LittleEndian.Uint32(header[4:]),
		Entries: make(map[uint32]uint64),
	}
	// header[8:12] is reserved
	count := int64(binary.LittleEndian.Uint32(header[12:]))
	if !t.IsValid() {
		return t, nil
	}

	tableStart := size - trailerSize - trailerEntrySize*count
	if tableStart < 0 {
		return nil, fmt.Errorf("%w: %d entries in %d bytes", ErrTruncatedContainer, count, size)
	}

	// Read entry table
	table := make([]byte, trailerEntrySize*count)
	if _, err := r.ReadAt(table, tableStart); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading entry table: %w", ErrIO, err)
	}
	for i := int64(0); i < count; i++ {
		entry := table[i*trailerEntrySize:]
		offset := binary.LittleEndian.Uint64(entry[0:])
		id := binary.LittleEndian.Uint32(entry[8:])
		// entry[12:16] is reserved
		t.Entries[id] = offset
	}

	return t, nil
}

// ParseContainer decodes every mesh listed in the container held in data.
// It follows the same skip rules as LoadContainer.
func ParseContainer(data []byte, opts ...Option) ([]*Mesh, error) {
	return decodeContainer(bytes.NewReader(data), int64(len(data)), "", opts)
}

// LoadContainer reads every mesh listed in the container at path. Meshes
// that fail to decode are logged and skipped; the successfully decoded
// ones are returned in ascending id order. Errors opening the file or an
// unsupported trailer abort the load.
func LoadContainer(path string, opts ...Option) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening container: %w", ErrIO, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat container: %w", ErrIO, err)
	}
	return decodeContainer(f, info.Size(), path, opts)
}

// ParseContainerFile is LoadContainer under the Parse naming.
func ParseContainerFile(path string, opts ...Option) ([]*Mesh, error) {
	return LoadContainer(path, opts...)
}

func decodeContainer(r io.ReaderAt, size int64, path string, opts []Option) ([]*Mesh, error) {
	o := loadOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	trailer, err := ReadTrailer(r, size)
	if err != nil {
		return nil, err
	}
	if trailer.Magic != ContainerMagic {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidContainerMagic, trailer.Magic)
	}
	if trailer.Version != ContainerVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedContainerVersion, trailer.Version)
	}

	var meshes []*Mesh
	for _, id := range trailer.IDs() {
		offset := trailer.Entries[id]
		mesh, err := DecodeMesh(r, size, offset)
		if err == nil && mesh.Header.SizeInBytes == 0 {
			err = ErrEmptyMesh
		}
		if err != nil {
			o.log.Warn("skipping mesh",
				zap.String("path", path),
				zap.Uint32("id", id),
				zap.Uint64("offset", offset),
				zap.Error(err))
			continue
		}
		o.log.Debug("decoded mesh",
			zap.Uint32("id", id),
			zap.Uint64("offset", offset),
			zap.Int("subsets", len(mesh.subsets)),
			zap.Int("vertices", mesh.VertexBuffer.VertexCount()))
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}
