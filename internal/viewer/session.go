// Package viewer ties a loaded container to the geometry of one selected
// subset and republishes that geometry whenever the selection or the file
// changes.
package viewer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/meshscope/internal/geometry"
	"github.com/Faultbox/meshscope/pkg/formats"
)

// Session owns the meshes of one container and the geometry built for the
// selected subset. Geometry is published as a complete Buffers value;
// readers see either the old set or the new one, never a mix.
type Session struct {
	log  *zap.Logger
	opts geometry.Options

	mu          sync.Mutex
	path        string
	meshes      []*formats.Mesh
	meshIndex   int
	subsetIndex int
	subset      *formats.Subset
	built       bool
	builds      int

	cache     *buildCache
	published atomic.Pointer[geometry.Buffers]
}

// NewSession creates an empty session. A nil logger discards output.
func NewSession(opts geometry.Options, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{log: log, opts: opts, cache: newBuildCache()}
	s.published.Store(&geometry.Buffers{})
	return s
}

// Load replaces the session's meshes with the container at path and
// selects the first subset of the first mesh. On error the previous
// meshes and geometry are kept.
func (s *Session) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(path); err != nil {
		return err
	}
	s.meshIndex, s.subsetIndex = 0, 0
	return s.updateLocked(true)
}

// Reload reads the current path again, keeping the selection indices.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return fmt.Errorf("reload: no container loaded")
	}
	if err := s.loadLocked(s.path); err != nil {
		return err
	}
	return s.updateLocked(true)
}

func (s *Session) loadLocked(path string) error {
	meshes, err := formats.LoadContainer(path, formats.WithLogger(s.log))
	if err != nil {
		return err
	}
	s.log.Info("container loaded", zap.String("path", path), zap.Int("meshes", len(meshes)))
	s.path = path
	s.meshes = meshes
	s.cache.clear()
	return nil
}

// Select chooses the subset to build. Indices outside the loaded meshes
// select nothing and publish empty geometry.
func (s *Session) Select(mesh, subset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meshIndex, s.subsetIndex = mesh, subset
	return s.updateLocked(false)
}

// SetOptions changes the build options and rebuilds the current selection.
func (s *Session) SetOptions(opts geometry.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts == s.opts {
		return nil
	}
	prev := s.opts
	s.opts = opts
	if err := s.updateLocked(true); err != nil {
		s.opts = prev
		return err
	}
	return nil
}

// updateLocked resolves the selection and rebuilds when it changed or when
// force is set. A failed build leaves the published geometry untouched.
func (s *Session) updateLocked(force bool) error {
	subset := s.resolveLocked()
	if s.built && !force && subset == s.subset {
		return nil
	}

	bufs, err := s.buildLocked(subset)
	if err != nil {
		s.log.Warn("geometry build failed",
			zap.Int("mesh", s.meshIndex),
			zap.Int("subset", s.subsetIndex),
			zap.Error(err))
		return err
	}

	s.subset = subset
	s.built = true
	s.published.Store(bufs)
	s.log.Debug("geometry published",
		zap.Int("mesh", s.meshIndex),
		zap.Int("subset", s.subsetIndex),
		zap.Bool("empty", bufs.Empty()))
	return nil
}

// buildLocked returns buffers for subset. Cached buffers never leave the
// cache; callers get a copy they may modify.
func (s *Session) buildLocked(subset *formats.Subset) (*geometry.Buffers, error) {
	if subset == nil {
		return &geometry.Buffers{}, nil
	}
	key := cacheKey{mesh: s.meshIndex, subset: s.subsetIndex, opts: s.opts}
	if bufs, ok := s.cache.get(key); ok {
		return bufs.Clone(), nil
	}
	bufs, err := geometry.Build(subset, s.opts)
	if err != nil {
		return nil, err
	}
	s.builds++
	s.cache.set(key, bufs)
	return bufs.Clone(), nil
}

func (s *Session) resolveLocked() *formats.Subset {
	if s.meshIndex < 0 || s.meshIndex >= len(s.meshes) {
		return nil
	}
	return s.meshes[s.meshIndex].Subset(s.subsetIndex)
}

// Geometry returns the most recently published buffers. It never returns
// nil. Readers of one publication share it and should treat it as
// read-only; changes to it never reach later publications.
func (s *Session) Geometry() *geometry.Buffers {
	return s.published.Load()
}

// Meshes returns the loaded meshes.
func (s *Session) Meshes() []*formats.Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*formats.Mesh, len(s.meshes))
	copy(out, s.meshes)
	return out
}

// Subset returns the selected subset, or nil.
func (s *Session) Subset() *formats.Subset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subset
}

// Selection returns the selected mesh and subset indices.
func (s *Session) Selection() (mesh, subset int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meshIndex, s.subsetIndex
}

// Path returns the loaded container path.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Builds returns how many times geometry has been generated.
func (s *Session) Builds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builds
}

// CacheStats returns geometry cache hits and misses.
func (s *Session) CacheStats() (hits, misses int) {
	return s.cache.stats()
}
