package viewer

import (
	"bytes"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/meshscope/internal/geometry"
	"github.com/Faultbox/meshscope/pkg/formats"
	"github.com/Faultbox/meshscope/pkg/formats/formatstest"
)

func twoSubsetFile(t *testing.T) string {
	t.Helper()
	quad := formatstest.Subset{Name: "Quad", Positions: []mgl32.Vec3{
		{0, 0, 0}, {2, 0, 0}, {2, 2, 0},
		{2, 2, 0}, {0, 2, 0}, {0, 0, 0},
	}}
	data := formatstest.Container(formatstest.Mesh(formatstest.Triangle("Tri"), quad))
	return formatstest.WriteFile(t, "scene.mesh", data)
}

func newTestSession(t *testing.T) *Session {
	return NewSession(geometry.DefaultOptions(), zaptest.NewLogger(t))
}

func TestSession_EmptyBeforeLoad(t *testing.T) {
	s := newTestSession(t)
	if g := s.Geometry(); g == nil || !g.Empty() {
		t.Errorf("Geometry() = %+v, want empty buffers", g)
	}
	if err := s.Reload(); err == nil {
		t.Error("Reload without a loaded container should fail")
	}
}

func TestSession_LoadSelectsFirstSubset(t *testing.T) {
	s := newTestSession(t)
	if err := s.Load(twoSubsetFile(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(s.Meshes()) != 1 {
		t.Fatalf("meshes = %d, want 1", len(s.Meshes()))
	}
	if m, sub := s.Selection(); m != 0 || sub != 0 {
		t.Errorf("selection = (%d, %d), want (0, 0)", m, sub)
	}
	if s.Subset() == nil || s.Subset().Name() != "Tri" {
		t.Fatalf("subset = %v, want Tri", s.Subset())
	}
	if got := s.Geometry().Wireframe.VertexCount; got != 3 {
		t.Errorf("wireframe vertices = %d, want 3", got)
	}
}

func TestSession_Select(t *testing.T) {
	s := newTestSession(t)
	if err := s.Load(twoSubsetFile(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name         string
		mesh, subset int
		wantName     string
		wantVerts    int
	}{
		{"second subset", 0, 1, "Quad", 6},
		{"first subset", 0, 0, "Tri", 3},
		{"subset out of range", 0, 5, "", 0},
		{"mesh out of range", 3, 0, "", 0},
		{"negative", -1, -1, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Select(tt.mesh, tt.subset); err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			sub := s.Subset()
			if tt.wantName == "" {
				if sub != nil {
					t.Errorf("subset = %q, want nil", sub.Name())
				}
				if !s.Geometry().Empty() {
					t.Error("geometry should be empty")
				}
				return
			}
			if sub == nil || sub.Name() != tt.wantName {
				t.Fatalf("subset = %v, want %s", sub, tt.wantName)
			}
			if got := s.Geometry().Wireframe.VertexCount; got != tt.wantVerts {
				t.Errorf("wireframe vertices = %d, want %d", got, tt.wantVerts)
			}
		})
	}
}

func TestSession_UnchangedSelectionSkipsBuild(t *testing.T) {
	s := newTestSession(t)
	if err := s.Load(twoSubsetFile(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	before := s.Geometry()
	builds := s.Builds()

	if err := s.Select(0, 0); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if s.Builds() != builds {
		t.Errorf("builds = %d, want %d", s.Builds(), builds)
	}
	if s.Geometry() != before {
		t.Error("geometry was republished for an unchanged selection")
	}
}

func TestSession_ReselectUsesCache(t *testing.T) {
	s := newTestSession(t)
	if err := s.Load(twoSubsetFile(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	first := s.Geometry()

	if err := s.Select(0, 1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := s.Select(0, 0); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if !bytes.Equal(s.Geometry().Wireframe.VertexData, first.Wireframe.VertexData) {
		t.Error("reselecting the first subset should publish the same data")
	}
	if s.Builds() != 2 {
		t.Errorf("builds = %d, want 2", s.Builds())
	}
	if hits, _ := s.CacheStats(); hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
}

func TestSession_ReloadKeepsSelection(t *testing.T) {
	s := newTestSession(t)
	path := twoSubsetFile(t)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := s.Select(0, 1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	// Rewrite the file with a larger second subset.
	big := formatstest.Subset{Name: "Big", Positions: make([]mgl32.Vec3, 9)}
	data := formatstest.Container(formatstest.Mesh(formatstest.Triangle("Tri"), big))
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if m, sub := s.Selection(); m != 0 || sub != 1 {
		t.Errorf("selection = (%d, %d), want (0, 1)", m, sub)
	}
	if got := s.Geometry().Wireframe.VertexCount; got != 9 {
		t.Errorf("wireframe vertices = %d, want 9", got)
	}
}

func TestSession_FailedLoadKeepsState(t *testing.T) {
	s := newTestSession(t)
	path := twoSubsetFile(t)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	before := s.Geometry()

	err := s.Load(formatstest.WriteFile(t, "junk.mesh", []byte("not a container at all")))
	if !errors.Is(err, formats.ErrFormat) {
		t.Errorf("error = %v, want ErrFormat", err)
	}
	if s.Path() != path {
		t.Errorf("path = %q, want %q", s.Path(), path)
	}
	if s.Geometry() != before {
		t.Error("geometry changed after a failed load")
	}
}

func TestSession_SetOptions(t *testing.T) {
	s := newTestSession(t)
	if err := s.Load(twoSubsetFile(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	builds := s.Builds()

	if err := s.SetOptions(geometry.DefaultOptions()); err != nil {
		t.Fatalf("SetOptions failed: %v", err)
	}
	if s.Builds() != builds {
		t.Error("identical options should not rebuild")
	}

	err := s.SetOptions(geometry.Options{NormalScaleDivisor: -1})
	if !errors.Is(err, geometry.ErrInvalidOptions) {
		t.Errorf("error = %v, want ErrInvalidOptions", err)
	}
	if s.Geometry().Empty() {
		t.Error("a failed build should keep the previous geometry")
	}
}

func TestSession_ConcurrentReaders(t *testing.T) {
	s := newTestSession(t)
	if err := s.Load(twoSubsetFile(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g := s.Geometry()
				if g.Wireframe != nil && g.Wireframe.VertexCount != 3 && g.Wireframe.VertexCount != 6 {
					t.Errorf("torn geometry: %d wireframe vertices", g.Wireframe.VertexCount)
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		_ = s.Select(0, j%2)
	}
	wg.Wait()
}

func TestSession_PublishedBuffersAreNotShared(t *testing.T) {
	s := newTestSession(t)
	if err := s.Load(twoSubsetFile(t)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := bytes.Clone(s.Geometry().Wireframe.VertexData)

	// A consumer scribbles over the buffers it was handed.
	published := s.Geometry()
	for i := range published.Wireframe.VertexData {
		published.Wireframe.VertexData[i] = 0xFF
	}

	if err := s.Select(0, 1); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if err := s.Select(0, 0); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if hits, _ := s.CacheStats(); hits != 1 {
		t.Fatalf("cache hits = %d, want 1", hits)
	}
	if got := s.Geometry(); got == published || !bytes.Equal(got.Wireframe.VertexData, want) {
		t.Error("cached buffers were changed through a published copy")
	}
}
