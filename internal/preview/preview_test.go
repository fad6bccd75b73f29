package preview

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	gomath "math"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/meshscope/internal/config"
	"github.com/Faultbox/meshscope/internal/geometry"
	"github.com/Faultbox/meshscope/pkg/formats"
)

func triangleBuffers(t *testing.T) *geometry.Buffers {
	t.Helper()
	s, err := formats.NewSubset(formats.SubsetData{
		Name:      "Triangle",
		DrawMode:  formats.DrawTriangles,
		Count:     3,
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Bounds:    formats.Bounds{Max: mgl32.Vec3{1, 1, 0}},
	})
	if err != nil {
		t.Fatalf("NewSubset failed: %v", err)
	}
	bufs, err := geometry.Build(s, geometry.DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return bufs
}

func testOptions() Options {
	return Options{
		Size:        100,
		Supersample: 1,
		View:        ViewFront,
		Background:  colorful.Color{R: 0, G: 0, B: 0},
		Wire:        colorful.Color{R: 1, G: 1, B: 1},
		Normal:      colorful.Color{R: 0, G: 1, B: 0},
		Bounds:      colorful.Color{R: 1, G: 0, B: 0},
	}
}

func TestRender_FrontView(t *testing.T) {
	img, err := Render(triangleBuffers(t), testOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("size = %v, want 100x100", img.Bounds())
	}

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{A: 255}
	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"bottom edge", 50, 95, white},
		{"left edge", 5, 50, white},
		{"hypotenuse", 50, 50, white},
		{"inside", 30, 60, black},
		{"outside", 80, 20, black},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRender_BoundsBox(t *testing.T) {
	opts := testOptions()
	opts.ShowBounds = true
	img, err := Render(triangleBuffers(t), opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// Top edge of the box is only covered by the bounds colour.
	if got := img.NRGBAAt(80, 5); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("box pixel = %v, want red", got)
	}
}

func TestRender_Supersample(t *testing.T) {
	opts := testOptions()
	opts.Supersample = 3
	img, err := Render(triangleBuffers(t), opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds().Dx() != 100 {
		t.Errorf("width = %d, want 100", img.Bounds().Dx())
	}
	if got := img.NRGBAAt(99, 0); got.R > 8 || got.G > 8 || got.B > 8 {
		t.Errorf("corner = %v, want background", got)
	}
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		bufs *geometry.Buffers
		size int
	}{
		{"empty buffers", &geometry.Buffers{}, 100},
		{"nil buffers", nil, 100},
		{"zero size", &geometry.Buffers{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.Size = tt.size
			if _, err := Render(tt.bufs, opts); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Render(&geometry.Buffers{}, testOptions()); !errors.Is(err, ErrNothingToDraw) {
		t.Errorf("error = %v, want ErrNothingToDraw", err)
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in      string
		want    View
		wantErr bool
	}{
		{"", ViewFront, false},
		{"front", ViewFront, false},
		{"TOP", ViewTop, false},
		{"side", ViewSide, false},
		{"iso", ViewFront, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseView(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("view = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProjection_Views(t *testing.T) {
	b := formats.Bounds{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	v := mgl32.Vec3{1, 1, -1}

	tests := []struct {
		view View
		want [2]int
	}{
		{ViewFront, [2]int{95, 5}},
		{ViewTop, [2]int{95, 5}},
		{ViewSide, [2]int{5, 5}},
	}
	for _, tt := range tests {
		p := newProjection(tt.view, b, 100)
		got := p.point(v)
		if got[0] != float64(tt.want[0]) || got[1] != float64(tt.want[1]) {
			t.Errorf("view %d: point = %v, want %v", tt.view, got, tt.want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default().Preview
	opts, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	if opts.Size != cfg.Size || opts.Supersample != cfg.Supersample || opts.View != ViewFront {
		t.Errorf("options = %+v", opts)
	}
	if opts.Wire.Hex() != cfg.WireColor.Hex() {
		t.Errorf("wire = %s, want %s", opts.Wire.Hex(), cfg.WireColor.Hex())
	}

	cfg.View = "diagonal"
	if _, err := FromConfig(cfg); err == nil {
		t.Error("FromConfig should reject an unknown view")
	}
}

func TestEncode(t *testing.T) {
	img, err := Render(triangleBuffers(t), testOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatPNG); err != nil {
		t.Fatalf("PNG encode failed: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("PNG decode failed: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}

	buf.Reset()
	if err := Encode(&buf, img, FormatWebP); err != nil {
		t.Fatalf("WebP encode failed: %v", err)
	}
	data := buf.Bytes()
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Errorf("WebP output does not start with a RIFF/WEBP header")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.png", FormatPNG},
		{"out.webp", FormatWebP},
		{"OUT.WEBP", FormatWebP},
		{"out", FormatPNG},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	img, err := Render(triangleBuffers(t), testOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "preview.png")
	if err := WriteFile(path, img); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func buffersFor(t *testing.T, positions []mgl32.Vec3, declared formats.Bounds) *geometry.Buffers {
	t.Helper()
	s, err := formats.NewSubset(formats.SubsetData{
		DrawMode:  formats.DrawTriangles,
		Count:     len(positions),
		Positions: positions,
		Bounds:    declared,
	})
	if err != nil {
		t.Fatalf("NewSubset failed: %v", err)
	}
	bufs, err := geometry.Build(s, geometry.DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return bufs
}

func TestRender_DeclaredBoundsTooSmall(t *testing.T) {
	// The file claims a tiny box but the vertices are far larger.
	bufs := buffersFor(t,
		[]mgl32.Vec3{{0, 0, 0}, {1e5, 0, 0}, {0, 1e5, 0}},
		formats.Bounds{Max: mgl32.Vec3{0.001, 0.001, 0.001}})

	img, err := Render(bufs, testOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// The triangle is fitted to the canvas, so its bottom edge is visible.
	if got := img.NRGBAAt(50, 95); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("bottom edge pixel = %v, want wire colour", got)
	}
}

func TestRender_NonFinitePositions(t *testing.T) {
	nan := float32(gomath.NaN())
	inf := float32(gomath.Inf(1))
	bufs := buffersFor(t,
		[]mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
			{nan, 0, 0}, {inf, 1, 0}, {0, -inf, 0},
		},
		formats.Bounds{Max: mgl32.Vec3{1, 1, 0}})

	img, err := Render(bufs, testOptions())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := img.NRGBAAt(50, 95); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("finite triangle edge = %v, want wire colour", got)
	}
}

func TestClip(t *testing.T) {
	nan := gomath.NaN()
	tests := []struct {
		name   string
		a, b   [2]float64
		wantOK bool
		wantA  [2]float64
		wantB  [2]float64
	}{
		{"inside", [2]float64{1, 1}, [2]float64{5, 5}, true, [2]float64{1, 1}, [2]float64{5, 5}},
		{"far horizontal", [2]float64{-1e9, 50}, [2]float64{1e9, 50}, true, [2]float64{0, 50}, [2]float64{99, 50}},
		{"far vertical", [2]float64{10, 1e9}, [2]float64{10, -1e9}, true, [2]float64{10, 99}, [2]float64{10, 0}},
		{"outside", [2]float64{-10, -10}, [2]float64{-1, -5}, false, [2]float64{}, [2]float64{}},
		{"nan endpoint", [2]float64{nan, 0}, [2]float64{5, 5}, false, [2]float64{}, [2]float64{}},
		{"inf endpoint", [2]float64{gomath.Inf(1), 0}, [2]float64{5, 5}, false, [2]float64{}, [2]float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, ok := clip(tt.a, tt.b, 99, 99)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !near(a, tt.wantA) || !near(b, tt.wantB) {
				t.Errorf("clip = %v, %v; want %v, %v", a, b, tt.wantA, tt.wantB)
			}
		})
	}
}

func near(a, b [2]float64) bool {
	return gomath.Abs(a[0]-b[0]) < 1e-3 && gomath.Abs(a[1]-b[1]) < 1e-3
}

func TestFiniteUnion(t *testing.T) {
	inf := float32(gomath.Inf(1))
	got, ok := finiteUnion(
		formats.Bounds{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}},
		formats.Bounds{Min: mgl32.Vec3{-2, 0, 0}, Max: mgl32.Vec3{inf, 0, 0}},
	)
	if !ok {
		t.Fatal("finiteUnion found no finite corner")
	}
	want := formats.Bounds{Min: mgl32.Vec3{-2, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	if got != want {
		t.Errorf("union = %v, want %v", got, want)
	}

	if _, ok := finiteUnion(formats.Bounds{Min: mgl32.Vec3{inf, 0, 0}, Max: mgl32.Vec3{inf, 0, 0}}); ok {
		t.Error("all non-finite corners should report false")
	}
}
