// Package preview renders derived geometry to a flat orthographic line
// drawing and encodes it as PNG or WebP.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	gomath "math"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/Faultbox/meshscope/internal/config"
	"github.com/Faultbox/meshscope/internal/geometry"
	"github.com/Faultbox/meshscope/pkg/formats"
	"github.com/Faultbox/meshscope/pkg/math"
)

// View selects the projection axes.
type View int

const (
	ViewFront View = iota // X right, Y up
	ViewTop               // X right, Z down
	ViewSide              // Z right, Y up
)

// ParseView converts a view name from config.
func ParseView(s string) (View, error) {
	switch strings.ToLower(s) {
	case "", config.ViewFront:
		return ViewFront, nil
	case config.ViewTop:
		return ViewTop, nil
	case config.ViewSide:
		return ViewSide, nil
	default:
		return ViewFront, fmt.Errorf("unknown view %q", s)
	}
}

// ErrNothingToDraw is returned when the buffers hold no wireframe.
var ErrNothingToDraw = errors.New("no geometry to draw")

// margin is the fraction of the image left empty on each side.
const margin = 0.05

// Options controls rendering.
type Options struct {
	Size        int
	Supersample int
	View        View
	Background  colorful.Color
	Wire        colorful.Color
	Normal      colorful.Color
	Bounds      colorful.Color
	ShowNormals bool
	ShowBounds  bool
}

// FromConfig builds Options from the preview section of the config.
func FromConfig(cfg config.PreviewConfig) (Options, error) {
	view, err := ParseView(cfg.View)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Size:        cfg.Size,
		Supersample: cfg.Supersample,
		View:        view,
		Background:  cfg.Background.Color,
		Wire:        cfg.WireColor.Color,
		Normal:      cfg.NormalColor.Color,
		Bounds:      cfg.BoundsColor.Color,
		ShowNormals: cfg.ShowNormals,
		ShowBounds:  cfg.ShowBounds,
	}, nil
}

// Render draws the wireframe of bufs, plus its normal segments and
// bounding box when enabled, into a Size x Size image.
func Render(bufs *geometry.Buffers, opts Options) (*image.NRGBA, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("invalid preview size %d", opts.Size)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if bufs == nil || bufs.Wireframe == nil || bufs.Wireframe.VertexCount == 0 {
		return nil, ErrNothingToDraw
	}

	// Declared bounds come from the file and may not cover the vertices,
	// so they are widened by the bounds measured while building.
	fit := []formats.Bounds{bufs.Wireframe.Bounds}
	if bufs.Original != nil {
		fit = append(fit, bufs.Original.Bounds)
	}
	if opts.ShowNormals && bufs.Normals != nil && bufs.Normals.VertexCount > 0 {
		fit = append(fit, bufs.Normals.Bounds)
	}
	bounds, ok := finiteUnion(fit...)
	if !ok {
		return nil, ErrNothingToDraw
	}

	full := opts.Size * opts.Supersample
	c := newCanvas(full, rgba(opts.Background))
	p := newProjection(opts.View, bounds, full)

	if opts.ShowBounds {
		c.segments(p, math.BoxEdges(bounds.Min, bounds.Max), rgba(opts.Bounds))
	}
	c.geometry(p, bufs.Wireframe, rgba(opts.Wire))
	if opts.ShowNormals && bufs.Normals != nil {
		c.geometry(p, bufs.Normals, rgba(opts.Normal))
	}

	if opts.Supersample == 1 {
		return c.img, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), c.img, c.img.Bounds(), draw.Src, nil)
	return dst, nil
}

// Format is an output image encoding.
type Format int

const (
	FormatPNG Format = iota
	FormatWebP
)

// FormatFromPath picks the encoding from a file extension. Anything other
// than .webp is PNG.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return FormatWebP
	}
	return FormatPNG
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("webp encode: %w", err)
		}
	default:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("png encode: %w", err)
		}
	}
	return nil
}

// WriteFile encodes img to path, choosing the format from its extension.
func WriteFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func rgba(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// finiteUnion returns the box around every finite corner of bs. It
// reports false when no corner is finite.
func finiteUnion(bs ...formats.Bounds) (formats.Bounds, bool) {
	var out formats.Bounds
	found := false
	for _, b := range bs {
		for _, c := range [2]mgl32.Vec3{b.Min, b.Max} {
			if !finite(c[0]) || !finite(c[1]) || !finite(c[2]) {
				continue
			}
			if !found {
				out = formats.Bounds{Min: c, Max: c}
				found = true
				continue
			}
			out.Min, out.Max = math.Extend(out.Min, out.Max, c)
		}
	}
	return out, found
}

func finite(f float32) bool {
	return !gomath.IsNaN(float64(f)) && !gomath.IsInf(float64(f), 0)
}

// projection maps model space onto pixel coordinates, keeping the aspect
// ratio and centring the bounds.
type projection struct {
	u, v             int // Model axes for screen x and y
	flipV            bool
	scale            float32
	centerU, centerV float32
	half             float32
}

func newProjection(view View, b formats.Bounds, size int) projection {
	p := projection{u: 0, v: 1, flipV: true}
	switch view {
	case ViewTop:
		p.u, p.v, p.flipV = 0, 2, false
	case ViewSide:
		p.u, p.v, p.flipV = 2, 1, true
	}

	extent := b.Max.Sub(b.Min)
	span := extent[p.u]
	if extent[p.v] > span {
		span = extent[p.v]
	}
	usable := float32(size) * (1 - 2*margin)
	if span > 0 {
		p.scale = usable / span
	}
	p.centerU = (b.Min[p.u] + b.Max[p.u]) / 2
	p.centerV = (b.Min[p.v] + b.Max[p.v]) / 2
	p.half = float32(size) / 2
	return p
}

// point returns pixel coordinates in float64 so far-off vertices do not
// overflow before clipping.
func (p projection) point(v mgl32.Vec3) [2]float64 {
	x := float64(v[p.u]-p.centerU)*float64(p.scale) + float64(p.half)
	y := float64(v[p.v]-p.centerV) * float64(p.scale)
	if p.flipV {
		y = -y
	}
	return [2]float64{x, y + float64(p.half)}
}
