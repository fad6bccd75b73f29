package preview

import (
	"image"
	"image/color"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshscope/internal/geometry"
)

type canvas struct {
	img *image.NRGBA
}

func newCanvas(size int, bg color.NRGBA) *canvas {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}
	return &canvas{img: img}
}

// geometry draws an indexed line list.
func (c *canvas) geometry(p projection, g *geometry.Geometry, col color.NRGBA) {
	if g == nil || g.Primitive != geometry.PrimitiveLines {
		return
	}
	positions := g.Positions()
	indices := g.Indices()
	for i := 0; i+1 < len(indices); i += 2 {
		a, b := int(indices[i]), int(indices[i+1])
		if a >= len(positions) || b >= len(positions) {
			continue
		}
		c.line(p.point(positions[a]), p.point(positions[b]), col)
	}
}

// segments draws consecutive vertex pairs.
func (c *canvas) segments(p projection, vs []mgl32.Vec3, col color.NRGBA) {
	for i := 0; i+1 < len(vs); i += 2 {
		c.line(p.point(vs[i]), p.point(vs[i+1]), col)
	}
}

// line clips the segment a-b to the image and rasterises what is left.
// Segments with a non-finite endpoint are dropped.
func (c *canvas) line(a, b [2]float64, col color.NRGBA) {
	maxX := float64(c.img.Rect.Dx() - 1)
	maxY := float64(c.img.Rect.Dy() - 1)
	a, b, ok := clip(a, b, maxX, maxY)
	if !ok {
		return
	}
	c.bresenham(image.Pt(int(gomath.Round(a[0])), int(gomath.Round(a[1]))),
		image.Pt(int(gomath.Round(b[0])), int(gomath.Round(b[1]))), col)
}

// clip is Liang-Barsky against [0, maxX] x [0, maxY].
func clip(a, b [2]float64, maxX, maxY float64) ([2]float64, [2]float64, bool) {
	for _, v := range [4]float64{a[0], a[1], b[0], b[1]} {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return a, b, false
		}
	}
	dx, dy := b[0]-a[0], b[1]-a[1]
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a[0]},
		{dx, maxX - a[0]},
		{-dy, a[1]},
		{dy, maxY - a[1]},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = gomath.Max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = gomath.Min(t1, r)
		}
	}
	return [2]float64{a[0] + t0*dx, a[1] + t0*dy},
		[2]float64{a[0] + t1*dx, a[1] + t1*dy}, true
}

// bresenham draws between two points inside the image.
func (c *canvas) bresenham(a, b image.Point, col color.NRGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	bounds := c.img.Rect
	for {
		if a.In(bounds) {
			c.img.SetNRGBA(a.X, a.Y, col)
		}
		if a == b {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			a.X += sx
		}
		if e2 <= dx {
			err += dx
			a.Y += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
