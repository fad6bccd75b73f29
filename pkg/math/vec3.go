// Package math provides vector helpers for derived geometry on top of mathgl.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// normalizeEpsilon is the length below which a vector is treated as zero.
const normalizeEpsilon = 1e-12

// Normalize returns a unit vector, or the zero vector if v has no length.
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < normalizeEpsilon {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// FaceNormal returns the normalised cross product of the triangle's first
// two edges, p1-p0 and p2-p0.
func FaceNormal(p0, p1, p2 mgl32.Vec3) mgl32.Vec3 {
	return Normalize(p1.Sub(p0).Cross(p2.Sub(p0)))
}

// AverageNormal returns the normalised sum of three corner normals.
func AverageNormal(n0, n1, n2 mgl32.Vec3) mgl32.Vec3 {
	return Normalize(n0.Add(n1).Add(n2))
}

// Centroid returns the mean of three points.
func Centroid(p0, p1, p2 mgl32.Vec3) mgl32.Vec3 {
	return p0.Add(p1).Add(p2).Mul(1.0 / 3.0)
}

// MaxExtent returns the largest per-axis size of the box spanned by min and max.
func MaxExtent(min, max mgl32.Vec3) float32 {
	size := max.Sub(min)
	return float32(gomath.Max(float64(size[0]), gomath.Max(float64(size[1]), float64(size[2]))))
}

// Extend grows the box min, max to contain p.
func Extend(min, max, p mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		min[i] = float32(gomath.Min(float64(min[i]), float64(p[i])))
		max[i] = float32(gomath.Max(float64(max[i]), float64(p[i])))
	}
	return min, max
}
