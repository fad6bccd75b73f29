package math

import "github.com/go-gl/mathgl/mgl32"

// BoxEdgeVertexCount is the number of vertices returned by BoxEdges (12 edges × 2).
const BoxEdgeVertexCount = 24

// BoxEdges returns line-list endpoints for the 12 edges of the axis-aligned
// box spanned by min and max.
func BoxEdges(min, max mgl32.Vec3) []mgl32.Vec3 {
	x0, y0, z0 := min[0], min[1], min[2]
	x1, y1, z1 := max[0], max[1], max[2]
	return []mgl32.Vec3{
		// Bottom face
		{x0, y0, z0}, {x1, y0, z0},
		{x1, y0, z0}, {x1, y0, z1},
		{x1, y0, z1}, {x0, y0, z1},
		{x0, y0, z1}, {x0, y0, z0},
		// Top face
		{x0, y1, z0}, {x1, y1, z0},
		{x1, y1, z0}, {x1, y1, z1},
		{x1, y1, z1}, {x0, y1, z1},
		{x0, y1, z1}, {x0, y1, z0},
		// Vertical edges
		{x0, y0, z0}, {x0, y1, z0},
		{x1, y0, z0}, {x1, y1, z0},
		{x1, y0, z1}, {x1, y1, z1},
		{x0, y0, z1}, {x0, y1, z1},
	}
}
