// pkg/physics/proximity.go
package physics

import "github.com/go-gl/mathgl/mgl64"

// Sphere is a trigger volume around a fixed point
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Contains reports whether p lies strictly inside the sphere
func (s Sphere) Contains(p mgl64.Vec3) bool {
	return Distance(s.Center, p) < s.Radius
}

// PlanarRect is an axis-aligned rectangle on the X/Z plane
type PlanarRect struct {
	CenterX float64
	CenterZ float64
	Width   float64 // extent along X
	Depth   float64 // extent along Z
}

// RectAround returns the square of half-size r centred on p
func RectAround(p mgl64.Vec3, r float64) PlanarRect {
	return PlanarRect{CenterX: p.X(), CenterZ: p.Z(), Width: 2 * r, Depth: 2 * r}
}

// Contains reports whether p projected on X/Z lies inside the rectangle.
// The lower edges are inclusive, the upper edges exclusive.
func (r PlanarRect) Contains(p mgl64.Vec3) bool {
	return p.X() >= r.CenterX-r.Width/2 &&
		p.X() < r.CenterX+r.Width/2 &&
		p.Z() >= r.CenterZ-r.Depth/2 &&
		p.Z() < r.CenterZ+r.Depth/2
}

func (r PlanarRect) intersects(other PlanarRect) bool {
	return !(other.CenterX-other.Width/2 > r.CenterX+r.Width/2 ||
		other.CenterX+other.Width/2 < r.CenterX-r.Width/2 ||
		other.CenterZ-other.Depth/2 > r.CenterZ+r.Depth/2 ||
		other.CenterZ+other.Depth/2 < r.CenterZ-r.Depth/2)
}

// QuadTree indexes points on the X/Z plane for range queries
type QuadTree[T any] struct {
	Boundary PlanarRect
	Capacity int

	points  []mgl64.Vec3
	objects []T
	divided bool
	// children in NW, NE, SW, SE order
	children [4]*QuadTree[T]
}

// NewQuadTree creates a quad tree covering boundary that splits once a node
// holds more than capacity points
func NewQuadTree[T any](boundary PlanarRect, capacity int) *QuadTree[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &QuadTree[T]{
		Boundary: boundary,
		Capacity: capacity,
		points:   make([]mgl64.Vec3, 0, capacity),
		objects:  make([]T, 0, capacity),
	}
}

// Insert adds object at point. It returns false if the point is outside the tree.
func (qt *QuadTree[T]) Insert(point mgl64.Vec3, object T) bool {
	if !qt.Boundary.Contains(point) {
		return false
	}

	if len(qt.points) < qt.Capacity && !qt.divided {
		qt.points = append(qt.points, point)
		qt.objects = append(qt.objects, object)
		return true
	}

	if !qt.divided {
		qt.subdivide()
	}

	for _, child := range qt.children {
		if child.Insert(point, object) {
			return true
		}
	}
	return false
}

func (qt *QuadTree[T]) subdivide() {
	x := qt.Boundary.CenterX
	z := qt.Boundary.CenterZ
	w := qt.Boundary.Width / 2
	d := qt.Boundary.Depth / 2

	qt.children = [4]*QuadTree[T]{
		NewQuadTree[T](PlanarRect{CenterX: x - w/2, CenterZ: z + d/2, Width: w, Depth: d}, qt.Capacity),
		NewQuadTree[T](PlanarRect{CenterX: x + w/2, CenterZ: z + d/2, Width: w, Depth: d}, qt.Capacity),
		NewQuadTree[T](PlanarRect{CenterX: x - w/2, CenterZ: z - d/2, Width: w, Depth: d}, qt.Capacity),
		NewQuadTree[T](PlanarRect{CenterX: x + w/2, CenterZ: z - d/2, Width: w, Depth: d}, qt.Capacity),
	}
	qt.divided = true
}

// Query returns all objects whose point lies inside area
func (qt *QuadTree[T]) Query(area PlanarRect) []T {
	var found []T
	if !qt.Boundary.intersects(area) {
		return found
	}

	for i, point := range qt.points {
		if area.Contains(point) {
			found = append(found, qt.objects[i])
		}
	}

	if !qt.divided {
		return found
	}
	for _, child := range qt.children {
		found = append(found, child.Query(area)...)
	}
	return found
}

// Len returns the number of points stored in the tree
func (qt *QuadTree[T]) Len() int {
	n := len(qt.points)
	if qt.divided {
		for _, child := range qt.children {
			n += child.Len()
		}
	}
	return n
}
