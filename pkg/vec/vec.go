// Package vec provides the small amount of 3-D geometry the converter needs:
// vectors, axis-aligned bounding boxes, and the axis swizzle that maps
// skeleton-space coordinates into morphology-space coordinates.
package vec

import "math"

// V3 is a 3-D vector (or point).
type V3 struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	Z float64 `json:"z" bson:"z"`
}

// Add returns v + w.
func (v V3) Add(w V3) V3 { return V3{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// Sub returns v - w.
func (v V3) Sub(w V3) V3 { return V3{v.X - w.X, v.Y - w.Y, v.Z - w.Z} }

// Scale returns v * s.
func (v V3) Scale(s float64) V3 { return V3{v.X * s, v.Y * s, v.Z * s} }

// Length returns the Euclidean norm of v.
func (v V3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged rather than producing NaNs.
func (v V3) Normalize() V3 {
	m := v.Length()
	if m == 0 {
		return v
	}
	return v.Scale(1 / m)
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b V3) float64 {
	return math.Sqrt(DistSq(a, b))
}

// DistSq returns the squared Euclidean distance between a and b.
// Useful for radius comparisons without the square root.
func DistSq(a, b V3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

// Min returns the component-wise minimum of a and b.
func Min(a, b V3) V3 {
	return V3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

// Max returns the component-wise maximum of a and b.
func Max(a, b V3) V3 {
	return V3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

// Swizzle maps a point between the two coordinate systems the toolchain
// straddles: XYZ in the skeletonization stack becomes -XZY on the morphology
// side, and vice versa. The mapping is an involution: applying it twice
// restores the original point exactly.
func Swizzle(v V3) V3 { return V3{-v.X, v.Z, v.Y} }

// AABB is an axis-aligned bounding box described by its two extreme corners.
// Min and Max are normalized so each component of Min is ≤ the matching
// component of Max.
type AABB struct {
	Min V3 `json:"v1" bson:"v1"`
	Max V3 `json:"v2" bson:"v2"`
}

// NewAABB builds a normalized AABB from two maximally distant corners,
// given in any order.
func NewAABB(a, b V3) AABB {
	return AABB{Min: Min(a, b), Max: Max(a, b)}
}

// Adjust grows (positive n) or shrinks (negative n) every face of the box
// away from or toward its centre.
func (b AABB) Adjust(n float64) AABB {
	return NewAABB(
		V3{b.Min.X - n, b.Min.Y - n, b.Min.Z - n},
		V3{b.Max.X + n, b.Max.Y + n, b.Max.Z + n},
	)
}

// Contains reports whether v lies strictly inside the box.
func (b AABB) Contains(v V3) bool {
	return v.X > b.Min.X && v.Y > b.Min.Y && v.Z > b.Min.Z &&
		v.X < b.Max.X && v.Y < b.Max.Y && v.Z < b.Max.Z
}
