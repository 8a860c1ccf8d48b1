package geom

import "math"

// AABB is an axis-aligned bounding box. The zero value is not valid;
// use EmptyAABB for the empty sentinel, whose Min > Max component-wise
// so that Grow always replaces it.
type AABB struct {
	Min, Max Vec3
}

// EmptyAABB returns the empty sentinel box.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABB creates an AABB from explicit min and max points.
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// IsEmpty reports whether the box is the empty sentinel (or otherwise
// degenerate: min exceeds max on some axis).
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// GrowPoint extends the box to contain p.
func (b AABB) GrowPoint(p Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Grow unions two boxes.
func (b AABB) Grow(other AABB) AABB {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return AABB{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Size returns Max - Min. Undefined (but computable) on an empty box.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// SurfaceArea returns the surface area of the box, 0 if empty.
func (b AABB) SurfaceArea() float64 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Size()
	return 2 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// Transform returns an AABB bounding all 8 transformed corners of b.
func (b AABB) Transform(m Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	corners := [8]Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}

	out := EmptyAABB()
	for _, c := range corners {
		out = out.GrowPoint(m.MulVec3(c))
	}
	return out
}

// ContainsPoint reports whether p lies within the box.
func (b AABB) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
