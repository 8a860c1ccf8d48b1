package math3d

// Vec4 is a homogeneous clip-space coordinate: the output of Mat4.MulVec4
// on a view-projection matrix, carrying the W a perspective divide needs.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4 creates a new Vec4.
func V4(x, y, z, w float64) Vec4 {
	return Vec4{x, y, z, w}
}

// V4FromV3 creates a Vec4 from Vec3 with specified W, the standard way to
// lift a world-space point into clip space before a Mat4.MulVec4.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// PerspectiveDivide returns the NDC position, dividing X/Y/Z by W. Used on
// a Mat4.MulVec4 result to go from clip space to normalized device
// coordinates for frustum-cull and screen-space tests.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return Vec3{v.X, v.Y, v.Z}
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}
