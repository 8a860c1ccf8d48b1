package geom

import "math"

// Cone bounds the normal axis of a set of emitters along with their
// emission profile: axis is the average emission direction, ThetaO
// bounds the spread of surface normals inside the cone, and ThetaE
// bounds the half-angle of emission relative to each normal.
//
// The empty cone is represented with an explicit tag rather than a
// sentinel float (the original used theta_o = theta_e = FLT_MIN to make
// merge(empty, x) == x fall out of the arithmetic); Merge instead
// matches on Empty directly.
type Cone struct {
	Empty         bool
	Axis          Vec3
	ThetaO, ThetaE float64
}

// EmptyCone returns the empty sentinel cone.
func EmptyCone() Cone {
	return Cone{Empty: true}
}

// NewCone returns a valid cone with the given axis and half-angles.
func NewCone(axis Vec3, thetaO, thetaE float64) Cone {
	return Cone{Axis: axis, ThetaO: thetaO, ThetaE: thetaE}
}

// Merge combines two cones so that every direction admissible under
// either input is admissible under the result. The cone with the
// larger ThetaO is used as the base; its axis is rotated toward the
// other by theta_r = theta_o - theta_o_a, ThetaO is clamped to pi, and
// ThetaE becomes max(a.ThetaE, b.ThetaE).
func Merge(a, b Cone) Cone {
	if a.Empty {
		return b
	}
	if b.Empty {
		return a
	}

	// a always has the larger (or equal) ThetaO.
	if b.ThetaO > a.ThetaO {
		a, b = b, a
	}

	thetaD := safeAcos(a.Axis.Dot(b.Axis))
	thetaE := math.Max(a.ThetaE, b.ThetaE)

	// a already contains b.
	if a.ThetaO >= math.Min(math.Pi, thetaD+b.ThetaO) {
		return Cone{Axis: a.Axis, ThetaO: a.ThetaO, ThetaE: thetaE}
	}

	thetaO := (thetaD + a.ThetaO + b.ThetaO) * 0.5
	if thetaO >= math.Pi {
		return Cone{Axis: a.Axis, ThetaO: math.Pi, ThetaE: thetaE}
	}

	thetaR := thetaO - a.ThetaO
	axis := RotateAxis(a.Axis.Cross(b.Axis), thetaR).MulVec3Dir(a.Axis).Normalize()

	return Cone{Axis: axis, ThetaO: thetaO, ThetaE: thetaE}
}

// Measure returns the solid-angle proxy used by the SAOH cost metric.
// The empty cone measures 0.
func (c Cone) Measure() float64 {
	if c.Empty {
		return 0
	}

	thetaW := math.Min(math.Pi, c.ThetaO+c.ThetaE)
	cosThetaO := math.Cos(c.ThetaO)
	sinThetaO := math.Sin(c.ThetaO)

	return 2*math.Pi*(1-cosThetaO) +
		(math.Pi/2)*(2*thetaW*sinThetaO-math.Cos(c.ThetaO-2*thetaW)-2*c.ThetaO*sinThetaO+cosThetaO)
}

// safeAcos clamps its argument to [-1, 1] before calling math.Acos, to
// guard against floating-point drift pushing a dot product of unit
// vectors just outside the domain.
func safeAcos(x float64) float64 {
	if x < -1 {
		x = -1
	} else if x > 1 {
		x = 1
	}
	return math.Acos(x)
}
