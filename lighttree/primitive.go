// Package lighttree builds a SAOH (surface-area-orientation-heuristic)
// bounding volume hierarchy over a scene's emissive primitives, used to
// importance-sample lights in proportion to their contribution from a
// given shading point.
package lighttree

import (
	"math"

	"github.com/taigrr/diagsplit/geom"
)

// LampType distinguishes the built-in lamp shapes, each of which
// contributes a differently shaped bounding cone and a differently
// scaled energy estimate.
type LampType int

const (
	LampArea LampType = iota
	LampPoint
	LampSpot
	LampBackground
	LampDistant
)

// Primitive is one leaf-level light source: either a single emissive
// triangle or a lamp. PrimID/ObjectID identify it back to the scene;
// everything else is precomputed so the tree builder never needs to
// touch scene data again.
type Primitive struct {
	PrimID   int
	ObjectID int

	Energy   float64
	Centroid geom.Vec3
	Bcone    geom.Cone
	Bbox     geom.AABB

	IsTriangle bool
	LampType   LampType
}

// NewTrianglePrimitive builds the light-tree primitive for one emissive
// triangle. Energy approximates total radiant power as average emitted
// radiance times area times pi (the Lambertian hemisphere factor); the
// bounding cone's axis is the triangle's geometric normal, negated when
// the material emits only from its back face or the instance transform
// mirrors the triangle (both of which flip which side the light actually
// leaves from).
func NewTrianglePrimitive(primID, objectID int, v0, v1, v2 geom.Vec3, emission geom.Vec3, backFaceOnly, negativeScale bool) Primitive {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	cross := e1.Cross(e2)
	area := 0.5 * cross.Len()

	normal := cross.Normalize()
	if backFaceOnly != negativeScale {
		normal = normal.Negate()
	}

	avgEmission := (emission.X + emission.Y + emission.Z) / 3
	energy := avgEmission * area * math.Pi

	// One-sided Lambertian emission either way; thetaO stays 0 since a
	// single triangle has one normal direction.
	thetaE := math.Pi / 2

	bbox := geom.EmptyAABB().GrowPoint(v0).GrowPoint(v1).GrowPoint(v2)
	centroid := v0.Add(v1).Add(v2).Scale(1.0 / 3.0)

	return Primitive{
		PrimID: primID, ObjectID: objectID,
		Energy:     energy,
		Centroid:   centroid,
		Bcone:      geom.NewCone(normal, 0, thetaE),
		Bbox:       bbox,
		IsTriangle: true,
	}
}

// LampParams describes the subset of a lamp's parameters the light tree
// needs; everything else (color textures, IES profiles, nodetrees) is a
// shading-time concern, not a build-time one.
type LampParams struct {
	Type      LampType
	Position  geom.Vec3
	Direction geom.Vec3 // normalized; ignored for LampPoint
	Radius    float64
	// SpotAngle is the spot cone's full angle in radians; SpotSmooth is
	// the fraction of that angle used for the falloff blend.
	SpotAngle, SpotSmooth float64
	// Size is the half-extents of an area lamp's rectangle in its local
	// x/y axes.
	Size     geom.Vec2
	Strength float64
}

// NewLampPrimitive builds the light-tree primitive for a lamp, dispatching
// on its type the way the scene importer's per-type energy and bounding
// rules do (§4.4): area lamps get a flat one-sided cone scaled by their
// rectangle's bounding box, point lamps get a full sphere with no
// orientation preference, spot lamps get a cone whose half-angle follows
// SpotAngle/2, and background/distant lamps - which illuminate from
// infinitely far away - get an empty (unbounded) bbox paired with a
// narrow or full cone depending on whether they approximate parallel or
// ambient light.
func NewLampPrimitive(primID, objectID int, p LampParams) Primitive {
	switch p.Type {
	case LampArea:
		right := orthogonal(p.Direction)
		up := p.Direction.Cross(right).Normalize()
		bbox := geom.EmptyAABB()
		for _, sx := range []float64{-1, 1} {
			for _, sy := range []float64{-1, 1} {
				corner := p.Position.
					Add(right.Scale(sx * p.Size.X)).
					Add(up.Scale(sy * p.Size.Y))
				bbox = bbox.GrowPoint(corner)
			}
		}
		area := 4 * p.Size.X * p.Size.Y
		return Primitive{
			PrimID: primID, ObjectID: objectID,
			Energy:   p.Strength * area,
			Centroid: p.Position,
			Bcone:    geom.NewCone(p.Direction, 0, math.Pi/2),
			Bbox:     bbox,
			LampType: LampArea,
		}

	case LampPoint:
		bbox := sphereBounds(p.Position, p.Radius)
		return Primitive{
			PrimID: primID, ObjectID: objectID,
			Energy:   p.Strength,
			Centroid: p.Position,
			Bcone:    geom.NewCone(geom.V3(0, 0, 1), math.Pi, math.Pi/2),
			Bbox:     bbox,
			LampType: LampPoint,
		}

	case LampSpot:
		bbox := sphereBounds(p.Position, p.Radius)
		halfAngle := p.SpotAngle / 2
		// A narrower spot concentrates the same strength into a smaller
		// solid angle, so energy per unit cone measure is normalized by
		// (1 - cos(halfAngle)) the way a point lamp's full sphere would
		// normalize by 2.
		energy := p.Strength * (1 - math.Cos(halfAngle))
		return Primitive{
			PrimID: primID, ObjectID: objectID,
			Energy:   energy,
			Centroid: p.Position,
			Bcone:    geom.NewCone(p.Direction, 0, halfAngle+p.SpotSmooth*halfAngle),
			Bbox:     bbox,
			LampType: LampSpot,
		}

	case LampBackground:
		return Primitive{
			PrimID: primID, ObjectID: objectID,
			Energy:   p.Strength,
			Centroid: geom.Zero3(),
			Bcone:    geom.NewCone(geom.V3(0, 0, 1), math.Pi, 0),
			Bbox:     geom.EmptyAABB(),
			LampType: LampBackground,
		}

	default: // LampDistant
		return Primitive{
			PrimID: primID, ObjectID: objectID,
			Energy:   p.Strength,
			Centroid: p.Direction.Scale(-1e6),
			Bcone:    geom.NewCone(p.Direction, 0, 0),
			Bbox:     geom.EmptyAABB(),
			LampType: LampDistant,
		}
	}
}

func orthogonal(v geom.Vec3) geom.Vec3 {
	if math.Abs(v.X) < 0.9 {
		return geom.V3(1, 0, 0).Cross(v).Normalize()
	}
	return geom.V3(0, 1, 0).Cross(v).Normalize()
}

func sphereBounds(center geom.Vec3, radius float64) geom.AABB {
	r := geom.V3(radius, radius, radius)
	return geom.NewAABB(center.Sub(r), center.Add(r))
}
