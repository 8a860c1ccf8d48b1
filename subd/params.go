// Package subd implements DiagSplit adaptive patch tessellation and the
// EdgeDice triangulation pass that turns finalized sub-patches into a
// crack-free micro-polygon mesh.
package subd

import "github.com/taigrr/diagsplit/geom"

// Sentinel edge-factor values. 0 means unset; NonUniform means the edge
// still needs to be split because its two measured endpoints disagree;
// any value >= 1 is a final segment count.
const (
	NonUniform = -1

	maxDepth       = 32
	maxSegments    = 8
	forceSplitDepth = -2 // sentinel depth; nothing in this package passes it, splitPatch starts recursion at depth 0
)

// Patch is the external surface evaluator the core consumes. Eval must be
// deterministic and safe to call concurrently from multiple goroutines.
type Patch interface {
	// Eval evaluates the patch at parametric coordinate (u, v), returning
	// position, partial derivatives, and normal.
	Eval(u, v float64) (pos, dPdu, dPdv, normal geom.Vec3)

	// FromNgon reports whether this patch was produced by an initial
	// n-gon corner split, which halves the edge-factor limit (§4.2.1).
	FromNgon() bool
}

// CornerSource is an optional extension a Patch may implement to report
// stable cage-vertex identifiers for its four corners, in (0,0), (1,0),
// (1,1), (0,1) order. SplitPatches uses matching ids across different
// patches in one call to recognize shared boundaries and hand both
// sides the same output vertex, which is what lets the shared edge
// table deduplicate the boundary between them at all. Patches that don't
// implement it (e.g. a standalone patch with no neighbors) always get
// fresh corner vertices.
type CornerSource interface {
	Patch
	CornerIDs() [4]int
}

// PtexPatch is an optional extension a Patch may implement to report the
// stable face id ptex attributes are indexed by; only consulted when
// Params.Ptex is set.
type PtexPatch interface {
	Patch
	PtexFaceID() int
}

// CameraProjector measures the size of one raster pixel at a world-space
// point, letting edge lengths be measured in pixels rather than world
// units when a camera is attached.
type CameraProjector interface {
	WorldToRasterSize(p geom.Vec3) float64
}

// Params configures a DiagSplit + EdgeDice pass.
type Params struct {
	// DicingRate is the target edge length, in pixels if Camera is set,
	// otherwise in world units.
	DicingRate float64

	// SplitThreshold is the maximum allowed difference between the
	// length-sum and length-max edge-factor estimates (§4.2.1). Past it,
	// edge resolution bisects the edge's parametric interval and sums the
	// two halves' factors; the edge is not marked NonUniform.
	SplitThreshold float64

	// TestSteps is the number of equal parametric samples used to
	// estimate an edge's tessellated length.
	TestSteps int

	// MaxLevel bounds the edge factor to at most 2^MaxLevel times the
	// parametric distance between its endpoints (§4.2.1).
	MaxLevel int

	// Camera, if non-nil, causes edge lengths to be measured in raster
	// pixels via ObjectToWorld and Camera.WorldToRasterSize.
	Camera CameraProjector

	// ObjectToWorld maps evaluated points into world space. Edge-length
	// measurement applies it only when Camera is set; vertices written
	// to the sink and the stitch pass's diagonal comparison use it
	// whether or not Camera is set.
	ObjectToWorld geom.Mat4

	// Ptex enables the ptex_uv / ptex_face_id vertex attributes in the
	// mesh sink (§7 Supplemented Features).
	Ptex bool
}

// DefaultParams returns reasonable defaults for a params-less caller
// (used by tests and the synthetic-patch CLI path).
func DefaultParams() Params {
	return Params{
		DicingRate:     1.0,
		SplitThreshold: 1.0,
		TestSteps:      4,
		MaxLevel:       18,
		ObjectToWorld:  geom.Identity(),
	}
}
