// Package patchio provides subd.Patch implementations and the scene
// loaders that produce them: a bilinear quad evaluator for hand-built
// patch cages, and a GLTF-mesh-derived variant that pairs up a loaded
// mesh's triangles into quads (or keeps them as degenerate quads when no
// pairing exists) while sharing corner vertices across adjacent faces.
package patchio

import (
	"github.com/taigrr/diagsplit/geom"
	"github.com/taigrr/diagsplit/subd"
)

// QuadPatch is a bilinear quad evaluated from four corner positions and
// normals. UV00/UV10/UV11/UV01 follow the same corner-naming convention
// as subd.SubPatch: (u,v) = (0,0), (1,0), (1,1), (0,1).
type QuadPatch struct {
	P00, P10, P11, P01 geom.Vec3
	N00, N10, N11, N01 geom.Vec3

	// CornerIDsValue identifies the four corners in whatever global
	// vertex-id space the caller allocated them from, enabling
	// subd.SplitPatches to dedupe shared corners across adjacent patches.
	// A cage with no notion of shared global ids (e.g. a standalone
	// synthetic patch) may use any four distinct ints.
	CornerIDsValue [4]int

	// Ngon marks a patch that stands in for part of an n-gon base face,
	// halving the edge-factor limit the same way the original keeps
	// n-gon subdivision from over-tessellating near the central vertex.
	Ngon bool
}

var _ subd.Patch = QuadPatch{}
var _ subd.CornerSource = QuadPatch{}

// Eval bilinearly interpolates position and normal across the patch, and
// returns the partial derivatives of position with respect to u and v
// (the two edge directions at that point), which the DiagSplit edge
// factor estimate uses to approximate world-space arc length.
func (p QuadPatch) Eval(u, v float64) (pos, dPdu, dPdv, normal geom.Vec3) {
	bottom := p.P00.Lerp(p.P10, u)
	top := p.P01.Lerp(p.P11, u)
	pos = bottom.Lerp(top, v)

	dPdu = p.P10.Sub(p.P00).Lerp(p.P11.Sub(p.P01), v)
	dPdv = p.P01.Sub(p.P00).Lerp(p.P11.Sub(p.P10), u)

	nBottom := p.N00.Lerp(p.N10, u)
	nTop := p.N01.Lerp(p.N11, u)
	normal = nBottom.Lerp(nTop, v).Normalize()

	return pos, dPdu, dPdv, normal
}

// FromNgon reports whether this patch was split out of an n-gon base
// face, which halves its permitted maximum edge factor (spec §4.3).
func (p QuadPatch) FromNgon() bool { return p.Ngon }

// CornerIDs returns the four corner vertex identities in UV00/UV10/UV11/UV01
// order, used by subd.SplitPatches to merge corner vertices shared with
// neighboring patches instead of minting duplicates.
func (p QuadPatch) CornerIDs() [4]int { return p.CornerIDsValue }
