package subd

import (
	"github.com/taigrr/diagsplit/geom"
)

// dice is EdgeDice: it fills in a finalized SubPatch's interior grid and
// stitches all four boundaries against that grid so the result has no
// T-junctions, regardless of how the boundary's tessellation factor
// compares to the grid's own resolution.
func (b *builder) dice(sp *SubPatch) error {
	mu, mv := sp.Mu(), sp.Mv()

	if n := sp.NumInnerVerts(); n > 0 {
		sp.InnerGridVertOffset = b.sink.AllocVerts(n)

		for j := 1; j < mv; j++ {
			for i := 1; i < mu; i++ {
				u := float64(i) / float64(mu)
				v := float64(j) / float64(mv)
				pu, pv := sp.MapUV(u, v)
				b.setVertex(sp.innerGridVert(i, j), sp.Patch, geom.V2(pu, pv))
			}
		}

		for j := 1; j < mv-1; j++ {
			for i := 1; i < mu-1; i++ {
				v00 := sp.innerGridVert(i, j)
				v10 := sp.innerGridVert(i+1, j)
				v11 := sp.innerGridVert(i+1, j+1)
				v01 := sp.innerGridVert(i, j+1)
				b.sink.AddTriangle(v00, v10, v11)
				b.sink.AddTriangle(v00, v11, v01)
			}
		}
	}

	for i := 0; i < 4; i++ {
		b.stitchEdge(sp, i)
	}
	return nil
}

// stitchEdge connects the boundary chain of edge i (outer_T + 1 vertices,
// the edge's own tessellation) against the interior grid row or column
// running alongside it (innerT + 1 vertices, where innerT is Mv-2 for the
// two v-varying edges and Mu-2 for the two u-varying edges). Adjacent
// edges' inner chains meet at the grid's corner vertices and their outer
// chains at the subpatch's corners, so the four stitched strips and the
// grid cells cover the subpatch without gaps.
func (b *builder) stitchEdge(sp *SubPatch, edgeIdx int) {
	e := sp.edgeByIndex(edgeIdx)
	outerT := e.SubEdge.T

	innerT := sp.Mv() - 2
	if edgeIdx%2 == 1 {
		innerT = sp.Mu() - 2
	}
	if innerT < 0 {
		innerT = 0
	}

	outerIdx := make([]int, outerT+1)
	outerPos := make([]geom.Vec3, outerT+1)
	for n := 0; n <= outerT; n++ {
		outerIdx[n] = e.GetVertAlongEdge(n)
		u, v := edgeLocalUV(edgeIdx, float64(n)/float64(outerT))
		pu, pv := sp.MapUV(u, v)
		outerPos[n] = b.worldPos(sp.Patch, geom.V2(pu, pv))
	}

	innerIdx := make([]int, innerT+1)
	innerPos := make([]geom.Vec3, innerT+1)
	for n := 0; n <= innerT; n++ {
		innerIdx[n] = sp.gridEdgeVert(edgeIdx, n)
		u, v := gridEdgeLocalUV(sp, edgeIdx, n)
		pu, pv := sp.MapUV(u, v)
		innerPos[n] = b.worldPos(sp.Patch, geom.V2(pu, pv))
	}

	b.stitchChains(outerIdx, outerPos, innerIdx, innerPos)
}

// edgeLocalUV returns the local (u, v) position at fraction f (0..1) along
// subpatch edge index edgeIdx, in the same start->end direction
// GetVertAlongEdge walks, matching gridEdgeLocalUV's traversal per edge.
func edgeLocalUV(edgeIdx int, f float64) (u, v float64) {
	switch edgeIdx {
	case 0: // EdgeV0: u=0, v from 1 to 0
		return 0, 1 - f
	case 1: // EdgeU1: v=1, u from 1 to 0
		return 1 - f, 1
	case 2: // EdgeV1: u=1, v from 0 to 1
		return 1, f
	default: // EdgeU0: v=0, u from 0 to 1
		return f, 0
	}
}

// gridEdgeLocalUV returns the local (u, v) position of the interior grid
// vertex sp.gridEdgeVert(edgeIdx, n), derived from that function's own
// row/column traversal so the two stay in lockstep.
func gridEdgeLocalUV(sp *SubPatch, edgeIdx, n int) (u, v float64) {
	mu, mv := float64(sp.Mu()), float64(sp.Mv())
	switch edgeIdx {
	case 0: // EdgeV0: u=0 column, v decreasing from Mv-1 to 1
		return 1 / mu, (mv - 1 - float64(n)) / mv
	case 1: // EdgeU1: v=Mv-1 row, u decreasing from Mu-1 to 1
		return (mu - 1 - float64(n)) / mu, (mv - 1) / mv
	case 2: // EdgeV1: u=Mu-1 column, v increasing from 1 to Mv-1
		return (mu - 1) / mu, (float64(n) + 1) / mv
	default: // EdgeU0: v=0 row, u increasing from 1 to Mu-1
		return (float64(n) + 1) / mu, 1 / mv
	}
}

// stitchChains walks an outer and an inner vertex chain from their first
// vertices to their last, emitting one triangle per step (so
// len(outerIdx)+len(innerIdx)-2 in all) and at each step advancing whichever chain yields
// the shorter diagonal across the resulting quad, measured as actual
// world-space squared distance between the candidate diagonal's endpoints
// - the same criterion the original engine's stitch_triangles uses. This
// never needs a chain to skip a vertex, so the boundary it emits can never
// expose a T-junction to a neighboring subpatch walking the same edge.
func (b *builder) stitchChains(outerIdx []int, outerPos []geom.Vec3, innerIdx []int, innerPos []geom.Vec3) {
	oi, ii := 0, 0
	for oi < len(outerIdx)-1 || ii < len(innerIdx)-1 {
		switch {
		case oi == len(outerIdx)-1:
			b.sink.AddTriangle(outerIdx[oi], innerIdx[ii], innerIdx[ii+1])
			ii++
		case ii == len(innerIdx)-1:
			b.sink.AddTriangle(outerIdx[oi], outerIdx[oi+1], innerIdx[ii])
			oi++
		default:
			d1 := outerPos[oi+1].Sub(innerPos[ii]).LenSquared()
			d2 := outerPos[oi].Sub(innerPos[ii+1]).LenSquared()
			if d1 <= d2 {
				b.sink.AddTriangle(outerIdx[oi], outerIdx[oi+1], innerIdx[ii])
				oi++
			} else {
				b.sink.AddTriangle(outerIdx[oi], innerIdx[ii+1], innerIdx[ii])
				ii++
			}
		}
	}
}
