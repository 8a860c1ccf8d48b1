package subd

import "github.com/taigrr/diagsplit/geom"

// Edge is one side of a SubPatch: a reference to the shared SubEdge plus
// orientation metadata that lets the subpatch walk the edge in its own
// local parametric direction.
//
// Offset, IndicesDecreaseAlongEdge and SubEdgesCreatedInReverseOrder
// mirror fields present on the original engine's subpatch edge record;
// this implementation's allocator (see split.go) never produces anything
// but their zero values, since every subpatch edge here spans its full
// shared SubEdge in one piece. They are kept on the struct for fidelity
// with the shared-edge data model and so a future non-uniform-split
// extension has somewhere to put per-segment offsets.
type Edge struct {
	SubEdge                       *SubEdge
	Reversed                      bool
	Offset                        int
	IndicesDecreaseAlongEdge      bool
	SubEdgesCreatedInReverseOrder bool
}

// T returns the edge's current factor (0, NonUniform, or a final count).
func (e *Edge) T() int { return e.SubEdge.T }

// GetVertAlongEdge returns the vertex at relative position n (0..T)
// along this subpatch's local direction over the edge, which may be the
// reverse of the SubEdge's own canonical Start->End direction.
func (e *Edge) GetVertAlongEdge(n int) int {
	if e.Reversed {
		n = e.SubEdge.T - n
	}
	return e.SubEdge.GetVertAlongEdge(n)
}

// SubPatch is one leaf of the DiagSplit recursion: a quad region of a
// Patch's parametric domain, bounded by four resolved edges, ready to be
// diced into triangles.
//
// Edges are stored both by name (EdgeU0, EdgeV1, EdgeU1, EdgeV0, going
// counter-clockwise from (0,0)) and are reachable in stitch order via
// edgeByIndex, whose index parity (even => a v-varying edge, odd => a
// u-varying edge) is what the inner-grid vertex-count formulas below key
// off of.
type SubPatch struct {
	Patch Patch

	UV00, UV10, UV11, UV01 geom.Vec2

	EdgeU0, EdgeV1, EdgeU1, EdgeV0 Edge

	// InnerGridVertOffset is the vertex index of grid position (1, 1);
	// interior grid vertices are allocated contiguously from there in
	// row-major (u fastest) order.
	InnerGridVertOffset int

	// Depth is the DiagSplit recursion depth this subpatch was produced
	// at; a patch's root subpatch is at depth 0 and each split adds one.
	Depth int
}

// edgeByIndex returns the subpatch's edges in the order the inner-grid
// formulas below assume: V0, U1, V1, U0.
func (s *SubPatch) edgeByIndex(i int) *Edge {
	switch i {
	case 0:
		return &s.EdgeV0
	case 1:
		return &s.EdgeU1
	case 2:
		return &s.EdgeV1
	default:
		return &s.EdgeU0
	}
}

// Mu is the number of segments (and grid columns) along the patch's u
// axis: the larger of the two u-varying edges' factors, at least 2 so
// the interior grid always has at least one row.
func (s *SubPatch) Mu() int {
	return maxInt3(s.EdgeU0.SubEdge.T, s.EdgeU1.SubEdge.T, 2)
}

// Mv is the analogous segment count along v.
func (s *SubPatch) Mv() int {
	return maxInt3(s.EdgeV0.SubEdge.T, s.EdgeV1.SubEdge.T, 2)
}

func maxInt3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// NumInnerVerts is the count of strictly-interior grid vertices, i.e.
// those not shared with any neighboring subpatch.
func (s *SubPatch) NumInnerVerts() int {
	mu, mv := s.Mu(), s.Mv()
	if mu < 2 || mv < 2 {
		return 0
	}
	return (mu - 1) * (mv - 1)
}

// NumTriangles is the total triangle count once this subpatch is diced:
// two per interior grid cell plus the fan of triangles needed to stitch
// each boundary edge's exterior segments against the interior grid.
func (s *SubPatch) NumTriangles() int {
	mu, mv := s.Mu(), s.Mv()
	tris := 2 * (mu - 2) * (mv - 2)
	for i := 0; i < 4; i++ {
		outerT := s.edgeByIndex(i).SubEdge.T
		innerT := mv - 2
		if i%2 == 1 {
			innerT = mu - 2
		}
		tris += outerT + innerT
	}
	return tris
}

// innerGridVert returns the vertex index of interior grid position
// (i, j), with i in [1, Mu()-1] and j in [1, Mv()-1].
func (s *SubPatch) innerGridVert(i, j int) int {
	mu := s.Mu()
	return s.InnerGridVertOffset + (i-1) + (j-1)*(mu-1)
}

// gridEdgeVert returns the interior grid vertex adjacent to edge index i
// (in the edgeByIndex numbering) at relative position n along that
// edge's own traversal direction, for n in [0, innerT].
func (s *SubPatch) gridEdgeVert(i, n int) int {
	mu, mv := s.Mu(), s.Mv()
	switch i {
	case 0: // EdgeV0: u=0 column, v decreasing from Mv-1 to 1
		return s.InnerGridVertOffset + (mv-2-n)*(mu-1)
	case 1: // EdgeU1: v=Mv-1 row, u decreasing from Mu-1 to 1
		return s.InnerGridVertOffset + (mu-2-n) + (mv-2)*(mu-1)
	case 2: // EdgeV1: u=Mu-1 column, v increasing from 1 to Mv-1
		return s.InnerGridVertOffset + (mu - 2) + n*(mu-1)
	default: // EdgeU0: v=0 row, u increasing from 1 to Mu-1
		return s.InnerGridVertOffset + n
	}
}

// MapUV maps a local (u, v) in [0,1]^2 to the patch's global parametric
// domain via bilinear interpolation of the subpatch's four corners.
func (s *SubPatch) MapUV(u, v float64) (pu, pv float64) {
	top := s.UV00.Lerp(s.UV10, u)
	bottom := s.UV01.Lerp(s.UV11, u)
	p := top.Lerp(bottom, v)
	return p.X, p.Y
}
