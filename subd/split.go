package subd

import (
	"fmt"
	"math"
	"sync"

	"github.com/taigrr/diagsplit/geom"
	"github.com/taigrr/diagsplit/meshsink"
)

// builder holds the state shared across one SplitPatches call: the
// dedup table every patch's boundary edges go through, the params that
// control edge-factor estimation, and the sink everything gets written
// to. SplitPatches drives its builder from a single goroutine: the edge
// table and the corner map lock their own state, but numSubpatches and
// the sink calls are not synchronized, so a builder is not safe to share
// across goroutines.
type builder struct {
	params Params
	edges  *EdgeTable
	sink   meshsink.Sink

	cornerMu    sync.Mutex
	cornerVerts map[int]int

	numSubpatches int
}

// SplitPatches runs DiagSplit followed by EdgeDice over every patch,
// writing the resulting crack-free triangle mesh into sink. Patches that
// share a boundary (detected via repeated Alloc calls on the same
// vertex pair, which callers arrange by handing identical corner
// vertices to adjacent patches) are guaranteed to dice to the same
// tessellation along that boundary.
func SplitPatches(patches []Patch, params Params, sink meshsink.Sink) error {
	sink.ReserveMesh(len(patches)*9, len(patches)*8)

	b := &builder{params: params, edges: NewEdgeTable(), sink: sink, cornerVerts: make(map[int]int)}
	for i, p := range patches {
		if err := b.splitPatch(p); err != nil {
			return fmt.Errorf("subd: split patch %d: %w", i, err)
		}
	}
	return nil
}

// splitPatch bootstraps the root SubPatch covering a whole patch's
// [0,1]x[0,1] domain. Its four corner edges are forced NonUniform
// regardless of what edgeFactor would otherwise compute, guaranteeing
// the root always splits at least once along both axes before ordinary
// per-edge resolution takes over on the newly created interior edges.
func (b *builder) splitPatch(p Patch) error {
	corners := [4]geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	var vertIdx [4]int
	for i, uv := range corners {
		vertIdx[i] = b.resolveCorner(p, i, uv)
	}

	forceNonUniform := func(a, c int, uvA, uvC geom.Vec2) Edge {
		se, reversed := b.edges.Alloc(vertIdx[a], vertIdx[c])
		b.edges.Resolve(se, nil, func() (int, func()) {
			return NonUniform, func() {
				se.MidVertIndex = b.emitVertex(p, uvA.Lerp(uvC, 0.5))
			}
		})
		return Edge{SubEdge: se, Reversed: reversed}
	}

	sp := &SubPatch{
		Patch: p,
		Depth: 0,
		UV00:  corners[0], UV10: corners[1], UV11: corners[2], UV01: corners[3],
		EdgeU0: forceNonUniform(0, 1, corners[0], corners[1]),
		EdgeV1: forceNonUniform(1, 2, corners[1], corners[2]),
		EdgeU1: forceNonUniform(2, 3, corners[2], corners[3]),
		EdgeV0: forceNonUniform(3, 0, corners[3], corners[0]),
	}
	return b.split(sp, 0)
}

// split resolves sp's four edges, decides whether any axis still needs
// subdividing, and either recurses into two children or hands sp off to
// be diced.
func (b *builder) split(sp *SubPatch, depth int) error {
	// Resolved in the same order the opposite-edge rule below depends on:
	// by the time u1 is checked, u0's (possibly just-overwritten) factor
	// is already final, and likewise v0 against v1.
	tU0 := b.resolveEdge(sp, &sp.EdgeU0, &sp.EdgeU1, sp.UV00, sp.UV10, depth)
	tV1 := b.resolveEdge(sp, &sp.EdgeV1, &sp.EdgeV0, sp.UV10, sp.UV11, depth)
	tU1 := b.resolveEdge(sp, &sp.EdgeU1, &sp.EdgeU0, sp.UV11, sp.UV01, depth)
	tV0 := b.resolveEdge(sp, &sp.EdgeV0, &sp.EdgeV1, sp.UV01, sp.UV00, depth)

	splitU := depth < maxDepth && (tU0 == NonUniform || tU1 == NonUniform)
	splitV := depth < maxDepth && (tV0 == NonUniform || tV1 == NonUniform)

	switch {
	case splitU && splitV:
		if depthParity(depth) == 0 {
			return b.splitAlongU(sp, depth)
		}
		return b.splitAlongV(sp, depth)
	case splitU:
		return b.splitAlongU(sp, depth)
	case splitV:
		return b.splitAlongV(sp, depth)
	default:
		if tU0 == NonUniform || tV1 == NonUniform || tU1 == NonUniform || tV0 == NonUniform {
			return fmt.Errorf("%w: subpatch at depth %d still has a NonUniform edge with no further split allowed (max depth %d)", ErrInvariantViolation, depth, maxDepth)
		}
		b.numSubpatches++
		return b.dice(sp)
	}
}

func depthParity(depth int) int {
	return ((depth % 2) + 2) % 2
}

// resolveEdge assigns e's shared SubEdge a final factor (possibly
// NonUniform) the first time any subpatch reaches it, and returns
// whatever factor won - including one assigned moments earlier by a
// sibling subpatch sharing the same edge, or recomputed just now because
// opposite turned out to be fixed at 1 (§4.2.3's "T=1 opposite" rule).
// opposite is e's counterpart across the subpatch - EdgeU1 for EdgeU0,
// EdgeV0 for EdgeV1, and so on.
func (b *builder) resolveEdge(sp *SubPatch, e, opposite *Edge, uvStart, uvEnd geom.Vec2, depth int) int {
	se := e.SubEdge
	return b.edges.Resolve(se, opposite.SubEdge, func() (int, func()) {
		t := b.edgeFactor(sp.Patch, uvStart, uvEnd, depth, true)
		if t == NonUniform {
			return NonUniform, func() {
				se.MidVertIndex = b.emitVertex(sp.Patch, uvStart.Lerp(uvEnd, 0.5))
			}
		}
		final := t
		return t, func() {
			if final <= 1 {
				return
			}
			start := b.sink.AllocVerts(final - 1)
			se.SecondVertIndex = start
			for i := 1; i < final; i++ {
				uv := uvStart.Lerp(uvEnd, float64(i)/float64(final))
				b.setVertex(start+i-1, sp.Patch, uv)
			}
		}
	})
}

// edgeFactor estimates the tessellation factor for the edge running
// from uvStart to uvEnd, following DiagSplit's T: it samples TestSteps-1
// world-space segments along the edge and derives two candidate factors,
// Tmin from their summed length and Tmax from the single longest one
// scaled by the sample count. When the two disagree by more than
// SplitThreshold the edge is curved or distorted enough that a single
// factor can't represent it well: a non-recursive call reports
// NonUniform so the owning subpatch splits instead, while a recursive
// call instead bisects the parametric interval at its midpoint and sums
// the two halves' own recursively-resolved factors, which is how an edge
// that stays a single tessellated run ends up with enough segments to
// track locally-varying curvature without the owning subpatch itself
// needing to split.
func (b *builder) edgeFactor(patch Patch, uvStart, uvEnd geom.Vec2, depth int, recursive bool) int {
	if uvEnd.X < uvStart.X || uvEnd.Y < uvStart.Y {
		uvStart, uvEnd = uvEnd, uvStart
	}

	steps := b.params.TestSteps
	if steps < 2 {
		steps = 2
	}

	prev := b.project(patch, uvStart)
	var lsum, lmax float64
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		cur := b.project(patch, uvStart.Lerp(uvEnd, t))
		l := prev.Distance(cur)
		lsum += l
		if l > lmax {
			lmax = l
		}
		prev = cur
	}

	tmin := int(math.Ceil(lsum / b.params.DicingRate))
	tmax := int(math.Ceil(float64(steps-1) * lmax / b.params.DicingRate))
	res := tmax
	if res < 1 {
		res = 1
	}

	if float64(tmax-tmin) > b.params.SplitThreshold {
		if !recursive {
			res = NonUniform
		} else {
			mid := uvStart.Lerp(uvEnd, 0.5)
			res = b.edgeFactor(patch, uvStart, mid, depth, true) + b.edgeFactor(patch, mid, uvEnd, depth, true)
		}
	}

	res = b.limitEdgeFactor(patch, uvStart, uvEnd, res)

	// Limit edge factor so we don't go beyond max depth.
	if depth >= maxDepth-2 {
		if res == NonUniform || res > maxSegments {
			res = maxSegments
		}
	}

	return res
}

// project evaluates patch at uv and maps the result into the space
// edgeFactor measures distances in: the patch's own object space, or -
// when a camera is attached - world space scaled by the local raster
// pixel density, which approximates measuring the same distance in
// raster pixels as long as that density doesn't vary sharply across one
// edge.
func (b *builder) project(patch Patch, uv geom.Vec2) geom.Vec3 {
	pos, _, _, _ := patch.Eval(uv.X, uv.Y)
	if b.params.Camera == nil {
		return pos
	}
	world := b.params.ObjectToWorld.MulVec3(pos)
	return world.Scale(b.params.Camera.WorldToRasterSize(world))
}

// limitEdgeFactor caps t so the edge never grows finer than MaxLevel
// doublings of its own parametric length, halved again for an edge
// descended from an n-gon's initial corner split since that split
// already covers half the parametric distance a quad corner would.
func (b *builder) limitEdgeFactor(patch Patch, uvStart, uvEnd geom.Vec2, t int) int {
	maxT := 1 << uint(b.params.MaxLevel)
	maxTForEdge := int(float64(maxT) * uvStart.Sub(uvEnd).Len())
	if patch.FromNgon() {
		maxTForEdge /= 2
	}
	if maxTForEdge <= 1 {
		return 1
	}
	if t > maxTForEdge {
		return maxTForEdge
	}
	return t
}

// worldPos evaluates patch at uv and maps the result into true world
// space, with no camera raster scaling - the space EdgeDice's stitch
// pass compares diagonal lengths in, as opposed to project's raster-
// density-scaled space used for edge-factor estimation.
func (b *builder) worldPos(patch Patch, uv geom.Vec2) geom.Vec3 {
	pos, _, _, _ := patch.Eval(uv.X, uv.Y)
	return b.params.ObjectToWorld.MulVec3(pos)
}

// midpointVert returns the vertex id at the parametric midpoint of an
// edge that is about to be bisected. A NonUniform edge already has one
// (allocated during resolveEdge); an edge a neighbor has already fixed
// to a final factor can only be bisected if that factor is even, since
// otherwise no existing vertex sits exactly at its midpoint.
func (b *builder) midpointVert(e *Edge) (int, error) {
	se := e.SubEdge
	if se.T == NonUniform {
		return se.MidVertIndex, nil
	}
	if se.T%2 != 0 {
		return 0, fmt.Errorf("%w: cannot bisect edge already fixed at odd factor %d", ErrInvariantViolation, se.T)
	}
	return e.GetVertAlongEdge(se.T / 2), nil
}

// resolveCorner returns the output vertex for corner cornerIdx of p, as
// defined by the CornerSource ordering ((0,0), (1,0), (1,1), (0,1)).
// Patches sharing a CornerIDs() entry get the same output vertex, the
// mechanism that lets their common boundary edge be recognized by the
// shared edge table at all.
func (b *builder) resolveCorner(p Patch, cornerIdx int, uv geom.Vec2) int {
	cs, ok := p.(CornerSource)
	if !ok {
		return b.emitVertex(p, uv)
	}

	key := cs.CornerIDs()[cornerIdx]

	b.cornerMu.Lock()
	defer b.cornerMu.Unlock()
	if id, ok := b.cornerVerts[key]; ok {
		return id
	}
	id := b.emitVertex(p, uv)
	b.cornerVerts[key] = id
	return id
}

func (b *builder) emitVertex(patch Patch, uv geom.Vec2) int {
	idx := b.sink.AllocVerts(1)
	b.setVertex(idx, patch, uv)
	return idx
}

func (b *builder) setVertex(idx int, patch Patch, uv geom.Vec2) {
	pos, _, _, normal := patch.Eval(uv.X, uv.Y)
	world := b.params.ObjectToWorld.MulVec3(pos)
	worldNormal := b.params.ObjectToWorld.MulVec3Dir(normal).Normalize()
	b.sink.SetVertex(idx, world, worldNormal)

	if !b.params.Ptex {
		return
	}
	pp, ok := patch.(PtexPatch)
	if !ok {
		return
	}
	if ps, ok := b.sink.(meshsink.PtexSink); ok {
		ps.SetPtexCoord(idx, pp.PtexFaceID(), geom.V2(uv.X, uv.Y))
	}
}

// splitAlongU bisects sp at u = 0.5, producing a low-u and a high-u
// child that share a freshly allocated interior edge.
func (b *builder) splitAlongU(sp *SubPatch, depth int) error {
	corner00 := sp.EdgeU0.GetVertAlongEdge(0)
	corner10 := sp.EdgeU0.GetVertAlongEdge(sp.EdgeU0.SubEdge.T)
	corner11 := sp.EdgeU1.GetVertAlongEdge(0)
	corner01 := sp.EdgeU1.GetVertAlongEdge(sp.EdgeU1.SubEdge.T)

	midTop, err := b.midpointVert(&sp.EdgeU0)
	if err != nil {
		return err
	}
	midBottom, err := b.midpointVert(&sp.EdgeU1)
	if err != nil {
		return err
	}

	midTopUV := sp.UV00.Lerp(sp.UV10, 0.5)
	midBottomUV := sp.UV11.Lerp(sp.UV01, 0.5)

	leftU0, leftU0Rev := b.edges.Alloc(corner00, midTop)
	rightU0, rightU0Rev := b.edges.Alloc(midTop, corner10)
	rightU1, rightU1Rev := b.edges.Alloc(corner11, midBottom)
	leftU1, leftU1Rev := b.edges.Alloc(midBottom, corner01)
	cut, _ := b.edges.Alloc(midTop, midBottom)

	left := &SubPatch{
		Patch: sp.Patch, Depth: depth + 1,
		UV00: sp.UV00, UV10: midTopUV, UV11: midBottomUV, UV01: sp.UV01,
		EdgeU0: Edge{SubEdge: leftU0, Reversed: leftU0Rev},
		EdgeV1: Edge{SubEdge: cut},
		EdgeU1: Edge{SubEdge: leftU1, Reversed: leftU1Rev},
		EdgeV0: sp.EdgeV0,
	}
	right := &SubPatch{
		Patch: sp.Patch, Depth: depth + 1,
		UV00: midTopUV, UV10: sp.UV10, UV11: sp.UV11, UV01: midBottomUV,
		EdgeU0: Edge{SubEdge: rightU0, Reversed: rightU0Rev},
		EdgeV1: sp.EdgeV1,
		EdgeU1: Edge{SubEdge: rightU1, Reversed: rightU1Rev},
		EdgeV0: Edge{SubEdge: cut, Reversed: true},
	}

	if err := b.split(left, depth+1); err != nil {
		return err
	}
	return b.split(right, depth+1)
}

// splitAlongV bisects sp at v = 0.5, mirroring splitAlongU across u/v.
func (b *builder) splitAlongV(sp *SubPatch, depth int) error {
	corner00 := sp.EdgeV0.GetVertAlongEdge(sp.EdgeV0.SubEdge.T)
	corner01 := sp.EdgeV0.GetVertAlongEdge(0)
	corner10 := sp.EdgeV1.GetVertAlongEdge(0)
	corner11 := sp.EdgeV1.GetVertAlongEdge(sp.EdgeV1.SubEdge.T)

	midLeft, err := b.midpointVert(&sp.EdgeV0)
	if err != nil {
		return err
	}
	midRight, err := b.midpointVert(&sp.EdgeV1)
	if err != nil {
		return err
	}

	midLeftUV := sp.UV01.Lerp(sp.UV00, 0.5)
	midRightUV := sp.UV10.Lerp(sp.UV11, 0.5)

	bottomV0, bottomV0Rev := b.edges.Alloc(midLeft, corner00)
	topV0, topV0Rev := b.edges.Alloc(corner01, midLeft)
	bottomV1, bottomV1Rev := b.edges.Alloc(corner10, midRight)
	topV1, topV1Rev := b.edges.Alloc(midRight, corner11)
	cut, _ := b.edges.Alloc(midRight, midLeft)

	bottom := &SubPatch{
		Patch: sp.Patch, Depth: depth + 1,
		UV00: sp.UV00, UV10: sp.UV10, UV11: midRightUV, UV01: midLeftUV,
		EdgeU0: sp.EdgeU0,
		EdgeV1: Edge{SubEdge: bottomV1, Reversed: bottomV1Rev},
		EdgeU1: Edge{SubEdge: cut},
		EdgeV0: Edge{SubEdge: bottomV0, Reversed: bottomV0Rev},
	}
	top := &SubPatch{
		Patch: sp.Patch, Depth: depth + 1,
		UV00: midLeftUV, UV10: midRightUV, UV11: sp.UV11, UV01: sp.UV01,
		EdgeU0: Edge{SubEdge: cut, Reversed: true},
		EdgeV1: Edge{SubEdge: topV1, Reversed: topV1Rev},
		EdgeU1: sp.EdgeU1,
		EdgeV0: Edge{SubEdge: topV0, Reversed: topV0Rev},
	}

	if err := b.split(bottom, depth+1); err != nil {
		return err
	}
	return b.split(top, depth+1)
}
