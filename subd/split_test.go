package subd

import (
	"testing"

	"github.com/taigrr/diagsplit/geom"
	"github.com/taigrr/diagsplit/meshsink"
)

// flatPatch is a synthetic bilinear quad patch used to exercise
// SplitPatches without needing a real patch cage.
type flatPatch struct {
	p00, p10, p11, p01 geom.Vec3
	normal              geom.Vec3
	corners              *[4]int
}

func (f *flatPatch) Eval(u, v float64) (pos, dPdu, dPdv, normal geom.Vec3) {
	top := f.p00.Lerp(f.p10, u)
	bottom := f.p01.Lerp(f.p11, u)
	pos = top.Lerp(bottom, v)
	return pos, f.p10.Sub(f.p00), f.p01.Sub(f.p00), f.normal
}

func (f *flatPatch) FromNgon() bool { return false }

func (f *flatPatch) CornerIDs() [4]int {
	if f.corners == nil {
		return [4]int{-1, -2, -3, -4}
	}
	return *f.corners
}

func testParams() Params {
	p := DefaultParams()
	p.DicingRate = 0.5
	p.SplitThreshold = 1e9 // keep edgeFactor from bisecting edges over measurement noise
	return p
}

func TestSplitPatchesSingleQuadProducesInRangeTriangles(t *testing.T) {
	patch := &flatPatch{
		p00: geom.V3(0, 0, 0), p10: geom.V3(4, 0, 0),
		p11: geom.V3(4, 4, 0), p01: geom.V3(0, 4, 0),
		normal: geom.V3(0, 0, 1),
	}
	sink := meshsink.NewMesh("test")
	if err := SplitPatches([]Patch{patch}, testParams(), sink); err != nil {
		t.Fatalf("SplitPatches: %v", err)
	}
	if sink.TriangleCount() == 0 {
		t.Fatal("expected at least one triangle")
	}
	for i, tri := range sink.Triangles {
		for _, v := range tri.V {
			if v < 0 || v >= sink.VertexCount() {
				t.Fatalf("triangle %d references out-of-range vertex %d (have %d verts)", i, v, sink.VertexCount())
			}
		}
	}
}

func TestSplitPatchesSharedBoundaryDedupes(t *testing.T) {
	shared := [2]int{100, 200} // the two cage vertices the patches share

	left := &flatPatch{
		p00: geom.V3(0, 0, 0), p10: geom.V3(2, 0, 0),
		p11: geom.V3(2, 2, 0), p01: geom.V3(0, 2, 0),
		normal:  geom.V3(0, 0, 1),
		corners: &[4]int{1, shared[0], shared[1], 2},
	}
	right := &flatPatch{
		p00: geom.V3(2, 0, 0), p10: geom.V3(4, 0, 0),
		p11: geom.V3(4, 2, 0), p01: geom.V3(2, 2, 0),
		normal:  geom.V3(0, 0, 1),
		corners: &[4]int{shared[0], 3, 4, shared[1]},
	}

	edges := NewEdgeTable()
	b := &builder{params: testParams(), edges: edges, sink: meshsink.NewMesh("test"), cornerVerts: make(map[int]int)}

	if err := b.splitPatch(left); err != nil {
		t.Fatalf("split left: %v", err)
	}
	if err := b.splitPatch(right); err != nil {
		t.Fatalf("split right: %v", err)
	}

	// The two quads share one boundary edge, so the table should hold
	// strictly fewer distinct edges than the same two quads split with no
	// cage vertex in common: the shared edge and the halves its
	// subdivision creates are each allocated once instead of twice.
	apartRight := *right
	apartRight.corners = &[4]int{5, 3, 4, 6}
	apart := &builder{params: testParams(), edges: NewEdgeTable(), sink: meshsink.NewMesh("apart"), cornerVerts: make(map[int]int)}
	if err := apart.splitPatch(left); err != nil {
		t.Fatalf("split left apart: %v", err)
	}
	if err := apart.splitPatch(&apartRight); err != nil {
		t.Fatalf("split right apart: %v", err)
	}
	if edges.Len() >= apart.edges.Len() {
		t.Errorf("edges.Len() = %d, want fewer than %d (boundary should be shared)", edges.Len(), apart.edges.Len())
	}
}

func TestSplitPatchesNonUniformForcesFurtherSplit(t *testing.T) {
	// A large flat patch diced at a fine rate: the root's forced-NonUniform
	// boundary edges make it split along both axes, and the small
	// DicingRate gives every resulting edge a large factor, so the diced
	// mesh must hold many triangles.
	patch := &flatPatch{
		p00: geom.V3(0, 0, 0), p10: geom.V3(8, 0, 0),
		p11: geom.V3(8, 8, 0), p01: geom.V3(0, 8, 0),
		normal: geom.V3(0, 0, 1),
	}
	params := testParams()
	params.DicingRate = 0.25

	sink := meshsink.NewMesh("test")
	if err := SplitPatches([]Patch{patch}, params, sink); err != nil {
		t.Fatalf("SplitPatches: %v", err)
	}
	if sink.TriangleCount() < 32 {
		t.Errorf("expected a finely diced mesh, got only %d triangles", sink.TriangleCount())
	}
}
