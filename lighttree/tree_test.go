package lighttree

import (
	"math"
	"testing"

	"github.com/taigrr/diagsplit/geom"
)

func triAt(id int, center geom.Vec3) Primitive {
	half := geom.V3(0.1, 0, 0)
	return NewTrianglePrimitive(id, id,
		center.Sub(half), center.Add(half), center.Add(geom.V3(0, 0.1, 0)),
		geom.V3(1, 1, 1), false, false)
}

func TestBuildLeafThreshold(t *testing.T) {
	prims := make([]Primitive, 4)
	for i := range prims {
		prims[i] = triAt(i, geom.V3(float64(i), 0, 0))
	}
	tree := Build(prims, 0, 8)
	if len(tree.Nodes) != 1 {
		t.Fatalf("expected a single leaf node for prims <= maxLightsInLeaf, got %d nodes", len(tree.Nodes))
	}
	if !tree.Nodes[0].IsLeaf() {
		t.Error("sole node should be a leaf")
	}
	if tree.Nodes[0].NumPrims != 4 {
		t.Errorf("NumPrims = %d, want 4", tree.Nodes[0].NumPrims)
	}
}

func TestBuildSplitsWhenOverLeafThreshold(t *testing.T) {
	prims := make([]Primitive, 64)
	for i := range prims {
		x := float64(i % 8)
		y := float64(i / 8)
		prims[i] = triAt(i, geom.V3(x*10, y*10, 0))
	}
	tree := Build(prims, 0, 4)
	if tree.Nodes[0].IsLeaf() {
		t.Fatal("root should be an interior node when prims exceed leaf threshold")
	}
	// Every primitive must be reachable from exactly one leaf.
	covered := make(map[int]bool)
	var walk func(idx int)
	walk = func(idx int) {
		n := tree.Nodes[idx]
		if n.IsLeaf() {
			for i := 0; i < n.NumPrims; i++ {
				covered[tree.Prims[n.FirstPrimIndex+i].PrimID] = true
			}
			return
		}
		walk(idx + 1)
		walk(n.RightChildIndex)
	}
	walk(0)
	if len(covered) != len(prims) {
		t.Errorf("covered %d distinct prims, want %d", len(covered), len(prims))
	}
}

func TestBuildBitTrailDeterministicTraversal(t *testing.T) {
	prims := make([]Primitive, 32)
	for i := range prims {
		prims[i] = triAt(i, geom.V3(float64(i), 0, 0))
	}
	tree := Build(prims, 0, 2)

	var walk func(idx int, expectTrail uint32, depth uint)
	walk = func(idx int, expectTrail uint32, depth uint) {
		n := tree.Nodes[idx]
		if n.BitTrail != expectTrail {
			t.Errorf("node %d: BitTrail = %b, want %b", idx, n.BitTrail, expectTrail)
		}
		if n.IsLeaf() {
			return
		}
		walk(idx+1, expectTrail, depth+1)
		walk(n.RightChildIndex, expectTrail|(1<<depth), depth+1)
	}
	walk(0, 0, 0)
}

func TestBuildDistantLightsIsolatedToSingleLeaf(t *testing.T) {
	local := make([]Primitive, 16)
	for i := range local {
		local[i] = triAt(i, geom.V3(float64(i), 0, 0))
	}
	distant := []Primitive{
		NewLampPrimitive(100, 100, LampParams{Type: LampDistant, Direction: geom.V3(0, 0, 1), Strength: 5}),
		NewLampPrimitive(101, 101, LampParams{Type: LampDistant, Direction: geom.V3(0, 1, 0), Strength: 3}),
	}
	prims := append(append([]Primitive{}, local...), distant...)

	tree := Build(prims, len(distant), 4)
	root := tree.Nodes[0]
	if root.IsLeaf() {
		t.Fatal("root must be interior when distant lights are present")
	}
	rightLeaf := tree.Nodes[root.RightChildIndex]
	if !rightLeaf.IsLeaf() {
		t.Fatal("distant lights must collapse to a single leaf")
	}
	if rightLeaf.NumPrims != len(distant) {
		t.Errorf("distant leaf NumPrims = %d, want %d", rightLeaf.NumPrims, len(distant))
	}
	for i := 0; i < rightLeaf.NumPrims; i++ {
		p := tree.Prims[rightLeaf.FirstPrimIndex+i]
		if p.LampType != LampDistant {
			t.Errorf("prim %d in distant leaf has LampType %v", p.PrimID, p.LampType)
		}
	}
}

func TestChooseSplitFindsSplitForSpreadPrimitives(t *testing.T) {
	prims := make([]*Primitive, 32)
	for i := range prims {
		p := triAt(i, geom.V3(float64(i%4)*3, float64(i/4), 0))
		prims[i] = &p
	}
	_, ok := chooseSplit(prims, len(prims))
	if !ok {
		t.Fatal("expected a valid split for a spread-out set of primitives")
	}
}

func TestBucketCostMonotonicWithEnergy(t *testing.T) {
	b := EmptyBucket()
	p1 := triAt(0, geom.V3(0, 0, 0))
	b1 := b.Add(&p1)
	p2 := triAt(1, geom.V3(1, 0, 0))
	b2 := b1.Add(&p2)
	if !(b2.Cost() >= b1.Cost()) || math.IsNaN(b2.Cost()) {
		t.Errorf("Cost should not decrease as bucket absorbs more energy: b1=%v b2=%v", b1.Cost(), b2.Cost())
	}
}
