package lighttree

import (
	"context"
	"math"

	"github.com/taigrr/diagsplit/geom"
	"github.com/taigrr/diagsplit/taskpool"
)

// Node is one node of the built tree, stored flat in Tree.Nodes. Leaves
// reference a contiguous run of the primitive list handed to Build;
// interior nodes reference their right child's index (the left child is
// always the very next node, a standard implicit-left-child layout).
type Node struct {
	Bbox   geom.AABB
	Bcone  geom.Cone
	Energy float64

	// BitTrail encodes the left/right turns taken to reach this node
	// from the root, one bit per level: bit d records the turn into
	// depth d, with the root's children at depth 0. A 0 bit means "went
	// left", 1 means "went right". It lets a stackless traversal
	// reconstruct its position without an explicit stack.
	BitTrail uint32

	NumPrims        int // > 0 for a leaf
	FirstPrimIndex  int // valid when NumPrims > 0
	RightChildIndex int // valid when NumPrims == 0
}

// IsLeaf reports whether n is a leaf (references primitives directly)
// rather than an interior node (references a left/right child pair).
func (n *Node) IsLeaf() bool { return n.NumPrims > 0 }

// Tree is a built SAOH light tree: Nodes[0] is always the root, and
// Prims is the (tree-builder-reordered) primitive list leaves reference
// by range.
type Tree struct {
	Nodes           []Node
	Prims           []Primitive
	MaxLightsInLeaf int
}

// maxLightsInLeafDefault is used when Build is asked for a non-positive
// leaf size.
const maxLightsInLeafDefault = 8

// minPrimsForConcurrentSplit is, loosely, the point past which the local
// recursive build and the distant-light leaf construction are worth
// running on separate goroutines; below it the coordination overhead
// would dwarf the work being split.
const minPrimsForConcurrentSplit = 256

// Build constructs a light tree over prims. The trailing numDistant
// entries of prims are treated as distant/background lights: they never
// participate in the spatial SAOH split and instead become a single leaf
// hung off the tree root's right child, mirroring how the original
// engine keeps direction-only lights out of the spatial hierarchy a
// bounding-box split can't meaningfully partition.
func Build(prims []Primitive, numDistant int, maxLightsInLeaf int) *Tree {
	if maxLightsInLeaf <= 0 {
		maxLightsInLeaf = maxLightsInLeafDefault
	}
	t := &Tree{MaxLightsInLeaf: maxLightsInLeaf}
	if len(prims) == 0 {
		return t
	}

	local := prims[:len(prims)-numDistant]
	distant := prims[len(prims)-numDistant:]

	localOrder := make([]*Primitive, len(local))
	for i := range local {
		localOrder[i] = &local[i]
	}

	// With distant lights the local subtree is the root's left child, so
	// its own children sit at depth 1 rather than 0.
	localChildDepth := 0
	if len(distant) > 0 {
		localChildDepth = 1
	}

	var localNodes []Node
	var distantLeaf Node

	buildBoth := func() {
		localNodes = buildSubtree(localOrder, 0, 0, localChildDepth, maxLightsInLeaf)
		distantLeaf = leafNode(distant, len(local), 1)
	}

	if len(local) >= minPrimsForConcurrentSplit && len(distant) > 0 {
		pool := taskpool.New(context.Background())
		pool.Push(func(ctx context.Context) error {
			localNodes = buildSubtree(localOrder, 0, 0, localChildDepth, maxLightsInLeaf)
			return nil
		})
		pool.Push(func(ctx context.Context) error {
			distantLeaf = leafNode(distant, len(local), 1)
			return nil
		})
		_ = pool.Wait() // neither task can fail
	} else {
		buildBoth()
	}

	reordered := make([]Primitive, 0, len(prims))
	for _, p := range localOrder {
		reordered = append(reordered, *p)
	}
	reordered = append(reordered, distant...)
	t.Prims = reordered

	if len(distant) == 0 {
		t.Nodes = localNodes
		return t
	}

	root := Node{
		Bbox:            localNodes[0].Bbox, // distant lights have empty bboxes; root bbox is the local subtree's
		Bcone:           geom.Merge(localNodes[0].Bcone, distantLeaf.Bcone),
		Energy:          localNodes[0].Energy + distantLeaf.Energy,
		NumPrims:        0,
		RightChildIndex: 1 + len(localNodes),
	}

	t.Nodes = make([]Node, 0, 1+len(localNodes)+1)
	t.Nodes = append(t.Nodes, root)
	t.Nodes = append(t.Nodes, shiftRightChildren(localNodes, 1)...)
	t.Nodes = append(t.Nodes, distantLeaf)
	return t
}

// buildSubtree recursively SAOH-splits prims (already a slice of stable
// pointers into the caller's backing array) into a flat node list using
// the standard implicit-left-child layout: Nodes[0] is this subtree's
// root, and for any interior node at index i, its left child is
// Nodes[i+1] and its right child is Nodes[i+1+leftSubtreeSize].
// childDepth is the depth of this subtree root's children, i.e. the
// BitTrail bit its right child sets.
func buildSubtree(prims []*Primitive, firstIndex int, bitTrail uint32, childDepth int, maxLightsInLeaf int) []Node {
	if len(prims) == 0 {
		return []Node{leafNodeIndirect(nil, firstIndex, bitTrail)}
	}
	if len(prims) <= maxLightsInLeaf {
		return []Node{leafNodeIndirect(prims, firstIndex, bitTrail)}
	}

	split, ok := chooseSplit(prims, maxLightsInLeaf)
	if !ok {
		return []Node{leafNodeIndirect(prims, firstIndex, bitTrail)}
	}

	left, right := partition(prims, split)
	if len(left) == 0 || len(right) == 0 {
		return []Node{leafNodeIndirect(prims, firstIndex, bitTrail)}
	}

	leftNodes := buildSubtree(left, firstIndex, bitTrail, childDepth+1, maxLightsInLeaf)
	rightNodes := buildSubtree(right, firstIndex+len(left), bitTrail|(1<<uint(childDepth)), childDepth+1, maxLightsInLeaf)

	agg := aggregate(prims)
	root := Node{
		Bbox:            agg.Bbox,
		Bcone:           agg.Bcone,
		Energy:          agg.Energy,
		BitTrail:        bitTrail,
		RightChildIndex: 1 + len(leftNodes),
	}

	out := make([]Node, 0, 1+len(leftNodes)+len(rightNodes))
	out = append(out, root)
	out = append(out, shiftRightChildren(leftNodes, 1)...)
	out = append(out, shiftRightChildren(rightNodes, 1+len(leftNodes))...)
	return out
}

// shiftRightChildren rebases the RightChildIndex of every interior node in
// nodes by offset, for a subtree placed offset entries into its parent's
// node list.
func shiftRightChildren(nodes []Node, offset int) []Node {
	for i := range nodes {
		if !nodes[i].IsLeaf() {
			nodes[i].RightChildIndex += offset
		}
	}
	return nodes
}

type splitPlan struct {
	dim            int
	bucket         int
	centroidBounds geom.AABB
}

// chooseSplit runs the bucketed SAOH cost scan across all three axes and
// returns the best (axis, bucket boundary) pair found. ok is false when no
// axis yields a split with primitives on both sides, or when the best
// split costs no less than leaving prims as one leaf and prims already
// fit in one leaf (len(prims) <= maxLightsInLeaf). Per-axis costs
// are regularized by maxExtent/extent_d so that the axis with the smallest
// centroid spread isn't unfairly favored just for having smaller absolute
// bucket costs.
func chooseSplit(prims []*Primitive, maxLightsInLeaf int) (splitPlan, bool) {
	centroidBounds := geom.EmptyAABB()
	for _, p := range prims {
		centroidBounds = centroidBounds.GrowPoint(p.Centroid)
	}

	size := centroidBounds.Size()
	maxExtent := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxExtent < 0 {
		maxExtent = 0
	}

	bestCost := math.Inf(1)
	best := splitPlan{dim: -1}

	for dim := 0; dim < 3; dim++ {
		lo, hi := axisRange(centroidBounds, dim)
		extent := hi - lo
		if extent <= 0 {
			continue
		}

		var buckets [NumBuckets]Bucket
		for i := range buckets {
			buckets[i] = EmptyBucket()
		}
		for _, p := range prims {
			buckets[bucketIndex(p.Centroid, dim, lo, extent)] = buckets[bucketIndex(p.Centroid, dim, lo, extent)].Add(p)
		}

		var left, right [NumBuckets]Bucket
		left[0] = buckets[0]
		for i := 1; i < NumBuckets; i++ {
			left[i] = left[i-1].Merge(buckets[i])
		}
		right[NumBuckets-1] = buckets[NumBuckets-1]
		for i := NumBuckets - 2; i >= 0; i-- {
			right[i] = right[i+1].Merge(buckets[i])
		}

		regularization := maxExtent / extent

		for i := 0; i < NumBuckets-1; i++ {
			l, r := left[i], right[i+1]
			if l.Count == 0 || r.Count == 0 {
				continue
			}
			cost := regularization * (l.Cost() + r.Cost())
			if cost < bestCost {
				bestCost = cost
				best = splitPlan{dim: dim, bucket: i, centroidBounds: centroidBounds}
			}
		}
	}

	if best.dim < 0 {
		return splitPlan{}, false
	}

	leaf := aggregate(prims)
	totalCost := leaf.Cost()
	return best, bestCost < totalCost || len(prims) > maxLightsInLeaf
}

func bucketIndex(centroid geom.Vec3, dim int, lo, extent float64) int {
	f := (axisValue(centroid, dim) - lo) / extent
	b := int(f * NumBuckets)
	if b < 0 {
		b = 0
	}
	if b >= NumBuckets {
		b = NumBuckets - 1
	}
	return b
}

func partition(prims []*Primitive, split splitPlan) (left, right []*Primitive) {
	lo, _ := axisRange(split.centroidBounds, split.dim)
	extent := axisExtent(split.centroidBounds, split.dim)
	for _, p := range prims {
		if bucketIndex(p.Centroid, split.dim, lo, extent) <= split.bucket {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	return left, right
}

func axisValue(v geom.Vec3, dim int) float64 {
	switch dim {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func axisRange(b geom.AABB, dim int) (lo, hi float64) {
	return axisValue(b.Min, dim), axisValue(b.Max, dim)
}

func axisExtent(b geom.AABB, dim int) float64 {
	lo, hi := axisRange(b, dim)
	return hi - lo
}

func aggregate(prims []*Primitive) Bucket {
	b := EmptyBucket()
	for _, p := range prims {
		b = b.Add(p)
	}
	return b
}

func leafNodeIndirect(prims []*Primitive, firstIndex int, bitTrail uint32) Node {
	b := EmptyBucket()
	for _, p := range prims {
		b = b.Add(p)
	}
	return Node{
		Bbox: b.Bbox, Bcone: b.Bcone, Energy: b.Energy,
		BitTrail: bitTrail,
		NumPrims: maxInt(1, len(prims)), FirstPrimIndex: firstIndex,
	}
}

func leafNode(prims []Primitive, firstIndex int, bitTrail uint32) Node {
	ptrs := make([]*Primitive, len(prims))
	for i := range prims {
		ptrs[i] = &prims[i]
	}
	return leafNodeIndirect(ptrs, firstIndex, bitTrail)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
