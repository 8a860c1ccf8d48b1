package lighttree

import "github.com/taigrr/diagsplit/geom"

// NumBuckets is the number of centroid buckets the SAOH split search
// scans per axis.
const NumBuckets = 12

// Bucket accumulates the aggregate bbox, orientation cone, energy and
// count of whatever primitives fall into it during the bucketed SAOH
// cost scan.
type Bucket struct {
	Energy float64
	Bbox   geom.AABB
	Bcone  geom.Cone
	Count  int
}

// EmptyBucket returns a bucket holding no primitives, with empty-sentinel
// bounds and cone rather than Go zero values, safe to Add into or Merge
// with.
func EmptyBucket() Bucket {
	return Bucket{Bbox: geom.EmptyAABB(), Bcone: geom.EmptyCone()}
}

// Add folds one primitive into the bucket.
func (b Bucket) Add(p *Primitive) Bucket {
	return Bucket{
		Energy: b.Energy + p.Energy,
		Bbox:   b.Bbox.Grow(p.Bbox),
		Bcone:  geom.Merge(b.Bcone, p.Bcone),
		Count:  b.Count + 1,
	}
}

// Merge combines two buckets, used to build the running left-to-right
// and right-to-left prefix sums the cost scan compares at each split
// point.
func (b Bucket) Merge(o Bucket) Bucket {
	return Bucket{
		Energy: b.Energy + o.Energy,
		Bbox:   b.Bbox.Grow(o.Bbox),
		Bcone:  geom.Merge(b.Bcone, o.Bcone),
		Count:  b.Count + o.Count,
	}
}

// Cost is the SAOH term this bucket (or prefix sum of buckets)
// contributes to a split's total cost: the product of its energy, its
// bounding box's surface area, and its orientation cone's measure.
// Larger surface area or a wider emission cone both mean the primitives
// inside are harder to importance-sample well as one cluster.
func (b Bucket) Cost() float64 {
	if b.Count == 0 {
		return 0
	}
	return b.Energy * b.Bbox.SurfaceArea() * b.Bcone.Measure()
}
