package subd

import "testing"

func TestEdgeTableSharesPointer(t *testing.T) {
	tbl := NewEdgeTable()
	a, aRev := tbl.Alloc(10, 20)
	b, bRev := tbl.Alloc(20, 10)

	if a != b {
		t.Fatal("expected the same SubEdge pointer regardless of vertex order")
	}
	if aRev {
		t.Error("first allocator should see reversed=false")
	}
	if !bRev {
		t.Error("second allocator, with swapped order, should see reversed=true")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestEdgeTableDistinctPairs(t *testing.T) {
	tbl := NewEdgeTable()
	tbl.Alloc(1, 2)
	tbl.Alloc(2, 3)
	tbl.Alloc(1, 3)
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tbl.Len())
	}
}

func TestResolveOnlyRunsOnce(t *testing.T) {
	tbl := NewEdgeTable()
	se, _ := tbl.Alloc(1, 2)

	calls := 0
	compute := func() (int, func()) {
		calls++
		return 4, nil
	}

	if got := tbl.Resolve(se, nil, compute); got != 4 {
		t.Errorf("first Resolve = %d, want 4", got)
	}
	if got := tbl.Resolve(se, nil, compute); got != 4 {
		t.Errorf("second Resolve = %d, want 4 (cached)", got)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestResolveReentersNonUniformWhenOppositeIsOne(t *testing.T) {
	tbl := NewEdgeTable()
	se, _ := tbl.Alloc(1, 2)
	opposite, _ := tbl.Alloc(3, 4)

	calls := 0
	nonUniform := func() (int, func()) {
		calls++
		return NonUniform, nil
	}
	if got := tbl.Resolve(se, opposite, nonUniform); got != NonUniform {
		t.Fatalf("first Resolve = %d, want NonUniform", got)
	}

	// Opposite still open: a second attempt must not recompute.
	if got := tbl.Resolve(se, opposite, nonUniform); got != NonUniform {
		t.Errorf("Resolve with open opposite = %d, want NonUniform", got)
	}
	if calls != 1 {
		t.Errorf("compute called %d times before opposite fixed, want 1", calls)
	}

	opposite.T = 1
	concrete := func() (int, func()) {
		calls++
		return 3, nil
	}
	if got := tbl.Resolve(se, opposite, concrete); got != 3 {
		t.Errorf("Resolve once opposite fixed at 1 = %d, want 3", got)
	}
	if calls != 2 {
		t.Errorf("compute called %d times, want 2 (one re-resolve)", calls)
	}

	// Once concrete, further calls must not recompute again.
	if got := tbl.Resolve(se, opposite, concrete); got != 3 {
		t.Errorf("Resolve after concrete = %d, want 3 (cached)", got)
	}
	if calls != 2 {
		t.Errorf("compute called %d times after caching, want 2", calls)
	}
}
