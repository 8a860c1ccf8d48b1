package geom

import "testing"

func TestEmptyAABBGrowReplaces(t *testing.T) {
	b := EmptyAABB()
	if !b.IsEmpty() {
		t.Fatal("EmptyAABB() should report IsEmpty")
	}
	b = b.GrowPoint(V3(1, 2, 3))
	if b.IsEmpty() {
		t.Fatal("box should no longer be empty after GrowPoint")
	}
	if b.Min != V3(1, 2, 3) || b.Max != V3(1, 2, 3) {
		t.Errorf("got %+v, want a single-point box", b)
	}
}

func TestGrowUnion(t *testing.T) {
	a := NewAABB(V3(0, 0, 0), V3(1, 1, 1))
	b := NewAABB(V3(-1, -1, -1), V3(0.5, 0.5, 0.5))
	u := a.Grow(b)
	if u.Min != V3(-1, -1, -1) || u.Max != V3(1, 1, 1) {
		t.Errorf("union = %+v", u)
	}
}

func TestGrowWithEmptyIsIdentity(t *testing.T) {
	a := NewAABB(V3(0, 0, 0), V3(1, 1, 1))
	if got := a.Grow(EmptyAABB()); got != a {
		t.Errorf("Grow(empty) = %+v, want %+v", got, a)
	}
	if got := EmptyAABB().Grow(a); got != a {
		t.Errorf("empty.Grow(a) = %+v, want %+v", got, a)
	}
}

func TestSurfaceArea(t *testing.T) {
	b := NewAABB(V3(0, 0, 0), V3(2, 3, 4))
	want := 2 * (2*3 + 3*4 + 4*2)
	if got := b.SurfaceArea(); got != float64(want) {
		t.Errorf("SurfaceArea() = %v, want %v", got, want)
	}
	if EmptyAABB().SurfaceArea() != 0 {
		t.Error("empty box should have zero surface area")
	}
}
