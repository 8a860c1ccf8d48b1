package geom

import "testing"

func TestVec3DotCross(t *testing.T) {
	a := V3(1, 0, 0)
	b := V3(0, 1, 0)
	if got := a.Dot(b); got != 0 {
		t.Errorf("Dot = %v, want 0", got)
	}
	if got := a.Cross(b); got != V3(0, 0, 1) {
		t.Errorf("Cross = %+v, want (0,0,1)", got)
	}
}

func TestVec3EqualExact(t *testing.T) {
	a := V3(1.0, 2.0, 3.0)
	b := V3(1.0, 2.0, 3.0)
	if !a.Equal(b) {
		t.Error("expected exact equality")
	}
	c := V3(1.0, 2.0, 3.0000001)
	if a.Equal(c) {
		t.Error("expected inequality for differing values")
	}
}

func TestVec3MinMax(t *testing.T) {
	a := V3(1, 5, -2)
	b := V3(3, 2, -1)
	if got := a.Min(b); got != V3(1, 2, -2) {
		t.Errorf("Min = %+v", got)
	}
	if got := a.Max(b); got != V3(3, 5, -1) {
		t.Errorf("Max = %+v", got)
	}
}

func TestVec2Clamp(t *testing.T) {
	v := V2(-1, 2)
	got := v.Clamp(V2(0, 0), V2(1, 1))
	if got != V2(0, 1) {
		t.Errorf("Clamp = %+v, want (0,1)", got)
	}
}
