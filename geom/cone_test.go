package geom

import (
	"math"
	"testing"
)

func TestMergeEmptyIdentity(t *testing.T) {
	c := NewCone(V3(0, 0, 1), 0.3, 0.2)
	got := Merge(c, EmptyCone())
	if got != c {
		t.Errorf("Merge(cone, empty) = %+v, want %+v", got, c)
	}
	got = Merge(EmptyCone(), c)
	if got != c {
		t.Errorf("Merge(empty, cone) = %+v, want %+v", got, c)
	}
}

func TestMergeEmptyMeasuresZero(t *testing.T) {
	if m := EmptyCone().Measure(); m != 0 {
		t.Errorf("EmptyCone().Measure() = %v, want 0", m)
	}
}

func TestMergeCommutativeUpToAxisRotation(t *testing.T) {
	a := NewCone(V3(1, 0, 0), 0.4, 0.1)
	b := NewCone(V3(0, 1, 0), 0.2, 0.3)

	ab := Merge(a, b)
	ba := Merge(b, a)

	if math.Abs(ab.ThetaO-ba.ThetaO) > 1e-9 {
		t.Errorf("ThetaO differs: %v vs %v", ab.ThetaO, ba.ThetaO)
	}
	if math.Abs(ab.ThetaE-ba.ThetaE) > 1e-9 {
		t.Errorf("ThetaE differs: %v vs %v", ab.ThetaE, ba.ThetaE)
	}
}

func TestMergeContainment(t *testing.T) {
	// A wide cone should absorb a narrow one pointed in nearly the same
	// direction without growing ThetaO.
	wide := NewCone(V3(0, 0, 1), math.Pi/2, 0.1)
	narrow := NewCone(V3(0, 0, 1), 0.01, 0.05)

	m := Merge(wide, narrow)
	if m.ThetaO < wide.ThetaO-1e-9 {
		t.Errorf("merged ThetaO %v shrank below wide ThetaO %v", m.ThetaO, wide.ThetaO)
	}
	if m.ThetaE != math.Max(wide.ThetaE, narrow.ThetaE) {
		t.Errorf("merged ThetaE = %v, want max(%v, %v)", m.ThetaE, wide.ThetaE, narrow.ThetaE)
	}
}

func TestMeasureMonotonicInThetaO(t *testing.T) {
	small := NewCone(V3(0, 0, 1), 0.1, 0.1).Measure()
	big := NewCone(V3(0, 0, 1), 1.0, 0.1).Measure()
	if big <= small {
		t.Errorf("measure should grow with ThetaO: small=%v big=%v", small, big)
	}
}
