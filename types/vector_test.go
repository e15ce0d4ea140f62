package types

import (
	"math"
	"testing"
)

func TestVec3Ops(t *testing.T) {
	a := XYZ(1, 2, 3)
	b := XYZ(4, -5, 6)

	if got := a.Dot(b); got != 12 {
		t.Fatalf("expected dot product to be 12; got %f", got)
	}

	exp := XYZ(27, 6, -13)
	if got := a.Cross(b); got != exp {
		t.Fatalf("expected cross product to be %v; got %v", exp, got)
	}

	if got := b.MaxComponent(); got != 6 {
		t.Fatalf("expected max component 6; got %f", got)
	}

	if got := XYZ(3, 0, 4).Len(); got != 5 {
		t.Fatalf("expected length 5; got %f", got)
	}

	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("expected zero vector normalization to return zero vector; got %v", got)
	}

	if XYZ(float32(math.Inf(1)), 0, 0).IsFinite() {
		t.Fatal("expected vector with inf component not to be finite")
	}
}

func TestMat4Transforms(t *testing.T) {
	m := TRS(XYZ(1, 2, 3), Ident4(), XYZ(2, 2, 2))

	p := m.MulPoint(XYZ(1, 1, 1))
	if exp := XYZ(3, 4, 5); p != exp {
		t.Fatalf("expected transformed point %v; got %v", exp, p)
	}

	d := m.MulDir(XYZ(1, 0, 0))
	if exp := XYZ(2, 0, 0); d != exp {
		t.Fatalf("expected transformed direction %v; got %v", exp, d)
	}

	inv := m.Inv().MulPoint(p)
	if inv.Sub(XYZ(1, 1, 1)).Len() > 1e-5 {
		t.Fatalf("expected inverse transform to restore original point; got %v", inv)
	}

	if !Ident4().IsIdent() {
		t.Fatal("expected identity matrix to be reported as identity")
	}

	// 90 degree yaw rotates +X onto -Z
	r := Rotate4(float32(math.Pi/2), 0, 0).MulDir(XYZ(1, 0, 0))
	if r.Sub(XYZ(0, 0, -1)).Len() > 1e-5 {
		t.Fatalf("expected yaw rotation to map +X to -Z; got %v", r)
	}
}
