package scene

import (
	"testing"

	"github.com/achilleasa/solaris/types"
)

func TestAABBAdjustAndCombine(t *testing.T) {
	a := EmptyAABB()
	if !a.IsEmpty() {
		t.Fatal("expected new box to be empty")
	}

	a.Adjust(types.XYZ(1, 2, 3))
	a.Adjust(types.XYZ(-1, 0, 5))
	if a.Min != types.XYZ(-1, 0, 3) || a.Max != types.XYZ(1, 2, 5) {
		t.Fatalf("expected box [(-1, 0, 3), (1, 2, 5)]; got [%v, %v]", a.Min, a.Max)
	}

	b := NewAABB(types.XYZ(4, 4, 4), types.XYZ(3, 3, 3))
	ab := Combine(a, b)
	ba := Combine(b, a)
	if ab != ba {
		t.Fatalf("expected combine to be commutative; got %v and %v", ab, ba)
	}
	if !ab.ContainsBox(a) || !ab.ContainsBox(b) {
		t.Fatalf("expected combined box %v to contain both inputs", ab)
	}

	if got := Combine(EmptyAABB(), b); got != b {
		t.Fatalf("expected combining with the empty box to be a no-op; got %v", got)
	}

	var expArea float32 = 2 * (2*2 + 2*2 + 2*2)
	if got := NewAABB(types.XYZ(0, 0, 0), types.XYZ(2, 2, 2)).SurfaceArea(); got != expArea {
		t.Fatalf("expected surface area %f; got %f", expArea, got)
	}
}

func TestAABBTransform(t *testing.T) {
	box := NewAABB(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))
	out := box.Transform(types.TRS(types.XYZ(10, 0, 0), types.Ident4(), types.XYZ(2, 1, 1)))

	expMin := types.XYZ(8, -1, -1)
	expMax := types.XYZ(12, 1, 1)
	if out.Min != expMin || out.Max != expMax {
		t.Fatalf("expected transformed box [%v, %v]; got [%v, %v]", expMin, expMax, out.Min, out.Max)
	}
}

func TestAABBIntersects(t *testing.T) {
	box := NewAABB(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))

	type spec struct {
		descr      string
		ray        Ray
		tmin, tmax float32
		exp        bool
	}

	specs := []spec{
		{"hit along +z", NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1)), 0, 100, true},
		{"hit along -z", NewRay(types.XYZ(0, 0, 5), types.XYZ(0, 0, -1)), 0, 100, true},
		{"diagonal hit", NewRay(types.XYZ(-5, -5, -5), types.XYZ(1, 1, 1)), 0, 100, true},
		{"box behind origin", NewRay(types.XYZ(0, 0, 5), types.XYZ(0, 0, 1)), 0, 100, false},
		{"parallel miss", NewRay(types.XYZ(0, 3, -5), types.XYZ(0, 0, 1)), 0, 100, false},
		{"window ends before box", NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1)), 0, 3, false},
		{"window starts after box", NewRay(types.XYZ(0, 0, -5), types.XYZ(0, 0, 1)), 7, 100, false},
		{"origin inside box", NewRay(types.XYZ(0.5, 0.5, 0.5), types.XYZ(0.3, -0.2, 1)), 0, 100, true},
	}

	for index, s := range specs {
		if got := box.Intersects(s.ray, s.tmin, s.tmax); got != s.exp {
			t.Errorf("[spec %d: %s] expected Intersects to return %t; got %t", index, s.descr, s.exp, got)
		}
	}
}
