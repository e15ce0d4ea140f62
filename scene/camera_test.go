package scene

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/types"
)

func TestCameraBasis(t *testing.T) {
	specs := []struct {
		pos, target types.Vec3
	}{
		{types.XYZ(0, 0, 5), types.XYZ(0, 0, 0)},
		{types.XYZ(0, 5, 0), types.XYZ(0, 0, 0)},
		{types.XYZ(3, 2, 1), types.XYZ(-1, 0, 4)},
	}

	for index, s := range specs {
		c := NewCamera(s.pos, s.target)
		for _, axis := range []types.Vec3{c.dir, c.cx, c.cy} {
			if math32.Abs(axis.Len()-1) > 1e-5 {
				t.Fatalf("[spec %d] expected unit length basis vector; got %v", index, axis)
			}
		}
		if math32.Abs(c.dir.Dot(c.cx)) > 1e-5 || math32.Abs(c.dir.Dot(c.cy)) > 1e-5 || math32.Abs(c.cx.Dot(c.cy)) > 1e-5 {
			t.Fatalf("[spec %d] expected orthogonal basis; got %v %v %v", index, c.dir, c.cx, c.cy)
		}
	}
}

func TestPrimaryRayOrientation(t *testing.T) {
	c := NewCamera(types.XYZ(0, 0, 5), types.XYZ(0, 0, 0))
	c.Aperture = 0
	rnd := types.XYZ(0.5, 0.5, 0.5)

	topLeft := c.PrimaryRay(0, 0, 0, 64, 48, rnd)
	bottomRight := c.PrimaryRay(63, 47, 0, 64, 48, rnd)

	for _, ray := range []Ray{topLeft, bottomRight} {
		if math32.Abs(ray.Dir.Len()-1) > 1e-5 {
			t.Fatalf("expected normalized ray direction; got %v", ray.Dir)
		}
		if ray.Dir.Dot(c.Dir()) < 0.7 {
			t.Fatalf("expected ray %v to point along the view direction", ray.Dir)
		}
	}

	if topLeft.Dir[0] >= 0 || topLeft.Dir[1] <= 0 {
		t.Fatalf("expected top-left ray to point left and up; got %v", topLeft.Dir)
	}
	if bottomRight.Dir[0] <= 0 || bottomRight.Dir[1] >= 0 {
		t.Fatalf("expected bottom-right ray to point right and down; got %v", bottomRight.Dir)
	}
}

func TestPrimaryRayFocus(t *testing.T) {
	c := NewCamera(types.XYZ(0, 0, 5), types.XYZ(0, 0, 0))

	// Aperture and pinhole rays through the same sensor point meet on the
	// focal plane.
	rnd := types.XYZ(0.3, 0.8, 0)
	lensRay := c.PrimaryRay(10, 20, 3, 64, 48, rnd)

	c.Aperture = 0
	pinholeRay := c.PrimaryRay(10, 20, 3, 64, 48, rnd)

	imageDist := (c.FocusDistance * c.FocalLength) / (c.FocusDistance - c.FocalLength)
	planeZ := c.Position[2] - (c.FocusDistance + imageDist)

	pointOnPlane := func(r Ray) types.Vec3 {
		return r.At((planeZ - r.Origin[2]) / r.Dir[2])
	}

	a, b := pointOnPlane(lensRay), pointOnPlane(pinholeRay)
	if a.Sub(b).Len() > 1e-3 {
		t.Fatalf("expected rays to converge on the focal plane; got %v and %v", a, b)
	}
	if lensRay.Origin == pinholeRay.Origin {
		t.Fatal("expected aperture ray to originate from a different lens point")
	}
}
