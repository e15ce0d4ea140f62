package scene

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/types"
)

// An axis-aligned bounding box. The zero value is not a valid box; use
// EmptyAABB to obtain the empty sentinel which must be grown via Adjust or
// Combine before being tested against rays.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create the empty box sentinel (min = +Inf, max = -Inf).
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: types.Splat3(inf),
		Max: types.Splat3(-inf),
	}
}

// Create a box spanning two corners.
func NewAABB(min, max types.Vec3) AABB {
	return AABB{Min: types.MinVec3(min, max), Max: types.MaxVec3(min, max)}
}

// Grow the box so it contains p.
func (b *AABB) Adjust(p types.Vec3) {
	b.Min = types.MinVec3(b.Min, p)
	b.Max = types.MaxVec3(b.Max, p)
}

// Combine two boxes into a box containing both.
func Combine(a, b AABB) AABB {
	return AABB{
		Min: types.MinVec3(a.Min, b.Min),
		Max: types.MaxVec3(a.Max, b.Max),
	}
}

// Returns true if this is still the empty sentinel.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Box surface area. Only used as a merge cost proxy by the BVH builder.
func (b AABB) SurfaceArea() float32 {
	d := b.Max.Sub(b.Min)
	return 2.0 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// Get box center.
func (b AABB) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Returns true if p lies inside or on the box.
func (b AABB) Contains(p types.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Returns true if other lies fully inside b.
func (b AABB) ContainsBox(other AABB) bool {
	return b.Contains(other.Min) && b.Contains(other.Max)
}

// Transform the 8 box corners and return a box enclosing them.
func (b AABB) Transform(m types.Mat4) AABB {
	out := EmptyAABB()
	for corner := 0; corner < 8; corner++ {
		p := b.Min
		if corner&1 != 0 {
			p[0] = b.Max[0]
		}
		if corner&2 != 0 {
			p[1] = b.Max[1]
		}
		if corner&4 != 0 {
			p[2] = b.Max[2]
		}
		out.Adjust(m.MulPoint(p))
	}
	return out
}

// Slab test against a ray over [tmin, tmax]. Per-axis near/far distances are
// ordered with min/max so negative direction components need no branches.
func (b AABB) Intersects(ray Ray, tmin, tmax float32) bool {
	invD := ray.Dir.Recip()
	t0s := b.Min.Sub(ray.Origin).MulVec(invD)
	t1s := b.Max.Sub(ray.Origin).MulVec(invD)

	tsmaller := types.MinVec3(t0s, t1s)
	tbigger := types.MaxVec3(t0s, t1s)

	tmin = math32.Max(tmin, tsmaller.MaxComponent())
	tmax = math32.Min(tmax, tbigger.MinComponent())

	return tmin < tmax
}
