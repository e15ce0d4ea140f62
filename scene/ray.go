package scene

import "github.com/achilleasa/solaris/types"

// A ray with an origin and a (not necessarily normalized) direction. Queries
// always pair a ray with an explicit [tmin, tmax] window.
type Ray struct {
	Origin types.Vec3
	Dir    types.Vec3
}

// Create a new ray.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{Origin: origin, Dir: dir}
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
