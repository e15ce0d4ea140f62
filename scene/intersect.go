package scene

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/types"
)

// The T value of a hit record describing a miss.
const NoHit float32 = math32.MaxFloat32

// A ray/scene intersection record.
type Hit struct {
	// Ray distance to the hit point or NoHit.
	T float32

	Position types.Vec3

	// The geometric face normal.
	Normal types.Vec3

	// The face normal flipped to face the incoming ray.
	NormalLight types.Vec3

	// The interpolated vertex normal facing the incoming ray. Equals
	// NormalLight when the mesh does not provide normals.
	ShadingNormal types.Vec3

	TexCoords types.Vec2

	// The material response at the hit point.
	Material Response
}

// Returns true if the record describes an actual hit.
func (h *Hit) Valid() bool {
	return h.T < NoHit
}

// The closest triangle found so far while walking the hierarchy.
type candidate struct {
	t    float32
	u, v float32
	ref  ModelReference
	tri  uint32
}

// Returns true if any triangle intersects the ray within [tmin, tmax]. The
// traversal stops at the first hit found.
func (s *Scene) Occluded(ray Ray, tmin, tmax float32) bool {
	if s.BVH == nil || s.BVH.Root < 0 {
		return false
	}
	return s.occluded(s.BVH.Root, ray, tmin, tmax)
}

func (s *Scene) occluded(index int32, ray Ray, tmin, tmax float32) bool {
	node := &s.BVH.Nodes[index]
	if !node.BBox.Intersects(ray, tmin, tmax) {
		return false
	}

	if node.IsLeaf() {
		return s.Pools.testModel(node.Model, ray, tmin, tmax)
	}

	return s.occluded(node.Left, ray, tmin, tmax) || s.occluded(node.Right, ray, tmin, tmax)
}

// Find the nearest intersection within [tmin, tmax]. Both children of every
// node whose box is hit are visited and the closest leaf hit wins. The
// returned record has T == NoHit if nothing was hit.
func (s *Scene) Intersect(ray Ray, tmin, tmax float32) Hit {
	best := candidate{t: NoHit}
	if s.BVH != nil && s.BVH.Root >= 0 {
		s.intersect(s.BVH.Root, ray, tmin, tmax, &best)
	}

	if best.t == NoHit {
		return Hit{T: NoHit}
	}
	return s.Pools.hitRecord(ray, &best)
}

func (s *Scene) intersect(index int32, ray Ray, tmin, tmax float32, best *candidate) {
	node := &s.BVH.Nodes[index]
	if !node.BBox.Intersects(ray, tmin, tmax) {
		return
	}

	if node.IsLeaf() {
		if hit, ok := s.Pools.intersectModel(node.Model, ray, tmin, tmax); ok && hit.t < best.t {
			*best = hit
		}
		return
	}

	s.intersect(node.Left, ray, tmin, tmax, best)
	s.intersect(node.Right, ray, tmin, tmax, best)
}

// Möller-Trumbore ray/triangle test using the precomputed edges. Returns
// the distance and the barycentric weights of the second and third vertex.
// Degenerate triangles are not filtered; the resulting NaN/Inf values fail
// the range checks.
func (p *GeometryPools) intersectTriangle(ref ModelReference, tri uint32, ray Ray, tmin, tmax float32) (t, u, v float32, ok bool) {
	globalTri := ref.IndicesOffset + tri
	p0 := p.Positions[ref.PositionOffset+p.Indices[globalTri][0]]
	e0 := p.Edges[2*globalTri]
	e1 := p.Edges[2*globalTri+1]

	s := ray.Origin.Sub(p0)
	s1 := ray.Dir.Cross(e1)
	s2 := s.Cross(e0)
	f := 1.0 / s1.Dot(e0)

	t = f * s2.Dot(e1)
	u = f * s1.Dot(s)
	v = f * s2.Dot(ray.Dir)
	w := 1 - u - v

	ok = u >= 0 && u <= 1 &&
		v >= 0 && v <= 1 &&
		w >= 0 && w <= 1 &&
		t >= tmin && t <= tmax
	return t, u, v, ok
}

// Returns true if any triangle of the model intersects the ray.
func (p *GeometryPools) testModel(ref ModelReference, ray Ray, tmin, tmax float32) bool {
	for tri := uint32(0); tri < ref.NumIndices; tri++ {
		if _, _, _, ok := p.intersectTriangle(ref, tri, ray, tmin, tmax); ok {
			return true
		}
	}
	return false
}

// Find the closest triangle of the model intersecting the ray.
func (p *GeometryPools) intersectModel(ref ModelReference, ray Ray, tmin, tmax float32) (candidate, bool) {
	best := candidate{t: NoHit, ref: ref}
	found := false
	for tri := uint32(0); tri < ref.NumIndices; tri++ {
		t, u, v, ok := p.intersectTriangle(ref, tri, ray, tmin, tmax)
		if !ok || t >= best.t {
			continue
		}
		best.t, best.u, best.v, best.tri = t, u, v, tri
		found = true
	}
	return best, found
}

// Populate a hit record for the winning triangle.
func (p *GeometryPools) hitRecord(ray Ray, c *candidate) Hit {
	globalTri := c.ref.IndicesOffset + c.tri
	indices := p.Indices[globalTri]
	i0 := c.ref.PositionOffset + indices[0]
	i1 := c.ref.PositionOffset + indices[1]
	i2 := c.ref.PositionOffset + indices[2]
	w := 1 - c.u - c.v

	hit := Hit{
		T:        c.t,
		Position: ray.At(c.t),
		Normal:   p.FaceNormals[globalTri],
	}

	hit.NormalLight = hit.Normal
	if hit.Normal.Dot(ray.Dir) > 0 {
		hit.NormalLight = hit.Normal.Neg()
	}

	hit.ShadingNormal = p.Normals[i0].Mul(w).
		Add(p.Normals[i1].Mul(c.u)).
		Add(p.Normals[i2].Mul(c.v)).
		Normalize()
	if hit.ShadingNormal.Len() == 0 {
		hit.ShadingNormal = hit.NormalLight
	} else if hit.ShadingNormal.Dot(ray.Dir) > 0 {
		hit.ShadingNormal = hit.ShadingNormal.Neg()
	}

	hit.TexCoords = p.TexCoords[i0].Mul(w).
		Add(p.TexCoords[i1].Mul(c.u)).
		Add(p.TexCoords[i2].Mul(c.v))

	hit.Material = p.Materials[c.ref.MaterialIndex].Evaluate(hit.TexCoords)
	return hit
}
