package scene

import "github.com/achilleasa/solaris/types"

// A pre-triangulated mesh. TexCoords and Normals are optional but when
// present they must have one entry per position.
type Mesh struct {
	Name      string
	Positions []types.Vec3
	Indices   [][3]uint32
	TexCoords []types.Vec2
	Normals   []types.Vec3

	// The mesh material. A nil material selects DefaultMaterial.
	Material *Material
}

// Get the mesh bounding box.
func (m *Mesh) BBox() AABB {
	bbox := EmptyAABB()
	for _, p := range m.Positions {
		bbox.Adjust(p)
	}
	return bbox
}

// Return a copy of the mesh with positions and normals transformed into
// world space.
func (m *Mesh) Transformed(transform types.Mat4) *Mesh {
	out := &Mesh{
		Name:      m.Name,
		Positions: make([]types.Vec3, len(m.Positions)),
		Indices:   append([][3]uint32(nil), m.Indices...),
		TexCoords: append([]types.Vec2(nil), m.TexCoords...),
		Material:  m.Material,
	}

	for i, p := range m.Positions {
		out.Positions[i] = transform.MulPoint(p)
	}

	if len(m.Normals) != 0 {
		normalMat := transform.NormalMat()
		out.Normals = make([]types.Vec3, len(m.Normals))
		for i, n := range m.Normals {
			out.Normals[i] = normalMat.MulDir(n).Normalize()
		}
	}

	return out
}

// Create an axis-aligned box mesh spanning min and max with outward facing
// triangles.
func NewBoxMesh(name string, min, max types.Vec3, material *Material) *Mesh {
	corners := make([]types.Vec3, 8)
	for i := range corners {
		p := min
		if i&1 != 0 {
			p[0] = max[0]
		}
		if i&2 != 0 {
			p[1] = max[1]
		}
		if i&4 != 0 {
			p[2] = max[2]
		}
		corners[i] = p
	}

	return &Mesh{
		Name:      name,
		Positions: corners,
		Indices: [][3]uint32{
			// -X / +X
			{0, 4, 6}, {0, 6, 2},
			{1, 3, 7}, {1, 7, 5},
			// -Y / +Y
			{0, 1, 5}, {0, 5, 4},
			{2, 6, 7}, {2, 7, 3},
			// -Z / +Z
			{0, 2, 3}, {0, 3, 1},
			{4, 5, 7}, {4, 7, 6},
		},
		Material: material,
	}
}

// Create a quad mesh from 4 corners given in counter-clockwise order when
// viewed from the side the quad faces.
func NewQuadMesh(name string, corners [4]types.Vec3, material *Material) *Mesh {
	return &Mesh{
		Name:      name,
		Positions: corners[:],
		Indices:   [][3]uint32{{0, 1, 2}, {0, 2, 3}},
		TexCoords: []types.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Material:  material,
	}
}
