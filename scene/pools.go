package scene

import (
	"fmt"

	"github.com/achilleasa/solaris/types"
)

// A non-owning window into the shared geometry pools. NumIndices counts
// triangles (index triples) starting at IndicesOffset; triangle vertex
// indices are relative to PositionOffset.
type ModelReference struct {
	PositionOffset uint32
	IndicesOffset  uint32
	NumIndices     uint32
	MaterialIndex  uint32
}

// Flat geometry arrays shared read-only by all queries once generated.
// Edges hold two entries per triangle (p1-p0, p2-p0) and FaceNormals one.
// Meshes without texture coordinates or normals get zero entries so that all
// per-vertex pools stay aligned with Positions.
type GeometryPools struct {
	Positions   []types.Vec3
	TexCoords   []types.Vec2
	Normals     []types.Vec3
	Indices     [][3]uint32
	Edges       []types.Vec3
	FaceNormals []types.Vec3
	Materials   []*Material
}

// Append a world-space mesh to the pools and return its reference.
func (p *GeometryPools) appendMesh(mesh *Mesh) (ModelReference, error) {
	numVerts := len(mesh.Positions)
	if len(mesh.TexCoords) != 0 && len(mesh.TexCoords) != numVerts {
		return ModelReference{}, fmt.Errorf("%w: mesh %q has %d texture coordinates for %d positions", ErrInvalidMesh, mesh.Name, len(mesh.TexCoords), numVerts)
	}
	if len(mesh.Normals) != 0 && len(mesh.Normals) != numVerts {
		return ModelReference{}, fmt.Errorf("%w: mesh %q has %d normals for %d positions", ErrInvalidMesh, mesh.Name, len(mesh.Normals), numVerts)
	}
	for triIndex, tri := range mesh.Indices {
		for _, vIndex := range tri {
			if int(vIndex) >= numVerts {
				return ModelReference{}, fmt.Errorf("%w: mesh %q triangle %d references vertex %d; mesh has %d vertices", ErrInvalidMesh, mesh.Name, triIndex, vIndex, numVerts)
			}
		}
	}

	material := mesh.Material
	if material == nil {
		material = DefaultMaterial
	}

	ref := ModelReference{
		PositionOffset: uint32(len(p.Positions)),
		IndicesOffset:  uint32(len(p.Indices)),
		NumIndices:     uint32(len(mesh.Indices)),
		MaterialIndex:  uint32(len(p.Materials)),
	}

	p.Materials = append(p.Materials, material)
	p.Positions = append(p.Positions, mesh.Positions...)
	if len(mesh.TexCoords) != 0 {
		p.TexCoords = append(p.TexCoords, mesh.TexCoords...)
	} else {
		p.TexCoords = append(p.TexCoords, make([]types.Vec2, numVerts)...)
	}
	if len(mesh.Normals) != 0 {
		p.Normals = append(p.Normals, mesh.Normals...)
	} else {
		p.Normals = append(p.Normals, make([]types.Vec3, numVerts)...)
	}

	for _, tri := range mesh.Indices {
		p0 := mesh.Positions[tri[0]]
		e0 := mesh.Positions[tri[1]].Sub(p0)
		e1 := mesh.Positions[tri[2]].Sub(p0)

		p.Indices = append(p.Indices, tri)
		p.Edges = append(p.Edges, e0, e1)
		p.FaceNormals = append(p.FaceNormals, e0.Cross(e1).Normalize())
	}

	return ref, nil
}

// Get the vertex positions of a triangle in a referenced model.
func (p *GeometryPools) triangle(ref ModelReference, tri uint32) [3]types.Vec3 {
	indices := p.Indices[ref.IndicesOffset+tri]
	return [3]types.Vec3{
		p.Positions[ref.PositionOffset+indices[0]],
		p.Positions[ref.PositionOffset+indices[1]],
		p.Positions[ref.PositionOffset+indices[2]],
	}
}

// Calculate the bounding box of a referenced model.
func (p *GeometryPools) bbox(ref ModelReference) AABB {
	bbox := EmptyAABB()
	for tri := uint32(0); tri < ref.NumIndices; tri++ {
		for _, v := range p.triangle(ref, tri) {
			bbox.Adjust(v)
		}
	}
	return bbox
}
