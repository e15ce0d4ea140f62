package reader

import (
	"errors"
	"fmt"

	"github.com/achilleasa/solaris/asset"
	"github.com/achilleasa/solaris/renderer"
	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

var ErrUnsupportedFormat = errors.New("reader: unsupported scene format")

// A set of meshes sharing a world transform.
type Model struct {
	Meshes    []*scene.Mesh
	Transform types.Mat4
}

// A parsed scene description.
type Description struct {
	Models            []Model
	PointLights       []scene.PointLight
	DirectionalLights []scene.DirectionalLight

	// The scene camera or nil if the scene does not define one.
	Camera *scene.Camera
}

// Count the triangles of all models.
func (d *Description) NumTriangles() int {
	count := 0
	for _, model := range d.Models {
		for _, mesh := range model.Meshes {
			count += len(mesh.Indices)
		}
	}
	return count
}

// Get the world-space bounds of all models.
func (d *Description) BBox() scene.AABB {
	bbox := scene.EmptyAABB()
	for _, model := range d.Models {
		for _, mesh := range model.Meshes {
			if len(mesh.Positions) == 0 {
				continue
			}
			bbox = scene.Combine(bbox, mesh.BBox().Transform(model.Transform))
		}
	}
	return bbox
}

// Add the scene contents to a renderer.
func (d *Description) Populate(r renderer.Renderer) {
	for _, model := range d.Models {
		r.AddModels(model.Meshes, model.Transform)
	}
	for _, light := range d.PointLights {
		r.AddPointLight(light)
	}
	for _, light := range d.DirectionalLights {
		r.AddDirectionalLight(light)
	}
}

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*Description, error)
}

// Read scene from a local file or http(s) URL. The reader is selected by
// the file extension.
func ReadScene(filename string) (*Description, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader()
	case ".gltf", ".glb":
		reader = newGltfReader()
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, res.Ext())
	}
	return reader.Read(res)
}
