package renderer

import (
	"image"

	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

// The Renderer interface is implemented by all rendering backends.
type Renderer interface {
	// Add a light to the scene.
	AddPointLight(scene.PointLight)
	AddDirectionalLight(scene.DirectionalLight)

	// Add meshes to the scene using the given world transform.
	AddModel(*scene.Mesh, types.Mat4)
	AddModels([]*scene.Mesh, types.Mat4)

	// Build the acceleration structures for the current scene contents.
	Generate() error

	// Start a progressive render in the background, cancelling any
	// render that is currently in progress.
	StartRender(*scene.Camera, RenderParams) error

	// Block until the active render completes.
	Wait() error

	// Get the live tone-mapped frame (row-major, top row first).
	Image() []types.Vec3

	// Get an 8-bit copy of the current frame.
	Snapshot() *image.RGBA

	// Get render statistics.
	Stats() FrameStats

	// Shutdown renderer.
	Close()
}
