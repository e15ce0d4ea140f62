package scene

import "github.com/achilleasa/solaris/types"

// A point light whose contribution falls off linearly to zero at
// AttenuationRadius.
type PointLight struct {
	Position          types.Vec3
	Color             types.Vec3
	AttenuationRadius float32
}

// A light infinitely far away shining along Direction.
type DirectionalLight struct {
	Direction types.Vec3
	Color     types.Vec3
}
