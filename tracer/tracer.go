package tracer

import (
	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

// Integrator options.
type Options struct {
	// Paths are terminated unconditionally at this depth.
	MaxDepth uint32

	// Russian roulette is applied to vertices deeper than this.
	RouletteDepth uint32

	// Cast shadow rays towards point lights.
	OccludePointLights bool

	// Draw a fresh random triplet for every bounce instead of reusing the
	// per-pixel triplet along the whole path.
	FreshBounceSamples bool

	// Scale next event estimation by the path throughput. When false the
	// direct term of every vertex is added at full strength.
	WeightDirectLight bool
}

// Get the default integrator options.
func DefaultOptions() Options {
	return Options{
		MaxDepth:      12,
		RouletteDepth: 5,
	}
}

// The Tracer interface is implemented by objects that can estimate the
// radiance arriving at a pixel for a single sample.
type Tracer interface {
	// Trace a single sample for pixel (x, y) of a width x height frame
	// as seen through the camera and return its radiance.
	TracePixel(camera *scene.Camera, x, y, sample, width, height uint32) types.Vec3
}

// Per-path state carried through the recursive trace.
type Payload struct {
	// Radiance accumulated along the path.
	Radiance types.Vec3

	// Product of the albedos (and roulette compensation) along the path.
	Throughput types.Vec3

	// Number of bounces taken so far.
	Depth uint32

	// Gates emissive contributions; only the camera vertex sees emitters
	// directly.
	EmissiveGate float32

	// The random triplet driving the current vertex.
	Rnd types.Vec3

	// Seed for re-hashing Rnd when fresh bounce samples are enabled.
	pixelX, pixelY, sample uint32
}

// Create a payload for a camera path through pixel (x, y).
func NewPayload(x, y, sample uint32) Payload {
	return Payload{
		Throughput:   types.Splat3(1),
		EmissiveGate: 1,
		Rnd:          Rand01(x, y, sample),
		pixelX:       x,
		pixelY:       y,
		sample:       sample,
	}
}
