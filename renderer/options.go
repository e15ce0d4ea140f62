package renderer

import (
	"fmt"

	"github.com/achilleasa/solaris/tracer"
)

type Options struct {
	// Number of pool workers; 0 selects one worker per logical CPU.
	NumWorkers int

	// Integrator settings.
	Tracer tracer.Options
}

// Get the default renderer options.
func DefaultOptions() Options {
	return Options{
		Tracer: tracer.DefaultOptions(),
	}
}

// Frame setup for a render request.
type RenderParams struct {
	// Frame dims.
	Width  uint32
	Height uint32

	// Number of samples to accumulate per pixel.
	SampleCount uint32
}

// Check that the frame dims and sample count are non-zero.
func (p RenderParams) Validate() error {
	if p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("%w: frame dims must be non-zero; got %dx%d", ErrInvalidParams, p.Width, p.Height)
	}
	if p.SampleCount == 0 {
		return fmt.Errorf("%w: sample count must be non-zero", ErrInvalidParams)
	}
	return nil
}
