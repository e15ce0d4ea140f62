package renderer

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/log"
	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/tracer"
	"github.com/achilleasa/solaris/types"
)

// Gamma applied when converting accumulated radiance to the display image.
const displayGamma float32 = 1.0 / 2.2

// A progressive CPU renderer. Each sample is rendered as a batch of
// per-column work units executed by a worker pool; a dedicated goroutine
// drives the sample loop so StartRender returns immediately.
type CPURenderer struct {
	logger log.Logger
	opts   Options

	scene  *scene.Scene
	pool   *tracer.Pool
	tracer tracer.Tracer

	// Serializes StartRender, Generate and Close so that at most one
	// render goroutine exists at any time.
	startMu sync.Mutex

	mu          sync.Mutex
	cancel      context.CancelFunc
	activeBatch *tracer.Batch
	done        chan struct{}
	renderErr   error
	closed      bool

	// Frame state; reset by StartRender.
	params      RenderParams
	accumulator []types.Vec3
	image       []types.Vec3
	stats       FrameStats
	renderStart time.Time
}

// Create a new CPU renderer with an empty scene.
func NewCPU(opts Options) *CPURenderer {
	r := &CPURenderer{
		logger: log.New("cpu renderer"),
		opts:   opts,
		scene:  scene.NewScene(),
		pool:   tracer.NewPool(opts.NumWorkers),
	}
	r.logger.Noticef("using %d workers", r.pool.NumWorkers())
	return r
}

// Get the renderer scene.
func (r *CPURenderer) Scene() *scene.Scene {
	return r.scene
}

// Add a point light to the scene.
func (r *CPURenderer) AddPointLight(light scene.PointLight) {
	r.scene.AddPointLight(light)
}

// Add a directional light to the scene.
func (r *CPURenderer) AddDirectionalLight(light scene.DirectionalLight) {
	r.scene.AddDirectionalLight(light)
}

// Add a mesh to the scene.
func (r *CPURenderer) AddModel(mesh *scene.Mesh, transform types.Mat4) {
	r.scene.AddModel(mesh, transform)
}

// Add a set of meshes to the scene.
func (r *CPURenderer) AddModels(meshes []*scene.Mesh, transform types.Mat4) {
	r.scene.AddModels(meshes, transform)
}

// Build the scene BVH. Any render in progress is cancelled first.
func (r *CPURenderer) Generate() error {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.stopRender()

	if err := r.scene.Generate(); err != nil {
		return err
	}
	r.tracer = tracer.NewIntegrator(r.scene, r.opts.Tracer)
	return nil
}

// Cancel any render in progress, reset the frame buffers and start
// rendering params.SampleCount samples in the background.
func (r *CPURenderer) StartRender(camera *scene.Camera, params RenderParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	r.startMu.Lock()
	defer r.startMu.Unlock()

	if !r.scene.Generated() || r.tracer == nil {
		return ErrSceneNotGenerated
	}

	r.stopRender()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	cam := *camera
	cam.Update()

	numPixels := int(params.Width * params.Height)
	r.params = params
	r.accumulator = make([]types.Vec3, numPixels)
	r.image = make([]types.Vec3, numPixels)
	r.stats = FrameStats{Params: params}
	r.renderStart = time.Now()
	r.renderErr = nil

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.render(ctx, &cam, params, r.accumulator, r.image, r.done)
	return nil
}

// Block until the active render completes or is cancelled. Returns
// ErrInterrupted if the render was cancelled before all samples completed.
func (r *CPURenderer) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderErr
}

// Get the live display buffer. The buffer is updated in place while a
// render is in progress.
func (r *CPURenderer) Image() []types.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.image
}

// Get the accumulated radiance buffer.
func (r *CPURenderer) Accumulator() []types.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accumulator
}

// Convert the current display buffer to an 8-bit RGBA image.
func (r *CPURenderer) Snapshot() *image.RGBA {
	r.mu.Lock()
	params, pixels := r.params, r.image
	r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, int(params.Width), int(params.Height)))
	for index, px := range pixels {
		x, y := index%int(params.Width), index/int(params.Width)
		img.SetRGBA(x, y, color.RGBA{
			R: toByte(px[0]),
			G: toByte(px[1]),
			B: toByte(px[2]),
			A: 255,
		})
	}
	return img
}

// Get render statistics.
func (r *CPURenderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.stats
	stats.SampleTimes = append([]time.Duration(nil), r.stats.SampleTimes...)
	return stats
}

// Get the render time for each completed sample.
func (r *CPURenderer) SampleTimes() []time.Duration {
	return r.Stats().SampleTimes
}

// Get the render time of the last completed sample.
func (r *CPURenderer) LastSampleTime() time.Duration {
	return r.Stats().LastSampleTime()
}

// Get the mean render time of all completed samples.
func (r *CPURenderer) AverageSampleTime() time.Duration {
	return r.Stats().AverageSampleTime()
}

// Cancel any render in progress and shutdown the worker pool.
func (r *CPURenderer) Close() {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.stopRender()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.pool.Close()
}

// Cancel the active render and wait for its goroutine to exit.
func (r *CPURenderer) stopRender() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.activeBatch != nil {
		r.pool.Cancel(r.activeBatch)
	}
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (r *CPURenderer) render(ctx context.Context, camera *scene.Camera, params RenderParams, accumulator, display []types.Vec3, done chan struct{}) {
	defer close(done)

	for sample := uint32(0); sample < params.SampleCount; sample++ {
		start := time.Now()

		batch := tracer.NewBatch()
		for x := uint32(0); x < params.Width; x++ {
			x, sample := x, sample
			batch.Add(func() {
				r.renderColumn(camera, x, sample, params, accumulator, display)
			})
		}

		r.mu.Lock()
		if ctx.Err() != nil {
			r.interrupted(sample, params)
			r.mu.Unlock()
			return
		}
		// Submit and publish the batch atomically so a concurrent
		// stopRender always finds a batch it can cancel.
		if err := r.pool.Submit(batch); err != nil {
			r.renderErr = err
			r.mu.Unlock()
			return
		}
		r.activeBatch = batch
		r.mu.Unlock()

		r.pool.Wait(batch)

		r.mu.Lock()
		r.activeBatch = nil
		if batch.Discarded() != 0 || ctx.Err() != nil {
			r.interrupted(sample, params)
			r.mu.Unlock()
			return
		}

		sampleTime := time.Since(start)
		r.stats.SampleTimes = append(r.stats.SampleTimes, sampleTime)
		r.stats.CompletedSamples = sample + 1
		r.stats.RenderTime = time.Since(r.renderStart)
		r.mu.Unlock()

		r.logger.Debugf("sample %d/%d completed in %d ms", sample+1, params.SampleCount, sampleTime.Nanoseconds()/1e6)
	}

	r.logger.Noticef(
		"rendered %dx%d frame with %d samples in %d ms",
		params.Width, params.Height, params.SampleCount,
		time.Since(r.renderStart).Nanoseconds()/1e6,
	)
}

// Record an interrupted render. Must be called with the lock held.
func (r *CPURenderer) interrupted(sample uint32, params RenderParams) {
	r.renderErr = ErrInterrupted
	r.stats.RenderTime = time.Since(r.renderStart)
	r.logger.Infof("render interrupted at sample %d/%d", sample+1, params.SampleCount)
}

// Trace one sample for every pixel in column x. Columns are disjoint so
// concurrent units never touch the same pixels.
func (r *CPURenderer) renderColumn(camera *scene.Camera, x, sample uint32, params RenderParams, accumulator, display []types.Vec3) {
	invSamples := 1.0 / float32(params.SampleCount)
	resolve := float32(params.SampleCount) / float32(sample+1)

	for y := uint32(0); y < params.Height; y++ {
		radiance := r.tracer.TracePixel(camera, x, y, sample, params.Width, params.Height)

		index := y*params.Width + x
		accumulator[index] = accumulator[index].Add(radiance.Mul(invSamples))
		display[index] = accumulator[index].Mul(resolve).ClampMin(0).Pow(displayGamma)
	}
}

func toByte(c float32) uint8 {
	return uint8(math32.Min(math32.Max(c, 0), 1)*255 + 0.5)
}
