package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/achilleasa/solaris/renderer"
)

// Flags shared by the render and preview commands.
var RenderFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 512,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 512,
		Usage: "frame height",
	},
	cli.IntFlag{
		Name:  "spp",
		Value: 16,
		Usage: "samples per pixel",
	},
	cli.IntFlag{
		Name:  "workers",
		Value: 0,
		Usage: "number of render workers (0 = one per logical CPU)",
	},
	cli.IntFlag{
		Name:  "num-bounces",
		Value: 12,
		Usage: "max path depth",
	},
	cli.IntFlag{
		Name:  "rr-bounces",
		Value: 5,
		Usage: "path depth after which russian roulette is used for path elimination",
	},
	cli.BoolFlag{
		Name:  "occlude-point-lights",
		Usage: "cast shadow rays towards point lights",
	},
	cli.BoolFlag{
		Name:  "fresh-bounce-samples",
		Usage: "draw a new random sample for each path bounce",
	},
	cli.BoolFlag{
		Name:  "weight-direct-light",
		Usage: "scale direct lighting by the path throughput",
	},
}

// Map command flags to renderer options and frame params.
func renderOptions(ctx *cli.Context) (renderer.Options, renderer.RenderParams, error) {
	opts := renderer.DefaultOptions()
	opts.NumWorkers = ctx.Int("workers")
	opts.Tracer.OccludePointLights = ctx.Bool("occlude-point-lights")
	opts.Tracer.FreshBounceSamples = ctx.Bool("fresh-bounce-samples")
	opts.Tracer.WeightDirectLight = ctx.Bool("weight-direct-light")

	if ctx.Int("num-bounces") <= 0 {
		return opts, renderer.RenderParams{}, errors.New("num-bounces must be positive")
	}
	opts.Tracer.MaxDepth = uint32(ctx.Int("num-bounces"))
	if rr := ctx.Int("rr-bounces"); rr <= 0 || rr >= ctx.Int("num-bounces") {
		logger.Notice("disabling RR for path elimination")
		opts.Tracer.RouletteDepth = opts.Tracer.MaxDepth
	} else {
		opts.Tracer.RouletteDepth = uint32(rr)
	}

	if ctx.Int("width") <= 0 || ctx.Int("height") <= 0 || ctx.Int("spp") <= 0 {
		return opts, renderer.RenderParams{}, fmt.Errorf("%w: width, height and spp must be positive", renderer.ErrInvalidParams)
	}
	params := renderer.RenderParams{
		Width:       uint32(ctx.Int("width")),
		Height:      uint32(ctx.Int("height")),
		SampleCount: uint32(ctx.Int("spp")),
	}
	return opts, params, nil
}

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, params, err := renderOptions(ctx)
	if err != nil {
		return err
	}

	r := renderer.NewCPU(opts)
	defer r.Close()

	camera, err := loadScene(ctx, r)
	if err != nil {
		return err
	}

	// Stop rendering on ^C and keep the samples accumulated so far.
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Noticef("rendering %dx%d frame with %d spp", params.Width, params.Height, params.SampleCount)
	if err = r.StartRender(camera, params); err != nil {
		return err
	}

	renderDone := make(chan error, 1)
	go func() { renderDone <- r.Wait() }()

	select {
	case err = <-renderDone:
	case <-sigCtx.Done():
		logger.Warning("interrupted; stopping render")
		r.Close()
		err = <-renderDone
	}

	if err != nil && !errors.Is(err, renderer.ErrInterrupted) {
		return err
	}

	stats := r.Stats()
	logger.Noticef("frame statistics\n%s", stats.Table())

	start := time.Now()
	imgFile := ctx.String("out")
	if err = writeFrame(imgFile, r.Snapshot()); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)

	return nil
}

// Encode frame using the format selected by the file extension.
func writeFrame(imgFile string, frame image.Image) error {
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(imgFile)) {
	case ".png":
		err = png.Encode(f, frame)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, frame, &jpeg.Options{Quality: 95})
	case ".tif", ".tiff":
		err = tiff.Encode(f, frame, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		err = bmp.Encode(f, frame)
	default:
		err = fmt.Errorf("unsupported image format %q", filepath.Ext(imgFile))
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(imgFile)
		return fmt.Errorf("could not write frame to %s: %w", imgFile, err)
	}
	return nil
}
