package cmd

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli"

	"github.com/achilleasa/solaris/renderer"
	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

// Serves the live frame of a progressive render over http.
type previewServer struct {
	r renderer.Renderer

	mu     sync.Mutex
	camera *scene.Camera
	params renderer.RenderParams
}

// Body of a POST /render request. Omitted fields keep their current value.
type renderRequest struct {
	Width       uint32      `json:"width"`
	Height      uint32      `json:"height"`
	SampleCount uint32      `json:"spp"`
	Position    *types.Vec3 `json:"position"`
	Target      *types.Vec3 `json:"target"`
	Aperture    *float32    `json:"aperture"`
	Focus       *float32    `json:"focus_distance"`
}

type statsResponse struct {
	Width             uint32  `json:"width"`
	Height            uint32  `json:"height"`
	CompletedSamples  uint32  `json:"completed_samples"`
	SampleCount       uint32  `json:"spp"`
	Progress          float32 `json:"progress"`
	LastSampleTimeMs  float64 `json:"last_sample_time_ms"`
	AvgSampleTimeMs   float64 `json:"avg_sample_time_ms"`
	TotalRenderTimeMs float64 `json:"render_time_ms"`
}

func newPreviewServer(r renderer.Renderer, camera *scene.Camera, params renderer.RenderParams) *previewServer {
	return &previewServer{
		r:      r,
		camera: camera,
		params: params,
	}
}

func (s *previewServer) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/frame.png", s.frame)
	e.GET("/stats", s.stats)
	e.POST("/render", s.render)
	return e
}

func (s *previewServer) frame(c echo.Context) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.r.Snapshot()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *previewServer) stats(c echo.Context) error {
	stats := s.r.Stats()
	return c.JSON(http.StatusOK, statsResponse{
		Width:             stats.Params.Width,
		Height:            stats.Params.Height,
		CompletedSamples:  stats.CompletedSamples,
		SampleCount:       stats.Params.SampleCount,
		Progress:          stats.Progress(),
		LastSampleTimeMs:  float64(stats.LastSampleTime().Microseconds()) / 1e3,
		AvgSampleTimeMs:   float64(stats.AverageSampleTime().Microseconds()) / 1e3,
		TotalRenderTimeMs: float64(stats.RenderTime.Microseconds()) / 1e3,
	})
}

// Restart the render with an updated camera and/or frame setup.
func (s *previewServer) render(c echo.Context) error {
	req := new(renderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	params := s.params
	if req.Width != 0 {
		params.Width = req.Width
	}
	if req.Height != 0 {
		params.Height = req.Height
	}
	if req.SampleCount != 0 {
		params.SampleCount = req.SampleCount
	}

	camera := *s.camera
	if req.Position != nil {
		camera.Position = *req.Position
	}
	if req.Target != nil {
		camera.Target = *req.Target
	}
	if req.Aperture != nil {
		camera.Aperture = *req.Aperture
	}
	if req.Focus != nil {
		camera.FocusDistance = *req.Focus
	}
	camera.Update()

	if err := s.r.StartRender(&camera, params); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, renderer.ErrInvalidParams) {
			status = http.StatusBadRequest
		}
		return c.JSON(status, map[string]string{
			"error": err.Error(),
		})
	}

	s.camera, s.params = &camera, params
	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"width":    params.Width,
		"height":   params.Height,
		"spp":      params.SampleCount,
		"position": camera.Position,
		"target":   camera.Target,
	})
}

// Render a scene progressively and serve the live frame over http.
func Preview(ctx *cli.Context) error {
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

	if err = r.StartRender(camera, params); err != nil {
		return err
	}

	e := newPreviewServer(r, camera, params).routes()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		<-sigCh
		logger.Notice("shutting down preview server")
		e.Close()
	}()

	listen := ctx.String("listen")
	logger.Noticef("serving live preview on http://%s/frame.png", listen)
	if err = e.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
