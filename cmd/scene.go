package cmd

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/urfave/cli"

	"github.com/achilleasa/solaris/asset/reader"
	"github.com/achilleasa/solaris/renderer"
	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

// Load the scene passed as the first command argument into r and build its
// acceleration structures. If the scene does not define a camera, a default
// camera framing the scene bounds is returned.
func loadScene(ctx *cli.Context, r renderer.Renderer) (*scene.Camera, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	desc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return nil, err
	}

	desc.Populate(r)
	if err = r.Generate(); err != nil {
		return nil, err
	}

	if desc.Camera != nil {
		return desc.Camera, nil
	}

	camera := defaultCamera(desc.BBox())
	logger.Infof("scene does not define a camera; using %s", camera)
	return camera, nil
}

// Create a camera looking at the center of bbox from its +Z side, far
// enough to fit the whole box in view.
func defaultCamera(bbox scene.AABB) *scene.Camera {
	if bbox.IsEmpty() {
		return scene.NewCamera(types.XYZ(0, 0, 5), types.XYZ(0, 0, 0))
	}

	center := bbox.Center()
	radius := math32.Max(bbox.Max.Sub(bbox.Min).Len()*0.5, 1e-3)

	camera := scene.NewCamera(center.Add(types.XYZ(0, radius*0.25, radius*2.5)), center)
	camera.FocusDistance = camera.Target.Sub(camera.Position).Len()
	camera.Aperture = 0
	camera.Update()
	return camera
}

// Display scene statistics.
func ShowSceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	r := renderer.NewCPU(renderer.DefaultOptions())
	defer r.Close()

	camera, err := loadScene(ctx, r)
	if err != nil {
		return err
	}

	logger.Noticef("scene information:\n%s", r.Scene().Stats())
	logger.Noticef("camera: %s", camera)
	return nil
}
