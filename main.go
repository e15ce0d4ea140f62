package main

import (
	"os"

	"github.com/achilleasa/solaris/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "solaris"
	app.Usage = "render scenes using CPU path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render single frame",
			Description: `
Load a wavefront obj or gltf/glb scene, render it progressively using all
available CPU cores and write the frame to the image file specified by --out.

The image format is selected by the output file extension (png, jpg, tiff, bmp).`,
			ArgsUsage: "scene_file",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			}, cmd.RenderFlags...),
			Action: cmd.RenderFrame,
		},
		{
			Name:  "preview",
			Usage: "render scene and serve a live preview over http",
			Description: `
Start a progressive render and serve the frame as it converges.

Endpoints:
  GET  /frame.png  current frame
  GET  /stats      render progress and sample times
  POST /render     restart render with a new camera or frame setup`,
			ArgsUsage: "scene_file",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "listen, l",
					Value: "localhost:8080",
					Usage: "address for the preview server",
				},
			}, cmd.RenderFlags...),
			Action: cmd.Preview,
		},
		{
			Name:      "scene-info",
			Usage:     "display scene statistics",
			ArgsUsage: "scene_file",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:   "list-devices",
			Usage:  "list available CPUs",
			Action: cmd.ListDevices,
		},
	}

	if err := app.Run(os.Args); err != nil {
		cmd.Fatal(err)
	}
}
