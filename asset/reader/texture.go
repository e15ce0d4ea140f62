package reader

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/achilleasa/solaris/asset"
	"github.com/achilleasa/solaris/log"
	"github.com/achilleasa/solaris/scene"
)

var logger = log.New("texture loader")

// Decode a png, jpeg, bmp or tiff image into a texture.
func decodeTexture(name string, source io.Reader) (*scene.Texture, error) {
	img, format, err := image.Decode(source)
	if err != nil {
		return nil, fmt.Errorf("could not decode texture %q: %w", name, err)
	}

	tex := scene.NewTexture(img)
	logger.Debugf("loaded %s texture %q (%dx%d)", format, name, tex.Width, tex.Height)
	return tex, nil
}

// Caches textures by their resolved path.
type textureCache map[string]*scene.Texture

// Load a texture relative to another resource.
func (c textureCache) load(texPath string, relTo *asset.Resource) (*scene.Texture, error) {
	res, err := asset.NewResource(texPath, relTo)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if tex, exists := c[res.Path()]; exists {
		return tex, nil
	}

	tex, err := decodeTexture(res.Path(), res)
	if err != nil {
		return nil, err
	}
	c[res.Path()] = tex
	return tex, nil
}
