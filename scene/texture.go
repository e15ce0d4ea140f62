package scene

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/types"
)

// A decoded RGB texture with texel values in [0, 1].
type Texture struct {
	Width  uint32
	Height uint32
	Texels []types.Vec3
}

// Create a texture from an image.
func NewTexture(img image.Image) *Texture {
	bounds := img.Bounds()
	tex := &Texture{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Texels: make([]types.Vec3, bounds.Dx()*bounds.Dy()),
	}

	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			tex.Texels[offset] = types.XYZ(float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff)
			offset++
		}
	}

	return tex
}

// Sample texture using nearest filtering and repeat wrapping. The v axis
// points up so v=0 addresses the bottom image row.
func (t *Texture) Sample(uv types.Vec2) types.Vec3 {
	if t.Width == 0 || t.Height == 0 {
		return types.Splat3(1)
	}

	u := uv[0] - math32.Floor(uv[0])
	v := uv[1] - math32.Floor(uv[1])

	x := uint32(u * float32(t.Width))
	y := uint32((1 - v) * float32(t.Height))
	if x >= t.Width {
		x = t.Width - 1
	}
	if y >= t.Height {
		y = t.Height - 1
	}

	return t.Texels[y*t.Width+x]
}
