package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/types"
)

func testTexture() *Texture {
	// 2x2 texture; top row red/green, bottom row blue/white
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{255, 255, 255, 255})
	return NewTexture(img)
}

func TestTextureSample(t *testing.T) {
	tex := testTexture()

	specs := []struct {
		uv  types.Vec2
		exp types.Vec3
	}{
		{types.XY(0.25, 0.25), types.XYZ(0, 0, 1)},
		{types.XY(0.75, 0.25), types.XYZ(1, 1, 1)},
		{types.XY(0.25, 0.75), types.XYZ(1, 0, 0)},
		{types.XY(0.75, 0.75), types.XYZ(0, 1, 0)},
		// repeat wrapping
		{types.XY(1.25, -0.25), types.XYZ(1, 0, 0)},
		{types.XY(-0.25, 2.25), types.XYZ(1, 1, 1)},
		// edges are clamped to the last texel
		{types.XY(0.9999999, 0), types.XYZ(1, 1, 1)},
	}

	for specIndex, spec := range specs {
		if got := tex.Sample(spec.uv); got != spec.exp {
			t.Errorf("[spec %d] expected sample at %v to be %v; got %v", specIndex, spec.uv, spec.exp, got)
		}
	}

	empty := &Texture{}
	if got := empty.Sample(types.XY(0.5, 0.5)); got != types.Splat3(1) {
		t.Fatalf("expected empty texture to sample as white; got %v", got)
	}
}

func TestMaterialEvaluate(t *testing.T) {
	mat := &Material{
		Albedo:        types.XYZ(0.5, 0.5, 0.5),
		Emissive:      types.XYZ(1, 2, 3),
		Shininess:     8,
		AlbedoTexture: testTexture(),
	}

	res := mat.Evaluate(types.XY(0.75, 0.75))
	if res.Albedo != types.XYZ(0, 0.5, 0) {
		t.Fatalf("expected texture to modulate albedo; got %v", res.Albedo)
	}
	if res.Emissive != mat.Emissive || res.Shininess != 8 {
		t.Fatalf("unexpected material response %+v", res)
	}

	mat.AlbedoTexture = nil
	if res = mat.Evaluate(types.XY(0.75, 0.75)); res.Albedo != mat.Albedo {
		t.Fatalf("expected untextured albedo %v; got %v", mat.Albedo, res.Albedo)
	}
}

func TestBRDF(t *testing.T) {
	n := types.XYZ(0, 1, 0)
	white := types.Splat3(1)
	diffuse := Response{Albedo: types.Splat3(0.5), Shininess: 16}
	glossy := Response{Albedo: types.Splat3(0.5), Specular: types.Splat3(1), Shininess: 16}
	tilted := types.XYZ(1, 1, 0).Normalize()

	specs := []struct {
		res      Response
		view     types.Vec3
		light    types.Vec3
		expected float32
	}{
		// Lambert term only
		{diffuse, n, n, 0.5},
		{diffuse, n, tilted, 0.5 * math32.Sqrt(0.5)},
		// Light below the surface
		{diffuse, n, types.XYZ(0, -1, 0), 0},
		{glossy, n, types.XYZ(0, -1, 0), 0},
		// Mirror configuration adds the full specular lobe
		{glossy, n, n, 1.5},
	}

	for specIndex, spec := range specs {
		got := spec.res.BRDF(n, spec.view, spec.light, white)
		if math32.Abs(got[0]-spec.expected) > 1e-5 {
			t.Errorf("[spec %d] expected BRDF %f; got %f", specIndex, spec.expected, got[0])
		}
	}
}
