package scene

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/types"
)

// The material used by meshes that do not define one.
var DefaultMaterial = &Material{
	Albedo:    types.XYZ(0.7, 0.7, 0.7),
	Shininess: 32,
}

// A Blinn-Phong surface description.
type Material struct {
	Albedo    types.Vec3
	Emissive  types.Vec3
	Specular  types.Vec3
	Shininess float32

	// Optional texture modulating the albedo.
	AlbedoTexture *Texture
}

// The material response evaluated at a surface point.
type Response struct {
	Albedo    types.Vec3
	Emissive  types.Vec3
	Specular  types.Vec3
	Shininess float32
}

// Evaluate the material at the given texture coordinates.
func (m *Material) Evaluate(uv types.Vec2) Response {
	albedo := m.Albedo
	if m.AlbedoTexture != nil {
		albedo = albedo.MulVec(m.AlbedoTexture.Sample(uv))
	}

	return Response{
		Albedo:    albedo,
		Emissive:  m.Emissive,
		Specular:  m.Specular,
		Shininess: m.Shininess,
	}
}

// Evaluate the Blinn-Phong BRDF for light arriving from lightDir and leaving
// towards viewDir. Both directions point away from the surface and must be
// normalized.
func (r Response) BRDF(normal, viewDir, lightDir, lightColor types.Vec3) types.Vec3 {
	diffuse := math32.Max(normal.Dot(lightDir), 0)
	out := r.Albedo.MulVec(lightColor).Mul(diffuse)

	if r.Specular.MaxComponent() <= 0 || diffuse <= 0 {
		return out
	}

	h := lightDir.Add(viewDir).Normalize()
	specular := math32.Pow(math32.Min(math32.Max(normal.Dot(h), 0), 1), r.Shininess)
	return out.Add(r.Specular.MulVec(lightColor).Mul(specular))
}
