package tracer

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

const (
	// Ray window used for camera, bounce and shadow rays.
	rayEpsilon float32 = 1e-4
	rayFar     float32 = 1e20

	// Mixed with the bounce depth when re-hashing the random triplet.
	bounceSeedMix uint32 = 0x9E3779B9
)

// A unidirectional path tracer with russian roulette, next event estimation
// against the scene's analytic lights and cosine weighted indirect bounces.
type Integrator struct {
	scene *scene.Scene
	opts  Options
}

// Create a new integrator for a generated scene.
func NewIntegrator(sc *scene.Scene, opts Options) *Integrator {
	return &Integrator{
		scene: sc,
		opts:  opts,
	}
}

// Get the integrator options.
func (in *Integrator) Options() Options {
	return in.opts
}

// Trace a single camera sample through pixel (x, y) and return the path
// radiance.
func (in *Integrator) TracePixel(camera *scene.Camera, x, y, sample, width, height uint32) types.Vec3 {
	payload := NewPayload(x, y, sample)
	ray := camera.PrimaryRay(x, y, sample, width, height, payload.Rnd)
	in.Trace(ray, &payload, rayEpsilon, rayFar)
	return payload.Radiance
}

// Extend the path described by payload along ray. Missed rays contribute
// nothing. The recursion is bounded by Options.MaxDepth.
func (in *Integrator) Trace(ray scene.Ray, payload *Payload, tmin, tmax float32) {
	hit := in.scene.Intersect(ray, tmin, tmax)
	if !hit.Valid() {
		return
	}

	// Russian roulette
	p := hit.Material.Albedo.MaxComponent()
	if payload.Depth >= in.opts.MaxDepth {
		return
	} else if payload.Depth > in.opts.RouletteDepth {
		if payload.Rnd[2] >= p {
			return
		}
		payload.Throughput = payload.Throughput.Mul(1.0 / p)
	}

	payload.Radiance = payload.Radiance.Add(
		payload.Throughput.MulVec(hit.Material.Emissive).Mul(payload.EmissiveGate),
	)

	// The BRDF already accounts for the local albedo. Unless the weighted
	// estimator is selected, direct light is added without the throughput
	// arriving at this vertex.
	direct := in.directLight(&hit, ray)
	if in.opts.WeightDirectLight {
		direct = payload.Throughput.MulVec(direct)
	}
	payload.Throughput = payload.Throughput.MulVec(hit.Material.Albedo)
	payload.Radiance = payload.Radiance.Add(direct)

	// Indirect lighting
	payload.EmissiveGate = 0
	payload.Depth++
	if in.opts.FreshBounceSamples {
		payload.Rnd = Rand01(payload.pixelX, payload.pixelY, payload.sample^(payload.Depth*bounceSeedMix))
	}

	in.Trace(scene.NewRay(hit.Position, cosineSampleHemisphere(hit.NormalLight, payload.Rnd)), payload, tmin, tmax)
}

// Sum the unoccluded contributions of all analytic lights at a hit.
func (in *Integrator) directLight(hit *scene.Hit, ray scene.Ray) types.Vec3 {
	var out types.Vec3
	viewDir := ray.Dir.Neg().Normalize()

	for _, light := range in.scene.DirectionalLights {
		lightDir := light.Direction.Neg()
		if in.scene.Occluded(scene.NewRay(hit.Position, lightDir), rayEpsilon, rayFar) {
			continue
		}
		out = out.Add(hit.Material.BRDF(hit.ShadingNormal, viewDir, lightDir, light.Color))
	}

	for _, light := range in.scene.PointLights {
		toLight := light.Position.Sub(hit.Position)
		dist := toLight.Len()
		attenuation := math32.Max(1-dist/light.AttenuationRadius, 0)
		if attenuation <= 0 || dist == 0 {
			continue
		}

		lightDir := toLight.Mul(1.0 / dist)
		if in.opts.OccludePointLights && in.scene.Occluded(scene.NewRay(hit.Position, lightDir), rayEpsilon, dist-rayEpsilon) {
			continue
		}
		out = out.Add(hit.Material.BRDF(hit.ShadingNormal, viewDir, lightDir, light.Color).Mul(attenuation))
	}

	return out
}

// Map rnd.xy to a cosine weighted direction in the hemisphere around w.
func cosineSampleHemisphere(w, rnd types.Vec3) types.Vec3 {
	r1 := 2 * math32.Pi * rnd[0]
	r2 := rnd[1]
	r2s := math32.Sqrt(r2)

	axis := types.XYZ(1, 0, 0)
	if math32.Abs(w[0]) > 0.1 {
		axis = types.XYZ(0, 1, 0)
	}
	u := axis.Cross(w).Normalize()
	v := w.Cross(u)

	return u.Mul(math32.Cos(r1) * r2s).
		Add(v.Mul(math32.Sin(r1) * r2s)).
		Add(w.Mul(math32.Sqrt(1 - r2))).
		Normalize()
}
