package tracer

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

func generate(t *testing.T, sc *scene.Scene) *scene.Scene {
	if err := sc.Generate(); err != nil {
		t.Fatal(err)
	}
	return sc
}

func floorQuad(material *scene.Material) *scene.Mesh {
	return scene.NewQuadMesh("floor", [4]types.Vec3{
		{-1, 0, -1}, {-1, 0, 1}, {1, 0, 1}, {1, 0, -1},
	}, material)
}

func expectRadiance(t *testing.T, descr string, got types.Vec3, min, max float32) {
	for axis, c := range got {
		if c < min || c > max {
			t.Fatalf("[%s] expected radiance component %d to be in [%f, %f]; got %f", descr, axis, min, max, c)
		}
	}
}

func TestTraceEmptyScene(t *testing.T) {
	sc := generate(t, scene.NewScene())
	sc.AddDirectionalLight(scene.DirectionalLight{Direction: types.XYZ(0, -1, 0), Color: types.Splat3(1)})
	in := NewIntegrator(sc, DefaultOptions())
	camera := scene.NewCamera(types.XYZ(0, 0, 5), types.XYZ(0, 0, 0))

	for sample := uint32(0); sample < 4; sample++ {
		if got := in.TracePixel(camera, 3, 4, sample, 8, 8); got != (types.Vec3{}) {
			t.Fatalf("expected empty scene to produce zero radiance; got %v", got)
		}
	}
}

func TestTraceDirectionalLightOnCube(t *testing.T) {
	sc := scene.NewScene()
	sc.AddModel(scene.NewBoxMesh("cube", types.XYZ(-0.5, -0.5, -0.5), types.XYZ(0.5, 0.5, 0.5), nil), types.Ident4())
	sc.AddDirectionalLight(scene.DirectionalLight{Direction: types.XYZ(0, -1, 0), Color: types.Splat3(1)})
	generate(t, sc)

	in := NewIntegrator(sc, DefaultOptions())
	albedo := scene.DefaultMaterial.Albedo[0]

	// Straight down onto the top face; the bounce escapes the convex cube so
	// only the direct term remains.
	payload := NewPayload(0, 0, 0)
	in.Trace(scene.NewRay(types.XYZ(0.1, 5, 0.2), types.XYZ(0, -1, 0)), &payload, rayEpsilon, rayFar)
	expectRadiance(t, "direct ray", payload.Radiance, albedo-1e-3, albedo+1e-3)
	if payload.Depth != 1 {
		t.Fatalf("expected path to terminate after 1 bounce; got %d", payload.Depth)
	}

	// Same setup through a camera looking straight down.
	camera := scene.NewCamera(types.XYZ(0, 5, 0), types.XYZ(0, 0, 0))
	got := in.TracePixel(camera, 32, 24, 1, 64, 48)
	expectRadiance(t, "camera ray", got, albedo*0.95, albedo*1.05)
}

func TestTraceEmissive(t *testing.T) {
	emissive := types.XYZ(2, 1, 0.5)
	sc := scene.NewScene()
	sc.AddModel(floorQuad(&scene.Material{Albedo: types.Splat3(0.5), Emissive: emissive}), types.Ident4())
	generate(t, sc)

	in := NewIntegrator(sc, DefaultOptions())
	payload := NewPayload(1, 2, 3)
	in.Trace(scene.NewRay(types.XYZ(0.3, 2, -0.2), types.XYZ(0, -1, 0)), &payload, rayEpsilon, rayFar)

	if payload.Radiance != emissive {
		t.Fatalf("expected radiance %v; got %v", emissive, payload.Radiance)
	}
	if payload.EmissiveGate != 0 {
		t.Fatalf("expected emissive gate to be closed after the first bounce; got %f", payload.EmissiveGate)
	}
	if exp := types.Splat3(0.5); payload.Throughput != exp {
		t.Fatalf("expected throughput %v; got %v", exp, payload.Throughput)
	}
}

func TestDirectPointLight(t *testing.T) {
	sc := scene.NewScene()
	sc.AddModel(floorQuad(nil), types.Ident4())
	// A blocker between the light and the shaded point.
	sc.AddModel(scene.NewQuadMesh("blocker", [4]types.Vec3{
		{0.1, 0.5, -0.3}, {0.1, 0.5, -0.1}, {0.4, 0.5, -0.1}, {0.4, 0.5, -0.3},
	}, nil), types.Ident4())
	sc.AddPointLight(scene.PointLight{Position: types.XYZ(0.3, 1, -0.2), Color: types.Splat3(1), AttenuationRadius: 2})
	generate(t, sc)

	ray := scene.NewRay(types.XYZ(2.3, 2, -0.2), types.XYZ(-1, -1, 0).Normalize())
	hit := sc.Intersect(ray, rayEpsilon, rayFar)
	if !hit.Valid() || math32.Abs(hit.Position[1]) > 1e-4 {
		t.Fatalf("expected ray to hit the floor; got %+v", hit)
	}

	type spec struct {
		occlude bool
		radius  float32
		exp     float32
	}
	specs := []spec{
		// d = 1, attenuation = 1 - 1/2
		{false, 2, 0.7 * 0.5},
		{true, 2, 0},
		// Light out of range
		{false, 0.5, 0},
	}

	for index, s := range specs {
		sc.PointLights[0].AttenuationRadius = s.radius
		opts := DefaultOptions()
		opts.OccludePointLights = s.occlude
		in := NewIntegrator(sc, opts)

		got := in.directLight(&hit, ray)
		for axis, c := range got {
			if math32.Abs(c-s.exp) > 1e-4 {
				t.Fatalf("[spec %d] expected direct light component %d to be %f; got %f", index, axis, s.exp, c)
			}
		}
	}
}

func TestDirectLightWeighting(t *testing.T) {
	sc := scene.NewScene()
	sc.AddModel(floorQuad(nil), types.Ident4())
	sc.AddDirectionalLight(scene.DirectionalLight{Direction: types.XYZ(0, -1, 0), Color: types.Splat3(1)})
	generate(t, sc)

	albedo := scene.DefaultMaterial.Albedo[0]
	type spec struct {
		weighted bool
		exp      float32
	}
	specs := []spec{
		{false, albedo},
		{true, 0.25 * albedo},
	}

	for index, s := range specs {
		opts := DefaultOptions()
		opts.WeightDirectLight = s.weighted
		in := NewIntegrator(sc, opts)

		// A vertex deeper in the path; the bounce off the floor escapes.
		payload := NewPayload(0, 0, 0)
		payload.Depth = 1
		payload.EmissiveGate = 0
		payload.Throughput = types.Splat3(0.25)
		in.Trace(scene.NewRay(types.XYZ(0.3, 2, -0.2), types.XYZ(0, -1, 0)), &payload, rayEpsilon, rayFar)

		for axis, c := range payload.Radiance {
			if math32.Abs(c-s.exp) > 1e-4 {
				t.Fatalf("[spec %d] expected radiance component %d to be %f; got %f", index, axis, s.exp, c)
			}
		}
		if exp := types.Splat3(0.25 * albedo); payload.Throughput.Sub(exp).Len() > 1e-5 {
			t.Fatalf("[spec %d] expected throughput %v; got %v", index, exp, payload.Throughput)
		}
	}
}

func TestTraceRussianRoulette(t *testing.T) {
	sc := scene.NewScene()
	sc.AddModel(floorQuad(&scene.Material{Albedo: types.XYZ(0.5, 0.25, 0.5), Emissive: types.Splat3(1)}), types.Ident4())
	generate(t, sc)

	in := NewIntegrator(sc, DefaultOptions())

	type spec struct {
		depth         uint32
		rnd           float32
		expRadiance   types.Vec3
		expThroughput types.Vec3
		expDepth      uint32
	}
	specs := []spec{
		// Past the roulette depth; terminated since rnd >= max albedo.
		{6, 0.7, types.Vec3{}, types.Splat3(1), 6},
		// Survives and the throughput is compensated by 1/p.
		{6, 0.3, types.Splat3(2), types.XYZ(1, 0.5, 1), 7},
		// At the roulette depth the path always continues.
		{5, 0.9, types.Splat3(1), types.XYZ(0.5, 0.25, 0.5), 6},
		// Hard limit.
		{12, 0.1, types.Vec3{}, types.Splat3(1), 12},
	}

	for index, s := range specs {
		payload := NewPayload(0, 0, 0)
		payload.Depth = s.depth
		payload.Rnd[2] = s.rnd
		in.Trace(scene.NewRay(types.XYZ(0.3, 2, -0.2), types.XYZ(0, -1, 0)), &payload, rayEpsilon, rayFar)

		if payload.Radiance.Sub(s.expRadiance).Len() > 1e-5 {
			t.Fatalf("[spec %d] expected radiance %v; got %v", index, s.expRadiance, payload.Radiance)
		}
		if payload.Throughput.Sub(s.expThroughput).Len() > 1e-5 {
			t.Fatalf("[spec %d] expected throughput %v; got %v", index, s.expThroughput, payload.Throughput)
		}
		if payload.Depth != s.expDepth {
			t.Fatalf("[spec %d] expected depth %d; got %d", index, s.expDepth, payload.Depth)
		}
	}
}

func TestTraceIsDeterministic(t *testing.T) {
	sc := scene.NewScene()
	for i := 0; i < 4; i++ {
		sc.AddModel(
			scene.NewBoxMesh("box", types.XYZ(-0.5, -0.5, -0.5), types.XYZ(0.5, 0.5, 0.5), nil),
			types.Translate4(types.XYZ(float32(i)-1.5, 0, 0)),
		)
	}
	sc.AddModel(scene.NewQuadMesh("floor", [4]types.Vec3{
		{-5, -0.5, -5}, {-5, -0.5, 5}, {5, -0.5, 5}, {5, -0.5, -5},
	}, nil), types.Ident4())
	sc.AddDirectionalLight(scene.DirectionalLight{Direction: types.XYZ(-1, -1, -1), Color: types.Splat3(1)})
	sc.AddPointLight(scene.PointLight{Position: types.XYZ(0, 2, 2), Color: types.XYZ(1, 0.5, 0.5), AttenuationRadius: 6})
	generate(t, sc)

	camera := scene.NewCamera(types.XYZ(0, 2, 6), types.XYZ(0, 0, 0))
	for _, fresh := range []bool{false, true} {
		opts := DefaultOptions()
		opts.FreshBounceSamples = fresh
		in := NewIntegrator(sc, opts)

		for y := uint32(0); y < 8; y++ {
			for x := uint32(0); x < 8; x++ {
				a := in.TracePixel(camera, x, y, 5, 8, 8)
				b := in.TracePixel(camera, x, y, 5, 8, 8)
				if a != b {
					t.Fatalf("expected identical radiance for pixel (%d, %d); got %v and %v", x, y, a, b)
				}
				if !a.IsFinite() {
					t.Fatalf("expected finite radiance for pixel (%d, %d); got %v", x, y, a)
				}
			}
		}
	}
}

func TestTraceDepthLimit(t *testing.T) {
	// A closed white box keeps bouncing until the depth limit kicks in.
	sc := scene.NewScene()
	sc.AddModel(scene.NewBoxMesh("room", types.Splat3(-1), types.Splat3(1), &scene.Material{Albedo: types.Splat3(1)}), types.Ident4())
	generate(t, sc)

	opts := DefaultOptions()
	in := NewIntegrator(sc, opts)
	for sample := uint32(0); sample < 16; sample++ {
		payload := NewPayload(0, 0, sample)
		in.Trace(scene.NewRay(types.XYZ(0.1, 0.2, 0.3), types.XYZ(0.3, -0.4, 0.5).Normalize()), &payload, rayEpsilon, rayFar)
		if payload.Depth != opts.MaxDepth {
			t.Fatalf("[sample %d] expected path to reach depth %d; got %d", sample, opts.MaxDepth, payload.Depth)
		}
	}
}

func TestCosineSampleHemisphere(t *testing.T) {
	normals := []types.Vec3{
		types.XYZ(0, 1, 0),
		types.XYZ(1, 0, 0),
		types.XYZ(0, 0, -1),
		types.XYZ(1, 1, 1).Normalize(),
	}

	for _, n := range normals {
		for i := uint32(0); i < 64; i++ {
			dir := cosineSampleHemisphere(n, Rand01(i, 3, 9))
			if math32.Abs(dir.Len()-1) > 1e-4 {
				t.Fatalf("expected unit direction; got %v", dir)
			}
			if dir.Dot(n) < 0 {
				t.Fatalf("expected direction %v to lie in the hemisphere around %v", dir, n)
			}
		}
	}
}
