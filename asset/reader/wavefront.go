package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/asset"
	"github.com/achilleasa/solaris/log"
	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

type wavefrontMaterial struct {
	Name string

	// Diffuse/Albedo color.
	Kd    types.Vec3
	kdSet bool

	// Specular color and exponent.
	Ks types.Vec3
	Ns float32

	// Emissive color.
	Ke types.Vec3

	// Albedo texture.
	KdTex string

	// Textures are resolved relative to the defining material library.
	AssetRelPath *asset.Resource

	// The generated scene material.
	material *scene.Material
}

type wavefrontSceneReader struct {
	logger log.Logger

	desc *Description

	// Parsed meshes in definition order. A wavefront object that switches
	// materials is split into several meshes sharing the object name.
	meshes []*scene.Mesh

	// The mesh receiving faces; nil until the first face after a g/o/usemtl.
	curMesh *scene.Mesh
	curName string

	matNameToIndex map[string]int

	// Currently selected material; nil selects the scene default.
	curMaterial *wavefrontMaterial

	materials []*wavefrontMaterial

	textures textureCache

	// Coordinates shared by all parsed obj files.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2
}

// Create a new wavefront scene reader.
func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:         log.New("wavefront scene reader"),
		desc:           &Description{},
		matNameToIndex: make(map[string]int),
		textures:       make(textureCache),
	}
}

// Read scene definition.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*Description, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	if err := r.parse(sceneRes); err != nil {
		return nil, err
	}

	// Without instance directives every mesh is placed at the origin.
	if len(r.desc.Models) == 0 && len(r.meshes) != 0 {
		r.desc.Models = append(r.desc.Models, Model{
			Meshes:    r.meshes,
			Transform: types.Ident4(),
		})
	}

	if r.desc.Camera != nil {
		r.desc.Camera.Update()
	}

	r.logger.Noticef(
		"parsed scene in %d ms: %d meshes, %d triangles, %d materials",
		time.Since(start).Nanoseconds()/1e6, len(r.meshes), r.desc.NumTriangles(), len(r.materials),
	)
	return r.desc, nil
}

// A parse error annotated with the chain of call/mtllib directives that
// led to the failing file.
type parseError struct {
	file     string
	line     int
	err      error
	includes []string
}

func (e *parseError) Error() string {
	msg := fmt.Sprintf("[%s: %d] error: %s", e.file, e.line, e.err)
	for _, include := range e.includes {
		msg += "\n" + include
	}
	return msg
}

func (e *parseError) Unwrap() error {
	return e.err
}

// Invoke fn for each non-empty, non-comment line of res. Errors returned by
// fn are annotated with the file and line number; errors from included files
// get the including directive appended to their include chain.
func scanDirectives(res *asset.Resource, fn func(tokens []string) error) error {
	scanner := bufio.NewScanner(res)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		err := fn(tokens)
		if err == nil {
			continue
		}

		var pErr *parseError
		if errors.As(err, &pErr) {
			pErr.includes = append(pErr.includes, fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, tokens[0]))
			return pErr
		}
		return &parseError{file: res.Path(), line: lineNum, err: err}
	}

	return scanner.Err()
}

// Parse an obj file. Files pulled in with "call" share the coordinate lists
// of the caller, so positive indices are rebased on the list lengths at the
// time the file is entered.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	base := coordOffsets{
		vertex: len(r.vertexList),
		uv:     len(r.uvList),
		normal: len(r.normalList),
	}

	return scanDirectives(res, func(tokens []string) error {
		return r.parseDirective(res, tokens, base)
	})
}

// Offsets applied to positive face indices.
type coordOffsets struct {
	vertex, uv, normal int
}

func (r *wavefrontSceneReader) parseDirective(res *asset.Resource, tokens []string, base coordOffsets) error {
	switch tokens[0] {
	case "call", "mtllib":
		if len(tokens) != 2 {
			return fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, tokens[0], len(tokens)-1)
		}

		incRes, err := asset.NewResource(tokens[1], res)
		if err != nil {
			return fmt.Errorf(`could not open "%s": %w`, tokens[1], err)
		}
		defer incRes.Close()

		if tokens[0] == "call" {
			return r.parse(incRes)
		}
		return r.parseMaterials(incRes)
	case "usemtl":
		if len(tokens) != 2 {
			return fmt.Errorf(`unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(tokens)-1)
		}

		matIndex, exists := r.matNameToIndex[tokens[1]]
		if !exists {
			return fmt.Errorf(`undefined material with name "%s"`, tokens[1])
		}
		r.curMaterial = r.materials[matIndex]
		r.curMesh = nil
	case "v", "vn":
		v, err := parseVec3(tokens)
		if err != nil {
			return err
		}
		if tokens[0] == "v" {
			r.vertexList = append(r.vertexList, v)
		} else {
			r.normalList = append(r.normalList, v)
		}
	case "vt":
		v, err := parseVec2(tokens)
		if err != nil {
			return err
		}
		r.uvList = append(r.uvList, v)
	case "g", "o":
		if len(tokens) < 2 {
			return fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument for object name; got %d`, tokens[0], len(tokens)-1)
		}
		r.curName = tokens[1]
		r.curMesh = nil
	case "f":
		return r.parseFace(tokens, base)
	case "camera_eye", "camera_look":
		v, err := parseVec3(tokens)
		if err != nil {
			return err
		}
		if tokens[0] == "camera_eye" {
			r.camera().Position = v
		} else {
			r.camera().Target = v
		}
	case "camera_focal", "camera_focus", "camera_aperture":
		v, err := parseFloat32(tokens)
		if err != nil {
			return err
		}
		camera := r.camera()
		switch tokens[0] {
		case "camera_focal":
			camera.FocalLength = v
		case "camera_focus":
			camera.FocusDistance = v
		default:
			camera.Aperture = v
		}
	case "light_point":
		light, err := parsePointLight(tokens)
		if err != nil {
			return err
		}
		r.desc.PointLights = append(r.desc.PointLights, light)
	case "light_dir":
		light, err := parseDirectionalLight(tokens)
		if err != nil {
			return err
		}
		r.desc.DirectionalLights = append(r.desc.DirectionalLights, light)
	case "instance":
		model, err := r.parseMeshInstance(tokens)
		if err != nil {
			return err
		}
		r.desc.Models = append(r.desc.Models, model)
	default:
		r.logger.Debugf("ignoring unsupported directive %q", tokens[0])
	}

	return nil
}

// Get the scene camera, creating a default one on first use.
func (r *wavefrontSceneReader) camera() *scene.Camera {
	if r.desc.Camera == nil {
		r.desc.Camera = scene.NewCamera(types.XYZ(0, 0, 0), types.XYZ(0, 0, -1))
	}
	return r.desc.Camera
}

// Parse an instance directive:
//
//	instance mesh_name tX tY tZ yaw pitch roll sX sY sZ
//
// Rotation angles are given in degrees. All meshes sharing mesh_name are
// placed with the same transform.
func (r *wavefrontSceneReader) parseMeshInstance(tokens []string) (Model, error) {
	if len(tokens) != 11 {
		return Model{}, fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(tokens)-1)
	}

	var meshes []*scene.Mesh
	for _, mesh := range r.meshes {
		if mesh.Name == tokens[1] {
			meshes = append(meshes, mesh)
		}
	}
	if len(meshes) == 0 {
		return Model{}, fmt.Errorf(`unknown mesh with name "%s"`, tokens[1])
	}

	args, err := parseFloats(tokens[2:])
	if err != nil {
		return Model{}, err
	}

	degToRad := float32(math32.Pi / 180.0)
	return Model{
		Meshes: meshes,
		Transform: types.TRS(
			types.XYZ(args[0], args[1], args[2]),
			types.Rotate4(args[3]*degToRad, args[4]*degToRad, args[5]*degToRad),
			types.XYZ(args[6], args[7], args[8]),
		),
	}, nil
}

// Parse a triangle or quad face. Each corner is one of:
//
//	v
//	v/vt
//	v//vn
//	v/vt/vn
//
// and all corners must use the same form. Quads are split along the 0-2
// diagonal. Faces without normals get the geometric normal at each corner.
func (r *wavefrontSceneReader) parseFace(tokens []string, base coordOffsets) error {
	numCorners := len(tokens) - 1
	if numCorners < 3 || numCorners > 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, numCorners)
	}

	var (
		positions  [4]types.Vec3
		normals    [4]types.Vec3
		uvs        [4]types.Vec2
		hasNormals bool
		format     int
	)
	for corner := 0; corner < numCorners; corner++ {
		refs := strings.Split(tokens[corner+1], "/")
		if corner == 0 {
			format = len(refs)
		} else if len(refs) != format {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", format, corner, len(refs))
		}
		if refs[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", corner)
		}

		index, err := selectFaceCoordIndex(refs[0], len(r.vertexList), base.vertex)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %w", corner, err)
		}
		positions[corner] = r.vertexList[index]

		if format > 1 && refs[1] != "" {
			if index, err = selectFaceCoordIndex(refs[1], len(r.uvList), base.uv); err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %w", corner, err)
			}
			uvs[corner] = r.uvList[index]
		}

		if format > 2 && refs[2] != "" {
			if index, err = selectFaceCoordIndex(refs[2], len(r.normalList), base.normal); err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %w", corner, err)
			}
			normals[corner] = r.normalList[index].Normalize()
			hasNormals = true
		}
	}

	if !hasNormals {
		n := positions[1].Sub(positions[0]).Cross(positions[2].Sub(positions[0])).Normalize()
		normals = [4]types.Vec3{n, n, n, n}
	}

	mesh, err := r.activeMesh()
	if err != nil {
		return err
	}

	first := uint32(len(mesh.Positions))
	mesh.Positions = append(mesh.Positions, positions[:numCorners]...)
	mesh.Normals = append(mesh.Normals, normals[:numCorners]...)
	mesh.TexCoords = append(mesh.TexCoords, uvs[:numCorners]...)
	mesh.Indices = append(mesh.Indices, [3]uint32{first, first + 1, first + 2})
	if numCorners == 4 {
		mesh.Indices = append(mesh.Indices, [3]uint32{first, first + 2, first + 3})
	}

	return nil
}

// Get the mesh that receives the next face, creating it if needed.
func (r *wavefrontSceneReader) activeMesh() (*scene.Mesh, error) {
	if r.curMesh != nil {
		return r.curMesh, nil
	}

	name := r.curName
	if name == "" {
		name = "default"
	}

	var material *scene.Material
	if r.curMaterial != nil {
		var err error
		if material, err = r.sceneMaterial(r.curMaterial); err != nil {
			return nil, err
		}
	}

	r.curMesh = &scene.Mesh{Name: name, Material: material}
	r.meshes = append(r.meshes, r.curMesh)
	return r.curMesh, nil
}

// Convert a wavefront material to a scene material on first use.
func (r *wavefrontSceneReader) sceneMaterial(wfMat *wavefrontMaterial) (*scene.Material, error) {
	if wfMat.material != nil {
		return wfMat.material, nil
	}

	mat := &scene.Material{
		Albedo:    wfMat.Kd,
		Emissive:  wfMat.Ke,
		Specular:  wfMat.Ks,
		Shininess: wfMat.Ns,
	}
	if mat.Shininess == 0 {
		mat.Shininess = scene.DefaultMaterial.Shininess
	}

	if wfMat.KdTex != "" {
		tex, err := r.textures.load(wfMat.KdTex, wfMat.AssetRelPath)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", wfMat.Name, err)
		}
		mat.AlbedoTexture = tex
		// A texture without an explicit Kd is used as is
		if !wfMat.kdSet {
			mat.Albedo = types.Splat3(1)
		}
	}

	wfMat.material = mat
	return mat, nil
}

// Parse a material library. Only the Blinn-Phong subset of the mtl format
// is imported; other directives are ignored.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	r.logger.Infof(`parsing material library "%s"`, res.Path())

	var cur *wavefrontMaterial
	return scanDirectives(res, func(tokens []string) error {
		if tokens[0] == "newmtl" {
			if len(tokens) != 2 {
				return fmt.Errorf(`unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(tokens)-1)
			}
			if _, exists := r.matNameToIndex[tokens[1]]; exists {
				return fmt.Errorf(`material "%s" already defined`, tokens[1])
			}

			cur = &wavefrontMaterial{
				Name:         tokens[1],
				Kd:           scene.DefaultMaterial.Albedo,
				AssetRelPath: res,
			}
			r.materials = append(r.materials, cur)
			r.matNameToIndex[cur.Name] = len(r.materials) - 1
			return nil
		}

		if cur == nil {
			return fmt.Errorf(`got "%s" without a "newmtl"`, tokens[0])
		}

		var err error
		switch tokens[0] {
		case "include":
			if len(tokens) != 2 {
				return fmt.Errorf(`unsupported syntax for "include"; expected 1 argument; got %d`, len(tokens)-1)
			}
			baseIndex, exists := r.matNameToIndex[tokens[1]]
			if !exists {
				return fmt.Errorf(`could not include unknown material "%s"`, tokens[1])
			}

			name := cur.Name
			*cur = *r.materials[baseIndex]
			cur.Name = name
			cur.material = nil
		case "Kd":
			cur.Kd, err = parseVec3(tokens)
			cur.kdSet = true
		case "Ks":
			cur.Ks, err = parseVec3(tokens)
		case "Ke":
			cur.Ke, err = parseVec3(tokens)
		case "Ns":
			cur.Ns, err = parseFloat32(tokens)
		case "map_Kd":
			if len(tokens) < 2 {
				return fmt.Errorf(`unsupported syntax for "map_Kd"; expected 1 argument; got %d`, len(tokens)-1)
			}
			// Texture options precede the file name.
			cur.KdTex = tokens[len(tokens)-1]
		default:
			r.logger.Debugf("ignoring unsupported material directive %q", tokens[0])
		}
		return err
	})
}

// Parse a point light definition:
// light_point pX pY pZ r g b radius
func parsePointLight(lineTokens []string) (scene.PointLight, error) {
	if len(lineTokens) != 8 {
		return scene.PointLight{}, fmt.Errorf(`unsupported syntax for "light_point"; expected 7 arguments: pX pY pZ r g b radius; got %d`, len(lineTokens)-1)
	}

	args, err := parseFloats(lineTokens[1:])
	if err != nil {
		return scene.PointLight{}, err
	}

	return scene.PointLight{
		Position:          types.XYZ(args[0], args[1], args[2]),
		Color:             types.XYZ(args[3], args[4], args[5]),
		AttenuationRadius: args[6],
	}, nil
}

// Parse a directional light definition:
// light_dir dX dY dZ r g b
func parseDirectionalLight(lineTokens []string) (scene.DirectionalLight, error) {
	if len(lineTokens) != 7 {
		return scene.DirectionalLight{}, fmt.Errorf(`unsupported syntax for "light_dir"; expected 6 arguments: dX dY dZ r g b; got %d`, len(lineTokens)-1)
	}

	args, err := parseFloats(lineTokens[1:])
	if err != nil {
		return scene.DirectionalLight{}, err
	}

	return scene.DirectionalLight{
		Direction: types.XYZ(args[0], args[1], args[2]),
		Color:     types.XYZ(args[3], args[4], args[5]),
	}, nil
}

// Resolve a 1-based face coordinate reference into an offset in a coordinate
// list of length listLen. Negative references count back from the end of
// the list; positive ones are rebased on base.
func selectFaceCoordIndex(ref string, listLen int, base int) (int, error) {
	index, err := strconv.ParseInt(ref, 10, 32)
	if err != nil {
		return -1, err
	}

	offset := base + int(index) - 1
	if index < 0 {
		offset = listLen + int(index)
	}
	if index == 0 || offset < 0 || offset >= listLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return offset, nil
}

// Parse a list of float arguments.
func parseFloats(tokens []string) ([]float32, error) {
	out := make([]float32, len(tokens))
	for index, token := range tokens {
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return nil, err
		}
		out[index] = float32(v)
	}
	return out, nil
}

// Parse the first n float arguments of a directive.
func parseArgs(tokens []string, n int) ([]float32, error) {
	if len(tokens)-1 < n {
		return nil, fmt.Errorf(`unsupported syntax for "%s"; expected %d argument(s); got %d`, tokens[0], n, len(tokens)-1)
	}
	return parseFloats(tokens[1 : n+1])
}

func parseFloat32(tokens []string) (float32, error) {
	args, err := parseArgs(tokens, 1)
	if err != nil {
		return 0, err
	}
	return args[0], nil
}

func parseVec3(tokens []string) (types.Vec3, error) {
	args, err := parseArgs(tokens, 3)
	if err != nil {
		return types.Vec3{}, err
	}
	return types.XYZ(args[0], args[1], args[2]), nil
}

func parseVec2(tokens []string) (types.Vec2, error) {
	args, err := parseArgs(tokens, 2)
	if err != nil {
		return types.Vec2{}, err
	}
	return types.XY(args[0], args[1]), nil
}
