package reader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/qmuntal/gltf"

	"github.com/achilleasa/solaris/asset"
	"github.com/achilleasa/solaris/log"
	"github.com/achilleasa/solaris/scene"
	"github.com/achilleasa/solaris/types"
)

type gltfSceneReader struct {
	logger log.Logger

	doc *gltf.Document
	res *asset.Resource

	desc *Description

	// Converted meshes indexed by gltf mesh; each primitive becomes one
	// scene mesh.
	meshes map[int][]*scene.Mesh

	// Converted materials indexed by gltf material.
	materials map[int]*scene.Material

	textures textureCache
}

// Create a new gltf/glb scene reader.
func newGltfReader() *gltfSceneReader {
	return &gltfSceneReader{
		logger:    log.New("gltf scene reader"),
		desc:      &Description{},
		meshes:    make(map[int][]*scene.Mesh),
		materials: make(map[int]*scene.Material),
		textures:  make(textureCache),
	}
}

// Read scene definition.
func (r *gltfSceneReader) Read(sceneRes *asset.Resource) (*Description, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	var err error
	r.res = sceneRes
	if sceneRes.IsRemote() {
		// External buffers cannot be resolved for remote documents.
		r.doc = new(gltf.Document)
		err = gltf.NewDecoder(sceneRes).Decode(r.doc)
	} else {
		r.doc, err = gltf.Open(sceneRes.Path())
	}
	if err != nil {
		return nil, fmt.Errorf("could not decode gltf document %q: %w", sceneRes.Path(), err)
	}

	roots := r.rootNodes()
	if len(roots) == 0 {
		// Documents without a node hierarchy get one model per mesh.
		for meshIndex := range r.doc.Meshes {
			meshes, err := r.mesh(meshIndex)
			if err != nil {
				return nil, err
			}
			if len(meshes) != 0 {
				r.desc.Models = append(r.desc.Models, Model{Meshes: meshes, Transform: types.Ident4()})
			}
		}
	}

	for _, nodeIndex := range roots {
		if err = r.visitNode(nodeIndex, types.Ident4(), 0); err != nil {
			return nil, err
		}
	}

	r.logger.Noticef(
		"parsed scene in %d ms: %d models, %d triangles, %d materials",
		time.Since(start).Nanoseconds()/1e6, len(r.desc.Models), r.desc.NumTriangles(), len(r.materials),
	)
	return r.desc, nil
}

// Select the root nodes of the default scene. If the document does not
// define scenes, nodes that are not referenced as children are used.
func (r *gltfSceneReader) rootNodes() []int {
	if len(r.doc.Scenes) != 0 {
		sceneIndex := 0
		if r.doc.Scene != nil && *r.doc.Scene < len(r.doc.Scenes) {
			sceneIndex = *r.doc.Scene
		}
		return r.doc.Scenes[sceneIndex].Nodes
	}

	isChild := make([]bool, len(r.doc.Nodes))
	for _, node := range r.doc.Nodes {
		for _, child := range node.Children {
			if child < len(isChild) {
				isChild[child] = true
			}
		}
	}

	var roots []int
	for index, child := range isChild {
		if !child {
			roots = append(roots, index)
		}
	}
	return roots
}

// Walk the node hierarchy accumulating transforms.
func (r *gltfSceneReader) visitNode(nodeIndex int, parent types.Mat4, depth int) error {
	if nodeIndex < 0 || nodeIndex >= len(r.doc.Nodes) {
		return fmt.Errorf("gltf: node index %d out of bounds", nodeIndex)
	}
	if depth > len(r.doc.Nodes) {
		return fmt.Errorf("gltf: cycle detected in node hierarchy")
	}

	node := r.doc.Nodes[nodeIndex]
	world := parent.Mul4(nodeTransform(node))

	if node.Mesh != nil {
		meshes, err := r.mesh(*node.Mesh)
		if err != nil {
			return err
		}
		if len(meshes) != 0 {
			r.desc.Models = append(r.desc.Models, Model{Meshes: meshes, Transform: world})
		}
	}

	for _, child := range node.Children {
		if err := r.visitNode(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Get the local node transform from either its matrix or its TRS
// components.
func nodeTransform(node *gltf.Node) types.Mat4 {
	if m := types.Mat4FromFloat64(node.MatrixOrDefault()); !m.IsIdent() {
		return m
	}

	t := node.TranslationOrDefault()
	q := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	return types.TRS(
		types.XYZ(float32(t[0]), float32(t[1]), float32(t[2])),
		types.QuatRotate4([4]float32{float32(q[0]), float32(q[1]), float32(q[2]), float32(q[3])}),
		types.XYZ(float32(s[0]), float32(s[1]), float32(s[2])),
	)
}

// Convert a gltf mesh into scene meshes, one per triangle primitive.
func (r *gltfSceneReader) mesh(meshIndex int) ([]*scene.Mesh, error) {
	if meshes, exists := r.meshes[meshIndex]; exists {
		return meshes, nil
	}
	if meshIndex < 0 || meshIndex >= len(r.doc.Meshes) {
		return nil, fmt.Errorf("gltf: mesh index %d out of bounds", meshIndex)
	}

	gm := r.doc.Meshes[meshIndex]
	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}

	var meshes []*scene.Mesh
	for primIndex, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			r.logger.Warningf("mesh %q: skipping primitive %d with unsupported mode %v", name, primIndex, prim.Mode)
			continue
		}

		mesh, err := r.primitive(name, prim)
		if err != nil {
			return nil, fmt.Errorf("gltf: mesh %q primitive %d: %w", name, primIndex, err)
		}
		if mesh != nil {
			meshes = append(meshes, mesh)
		}
	}

	r.meshes[meshIndex] = meshes
	return meshes, nil
}

func (r *gltfSceneReader) primitive(name string, prim *gltf.Primitive) (*scene.Mesh, error) {
	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}

	positions, err := r.readVec3(posIndex)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	mesh := &scene.Mesh{Name: name, Positions: positions}

	if normIndex, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := r.readVec3(normIndex)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
		if len(normals) == len(positions) {
			mesh.Normals = normals
		}
	}

	if uvIndex, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := r.readVec2(uvIndex)
		if err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
		if len(uvs) == len(positions) {
			// Texture space origin is at the top-left corner.
			for i := range uvs {
				uvs[i][1] = 1 - uvs[i][1]
			}
			mesh.TexCoords = uvs
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = r.readIndices(*prim.Indices); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]uint32{indices[i], indices[i+1], indices[i+2]}
		for _, index := range tri {
			if int(index) >= len(positions) {
				return nil, fmt.Errorf("index %d out of bounds", index)
			}
		}
		mesh.Indices = append(mesh.Indices, tri)
	}

	if prim.Material != nil {
		if mesh.Material, err = r.material(*prim.Material); err != nil {
			return nil, err
		}
	}

	return mesh, nil
}

// Convert a gltf PBR material into a scene material. Only the base color,
// its texture and the emissive factor are used.
func (r *gltfSceneReader) material(matIndex int) (*scene.Material, error) {
	if mat, exists := r.materials[matIndex]; exists {
		return mat, nil
	}
	if matIndex < 0 || matIndex >= len(r.doc.Materials) {
		return nil, fmt.Errorf("material index %d out of bounds", matIndex)
	}

	gm := r.doc.Materials[matIndex]
	mat := &scene.Material{
		Albedo:    scene.DefaultMaterial.Albedo,
		Shininess: scene.DefaultMaterial.Shininess,
		Emissive:  types.XYZ(float32(gm.EmissiveFactor[0]), float32(gm.EmissiveFactor[1]), float32(gm.EmissiveFactor[2])),
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		mat.Albedo = types.XYZ(float32(c[0]), float32(c[1]), float32(c[2]))

		if pbr.BaseColorTexture != nil {
			tex, err := r.texture(pbr.BaseColorTexture.Index)
			if err != nil {
				return nil, fmt.Errorf("material %q: %w", gm.Name, err)
			}
			mat.AlbedoTexture = tex
		}
	}

	r.materials[matIndex] = mat
	return mat, nil
}

// Load the image backing a gltf texture.
func (r *gltfSceneReader) texture(texIndex int) (*scene.Texture, error) {
	if texIndex < 0 || texIndex >= len(r.doc.Textures) || r.doc.Textures[texIndex].Source == nil {
		return nil, fmt.Errorf("texture index %d has no image source", texIndex)
	}

	imgIndex := *r.doc.Textures[texIndex].Source
	if imgIndex < 0 || imgIndex >= len(r.doc.Images) {
		return nil, fmt.Errorf("image index %d out of bounds", imgIndex)
	}

	img := r.doc.Images[imgIndex]
	switch {
	case img.BufferView != nil:
		data, err := r.bufferViewData(*img.BufferView)
		if err != nil {
			return nil, err
		}
		return decodeTexture(fmt.Sprintf("image_%d", imgIndex), bytes.NewReader(data))
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, err
		}
		return decodeTexture(fmt.Sprintf("image_%d", imgIndex), bytes.NewReader(data))
	case img.URI != "":
		return r.textures.load(img.URI, r.res)
	}

	return nil, fmt.Errorf("image %d has no data", imgIndex)
}

func (r *gltfSceneReader) bufferViewData(viewIndex int) ([]byte, error) {
	if viewIndex < 0 || viewIndex >= len(r.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view index %d out of bounds", viewIndex)
	}

	view := r.doc.BufferViews[viewIndex]
	if view.Buffer < 0 || view.Buffer >= len(r.doc.Buffers) {
		return nil, fmt.Errorf("buffer index %d out of bounds", view.Buffer)
	}

	data := r.doc.Buffers[view.Buffer].Data
	if data == nil {
		return nil, fmt.Errorf("buffer %d has no data", view.Buffer)
	}
	if view.ByteOffset+view.ByteLength > len(data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer length", viewIndex)
	}
	return data[view.ByteOffset : view.ByteOffset+view.ByteLength], nil
}

// Get the bytes, element count and stride for an accessor.
func (r *gltfSceneReader) accessorData(accIndex int, elemSize int) ([]byte, int, int, error) {
	if accIndex < 0 || accIndex >= len(r.doc.Accessors) {
		return nil, 0, 0, fmt.Errorf("accessor index %d out of bounds", accIndex)
	}

	accessor := r.doc.Accessors[accIndex]
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor %d has no buffer view", accIndex)
	}

	data, err := r.bufferViewData(*accessor.BufferView)
	if err != nil {
		return nil, 0, 0, err
	}

	stride := r.doc.BufferViews[*accessor.BufferView].ByteStride
	if stride == 0 {
		stride = elemSize
	}

	if accessor.Count > 0 && accessor.ByteOffset+(accessor.Count-1)*stride+elemSize > len(data) {
		return nil, 0, 0, fmt.Errorf("accessor %d exceeds buffer view length", accIndex)
	}
	return data[accessor.ByteOffset:], accessor.Count, stride, nil
}

func (r *gltfSceneReader) readFloats(accIndex int, accType gltf.AccessorType, components int) ([]float32, error) {
	accessor := r.doc.Accessors[accIndex]
	if accessor.Type != accType || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported accessor format %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, count, stride, err := r.accessorData(accIndex, 4*components)
	if err != nil {
		return nil, err
	}

	out := make([]float32, count*components)
	for i := 0; i < count; i++ {
		for j := 0; j < components; j++ {
			out[i*components+j] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*stride+j*4:]))
		}
	}
	return out, nil
}

func (r *gltfSceneReader) readVec3(accIndex int) ([]types.Vec3, error) {
	if accIndex < 0 || accIndex >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of bounds", accIndex)
	}

	floats, err := r.readFloats(accIndex, gltf.AccessorVec3, 3)
	if err != nil {
		return nil, err
	}

	out := make([]types.Vec3, len(floats)/3)
	for i := range out {
		out[i] = types.XYZ(floats[3*i], floats[3*i+1], floats[3*i+2])
	}
	return out, nil
}

func (r *gltfSceneReader) readVec2(accIndex int) ([]types.Vec2, error) {
	if accIndex < 0 || accIndex >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of bounds", accIndex)
	}

	floats, err := r.readFloats(accIndex, gltf.AccessorVec2, 2)
	if err != nil {
		return nil, err
	}

	out := make([]types.Vec2, len(floats)/2)
	for i := range out {
		out[i] = types.XY(floats[2*i], floats[2*i+1])
	}
	return out, nil
}

func (r *gltfSceneReader) readIndices(accIndex int) ([]uint32, error) {
	if accIndex < 0 || accIndex >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of bounds", accIndex)
	}

	accessor := r.doc.Accessors[accIndex]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR index accessor; got %v", accessor.Type)
	}

	var elemSize int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		elemSize = 1
	case gltf.ComponentUshort:
		elemSize = 2
	case gltf.ComponentUint:
		elemSize = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", accessor.ComponentType)
	}

	data, count, stride, err := r.accessorData(accIndex, elemSize)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, count)
	for i := range out {
		offset := i * stride
		switch elemSize {
		case 1:
			out[i] = uint32(data[offset])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[offset:]))
		case 4:
			out[i] = binary.LittleEndian.Uint32(data[offset:])
		}
	}
	return out, nil
}
