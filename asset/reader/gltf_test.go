package reader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/solaris/types"
)

// Build a gltf document with a single quad primitive stored in an embedded
// buffer.
func buildTestGltf(t *testing.T, indices [6]uint16, withScenes bool) string {
	t.Helper()

	var buf bytes.Buffer
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	uvs := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, data := range []interface{}{positions, indices, uvs} {
		if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
			t.Fatal(err)
		}
	}
	if buf.Len() != 92 {
		t.Fatalf("expected 92 byte buffer; got %d", buf.Len())
	}

	scenes := ""
	if withScenes {
		scenes = `"scene": 0, "scenes": [{"nodes": [0, 2]}],`
	}

	return fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  %s
  "nodes": [
    {"translation": [1, 2, 3], "children": [1]},
    {"mesh": 0, "translation": [0, 0, -1]},
    {"mesh": 0, "scale": [2, 2, 2]}
  ],
  "meshes": [
    {"name": "quad", "primitives": [{"attributes": {"POSITION": 0, "TEXCOORD_0": 2}, "indices": 1, "material": 0}]}
  ],
  "materials": [
    {"pbrMetallicRoughness": {"baseColorFactor": [0.25, 0.5, 0.75, 1]}, "emissiveFactor": [1, 0, 0]}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 4, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 6, "type": "SCALAR"},
    {"bufferView": 2, "componentType": 5126, "count": 4, "type": "VEC2"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 48},
    {"buffer": 0, "byteOffset": 48, "byteLength": 12},
    {"buffer": 0, "byteOffset": 60, "byteLength": 32}
  ],
  "buffers": [
    {"byteLength": 92, "uri": "data:application/octet-stream;base64,%s"}
  ]
}`, scenes, base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func TestGltfReader(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{
		"scene.gltf": buildTestGltf(t, [6]uint16{0, 1, 2, 0, 2, 3}, true),
	})

	desc, err := ReadScene(filepath.Join(dir, "scene.gltf"))
	if err != nil {
		t.Fatal(err)
	}

	if len(desc.Models) != 2 {
		t.Fatalf("expected 2 models; got %d", len(desc.Models))
	}
	if desc.Camera != nil {
		t.Fatalf("expected no camera; got %s", desc.Camera)
	}

	mesh := desc.Models[0].Meshes[0]
	if mesh.Name != "quad" || len(mesh.Positions) != 4 {
		t.Fatalf("expected quad mesh with 4 vertices; got %q with %d", mesh.Name, len(mesh.Positions))
	}
	expIndices := [][3]uint32{{0, 1, 2}, {0, 2, 3}}
	if len(mesh.Indices) != 2 || mesh.Indices[0] != expIndices[0] || mesh.Indices[1] != expIndices[1] {
		t.Fatalf("expected indices %v; got %v", expIndices, mesh.Indices)
	}
	if mesh.TexCoords[0] != types.XY(0, 1) || mesh.TexCoords[2] != types.XY(1, 0) {
		t.Fatalf("expected flipped v coordinates; got %v", mesh.TexCoords)
	}
	if mesh.Normals != nil {
		t.Fatalf("expected no vertex normals; got %v", mesh.Normals)
	}

	mat := mesh.Material
	if mat.Albedo != types.XYZ(0.25, 0.5, 0.75) || mat.Emissive != types.XYZ(1, 0, 0) {
		t.Fatalf("unexpected material %+v", mat)
	}

	got := desc.Models[0].Transform.MulPoint(types.XYZ(0, 0, 0))
	if got.Sub(types.XYZ(1, 2, 2)).Len() > 1e-5 {
		t.Fatalf("expected node hierarchy to map origin to (1, 2, 2); got %v", got)
	}
	got = desc.Models[1].Transform.MulPoint(types.XYZ(1, 1, 0))
	if got.Sub(types.XYZ(2, 2, 0)).Len() > 1e-5 {
		t.Fatalf("expected scaled instance to map (1, 1, 0) to (2, 2, 0); got %v", got)
	}

	if desc.Models[1].Meshes[0] != mesh {
		t.Fatal("expected instances of the same gltf mesh to share scene meshes")
	}
}

func TestGltfReaderWithoutScenes(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{
		"scene.gltf": buildTestGltf(t, [6]uint16{0, 1, 2, 0, 2, 3}, false),
	})

	desc, err := ReadScene(filepath.Join(dir, "scene.gltf"))
	if err != nil {
		t.Fatal(err)
	}

	// Nodes 0 and 2 are roots
	if len(desc.Models) != 2 {
		t.Fatalf("expected 2 models; got %d", len(desc.Models))
	}
	if desc.NumTriangles() != 4 {
		t.Fatalf("expected 4 triangles; got %d", desc.NumTriangles())
	}
}

func TestGltfReaderIndexOutOfBounds(t *testing.T) {
	dir := writeTestFiles(t, map[string]string{
		"scene.gltf": buildTestGltf(t, [6]uint16{0, 1, 2, 0, 2, 9}, true),
	})

	_, err := ReadScene(filepath.Join(dir, "scene.gltf"))
	if err == nil || !strings.Contains(err.Error(), "index 9 out of bounds") {
		t.Fatalf("expected index out of bounds error; got %v", err)
	}
}
