package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/achilleasa/solaris/log"
	"github.com/achilleasa/solaris/types"
)

// Leaf boxes are grown by this amount on every axis so that planar meshes
// produce boxes with a non-zero extent that the slab test can hit.
const leafPadding float32 = 1e-4

// A renderable scene. Models and lights are appended in insertion order and
// become visible to queries after Generate flattens them into the geometry
// pools and builds the BVH. After Generate the scene is read-only and safe
// for concurrent queries.
type Scene struct {
	logger log.Logger

	meshes []*Mesh

	PointLights       []PointLight
	DirectionalLights []DirectionalLight

	Pools GeometryPools
	Refs  []ModelReference
	BVH   *BVH

	generated bool
}

// Create a new empty scene.
func NewScene() *Scene {
	return &Scene{
		logger: log.New("scene"),
		BVH:    &BVH{Root: -1},
	}
}

// Add a mesh to the scene. The mesh is copied and transformed into world
// space so the caller may reuse it.
func (s *Scene) AddModel(mesh *Mesh, transform types.Mat4) {
	s.meshes = append(s.meshes, mesh.Transformed(transform))
	s.generated = false
}

// Add a set of meshes sharing the same world transform.
func (s *Scene) AddModels(meshes []*Mesh, transform types.Mat4) {
	for _, mesh := range meshes {
		s.AddModel(mesh, transform)
	}
}

// Add a point light.
func (s *Scene) AddPointLight(light PointLight) {
	s.PointLights = append(s.PointLights, light)
}

// Add a directional light. Its direction is normalized.
func (s *Scene) AddDirectionalLight(light DirectionalLight) {
	light.Direction = light.Direction.Normalize()
	s.DirectionalLights = append(s.DirectionalLights, light)
}

// Get the number of models added to the scene.
func (s *Scene) NumModels() int {
	return len(s.meshes)
}

// Returns true if Generate has been called since the last model was added.
func (s *Scene) Generated() bool {
	return s.generated
}

// Flatten all models into the geometry pools and build the BVH. Any
// previously built hierarchy is discarded. Meshes without triangles are
// skipped. A scene without geometry is valid; all queries against it miss.
func (s *Scene) Generate() error {
	start := time.Now()

	s.Pools = GeometryPools{}
	s.Refs = s.Refs[:0]
	s.BVH = &BVH{Root: -1}
	s.generated = false

	boxes := make([]AABB, 0, len(s.meshes))
	for _, mesh := range s.meshes {
		// Empty meshes get no leaf.
		if len(mesh.Indices) == 0 {
			s.logger.Warningf("skipping mesh %q: no triangles", mesh.Name)
			continue
		}

		ref, err := s.Pools.appendMesh(mesh)
		if err != nil {
			return err
		}

		bbox := s.Pools.bbox(ref)
		bbox.Min = bbox.Min.Sub(types.Splat3(leafPadding))
		bbox.Max = bbox.Max.Add(types.Splat3(leafPadding))

		s.Refs = append(s.Refs, ref)
		boxes = append(boxes, bbox)
	}

	if len(s.Refs) != 0 {
		s.BVH = BuildBVH(boxes, s.Refs)
	} else {
		s.logger.Notice("scene contains no geometry")
	}

	s.generated = true
	s.logger.Infof(
		"generated scene in %d ms: %d models, %d triangles, %d point lights, %d directional lights",
		time.Since(start).Nanoseconds()/1e6,
		len(s.Refs), len(s.Pools.Indices), len(s.PointLights), len(s.DirectionalLights),
	)
	return nil
}

// Get the world-space bounds of all generated geometry.
func (s *Scene) BBox() AABB {
	if s.BVH == nil || s.BVH.Root < 0 {
		return EmptyAABB()
	}
	return s.BVH.Nodes[s.BVH.Root].BBox
}

// Generate a table with the generated scene contents and memory usage.
func (s *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", " ", fmtSize(s.Pools.Positions, s.Pools.Normals, s.Pools.TexCoords, s.Pools.Indices, s.Pools.Edges, s.Pools.FaceNormals)})
	table.Append([]string{"", "Vertices", fmt.Sprint(len(s.Pools.Positions)), fmtSize(s.Pools.Positions)})
	table.Append([]string{"", "Normals", fmt.Sprint(len(s.Pools.Normals)), fmtSize(s.Pools.Normals)})
	table.Append([]string{"", "UVs", fmt.Sprint(len(s.Pools.TexCoords)), fmtSize(s.Pools.TexCoords)})
	table.Append([]string{"", "Triangles", fmt.Sprint(len(s.Pools.Indices)), fmtSize(s.Pools.Indices)})
	table.Append([]string{"", "Edges", fmt.Sprint(len(s.Pools.Edges)), fmtSize(s.Pools.Edges)})
	table.Append([]string{"", "Face normals", fmt.Sprint(len(s.Pools.FaceNormals)), fmtSize(s.Pools.FaceNormals)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"BVH", "---", " ", fmtSize(s.BVH.Nodes)})
	table.Append([]string{"", "Nodes", fmt.Sprint(len(s.BVH.Nodes)), " "})
	table.Append([]string{"", "Leaves", fmt.Sprint(s.BVH.Leaves()), " "})
	table.Append([]string{"", "Depth", fmt.Sprint(s.BVH.Depth()), " "})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Lights", "---", " ", fmtSize(s.PointLights, s.DirectionalLights)})
	table.Append([]string{"", "Point", fmt.Sprint(len(s.PointLights)), fmtSize(s.PointLights)})
	table.Append([]string{"", "Directional", fmt.Sprint(len(s.DirectionalLights)), fmtSize(s.DirectionalLights)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Materials", " ", fmt.Sprint(len(s.Pools.Materials)), fmtSize(s.Pools.Materials)})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(s.Pools.Positions, s.Pools.Normals, s.Pools.TexCoords, s.Pools.Indices, s.Pools.Edges, s.Pools.FaceNormals, s.BVH.Nodes, s.PointLights, s.DirectionalLights, s.Pools.Materials), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += float32(int(t.Elem().Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
