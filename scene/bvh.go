package scene

import (
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/solaris/log"
)

// BVH nodes are stored in a contiguous arena. Internal nodes reference their
// two children by arena index; leaves have Left == Right == -1 and hold a
// single model reference. Every node is reachable from the root exactly once.
type BvhNode struct {
	BBox  AABB
	Left  int32
	Right int32
	Model ModelReference
}

// Returns true if this node is a leaf.
func (n *BvhNode) IsLeaf() bool {
	return n.Left < 0
}

// A bounding volume hierarchy over scene models.
type BVH struct {
	Nodes []BvhNode

	// Index of the root node or -1 for an empty hierarchy.
	Root int32
}

type bvhStats struct {
	nodes    int
	leafs    int
	maxDepth int
}

// Build a BVH with one leaf per model by greedy bottom-up agglomeration.
//
// Leaves are seeded in input order. While more than one node is pending the
// builder scans all pending pairs and merges the pair whose combined box has
// the smallest surface area; ties keep the first pair encountered in
// ascending (i, j) order. The merged node is appended to the pending list
// after removing both children (higher index first).
//
// The builder runs in O(n^3) in the number of models and expects at least
// one model; callers must guard against empty input.
func BuildBVH(boxes []AABB, refs []ModelReference) *BVH {
	logger := log.New("bvh builder")
	start := time.Now()

	bvh := &BVH{
		Nodes: make([]BvhNode, 0, 2*len(boxes)),
		Root:  -1,
	}

	pending := make([]int32, 0, len(boxes))
	for index, bbox := range boxes {
		bvh.Nodes = append(bvh.Nodes, BvhNode{
			BBox:  bbox,
			Left:  -1,
			Right: -1,
			Model: refs[index],
		})
		pending = append(pending, int32(index))
	}

	for len(pending) > 1 {
		lhs, rhs := -1, -1
		var minSurface float32 = math32.MaxFloat32

		// Combine is symmetric so scanning i < j visits the same candidates
		// in the same first-encountered order as scanning all ordered pairs.
		for i := 0; i < len(pending); i++ {
			for j := i + 1; j < len(pending); j++ {
				surface := Combine(bvh.Nodes[pending[i]].BBox, bvh.Nodes[pending[j]].BBox).SurfaceArea()
				if surface < minSurface || lhs == -1 {
					lhs, rhs = i, j
					minSurface = surface
				}
			}
		}

		left, right := pending[lhs], pending[rhs]
		bvh.Nodes = append(bvh.Nodes, BvhNode{
			BBox:  Combine(bvh.Nodes[left].BBox, bvh.Nodes[right].BBox),
			Left:  left,
			Right: right,
		})

		pending = append(pending[:rhs], pending[rhs+1:]...)
		pending = append(pending[:lhs], pending[lhs+1:]...)
		pending = append(pending, int32(len(bvh.Nodes)-1))
	}

	if len(pending) == 1 {
		bvh.Root = pending[0]
	}

	stats := bvh.stats()
	logger.Debugf(
		"BVH tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Nanoseconds()/1e6,
		stats.maxDepth, stats.nodes, stats.leafs,
	)
	return bvh
}

// Count the leaves reachable from the root.
func (bvh *BVH) Leaves() int {
	return bvh.stats().leafs
}

// Get the depth of the tree (a single leaf has depth 0).
func (bvh *BVH) Depth() int {
	return bvh.stats().maxDepth
}

func (bvh *BVH) stats() bvhStats {
	var stats bvhStats
	if bvh == nil || bvh.Root < 0 {
		return stats
	}

	var visit func(index int32, depth int)
	visit = func(index int32, depth int) {
		stats.nodes++
		if depth > stats.maxDepth {
			stats.maxDepth = depth
		}

		node := &bvh.Nodes[index]
		if node.IsLeaf() {
			stats.leafs++
			return
		}
		visit(node.Left, depth+1)
		visit(node.Right, depth+1)
	}
	visit(bvh.Root, 0)

	return stats
}
