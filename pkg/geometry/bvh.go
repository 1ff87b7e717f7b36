package geometry

import "github.com/df07/go-audio-propagation/pkg/core"

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Triangles   []*Triangle // Non-nil only for leaf nodes
}

// BVH is a read-only bounding volume hierarchy over world triangles.
// Once built it is safe for concurrent queries.
type BVH struct {
	Root  *BVHNode
	count int
}

// Leaf threshold: if we have this many or fewer triangles, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of triangles.
// The input slice is copied and never modified.
func NewBVH(triangles []*Triangle) *BVH {
	if len(triangles) == 0 {
		return &BVH{}
	}
	work := make([]*Triangle, len(triangles))
	copy(work, triangles)
	return &BVH{Root: buildBVH(work), count: len(triangles)}
}

// buildBVH recursively splits at the midpoint of the longest axis of the
// node bounds, falling back to a leaf when a split leaves one side empty.
func buildBVH(triangles []*Triangle) *BVHNode {
	box := triangles[0].BoundingBox()
	for _, tri := range triangles[1:] {
		box = box.Union(tri.BoundingBox())
	}

	if len(triangles) <= leafThreshold {
		return &BVHNode{BoundingBox: box, Triangles: triangles}
	}

	axis := box.LongestAxis()
	lo, hi := box.Min.Axis(axis), box.Max.Axis(axis)
	if hi <= lo {
		return &BVHNode{BoundingBox: box, Triangles: triangles}
	}
	split := (lo + hi) * 0.5

	left, right := partition(triangles, axis, split)
	if len(left) == 0 || len(right) == 0 {
		return &BVHNode{BoundingBox: box, Triangles: triangles}
	}

	return &BVHNode{
		BoundingBox: box,
		Left:        buildBVH(left),
		Right:       buildBVH(right),
	}
}

// partition splits triangles by bounding box center along axis
func partition(triangles []*Triangle, axis int, split float64) ([]*Triangle, []*Triangle) {
	var left, right []*Triangle
	for _, tri := range triangles {
		if tri.BoundingBox().Center().Axis(axis) < split {
			left = append(left, tri)
		} else {
			right = append(right, tri)
		}
	}
	return left, right
}

// FirstHit finds the closest intersection within [tMin, tMax]
func (bvh *BVH) FirstHit(ray core.Ray, tMin, tMax float64, rec *HitRecord) bool {
	if bvh.Root == nil {
		return false
	}
	return bvh.firstHitNode(bvh.Root, ray, tMin, tMax, rec)
}

func (bvh *BVH) firstHitNode(node *BVHNode, ray core.Ray, tMin, tMax float64, rec *HitRecord) bool {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return false
	}

	hitAnything := false
	closestSoFar := tMax

	if node.Triangles != nil {
		for _, tri := range node.Triangles {
			if tri.Hit(ray, tMin, closestSoFar, rec) {
				hitAnything = true
				closestSoFar = rec.T
			}
		}
		return hitAnything
	}

	if bvh.firstHitNode(node.Left, ray, tMin, closestSoFar, rec) {
		hitAnything = true
		closestSoFar = rec.T
	}
	if bvh.firstHitNode(node.Right, ray, tMin, closestSoFar, rec) {
		hitAnything = true
	}
	return hitAnything
}

// AnyHit reports whether any triangle intersects the ray within [tMin, tMax].
// It stops at the first intersection found.
func (bvh *BVH) AnyHit(ray core.Ray, tMin, tMax float64) bool {
	if bvh.Root == nil {
		return false
	}
	return bvh.anyHitNode(bvh.Root, ray, tMin, tMax)
}

func (bvh *BVH) anyHitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) bool {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return false
	}
	if node.Triangles != nil {
		for _, tri := range node.Triangles {
			if tri.Hit(ray, tMin, tMax, nil) {
				return true
			}
		}
		return false
	}
	return bvh.anyHitNode(node.Left, ray, tMin, tMax) || bvh.anyHitNode(node.Right, ray, tMin, tMax)
}

// BoundingBox returns the bounds of everything in the hierarchy
func (bvh *BVH) BoundingBox() core.AABB {
	if bvh.Root == nil {
		return core.AABB{}
	}
	return bvh.Root.BoundingBox
}

// Len returns the number of triangles in the hierarchy
func (bvh *BVH) Len() int {
	return bvh.count
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes     int
	leafNodes      int
	maxDepth       int
	totalTriangles int
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	var stats bvhStats
	if bvh.Root != nil {
		collectStats(bvh.Root, 0, &stats)
	}
	return stats
}

func collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	stats.maxDepth = max(stats.maxDepth, depth)
	if node.Triangles != nil {
		stats.leafNodes++
		stats.totalTriangles += len(node.Triangles)
		return
	}
	collectStats(node.Left, depth+1, stats)
	collectStats(node.Right, depth+1, stats)
}
