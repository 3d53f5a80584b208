package mesh

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// CorrespondenceSet maps each source point (by position in the slice) to
// its nearest target point and the squared distance between them. It is
// recomputed every ICP iteration and never persisted across iterations.
type CorrespondenceSet struct {
	TargetIdx []int
	SqDist    []float64
}

// Len returns the number of correspondences.
func (c CorrespondenceSet) Len() int { return len(c.TargetIdx) }

// MeanDistance returns the mean Euclidean correspondence distance.
func (c CorrespondenceSet) MeanDistance() float64 {
	if len(c.SqDist) == 0 {
		return 0
	}
	total := 0.0
	for _, d := range c.SqDist {
		total += math.Sqrt(d)
	}
	return total / float64(len(c.SqDist))
}

// CorrespondenceFinder locates, for every source point, the closest
// target point. Implementations must agree exactly on the observable
// result: Euclidean distance, ties broken by lowest target index.
type CorrespondenceFinder interface {
	FindCorrespondences(source, target []r3.Vec) CorrespondenceSet
}

// BruteForceFinder scans every target point for every source point.
// O(|source| x |target|) per call.
type BruteForceFinder struct{}

// FindCorrespondences implements CorrespondenceFinder.
func (BruteForceFinder) FindCorrespondences(source, target []r3.Vec) CorrespondenceSet {
	set := CorrespondenceSet{
		TargetIdx: make([]int, len(source)),
		SqDist:    make([]float64, len(source)),
	}
	for i, sp := range source {
		bestIdx := -1
		bestDist := math.Inf(1)
		for j, tp := range target {
			d := r3.Norm2(r3.Sub(sp, tp))
			if d < bestDist {
				bestDist = d
				bestIdx = j
			}
		}
		set.TargetIdx[i] = bestIdx
		set.SqDist[i] = bestDist
	}
	return set
}

// KDTreeFinder answers nearest-neighbor queries through a k-d tree built
// over the target set. Match results are identical to BruteForceFinder,
// including the lowest-index tie-break.
type KDTreeFinder struct{}

// FindCorrespondences implements CorrespondenceFinder.
func (KDTreeFinder) FindCorrespondences(source, target []r3.Vec) CorrespondenceSet {
	indices := make([]int, len(target))
	for i := range indices {
		indices[i] = i
	}
	root := buildKDTree(target, indices, 0)

	set := CorrespondenceSet{
		TargetIdx: make([]int, len(source)),
		SqDist:    make([]float64, len(source)),
	}
	for i, sp := range source {
		bestIdx := -1
		bestDist := math.Inf(1)
		root.nearest(target, sp, &bestIdx, &bestDist)
		set.TargetIdx[i] = bestIdx
		set.SqDist[i] = bestDist
	}
	return set
}

type kdNode struct {
	index       int
	axis        int
	left, right *kdNode
}

func coord(p r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

func buildKDTree(points []r3.Vec, indices []int, depth int) *kdNode {
	if len(indices) == 0 {
		return nil
	}
	axis := depth % 3
	sort.Slice(indices, func(a, b int) bool {
		return coord(points[indices[a]], axis) < coord(points[indices[b]], axis)
	})
	mid := len(indices) / 2
	return &kdNode{
		index: indices[mid],
		axis:  axis,
		left:  buildKDTree(points, indices[:mid], depth+1),
		right: buildKDTree(points, indices[mid+1:], depth+1),
	}
}

func (n *kdNode) nearest(points []r3.Vec, query r3.Vec, bestIdx *int, bestDist *float64) {
	if n == nil {
		return
	}
	p := points[n.index]
	d := r3.Norm2(r3.Sub(query, p))
	if d < *bestDist || (d == *bestDist && n.index < *bestIdx) {
		*bestDist = d
		*bestIdx = n.index
	}

	diff := coord(query, n.axis) - coord(p, n.axis)
	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	near.nearest(points, query, bestIdx, bestDist)
	// <= keeps equal-distance candidates reachable so the index
	// tie-break matches the brute-force scan.
	if diff*diff <= *bestDist {
		far.nearest(points, query, bestIdx, bestDist)
	}
}
