// Package anomaly flags outlier orders with an isolation forest fitted at a
// fixed contamination fraction.
package anomaly

import (
	"math"
	"math/rand"
)

// forest is an isolation forest: random trees built up to a height limit,
// points scored by average path length.
type forest struct {
	trees      []*treeNode
	sampleSize int
	heightLim  int
}

type treeNode struct {
	leaf     bool
	size     int
	dim      int
	splitVal float64
	left     *treeNode
	right    *treeNode
}

func fitForest(x [][]float64, numTrees, sampleSize int, rng *rand.Rand) *forest {
	n := len(x)
	if sampleSize > n {
		sampleSize = n
	}

	f := &forest{
		trees:      make([]*treeNode, numTrees),
		sampleSize: sampleSize,
		heightLim:  int(math.Ceil(math.Log2(math.Max(2, float64(sampleSize))))),
	}

	for i := range f.trees {
		idxs := rng.Perm(n)
		sample := make([][]float64, sampleSize)
		for j := 0; j < sampleSize; j++ {
			sample[j] = x[idxs[j]]
		}
		f.trees[i] = buildTree(sample, 0, f.heightLim, rng)
	}

	return f
}

func buildTree(x [][]float64, h, hlim int, rng *rand.Rand) *treeNode {
	if len(x) <= 1 || h >= hlim {
		return &treeNode{leaf: true, size: len(x)}
	}

	dim := rng.Intn(len(x[0]))
	minv, maxv := x[0][dim], x[0][dim]
	for _, row := range x[1:] {
		if row[dim] < minv {
			minv = row[dim]
		}
		if row[dim] > maxv {
			maxv = row[dim]
		}
	}
	if minv == maxv {
		return &treeNode{leaf: true, size: len(x)}
	}

	split := minv + rng.Float64()*(maxv-minv)
	var left, right [][]float64
	for _, row := range x {
		if row[dim] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, size: len(x)}
	}

	return &treeNode{
		dim:      dim,
		splitVal: split,
		left:     buildTree(left, h+1, hlim, rng),
		right:    buildTree(right, h+1, hlim, rng),
	}
}

// avgPathFactor is c(n), the average unsuccessful BST search path length,
// used to normalize path lengths.
func avgPathFactor(n int) float64 {
	if n <= 1 {
		return 0
	}
	const eulerMascheroni = 0.5772156649
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerMascheroni) - 2*(fn-1)/fn
}

func pathLength(node *treeNode, x []float64, h int) float64 {
	if node.leaf {
		if node.size <= 1 {
			return float64(h)
		}
		return float64(h) + avgPathFactor(node.size)
	}
	if x[node.dim] < node.splitVal {
		return pathLength(node.left, x, h+1)
	}
	return pathLength(node.right, x, h+1)
}

// score returns the normalized anomaly score in (0,1], higher means more
// anomalous.
func (f *forest) score(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}

	var sum float64
	for _, t := range f.trees {
		sum += pathLength(t, x, 0)
	}
	avg := sum / float64(len(f.trees))

	c := avgPathFactor(f.sampleSize)
	if c <= 0 {
		c = 1
	}
	return math.Pow(2, -avg/c)
}
