package model

import (
	"math"
	"math/rand"
	"sort"
)

// Forest is a random-forest classifier: bootstrap-sampled gini trees over
// random feature subsets, majority vote at prediction time.
type Forest struct {
	Trees []*TreeNode `json:"trees"`
}

// TreeNode is one decision-tree node. Exported fields so the fitted model
// serializes into the production artifact.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     bool      `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

func trainForest(x [][]float64, y []bool, trees, maxDepth int, rng *rand.Rand) *Forest {
	f := &Forest{Trees: make([]*TreeNode, 0, trees)}
	n := len(x)
	if n == 0 {
		return f
	}

	// sqrt(dims) features considered per split, the usual forest default.
	dims := len(x[0])
	subset := int(math.Max(1, math.Floor(math.Sqrt(float64(dims)))))

	for t := 0; t < trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, growTree(x, y, idx, 0, maxDepth, subset, rng))
	}

	return f
}

// Predict returns the majority vote over all trees.
func (f *Forest) Predict(x []float64) bool {
	votes := 0
	for _, t := range f.Trees {
		if t.predict(x) {
			votes++
		}
	}
	return votes*2 > len(f.Trees)
}

func (t *TreeNode) predict(x []float64) bool {
	node := t
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func growTree(x [][]float64, y []bool, idx []int, depth, maxDepth, subset int, rng *rand.Rand) *TreeNode {
	positives := 0
	for _, i := range idx {
		if y[i] {
			positives++
		}
	}

	if positives == 0 || positives == len(idx) || depth >= maxDepth || len(idx) < 2 {
		return &TreeNode{Leaf: true, Value: positives*2 > len(idx)}
	}

	feature, threshold, ok := bestSplit(x, y, idx, subset, rng)
	if !ok {
		return &TreeNode{Leaf: true, Value: positives*2 > len(idx)}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Leaf: true, Value: positives*2 > len(idx)}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(x, y, left, depth+1, maxDepth, subset, rng),
		Right:     growTree(x, y, right, depth+1, maxDepth, subset, rng),
	}
}

// bestSplit searches a random feature subset for the threshold with the
// lowest weighted gini impurity.
func bestSplit(x [][]float64, y []bool, idx []int, subset int, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	dims := len(x[0])
	features := rng.Perm(dims)[:subset]

	bestGini := math.Inf(1)

	for _, d := range features {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, x[i][d])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			mid := (values[v] + values[v-1]) / 2

			var leftN, leftPos, rightN, rightPos float64
			for _, i := range idx {
				if x[i][d] <= mid {
					leftN++
					if y[i] {
						leftPos++
					}
				} else {
					rightN++
					if y[i] {
						rightPos++
					}
				}
			}

			g := (leftN*gini(leftPos, leftN) + rightN*gini(rightPos, rightN)) / float64(len(idx))
			if g < bestGini {
				bestGini = g
				feature = d
				threshold = mid
				ok = true
			}
		}
	}

	return feature, threshold, ok
}

func gini(positives, total float64) float64 {
	if total == 0 {
		return 0
	}
	p := positives / total
	return 2 * p * (1 - p)
}
