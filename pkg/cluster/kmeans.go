// Package cluster groups suppliers into reliability segments with k-means
// over standardized aggregate features.
package cluster

import (
	"math"
	"math/rand"
)

// scaler standardizes each feature to zero mean and unit variance.
// A constant feature keeps std 1 so it passes through centered.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(x [][]float64) *scaler {
	if len(x) == 0 {
		return &scaler{}
	}

	dims := len(x[0])
	s := &scaler{mean: make([]float64, dims), std: make([]float64, dims)}

	for d := 0; d < dims; d++ {
		var sum float64
		for _, row := range x {
			sum += row[d]
		}
		s.mean[d] = sum / float64(len(x))

		var sq float64
		for _, row := range x {
			diff := row[d] - s.mean[d]
			sq += diff * diff
		}
		s.std[d] = math.Sqrt(sq / float64(len(x)))
		if s.std[d] == 0 {
			s.std[d] = 1
		}
	}

	return s
}

func (s *scaler) transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled := make([]float64, len(row))
		for d := range row {
			scaled[d] = (row[d] - s.mean[d]) / s.std[d]
		}
		out[i] = scaled
	}
	return out
}

// kmeans runs Lloyd iterations from nInit k-means++ seedings and keeps the
// lowest-inertia solution.
func kmeans(x [][]float64, k, nInit, maxIter int, rng *rand.Rand) []int {
	if len(x) == 0 || k <= 0 {
		return nil
	}
	if k > len(x) {
		k = len(x)
	}

	var best []int
	bestInertia := math.Inf(1)

	for i := 0; i < nInit; i++ {
		assign, inertia := lloyd(x, k, maxIter, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			best = assign
		}
	}

	return best
}

func lloyd(x [][]float64, k, maxIter int, rng *rand.Rand) ([]int, float64) {
	centroids := seedPlusPlus(x, k, rng)
	assign := make([]int, len(x))

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range x {
			c := nearest(centroids, row)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		dims := len(x[0])
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, row := range x {
			c := assign[i]
			counts[c]++
			for d, v := range row {
				sums[c][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Empty cluster: reseed at the point farthest from its
				// centroid to keep k partitions.
				centroids[c] = farthest(x, centroids, assign)
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	var inertia float64
	for i, row := range x {
		inertia += sqDist(row, centroids[assign[i]])
	}

	return assign, inertia
}

// seedPlusPlus picks initial centroids with k-means++ weighting.
func seedPlusPlus(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := x[rng.Intn(len(x))]
	centroids = append(centroids, clone(first))

	for len(centroids) < k {
		dists := make([]float64, len(x))
		var total float64
		for i, row := range x {
			d := math.Inf(1)
			for _, c := range centroids {
				if v := sqDist(row, c); v < d {
					d = v
				}
			}
			dists[i] = d
			total += d
		}

		if total == 0 {
			centroids = append(centroids, clone(x[rng.Intn(len(x))]))
			continue
		}

		target := rng.Float64() * total
		var cum float64
		pick := len(x) - 1
		for i, d := range dists {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, clone(x[pick]))
	}

	return centroids
}

func nearest(centroids [][]float64, row []float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(row, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func farthest(x [][]float64, centroids [][]float64, assign []int) []float64 {
	best := 0
	bestDist := -1.0
	for i, row := range x {
		if d := sqDist(row, centroids[assign[i]]); d > bestDist {
			bestDist = d
			best = i
		}
	}
	return clone(x[best])
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
