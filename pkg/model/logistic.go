package model

import "math"

// Logistic is a binary logistic-regression classifier trained by batch
// gradient descent. Features are standardized internally for convergence,
// the scaling state is part of the model.
type Logistic struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
}

func trainLogistic(x [][]float64, y []bool, iterations int, learningRate float64) *Logistic {
	n := len(x)
	if n == 0 {
		return &Logistic{}
	}
	dims := len(x[0])

	m := &Logistic{
		Weights: make([]float64, dims),
		Mean:    make([]float64, dims),
		Std:     make([]float64, dims),
	}

	for d := 0; d < dims; d++ {
		var sum float64
		for _, row := range x {
			sum += row[d]
		}
		m.Mean[d] = sum / float64(n)

		var sq float64
		for _, row := range x {
			diff := row[d] - m.Mean[d]
			sq += diff * diff
		}
		m.Std[d] = math.Sqrt(sq / float64(n))
		if m.Std[d] == 0 {
			m.Std[d] = 1
		}
	}

	scaled := make([][]float64, n)
	for i, row := range x {
		scaled[i] = m.scale(row)
	}

	labels := make([]float64, n)
	for i, v := range y {
		if v {
			labels[i] = 1
		}
	}

	gradW := make([]float64, dims)
	for iter := 0; iter < iterations; iter++ {
		for d := range gradW {
			gradW[d] = 0
		}
		var gradB float64

		for i, row := range scaled {
			err := sigmoid(m.logit(row)) - labels[i]
			for d, v := range row {
				gradW[d] += err * v
			}
			gradB += err
		}

		step := learningRate / float64(n)
		for d := range m.Weights {
			m.Weights[d] -= step * gradW[d]
		}
		m.Bias -= step * gradB
	}

	return m
}

// Predict returns the binary class for a raw (unscaled) feature vector.
func (m *Logistic) Predict(x []float64) bool {
	if len(m.Weights) == 0 {
		return false
	}
	return sigmoid(m.logit(m.scale(x))) >= 0.5
}

func (m *Logistic) scale(x []float64) []float64 {
	out := make([]float64, len(x))
	for d := range x {
		if d < len(m.Mean) {
			out[d] = (x[d] - m.Mean[d]) / m.Std[d]
		}
	}
	return out
}

func (m *Logistic) logit(scaled []float64) float64 {
	v := m.Bias
	for d, w := range m.Weights {
		if d < len(scaled) {
			v += w * scaled[d]
		}
	}
	return v
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
