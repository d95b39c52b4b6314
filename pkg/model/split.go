package model

import (
	"math"
	"math/rand"
)

// stratifiedSplit shuffles each class independently with the seeded source
// and takes the same held-out fraction from both, so the test split keeps
// the class balance of the input. Deterministic for a fixed seed.
func stratifiedSplit(examples []Example, testFraction float64, seed int64) (train, test []Example) {
	rng := rand.New(rand.NewSource(seed))

	var positive, negative []int
	for i, ex := range examples {
		if ex.Delayed {
			positive = append(positive, i)
		} else {
			negative = append(negative, i)
		}
	}

	shuffle := func(idx []int) {
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
	}
	shuffle(positive)
	shuffle(negative)

	take := func(idx []int) (trainIdx, testIdx []int) {
		n := int(math.Round(testFraction * float64(len(idx))))
		if n > len(idx) {
			n = len(idx)
		}
		return idx[n:], idx[:n]
	}

	posTrain, posTest := take(positive)
	negTrain, negTest := take(negative)

	for _, i := range append(negTrain, posTrain...) {
		train = append(train, examples[i])
	}
	for _, i := range append(negTest, posTest...) {
		test = append(test, examples[i])
	}

	return train, test
}

// encode renders a slice of examples into feature matrix and label vector.
func encode(e *Encoder, examples []Example) (x [][]float64, y []bool) {
	x = make([][]float64, len(examples))
	y = make([]bool, len(examples))
	for i, ex := range examples {
		x[i] = e.Transform(ex.Input)
		y[i] = ex.Delayed
	}
	return x, y
}
