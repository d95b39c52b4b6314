package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/supplysight/sctl/pkg/data"
)

const (
	CandidateLogistic = "LogisticRegression"
	CandidateForest   = "RandomForest"

	timestampLayout = "2006-01-02 15:04:05"
)

// Config holds the retraining knobs.
type Config struct {
	TestFraction         float64
	Seed                 int64
	Aggregation          string
	ForestTrees          int
	ForestMaxDepth       int
	LogisticIterations   int
	LogisticLearningRate float64
}

// DefaultConfig returns the production training configuration.
func DefaultConfig(seed int64) Config {
	return Config{
		TestFraction:         0.2,
		Seed:                 seed,
		Aggregation:          AggregationFull,
		ForestTrees:          200,
		ForestMaxDepth:       10,
		LogisticIterations:   2000,
		LogisticLearningRate: 0.1,
	}
}

// classifier is the common candidate surface.
type classifier interface {
	Predict(x []float64) bool
}

// CandidateResult is one row of the comparison table and training log.
type CandidateResult struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Model     string `json:"model" yaml:"model"`
	Metrics   `yaml:",inline"`
}

// TrainResult is the outcome of one retraining run.
type TrainResult struct {
	Best     string            `json:"best_model" yaml:"bestModel"`
	BestF1   float64           `json:"best_f1" yaml:"bestF1"`
	Results  []CandidateResult `json:"results" yaml:"results"`
	Artifact *Artifact         `json:"-" yaml:"-"`
}

// ComparisonColumns is the model comparison report header.
var ComparisonColumns = []string{"model", "accuracy", "precision", "recall", "f1_score"}

// LogColumns is the append-only training log header.
var LogColumns = []string{"timestamp", "model", "accuracy", "precision", "recall", "f1_score"}

// Train builds the training table, fits every candidate on the same
// stratified split, and selects the winner by strictly greater F1.
// Candidates train concurrently, each from its own derived seed, so the
// result is identical to sequential execution.
func Train(ctx context.Context, orders []data.Order, cfg Config) (*TrainResult, error) {
	examples, err := BuildExamples(orders, cfg.Aggregation)
	if err != nil {
		return nil, err
	}

	trainSet, testSet := stratifiedSplit(examples, cfg.TestFraction, cfg.Seed)
	if len(trainSet) == 0 || len(testSet) == 0 {
		return nil, errors.New("not enough orders for a train/test split")
	}

	enc := FitEncoder(trainSet)
	xTrain, yTrain := encode(enc, trainSet)
	xTest, yTest := encode(enc, testSet)

	type candidate struct {
		name  string
		train func(seed int64) classifier
	}

	// Canonical candidate order, the selection tie-break.
	candidates := []candidate{
		{
			name: CandidateLogistic,
			train: func(int64) classifier {
				return trainLogistic(xTrain, yTrain, cfg.LogisticIterations, cfg.LogisticLearningRate)
			},
		},
		{
			name: CandidateForest,
			train: func(seed int64) classifier {
				return trainForest(xTrain, yTrain, cfg.ForestTrees, cfg.ForestMaxDepth, rand.New(rand.NewSource(seed)))
			},
		},
	}

	now := time.Now().Format(timestampLayout)
	results := make([]CandidateResult, len(candidates))
	fitted := make([]classifier, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	for i, c := range candidates {
		g.Go(func() error {
			m := c.train(cfg.Seed + int64(i))

			yPred := make([]bool, len(xTest))
			for j := range xTest {
				yPred[j] = m.Predict(xTest[j])
			}

			fitted[i] = m
			results[i] = CandidateResult{
				Timestamp: now,
				Model:     c.name,
				Metrics:   Evaluate(yTest, yPred).Round(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error training candidates: %w", err)
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].F1 > results[best].F1 {
			best = i
		}
	}

	artifact, err := newArtifact(candidates[best].name, enc, fitted[best])
	if err != nil {
		return nil, err
	}

	return &TrainResult{
		Best:     candidates[best].name,
		BestF1:   results[best].F1,
		Results:  results,
		Artifact: artifact,
	}, nil
}

// ComparisonTable renders the results ranked by F1 descending. Ties keep
// the canonical candidate order.
func ComparisonTable(results []CandidateResult) *data.Table {
	ranked := make([]CandidateResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].F1 > ranked[j].F1
	})

	t := &data.Table{Columns: ComparisonColumns}
	for _, r := range ranked {
		t.Rows = append(t.Rows, []string{
			r.Model,
			formatMetric(r.Accuracy),
			formatMetric(r.Precision),
			formatMetric(r.Recall),
			formatMetric(r.F1),
		})
	}
	return t
}

// LogRow renders one training-log entry.
func LogRow(r CandidateResult) []string {
	return []string{
		r.Timestamp,
		r.Model,
		formatMetric(r.Accuracy),
		formatMetric(r.Precision),
		formatMetric(r.Recall),
		formatMetric(r.F1),
	}
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
