// Package pipeline runs the batch derivation stages in order and owns the
// error policy between them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/supplysight/sctl/pkg/anomaly"
	"github.com/supplysight/sctl/pkg/cluster"
	"github.com/supplysight/sctl/pkg/config"
	"github.com/supplysight/sctl/pkg/data"
	"github.com/supplysight/sctl/pkg/model"
	"github.com/supplysight/sctl/pkg/risk"
	"github.com/supplysight/sctl/pkg/summary"
)

// RiskLogColumns is the append-only risk retrain log header.
var RiskLogColumns = []string{"timestamp", "total_suppliers", "avg_risk_score", "status"}

// ErrLogAppend wraps training-log append failures. These abort the run, a
// training record is never silently dropped.
var ErrLogAppend = errors.New("log append failed")

// Result summarizes one pipeline run for the CLI output.
type Result struct {
	RunID     string   `json:"run_id" yaml:"runID"`
	Orders    int      `json:"orders" yaml:"orders"`
	Suppliers int      `json:"suppliers" yaml:"suppliers"`
	Anomalies int      `json:"anomalies" yaml:"anomalies"`
	BestModel string   `json:"best_model,omitempty" yaml:"bestModel,omitempty"`
	BestF1    float64  `json:"best_f1,omitempty" yaml:"bestF1,omitempty"`
	Duration  string   `json:"duration" yaml:"duration"`
	Failed    []string `json:"failed_stages,omitempty" yaml:"failedStages,omitempty"`
}

// Run executes the full batch pipeline: derive features, score risk, flag
// anomalies, segment suppliers, retrain the delay model, and fold the
// summary. Stage-local failures are logged and later stages still run;
// missing input and log-append failures abort.
func Run(ctx context.Context, db *data.DB, store data.Store, cfg *config.Config) (*Result, error) {
	start := time.Now()
	runID := start.UTC().Format("20060102T150405")
	slog.Info("pipeline run starting", "run_id", runID)

	orders, err := loadOrders(db)
	if err != nil {
		return nil, err
	}

	aggregates, err := loadAggregates(db)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Orders: len(orders), Suppliers: len(aggregates)}
	var stageErrs []error

	fail := func(stage string, err error) {
		slog.Error("stage failed", "stage", stage, "error", err)
		res.Failed = append(res.Failed, stage)
		stageErrs = append(stageErrs, fmt.Errorf("%s: %w", stage, err))
	}

	if err := runRisk(store, cfg, aggregates); err != nil {
		if errors.Is(err, ErrLogAppend) {
			return nil, err
		}
		fail("risk", err)
	}

	if n, err := runAnomaly(store, cfg, orders); err != nil {
		fail("anomaly", err)
	} else {
		res.Anomalies = n
	}

	if err := runCluster(store, cfg, aggregates); err != nil {
		fail("cluster", err)
	}

	if tr, err := runModel(ctx, store, cfg, orders); err != nil {
		if errors.Is(err, ErrLogAppend) {
			return nil, err
		}
		fail("model", err)
	} else {
		res.BestModel = tr.Best
		res.BestF1 = tr.BestF1
	}

	if err := runSummary(store, orders); err != nil {
		fail("summary", err)
	}

	res.Duration = time.Since(start).Round(time.Millisecond).String()
	slog.Info("pipeline run complete",
		"run_id", runID,
		"orders", res.Orders, "suppliers", res.Suppliers,
		"anomalies", res.Anomalies, "best_model", res.BestModel,
		"duration", res.Duration)

	return res, errors.Join(stageErrs...)
}

func runRisk(store data.Store, cfg *config.Config, aggregates []data.SupplierAggregate) error {
	report := cfg.Risk.ScoreSuppliers(aggregates)
	if err := store.Write(data.KindRiskReport, risk.ReportTable(report)); err != nil {
		return err
	}
	slog.Info("supplier risk report written", "suppliers", len(report))

	var sum float64
	for _, r := range report {
		sum += r.Score
	}
	avg := 0.0
	if len(report) > 0 {
		avg = sum / float64(len(report))
	}

	row := []string{
		time.Now().Format("2006-01-02 15:04:05"),
		strconv.Itoa(len(report)),
		strconv.FormatFloat(avg, 'f', 2, 64),
		"SUCCESS",
	}
	if err := store.Append(data.KindRiskLog, RiskLogColumns, row); err != nil {
		return fmt.Errorf("%w: %v", ErrLogAppend, err)
	}

	return nil
}

func runAnomaly(store data.Store, cfg *config.Config, orders []data.Order) (int, error) {
	d := &anomaly.Detector{
		Trees:         cfg.Anomaly.Trees,
		SampleSize:    cfg.Anomaly.SampleSize,
		Contamination: cfg.Anomaly.Contamination,
		Seed:          cfg.Seed,
	}

	res, err := d.Detect(orders)
	if err != nil {
		return 0, err
	}

	if err := store.Write(data.KindAnomalyReport, anomaly.ReportTable(res)); err != nil {
		return 0, err
	}

	slog.Info("anomaly report written", "total", res.Total, "flagged", len(res.Anomalies))
	return len(res.Anomalies), nil
}

func runCluster(store data.Store, cfg *config.Config, aggregates []data.SupplierAggregate) error {
	s := &cluster.Segmenter{
		Clusters:      cfg.Cluster.Clusters,
		Inits:         cfg.Cluster.Inits,
		MaxIterations: cfg.Cluster.MaxIterations,
		Seed:          cfg.Seed,
	}

	segments, err := s.Segment(aggregates)
	if err != nil {
		return err
	}

	if err := store.Write(data.KindClusterReport, cluster.ReportTable(segments)); err != nil {
		return err
	}

	slog.Info("supplier cluster report written", "suppliers", len(segments))
	return nil
}

func runModel(ctx context.Context, store data.Store, cfg *config.Config, orders []data.Order) (*model.TrainResult, error) {
	tr, err := model.Train(ctx, orders, model.Config{
		TestFraction:         cfg.Model.TestFraction,
		Seed:                 cfg.Seed,
		Aggregation:          cfg.Model.Aggregation,
		ForestTrees:          cfg.Model.ForestTrees,
		ForestMaxDepth:       cfg.Model.ForestMaxDepth,
		LogisticIterations:   cfg.Model.LogisticIterations,
		LogisticLearningRate: cfg.Model.LogisticLearningRate,
	})
	if err != nil {
		return nil, err
	}

	if err := store.Write(data.KindModelComparison, model.ComparisonTable(tr.Results)); err != nil {
		return nil, err
	}

	b, err := tr.Artifact.Encode()
	if err != nil {
		return nil, err
	}
	if err := store.WriteRaw(data.KindModel, b); err != nil {
		return nil, err
	}

	// One log row per trained candidate, appended after the snapshot
	// artifacts are safely published.
	for _, r := range tr.Results {
		if err := store.Append(data.KindTrainingLog, model.LogColumns, model.LogRow(r)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLogAppend, err)
		}
	}

	slog.Info("model retrained", "best", tr.Best, "f1", tr.BestF1)
	return tr, nil
}

func runSummary(store data.Store, orders []data.Order) error {
	s, err := summary.Build(orders, store)
	if err != nil {
		return err
	}

	if err := store.Write(data.KindSummary, summary.Table(s)); err != nil {
		return err
	}

	slog.Info("summary snapshot written", "on_time_rate", s.OnTimeRatePercent)
	return nil
}
