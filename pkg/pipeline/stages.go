package pipeline

import (
	"context"
	"fmt"

	"github.com/supplysight/sctl/pkg/config"
	"github.com/supplysight/sctl/pkg/data"
	"github.com/supplysight/sctl/pkg/model"
)

// The exported stage entry points load their own input so each stage can
// also run standalone from the CLI.

// Score publishes the supplier risk report and appends the risk log row.
func Score(db *data.DB, store data.Store, cfg *config.Config) error {
	aggregates, err := loadAggregates(db)
	if err != nil {
		return err
	}
	return runRisk(store, cfg, aggregates)
}

// Detect publishes the anomaly report and returns the flagged count.
func Detect(db *data.DB, store data.Store, cfg *config.Config) (int, error) {
	orders, err := loadOrders(db)
	if err != nil {
		return 0, err
	}
	return runAnomaly(store, cfg, orders)
}

// Segment publishes the supplier cluster report.
func Segment(db *data.DB, store data.Store, cfg *config.Config) error {
	aggregates, err := loadAggregates(db)
	if err != nil {
		return err
	}
	return runCluster(store, cfg, aggregates)
}

// Train retrains the delay model, publishing the comparison table, the
// model artifact, and the training log rows.
func Train(ctx context.Context, db *data.DB, store data.Store, cfg *config.Config) (*model.TrainResult, error) {
	orders, err := loadOrders(db)
	if err != nil {
		return nil, err
	}
	return runModel(ctx, store, cfg, orders)
}

func loadOrders(db *data.DB) ([]data.Order, error) {
	orders, err := data.GetOrders(db)
	if err != nil {
		return nil, fmt.Errorf("error loading orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, data.ErrNoOrders
	}
	return orders, nil
}

func loadAggregates(db *data.DB) ([]data.SupplierAggregate, error) {
	aggregates, err := data.GetSupplierAggregates(db)
	if err != nil {
		return nil, fmt.Errorf("error deriving supplier aggregates: %w", err)
	}
	if len(aggregates) == 0 {
		return nil, data.ErrNoOrders
	}
	return aggregates, nil
}
