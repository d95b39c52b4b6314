package data

import (
	"errors"
	"fmt"
)

// State is the current content of the record store: snapshot counts plus
// which derived artifacts have been published. The presentation layer uses
// it to show "not yet computed" instead of failing on absent artifacts.
type State struct {
	Orders    int64           `json:"orders" yaml:"orders"`
	Suppliers int64           `json:"suppliers" yaml:"suppliers"`
	Artifacts map[string]bool `json:"artifacts" yaml:"artifacts"`
}

// artifactKinds lists every artifact the pipeline publishes.
var artifactKinds = []Kind{
	KindRiskReport,
	KindAnomalyReport,
	KindClusterReport,
	KindModelComparison,
	KindTrainingLog,
	KindRiskLog,
	KindSummary,
	KindModel,
}

// GetState reports the database and artifact state.
func GetState(db *DB, store Store) (*State, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if store == nil {
		return nil, errors.New("store required")
	}

	orders, err := CountOrders(db)
	if err != nil {
		return nil, fmt.Errorf("error counting orders: %w", err)
	}

	suppliers, err := CountSuppliers(db)
	if err != nil {
		return nil, fmt.Errorf("error counting suppliers: %w", err)
	}

	s := &State{
		Orders:    orders,
		Suppliers: suppliers,
		Artifacts: make(map[string]bool, len(artifactKinds)),
	}

	for _, kind := range artifactKinds {
		_, err := store.ReadRaw(kind)
		if err != nil && !errors.Is(err, ErrArtifactNotFound) {
			return nil, fmt.Errorf("error checking artifact %s: %w", kind, err)
		}
		s.Artifacts[string(kind)] = err == nil
	}

	return s, nil
}
