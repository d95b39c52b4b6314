package data

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	// Per-supplier aggregates over the full order snapshot. Suppliers only
	// appear through observed orders, there is no separate supplier master.
	selectSupplierAggregatesSQL = `SELECT
			supplier_id,
			COUNT(*) AS total_orders,
			AVG(defect_rate) AS avg_defect_rate,
			AVG(delay_days) AS avg_delay_days,
			AVG(price_change_percent) AS avg_price_change,
			AVG(CASE WHEN order_status = 'OnTime' THEN 1.0 ELSE 0.0 END) AS on_time_rate
		FROM orders
		GROUP BY supplier_id
		ORDER BY supplier_id
	`

	selectSupplierAggregateSQL = `SELECT
			supplier_id,
			COUNT(*) AS total_orders,
			AVG(defect_rate) AS avg_defect_rate,
			AVG(delay_days) AS avg_delay_days,
			AVG(price_change_percent) AS avg_price_change,
			AVG(CASE WHEN order_status = 'OnTime' THEN 1.0 ELSE 0.0 END) AS on_time_rate
		FROM orders
		WHERE supplier_id = ?
		GROUP BY supplier_id
	`

	countSuppliersSQL = `SELECT COUNT(DISTINCT supplier_id) FROM orders`
)

// ErrSupplierNotFound indicates the supplier has no orders in the snapshot.
var ErrSupplierNotFound = errors.New("supplier not found")

// SupplierAggregate is one row of derived per-supplier features. It is
// recomputed wholesale from the current snapshot on every run.
type SupplierAggregate struct {
	SupplierID     string  `json:"supplier_id" yaml:"supplierID"`
	TotalOrders    int64   `json:"total_orders" yaml:"totalOrders"`
	AvgDefectRate  float64 `json:"avg_defect_rate" yaml:"avgDefectRate"`
	AvgDelayDays   float64 `json:"avg_delay_days" yaml:"avgDelayDays"`
	AvgPriceChange float64 `json:"avg_price_change" yaml:"avgPriceChange"`
	OnTimeRate     float64 `json:"on_time_rate" yaml:"onTimeRate"`
}

// GetSupplierAggregates derives one aggregate row per distinct supplier,
// ordered by supplier_id.
func GetSupplierAggregates(db *DB) ([]SupplierAggregate, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectSupplierAggregatesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier aggregates: %w", err)
	}
	defer rows.Close()

	list := make([]SupplierAggregate, 0)
	for rows.Next() {
		var a SupplierAggregate
		if err := rows.Scan(&a.SupplierID, &a.TotalOrders, &a.AvgDefectRate,
			&a.AvgDelayDays, &a.AvgPriceChange, &a.OnTimeRate); err != nil {
			return nil, fmt.Errorf("failed to scan supplier aggregate: %w", err)
		}
		list = append(list, a)
	}

	return list, rows.Err()
}

// GetSupplierAggregate derives the aggregate row for a single supplier.
func GetSupplierAggregate(db *DB, supplierID string) (*SupplierAggregate, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var a SupplierAggregate
	err := db.QueryRow(db.rebind(selectSupplierAggregateSQL), supplierID).Scan(
		&a.SupplierID, &a.TotalOrders, &a.AvgDefectRate,
		&a.AvgDelayDays, &a.AvgPriceChange, &a.OnTimeRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSupplierNotFound, supplierID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier %s: %w", supplierID, err)
	}

	return &a, nil
}

// CountSuppliers returns the number of distinct suppliers in the snapshot.
func CountSuppliers(db *DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	var count int64
	if err := db.QueryRow(countSuppliersSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count suppliers: %w", err)
	}
	return count, nil
}
