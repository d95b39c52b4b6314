package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

const (
	OrderStatusOnTime  = "OnTime"
	OrderStatusDelayed = "Delayed"

	insertOrderSQL = `INSERT INTO orders (
			order_id, supplier_id, quantity, unit_price, defect_rate,
			delay_days, order_status, order_priority, item_category,
			shipping_mode, payment_terms, region, price_change_percent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectOrdersSQL = `SELECT
			order_id, supplier_id, quantity, unit_price, defect_rate,
			delay_days, order_status, order_priority, item_category,
			shipping_mode, payment_terms, region, price_change_percent
		FROM orders
		ORDER BY order_id
	`

	countOrdersSQL = `SELECT COUNT(*) FROM orders`

	deleteOrdersSQL = `DELETE FROM orders`
)

// ErrNoOrders indicates the order table is empty. The pipeline treats this
// as a fatal missing-input condition.
var ErrNoOrders = errors.New("no orders in the database, run import first")

// Order is one raw procurement record. Records are immutable once imported,
// every pipeline stage treats them as read-only input.
type Order struct {
	OrderID            string  `json:"order_id" yaml:"orderID"`
	SupplierID         string  `json:"supplier_id" yaml:"supplierID"`
	Quantity           int64   `json:"quantity" yaml:"quantity"`
	UnitPrice          float64 `json:"unit_price" yaml:"unitPrice"`
	DefectRate         float64 `json:"defect_rate" yaml:"defectRate"`
	DelayDays          float64 `json:"delay_days" yaml:"delayDays"`
	OrderStatus        string  `json:"order_status" yaml:"orderStatus"`
	OrderPriority      string  `json:"order_priority" yaml:"orderPriority"`
	ItemCategory       string  `json:"item_category" yaml:"itemCategory"`
	ShippingMode       string  `json:"shipping_mode" yaml:"shippingMode"`
	PaymentTerms       string  `json:"payment_terms" yaml:"paymentTerms"`
	Region             string  `json:"region" yaml:"region"`
	PriceChangePercent float64 `json:"price_change_percent" yaml:"priceChangePercent"`
}

// OrderColumns is the canonical column order for the raw order record,
// shared by the CSV importer and the anomaly report writer.
var OrderColumns = []string{
	"order_id", "supplier_id", "quantity", "unit_price", "defect_rate",
	"delay_days", "order_status", "order_priority", "item_category",
	"shipping_mode", "payment_terms", "region", "price_change_percent",
}

// ImportResult summarizes an order snapshot import.
type ImportResult struct {
	Imported int `json:"imported" yaml:"imported"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

// ImportOrders replaces the order snapshot with the content of the CSV file.
// Rows that fail to parse are counted and skipped, a header mismatch is fatal.
func ImportOrders(db *DB, path string) (*ImportResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening orders file %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading orders header: %w", err)
	}

	idx, err := mapOrderColumns(header)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting import tx: %w", err)
	}

	if _, err := tx.Exec(deleteOrdersSQL); err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("error clearing order snapshot: %w", err)
	}

	stmt, err := tx.Prepare(db.rebind(insertOrderSQL))
	if err != nil {
		rollbackTransaction(tx)
		return nil, fmt.Errorf("error preparing order insert: %w", err)
	}

	res := &ImportResult{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("error reading orders row: %w", err)
		}

		o, err := parseOrder(rec, idx)
		if err != nil {
			res.Skipped++
			continue
		}

		if _, err := stmt.Exec(o.OrderID, o.SupplierID, o.Quantity, o.UnitPrice,
			o.DefectRate, o.DelayDays, o.OrderStatus, o.OrderPriority,
			o.ItemCategory, o.ShippingMode, o.PaymentTerms, o.Region,
			o.PriceChangePercent); err != nil {
			rollbackTransaction(tx)
			return nil, fmt.Errorf("error inserting order %s: %w", o.OrderID, err)
		}
		res.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing import tx: %w", err)
	}

	return res, nil
}

// GetOrders returns the full order snapshot ordered by order_id.
func GetOrders(db *DB) ([]Order, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	list := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.OrderID, &o.SupplierID, &o.Quantity, &o.UnitPrice,
			&o.DefectRate, &o.DelayDays, &o.OrderStatus, &o.OrderPriority,
			&o.ItemCategory, &o.ShippingMode, &o.PaymentTerms, &o.Region,
			&o.PriceChangePercent); err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		list = append(list, o)
	}

	return list, rows.Err()
}

// CountOrders returns the number of records in the current snapshot.
func CountOrders(db *DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	var count int64
	if err := db.QueryRow(countOrdersSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// Values renders the record in OrderColumns order for CSV output.
func (o Order) Values() []string {
	return []string{
		o.OrderID,
		o.SupplierID,
		strconv.FormatInt(o.Quantity, 10),
		formatFloat(o.UnitPrice, 2),
		formatFloat(o.DefectRate, 4),
		formatFloat(o.DelayDays, 2),
		o.OrderStatus,
		o.OrderPriority,
		o.ItemCategory,
		o.ShippingMode,
		o.PaymentTerms,
		o.Region,
		formatFloat(o.PriceChangePercent, 2),
	}
}

func mapOrderColumns(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, required := range OrderColumns {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("orders file missing required column: %s", required)
		}
	}
	return idx, nil
}

func parseOrder(rec []string, idx map[string]int) (*Order, error) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	o := &Order{
		OrderID:       get("order_id"),
		SupplierID:    get("supplier_id"),
		OrderStatus:   get("order_status"),
		OrderPriority: get("order_priority"),
		ItemCategory:  get("item_category"),
		ShippingMode:  get("shipping_mode"),
		PaymentTerms:  get("payment_terms"),
		Region:        get("region"),
	}

	if o.OrderID == "" || o.SupplierID == "" {
		return nil, errors.New("order_id and supplier_id are required")
	}

	var err error
	if o.Quantity, err = strconv.ParseInt(get("quantity"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid quantity: %w", err)
	}
	if o.UnitPrice, err = parseFloat(get("unit_price")); err != nil {
		return nil, fmt.Errorf("invalid unit_price: %w", err)
	}
	if o.DefectRate, err = parseFloat(get("defect_rate")); err != nil {
		return nil, fmt.Errorf("invalid defect_rate: %w", err)
	}
	if o.DelayDays, err = parseFloat(get("delay_days")); err != nil {
		return nil, fmt.Errorf("invalid delay_days: %w", err)
	}
	if o.PriceChangePercent, err = parseFloat(get("price_change_percent")); err != nil {
		return nil, fmt.Errorf("invalid price_change_percent: %w", err)
	}

	return o, nil
}

// parseFloat treats empty values as zero so sparse exports load without
// dropping the row.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
