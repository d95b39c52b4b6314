// Package model builds the delay-prediction training set, trains candidate
// classifiers, and persists the best by F1 score.
package model

import (
	"errors"
	"fmt"

	"github.com/supplysight/sctl/pkg/data"
)

const (
	// AggregationFull computes supplier history over the full snapshot,
	// current order included. This reproduces the original behavior and
	// overstates offline accuracy versus deployment.
	AggregationFull = "full"
	// AggregationLeaveOneOut excludes the current order from its
	// supplier's history features. Single-order suppliers fall back to
	// their own values.
	AggregationLeaveOneOut = "leave-one-out"
)

// Input is one order's prediction feature vector: order attributes plus the
// supplier-history aggregates merged in.
type Input struct {
	Quantity           float64 `json:"quantity" yaml:"quantity"`
	UnitPrice          float64 `json:"unit_price" yaml:"unitPrice"`
	DefectRate         float64 `json:"defect_rate" yaml:"defectRate"`
	PriceChangePercent float64 `json:"price_change_percent" yaml:"priceChangePercent"`

	ItemCategory  string `json:"item_category" yaml:"itemCategory"`
	ShippingMode  string `json:"shipping_mode" yaml:"shippingMode"`
	PaymentTerms  string `json:"payment_terms" yaml:"paymentTerms"`
	OrderPriority string `json:"order_priority" yaml:"orderPriority"`
	Region        string `json:"region" yaml:"region"`

	SupplierAvgDelayDays  float64 `json:"supplier_avg_delay_days" yaml:"supplierAvgDelayDays"`
	SupplierAvgDefectRate float64 `json:"supplier_avg_defect_rate" yaml:"supplierAvgDefectRate"`
	SupplierOnTimeRate    float64 `json:"supplier_on_time_rate" yaml:"supplierOnTimeRate"`
}

// Example is one labeled training row.
type Example struct {
	Input   Input
	Delayed bool
}

// InputFromOrder merges an order with a supplier's history aggregates into
// a prediction input.
func InputFromOrder(o data.Order, hist data.SupplierAggregate) Input {
	return Input{
		Quantity:              float64(o.Quantity),
		UnitPrice:             o.UnitPrice,
		DefectRate:            o.DefectRate,
		PriceChangePercent:    o.PriceChangePercent,
		ItemCategory:          o.ItemCategory,
		ShippingMode:          o.ShippingMode,
		PaymentTerms:          o.PaymentTerms,
		OrderPriority:         o.OrderPriority,
		Region:                o.Region,
		SupplierAvgDelayDays:  hist.AvgDelayDays,
		SupplierAvgDefectRate: hist.AvgDefectRate,
		SupplierOnTimeRate:    hist.OnTimeRate,
	}
}

// supplierTotals accumulates the sums needed for history features.
type supplierTotals struct {
	count  float64
	delay  float64
	defect float64
	onTime float64
}

// BuildExamples derives the labeled training table from the order snapshot.
func BuildExamples(orders []data.Order, aggregation string) ([]Example, error) {
	if len(orders) == 0 {
		return nil, errors.New("no orders to build training set from")
	}

	switch aggregation {
	case AggregationFull, AggregationLeaveOneOut:
	default:
		return nil, fmt.Errorf("unknown aggregation mode: %s", aggregation)
	}

	totals := make(map[string]*supplierTotals)
	for _, o := range orders {
		t := totals[o.SupplierID]
		if t == nil {
			t = &supplierTotals{}
			totals[o.SupplierID] = t
		}
		t.count++
		t.delay += o.DelayDays
		t.defect += o.DefectRate
		if o.OrderStatus == data.OrderStatusOnTime {
			t.onTime++
		}
	}

	examples := make([]Example, 0, len(orders))
	for _, o := range orders {
		t := totals[o.SupplierID]
		hist := data.SupplierAggregate{
			SupplierID:    o.SupplierID,
			AvgDelayDays:  t.delay / t.count,
			AvgDefectRate: t.defect / t.count,
			OnTimeRate:    t.onTime / t.count,
		}

		if aggregation == AggregationLeaveOneOut && t.count > 1 {
			onTime := 0.0
			if o.OrderStatus == data.OrderStatusOnTime {
				onTime = 1
			}
			n := t.count - 1
			hist.AvgDelayDays = (t.delay - o.DelayDays) / n
			hist.AvgDefectRate = (t.defect - o.DefectRate) / n
			hist.OnTimeRate = (t.onTime - onTime) / n
		}

		examples = append(examples, Example{
			Input:   InputFromOrder(o, hist),
			Delayed: o.OrderStatus == data.OrderStatusDelayed,
		})
	}

	return examples, nil
}
