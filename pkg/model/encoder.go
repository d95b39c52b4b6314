package model

import "sort"

// categoricalColumns fixes the encoding order of the categorical features.
var categoricalColumns = []string{
	"item_category", "shipping_mode", "payment_terms", "order_priority", "region",
}

// Encoder one-hot encodes the categorical features and passes numerics
// through unchanged. Categories are captured at fit time, sorted per
// column; an unseen value at prediction time encodes as all zeros.
type Encoder struct {
	Categories map[string][]string `json:"categories"`
}

// FitEncoder collects the category vocabulary from the training examples.
func FitEncoder(examples []Example) *Encoder {
	seen := make(map[string]map[string]bool, len(categoricalColumns))
	for _, col := range categoricalColumns {
		seen[col] = make(map[string]bool)
	}

	for _, ex := range examples {
		for col, val := range categoricalValues(ex.Input) {
			seen[col][val] = true
		}
	}

	e := &Encoder{Categories: make(map[string][]string, len(categoricalColumns))}
	for _, col := range categoricalColumns {
		vals := make([]string, 0, len(seen[col]))
		for v := range seen[col] {
			vals = append(vals, v)
		}
		sort.Strings(vals)
		e.Categories[col] = vals
	}

	return e
}

// Transform renders the input as a numeric vector: one-hot blocks in
// categoricalColumns order, then the numeric features.
func (e *Encoder) Transform(in Input) []float64 {
	vals := categoricalValues(in)
	out := make([]float64, 0, e.Width())

	for _, col := range categoricalColumns {
		for _, category := range e.Categories[col] {
			if vals[col] == category {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}

	return append(out,
		in.Quantity,
		in.UnitPrice,
		in.DefectRate,
		in.PriceChangePercent,
		in.SupplierAvgDelayDays,
		in.SupplierAvgDefectRate,
		in.SupplierOnTimeRate,
	)
}

// Width is the encoded vector length.
func (e *Encoder) Width() int {
	const numericFeatures = 7
	w := numericFeatures
	for _, col := range categoricalColumns {
		w += len(e.Categories[col])
	}
	return w
}

func categoricalValues(in Input) map[string]string {
	return map[string]string{
		"item_category":  in.ItemCategory,
		"shipping_mode":  in.ShippingMode,
		"payment_terms":  in.PaymentTerms,
		"order_priority": in.OrderPriority,
		"region":         in.Region,
	}
}
