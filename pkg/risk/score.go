// Package risk computes bounded [0,100] risk scores for orders and
// suppliers from one configurable weighted-sum policy.
package risk

import (
	"math"
	"sort"
	"strconv"

	"github.com/supplysight/sctl/pkg/data"
)

const (
	CategoryLow    = "Low"
	CategoryMedium = "Medium"
	CategoryHigh   = "High"

	scoreMin = 0
	scoreMax = 100
)

// OrderWeights are the order-level signal weights. Defect rate is expressed
// in [0,1] so its weight folds in the percentage conversion.
type OrderWeights struct {
	DelayDays       float64            `json:"delay_days" yaml:"delayDays"`
	DefectRate      float64            `json:"defect_rate" yaml:"defectRate"`
	PriceChange     float64            `json:"price_change" yaml:"priceChange"`
	Priority        float64            `json:"priority" yaml:"priority"`
	PriorityWeights map[string]float64 `json:"priority_weights" yaml:"priorityWeights"`
	PriorityDefault float64            `json:"priority_default" yaml:"priorityDefault"`
}

// SupplierWeights are the supplier-level signal weights. OnTimeGap applies
// to (1 - on_time_rate).
type SupplierWeights struct {
	DefectRate float64 `json:"defect_rate" yaml:"defectRate"`
	DelayDays  float64 `json:"delay_days" yaml:"delayDays"`
	OnTimeGap  float64 `json:"on_time_gap" yaml:"onTimeGap"`
}

// Thresholds are the shared category cut points: score >= High is High,
// score >= Medium is Medium, anything below is Low.
type Thresholds struct {
	High   float64 `json:"high" yaml:"high"`
	Medium float64 `json:"medium" yaml:"medium"`
}

// Policy is the single scoring implementation both levels share.
type Policy struct {
	Order      OrderWeights    `json:"order" yaml:"order"`
	Supplier   SupplierWeights `json:"supplier" yaml:"supplier"`
	Thresholds Thresholds      `json:"thresholds" yaml:"thresholds"`
}

// DefaultPolicy returns the production weights.
func DefaultPolicy() Policy {
	return Policy{
		Order: OrderWeights{
			DelayDays:   18,
			DefectRate:  250,
			PriceChange: 1.2,
			Priority:    0.6,
			PriorityWeights: map[string]float64{
				"Low":    5,
				"Medium": 10,
				"High":   20,
			},
			PriorityDefault: 10,
		},
		Supplier: SupplierWeights{
			DefectRate: 400,
			DelayDays:  3,
			OnTimeGap:  50,
		},
		Thresholds: Thresholds{High: 70, Medium: 40},
	}
}

// term is one weighted signal in a score.
type term struct {
	value  float64
	weight float64
}

// score is the shared weighted sum, clipped to [0,100] exactly.
func score(terms []term) float64 {
	var total float64
	for _, t := range terms {
		total += t.value * t.weight
	}
	return clip(total, scoreMin, scoreMax)
}

func clip(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// OrderScore computes the order-level risk score.
func (p Policy) OrderScore(o data.Order) float64 {
	return score([]term{
		{o.DelayDays, p.Order.DelayDays},
		{o.DefectRate, p.Order.DefectRate},
		{math.Abs(o.PriceChangePercent), p.Order.PriceChange},
		{p.priorityWeight(o.OrderPriority), p.Order.Priority},
	})
}

// SupplierScore computes the supplier-level risk score from aggregates.
func (p Policy) SupplierScore(a data.SupplierAggregate) float64 {
	return score([]term{
		{a.AvgDefectRate, p.Supplier.DefectRate},
		{a.AvgDelayDays, p.Supplier.DelayDays},
		{1 - a.OnTimeRate, p.Supplier.OnTimeGap},
	})
}

// Category maps a score to its tier. The same thresholds apply at both
// scoring levels.
func (p Policy) Category(score float64) string {
	switch {
	case score >= p.Thresholds.High:
		return CategoryHigh
	case score >= p.Thresholds.Medium:
		return CategoryMedium
	default:
		return CategoryLow
	}
}

func (p Policy) priorityWeight(priority string) float64 {
	if w, ok := p.Order.PriorityWeights[priority]; ok {
		return w
	}
	return p.Order.PriorityDefault
}

// OrderRisk is one scored order.
type OrderRisk struct {
	OrderID    string  `json:"order_id" yaml:"orderID"`
	SupplierID string  `json:"supplier_id" yaml:"supplierID"`
	Score      float64 `json:"risk_score" yaml:"riskScore"`
	Category   string  `json:"risk_category" yaml:"riskCategory"`
}

// SupplierRisk is one row of the supplier risk report.
type SupplierRisk struct {
	SupplierID    string  `json:"supplier_id" yaml:"supplierID"`
	TotalOrders   int64   `json:"total_orders" yaml:"totalOrders"`
	AvgDefectRate float64 `json:"avg_defect_rate" yaml:"avgDefectRate"`
	AvgDelayDays  float64 `json:"avg_delay_days" yaml:"avgDelayDays"`
	OnTimeRate    float64 `json:"on_time_rate" yaml:"onTimeRate"`
	Score         float64 `json:"risk_score" yaml:"riskScore"`
	Category      string  `json:"risk_category" yaml:"riskCategory"`
}

// ReportColumns is the published supplier risk report header.
var ReportColumns = []string{
	"supplier_id", "total_orders", "avg_defect_rate", "avg_delay_days",
	"on_time_rate", "risk_score", "risk_category",
}

// ScoreOrders scores every order in input order.
func (p Policy) ScoreOrders(orders []data.Order) []OrderRisk {
	list := make([]OrderRisk, 0, len(orders))
	for _, o := range orders {
		s := round(p.OrderScore(o), 2)
		list = append(list, OrderRisk{
			OrderID:    o.OrderID,
			SupplierID: o.SupplierID,
			Score:      s,
			Category:   p.Category(s),
		})
	}
	return list
}

// ScoreSuppliers builds the supplier risk report ranked by score descending.
// Ties keep the incoming aggregate order.
func (p Policy) ScoreSuppliers(aggregates []data.SupplierAggregate) []SupplierRisk {
	list := make([]SupplierRisk, 0, len(aggregates))
	for _, a := range aggregates {
		s := round(p.SupplierScore(a), 2)
		list = append(list, SupplierRisk{
			SupplierID:    a.SupplierID,
			TotalOrders:   a.TotalOrders,
			AvgDefectRate: a.AvgDefectRate,
			AvgDelayDays:  a.AvgDelayDays,
			OnTimeRate:    a.OnTimeRate,
			Score:         s,
			Category:      p.Category(s),
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})

	return list
}

// ReportTable renders the report in the published column order.
func ReportTable(report []SupplierRisk) *data.Table {
	t := &data.Table{Columns: ReportColumns}
	for _, r := range report {
		t.Rows = append(t.Rows, []string{
			r.SupplierID,
			strconv.FormatInt(r.TotalOrders, 10),
			strconv.FormatFloat(r.AvgDefectRate, 'f', 4, 64),
			strconv.FormatFloat(r.AvgDelayDays, 'f', 2, 64),
			strconv.FormatFloat(r.OnTimeRate, 'f', 4, 64),
			strconv.FormatFloat(r.Score, 'f', 2, 64),
			r.Category,
		})
	}
	return t
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
