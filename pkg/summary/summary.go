// Package summary folds the derived artifacts into one KPI snapshot row.
package summary

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/supplysight/sctl/pkg/cluster"
	"github.com/supplysight/sctl/pkg/data"
)

const (
	// NotAvailable marks KPIs whose upstream artifact is missing. The
	// summary degrades instead of failing.
	NotAvailable = "N/A"

	timestampLayout = "2006-01-02 15:04:05"
)

// Columns is the snapshot header.
var Columns = []string{
	"generated_at", "total_orders", "delayed_orders", "ontime_orders",
	"on_time_rate_percent", "avg_delay_days", "avg_defect_rate",
	"avg_price_change_percent", "total_suppliers", "anomaly_records",
	"top_3_risky_suppliers", "top_3_recommended_suppliers", "cluster_breakdown",
}

// Snapshot is the top-line KPI row. String fields may hold the N/A sentinel.
type Snapshot struct {
	GeneratedAt           string  `json:"generated_at" yaml:"generatedAt"`
	TotalOrders           int     `json:"total_orders" yaml:"totalOrders"`
	DelayedOrders         int     `json:"delayed_orders" yaml:"delayedOrders"`
	OnTimeOrders          int     `json:"ontime_orders" yaml:"ontimeOrders"`
	OnTimeRatePercent     float64 `json:"on_time_rate_percent" yaml:"onTimeRatePercent"`
	AvgDelayDays          float64 `json:"avg_delay_days" yaml:"avgDelayDays"`
	AvgDefectRate         float64 `json:"avg_defect_rate" yaml:"avgDefectRate"`
	AvgPriceChangePercent float64 `json:"avg_price_change_percent" yaml:"avgPriceChangePercent"`
	TotalSuppliers        int     `json:"total_suppliers" yaml:"totalSuppliers"`
	AnomalyRecords        string  `json:"anomaly_records" yaml:"anomalyRecords"`
	TopRiskySuppliers     string  `json:"top_3_risky_suppliers" yaml:"top3RiskySuppliers"`
	TopRecommended        string  `json:"top_3_recommended_suppliers" yaml:"top3RecommendedSuppliers"`
	ClusterBreakdown      string  `json:"cluster_breakdown" yaml:"clusterBreakdown"`
}

// Build computes the snapshot from the order set plus whichever derived
// artifacts exist in the store. A missing orders input is fatal, any
// missing artifact degrades the corresponding KPI to the N/A sentinel.
func Build(orders []data.Order, store data.Store) (*Snapshot, error) {
	if len(orders) == 0 {
		return nil, errors.New("orders are required to generate the summary")
	}
	if store == nil {
		return nil, errors.New("store required")
	}

	s := &Snapshot{
		GeneratedAt:       time.Now().Format(timestampLayout),
		TotalOrders:       len(orders),
		AnomalyRecords:    NotAvailable,
		TopRiskySuppliers: NotAvailable,
		TopRecommended:    NotAvailable,
		ClusterBreakdown:  NotAvailable,
	}

	suppliers := make(map[string]bool)
	var delaySum, defectSum, priceSum float64
	for _, o := range orders {
		suppliers[o.SupplierID] = true
		delaySum += o.DelayDays
		defectSum += o.DefectRate
		priceSum += o.PriceChangePercent

		switch o.OrderStatus {
		case data.OrderStatusDelayed:
			s.DelayedOrders++
		case data.OrderStatusOnTime:
			s.OnTimeOrders++
		}
	}

	n := float64(len(orders))
	s.OnTimeRatePercent = round(float64(s.OnTimeOrders)/n*100, 2)
	s.AvgDelayDays = round(delaySum/n, 2)
	s.AvgDefectRate = round(defectSum/n, 4)
	s.AvgPriceChangePercent = round(priceSum/n, 2)
	s.TotalSuppliers = len(suppliers)

	if t, ok, err := store.Load(data.KindAnomalyReport); err != nil {
		return nil, fmt.Errorf("error loading anomaly report: %w", err)
	} else if ok {
		s.AnomalyRecords = strconv.Itoa(len(t.Rows))
	}

	if t, ok, err := store.Load(data.KindRiskReport); err != nil {
		return nil, fmt.Errorf("error loading risk report: %w", err)
	} else if ok {
		s.TopRiskySuppliers, s.TopRecommended = riskExtremes(t)
	}

	if t, ok, err := store.Load(data.KindClusterReport); err != nil {
		return nil, fmt.Errorf("error loading cluster report: %w", err)
	} else if ok {
		s.ClusterBreakdown = clusterBreakdown(t)
	}

	return s, nil
}

// Table renders the snapshot as the published one-row artifact.
func Table(s *Snapshot) *data.Table {
	return &data.Table{
		Columns: Columns,
		Rows: [][]string{{
			s.GeneratedAt,
			strconv.Itoa(s.TotalOrders),
			strconv.Itoa(s.DelayedOrders),
			strconv.Itoa(s.OnTimeOrders),
			strconv.FormatFloat(s.OnTimeRatePercent, 'f', 2, 64),
			strconv.FormatFloat(s.AvgDelayDays, 'f', 2, 64),
			strconv.FormatFloat(s.AvgDefectRate, 'f', 4, 64),
			strconv.FormatFloat(s.AvgPriceChangePercent, 'f', 2, 64),
			strconv.Itoa(s.TotalSuppliers),
			s.AnomalyRecords,
			s.TopRiskySuppliers,
			s.TopRecommended,
			s.ClusterBreakdown,
		}},
	}
}

// riskExtremes returns the three highest- and three lowest-risk supplier
// IDs from the published risk report.
func riskExtremes(t *data.Table) (risky, recommended string) {
	idIdx := columnIndex(t, "supplier_id")
	scoreIdx := columnIndex(t, "risk_score")
	if idIdx < 0 || scoreIdx < 0 || len(t.Rows) == 0 {
		return NotAvailable, NotAvailable
	}

	type entry struct {
		id    string
		score float64
	}

	entries := make([]entry, 0, len(t.Rows))
	for _, row := range t.Rows {
		score, err := strconv.ParseFloat(row[scoreIdx], 64)
		if err != nil {
			continue
		}
		entries = append(entries, entry{id: row[idIdx], score: score})
	}
	if len(entries) == 0 {
		return NotAvailable, NotAvailable
	}

	top := func(desc bool) string {
		ranked := make([]entry, len(entries))
		copy(ranked, entries)
		sort.SliceStable(ranked, func(i, j int) bool {
			if desc {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].score < ranked[j].score
		})
		ids := make([]string, 0, 3)
		for i := 0; i < len(ranked) && i < 3; i++ {
			ids = append(ids, ranked[i].id)
		}
		return strings.Join(ids, ", ")
	}

	return top(true), top(false)
}

// clusterBreakdown counts suppliers per segment in canonical segment order.
func clusterBreakdown(t *data.Table) string {
	segIdx := columnIndex(t, "supplier_segment")
	if segIdx < 0 {
		return NotAvailable
	}

	counts := make(map[string]int)
	for _, row := range t.Rows {
		counts[row[segIdx]]++
	}

	parts := make([]string, 0, 3)
	for _, seg := range []string{cluster.SegmentReliable, cluster.SegmentModerate, cluster.SegmentRisky} {
		if counts[seg] > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", seg, counts[seg]))
		}
	}
	if len(parts) == 0 {
		return NotAvailable
	}
	return strings.Join(parts, " ")
}

func columnIndex(t *data.Table, name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
