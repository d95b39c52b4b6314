package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplysight/sctl/pkg/data"
)

func TestOrderScoreClipsToRange(t *testing.T) {
	p := DefaultPolicy()

	high := data.Order{
		DelayDays:          30,
		DefectRate:         0.5,
		PriceChangePercent: 90,
		OrderPriority:      "High",
	}
	assert.Equal(t, 100.0, p.OrderScore(high))

	low := data.Order{
		DelayDays:          0,
		DefectRate:         0,
		PriceChangePercent: 0,
		OrderPriority:      "Low",
	}
	score := p.OrderScore(low)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestOrderScoreUsesAbsolutePriceChange(t *testing.T) {
	p := DefaultPolicy()

	up := data.Order{PriceChangePercent: 10, OrderPriority: "Low"}
	down := data.Order{PriceChangePercent: -10, OrderPriority: "Low"}
	assert.Equal(t, p.OrderScore(up), p.OrderScore(down))
}

func TestOrderScoreUnknownPriority(t *testing.T) {
	p := DefaultPolicy()

	unknown := data.Order{OrderPriority: "Critical"}
	medium := data.Order{OrderPriority: "Medium"}
	assert.Equal(t, p.OrderScore(medium), p.OrderScore(unknown))
}

func TestSupplierScoreClipsToRange(t *testing.T) {
	p := DefaultPolicy()

	worst := data.SupplierAggregate{
		AvgDefectRate: 1,
		AvgDelayDays:  50,
		OnTimeRate:    0,
	}
	assert.Equal(t, 100.0, p.SupplierScore(worst))

	best := data.SupplierAggregate{OnTimeRate: 1}
	assert.Equal(t, 0.0, p.SupplierScore(best))
}

func TestCategoryBoundaries(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, CategoryLow, p.Category(0))
	assert.Equal(t, CategoryLow, p.Category(39.99))
	assert.Equal(t, CategoryMedium, p.Category(40))
	assert.Equal(t, CategoryMedium, p.Category(69.99))
	assert.Equal(t, CategoryHigh, p.Category(70))
	assert.Equal(t, CategoryHigh, p.Category(100))
}

func TestScoreOrders(t *testing.T) {
	p := DefaultPolicy()

	orders := []data.Order{
		{
			OrderID:       "ORD-0001",
			SupplierID:    "SUP-1",
			OrderPriority: "Low",
		},
		{
			OrderID:            "ORD-0002",
			SupplierID:         "SUP-2",
			DelayDays:          3,
			DefectRate:         0.02,
			PriceChangePercent: 2.5,
			OrderPriority:      "Medium",
		},
	}

	scored := p.ScoreOrders(orders)
	require.Len(t, scored, 2)

	// 0*18 + 0*250 + 0*1.2 + 5*0.6 = 3.0
	assert.Equal(t, 3.0, scored[0].Score)
	assert.Equal(t, CategoryLow, scored[0].Category)

	// 3*18 + 0.02*250 + 2.5*1.2 + 10*0.6 = 68.0
	assert.Equal(t, 68.0, scored[1].Score)
	assert.Equal(t, CategoryMedium, scored[1].Category)
}

func TestScoreSuppliersRankedByScore(t *testing.T) {
	p := DefaultPolicy()

	aggregates := []data.SupplierAggregate{
		{SupplierID: "SUP-1", TotalOrders: 2, OnTimeRate: 1},
		{SupplierID: "SUP-2", TotalOrders: 3, AvgDefectRate: 0.2, AvgDelayDays: 5, OnTimeRate: 0.2},
		{SupplierID: "SUP-3", TotalOrders: 1, AvgDefectRate: 0.05, AvgDelayDays: 2, OnTimeRate: 0.8},
	}

	report := p.ScoreSuppliers(aggregates)
	require.Len(t, report, 3)
	assert.Equal(t, "SUP-2", report[0].SupplierID)
	assert.Equal(t, "SUP-3", report[1].SupplierID)
	assert.Equal(t, "SUP-1", report[2].SupplierID)

	for i := 1; i < len(report); i++ {
		assert.GreaterOrEqual(t, report[i-1].Score, report[i].Score)
	}
}

func TestScoreSuppliersTiesKeepInputOrder(t *testing.T) {
	p := DefaultPolicy()

	aggregates := []data.SupplierAggregate{
		{SupplierID: "SUP-1", OnTimeRate: 1},
		{SupplierID: "SUP-2", OnTimeRate: 1},
		{SupplierID: "SUP-3", OnTimeRate: 1},
	}

	report := p.ScoreSuppliers(aggregates)
	require.Len(t, report, 3)
	assert.Equal(t, "SUP-1", report[0].SupplierID)
	assert.Equal(t, "SUP-2", report[1].SupplierID)
	assert.Equal(t, "SUP-3", report[2].SupplierID)
}

func TestCategoryUsesRoundedScore(t *testing.T) {
	p := DefaultPolicy()

	// raw score 39.996 rounds to 40.00 which is Medium, not Low
	a := data.SupplierAggregate{AvgDelayDays: 13.332, OnTimeRate: 1}
	raw := p.SupplierScore(a)
	require.InDelta(t, 39.996, raw, 1e-9)

	report := p.ScoreSuppliers([]data.SupplierAggregate{a})
	require.Len(t, report, 1)
	assert.Equal(t, 40.0, report[0].Score)
	assert.Equal(t, CategoryMedium, report[0].Category)
}

func TestReportTable(t *testing.T) {
	p := DefaultPolicy()

	report := p.ScoreSuppliers([]data.SupplierAggregate{
		{SupplierID: "SUP-1", TotalOrders: 2, AvgDefectRate: 0.03, AvgDelayDays: 3, OnTimeRate: 0.5},
	})

	tbl := ReportTable(report)
	assert.Equal(t, ReportColumns, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "SUP-1", tbl.Rows[0][0])
	assert.Equal(t, "2", tbl.Rows[0][1])
}
