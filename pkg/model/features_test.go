package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplysight/sctl/pkg/data"
)

func TestBuildExamplesFullAggregation(t *testing.T) {
	orders := []data.Order{
		{OrderID: "1", SupplierID: "S1", DelayDays: 2, DefectRate: 0.02, OrderStatus: data.OrderStatusOnTime},
		{OrderID: "2", SupplierID: "S1", DelayDays: 4, DefectRate: 0.04, OrderStatus: data.OrderStatusDelayed},
	}

	examples, err := BuildExamples(orders, AggregationFull)
	require.NoError(t, err)
	require.Len(t, examples, 2)

	// both orders see the same full-history aggregates
	for _, ex := range examples {
		assert.InDelta(t, 3.0, ex.Input.SupplierAvgDelayDays, 1e-9)
		assert.InDelta(t, 0.03, ex.Input.SupplierAvgDefectRate, 1e-9)
		assert.InDelta(t, 0.5, ex.Input.SupplierOnTimeRate, 1e-9)
	}

	assert.False(t, examples[0].Delayed)
	assert.True(t, examples[1].Delayed)
}

func TestBuildExamplesLeaveOneOut(t *testing.T) {
	orders := []data.Order{
		{OrderID: "1", SupplierID: "S1", DelayDays: 2, DefectRate: 0.02, OrderStatus: data.OrderStatusOnTime},
		{OrderID: "2", SupplierID: "S1", DelayDays: 4, DefectRate: 0.04, OrderStatus: data.OrderStatusDelayed},
	}

	examples, err := BuildExamples(orders, AggregationLeaveOneOut)
	require.NoError(t, err)
	require.Len(t, examples, 2)

	// each order sees only the other order's history
	assert.InDelta(t, 4.0, examples[0].Input.SupplierAvgDelayDays, 1e-9)
	assert.InDelta(t, 0.0, examples[0].Input.SupplierOnTimeRate, 1e-9)
	assert.InDelta(t, 2.0, examples[1].Input.SupplierAvgDelayDays, 1e-9)
	assert.InDelta(t, 1.0, examples[1].Input.SupplierOnTimeRate, 1e-9)
}

func TestBuildExamplesLeaveOneOutSingleOrderFallsBack(t *testing.T) {
	orders := []data.Order{
		{OrderID: "1", SupplierID: "S1", DelayDays: 5, DefectRate: 0.1, OrderStatus: data.OrderStatusDelayed},
	}

	examples, err := BuildExamples(orders, AggregationLeaveOneOut)
	require.NoError(t, err)
	require.Len(t, examples, 1)

	// a single-order supplier keeps its own values
	assert.InDelta(t, 5.0, examples[0].Input.SupplierAvgDelayDays, 1e-9)
	assert.InDelta(t, 0.1, examples[0].Input.SupplierAvgDefectRate, 1e-9)
	assert.InDelta(t, 0.0, examples[0].Input.SupplierOnTimeRate, 1e-9)
}

func TestBuildExamplesUnknownAggregation(t *testing.T) {
	_, err := BuildExamples([]data.Order{{OrderID: "1", SupplierID: "S1"}}, "bogus")
	assert.Error(t, err)
}

func TestBuildExamplesEmpty(t *testing.T) {
	_, err := BuildExamples(nil, AggregationFull)
	assert.Error(t, err)
}
