package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSupplierAggregates(t *testing.T) {
	db := setupTestDB(t)

	a1 := testOrder("ORD-0001", "SUP-1")
	a1.DelayDays = 2
	a1.DefectRate = 0.02
	a1.OrderStatus = OrderStatusOnTime

	a2 := testOrder("ORD-0002", "SUP-1")
	a2.DelayDays = 4
	a2.DefectRate = 0.04
	a2.OrderStatus = OrderStatusDelayed

	b1 := testOrder("ORD-0003", "SUP-2")
	b1.DelayDays = 0
	b1.DefectRate = 0
	b1.OrderStatus = OrderStatusOnTime

	insertOrders(t, db, a1, a2, b1)

	aggregates, err := GetSupplierAggregates(db)
	require.NoError(t, err)
	require.Len(t, aggregates, 2)

	sup1 := aggregates[0]
	assert.Equal(t, "SUP-1", sup1.SupplierID)
	assert.Equal(t, int64(2), sup1.TotalOrders)
	assert.InDelta(t, 3.0, sup1.AvgDelayDays, 1e-9)
	assert.InDelta(t, 0.03, sup1.AvgDefectRate, 1e-9)
	assert.InDelta(t, 0.5, sup1.OnTimeRate, 1e-9)

	sup2 := aggregates[1]
	assert.Equal(t, "SUP-2", sup2.SupplierID)
	assert.InDelta(t, 1.0, sup2.OnTimeRate, 1e-9)
}

func TestGetSupplierAggregatesEmptyDB(t *testing.T) {
	db := setupTestDB(t)

	aggregates, err := GetSupplierAggregates(db)
	require.NoError(t, err)
	assert.Empty(t, aggregates)
}

func TestGetSupplierAggregate(t *testing.T) {
	db := setupTestDB(t)
	insertOrders(t, db, testOrder("ORD-0001", "SUP-1"))

	a, err := GetSupplierAggregate(db, "SUP-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.TotalOrders)
	assert.InDelta(t, 1.0, a.OnTimeRate, 1e-9)
}

func TestGetSupplierAggregateNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetSupplierAggregate(db, "SUP-404")
	assert.ErrorIs(t, err, ErrSupplierNotFound)
}

func TestCountSuppliers(t *testing.T) {
	db := setupTestDB(t)
	insertOrders(t, db,
		testOrder("ORD-0001", "SUP-1"),
		testOrder("ORD-0002", "SUP-1"),
		testOrder("ORD-0003", "SUP-2"),
	)

	count, err := CountSuppliers(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSupplierNilDB(t *testing.T) {
	_, err := GetSupplierAggregates(nil)
	assert.Error(t, err)

	_, err = GetSupplierAggregate(nil, "SUP-1")
	assert.Error(t, err)

	_, err = CountSuppliers(nil)
	assert.Error(t, err)
}
