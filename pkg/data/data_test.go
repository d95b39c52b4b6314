package data

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), DataFileName))
	require.NoError(t, err)
	require.NoError(t, db.Init())

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func testOrder(id, supplier string) Order {
	return Order{
		OrderID:            id,
		SupplierID:         supplier,
		Quantity:           100,
		UnitPrice:          25.50,
		DefectRate:         0.02,
		DelayDays:          1.5,
		OrderStatus:        OrderStatusOnTime,
		OrderPriority:      "Medium",
		ItemCategory:       "Electronics",
		ShippingMode:       "Air",
		PaymentTerms:       "Net30",
		Region:             "North",
		PriceChangePercent: 2.5,
	}
}

func insertOrders(t *testing.T, db *DB, orders ...Order) {
	t.Helper()

	for _, o := range orders {
		_, err := db.Exec(db.rebind(insertOrderSQL),
			o.OrderID, o.SupplierID, o.Quantity, o.UnitPrice, o.DefectRate,
			o.DelayDays, o.OrderStatus, o.OrderPriority, o.ItemCategory,
			o.ShippingMode, o.PaymentTerms, o.Region, o.PriceChangePercent)
		require.NoError(t, err)
	}
}

func writeOrdersCSV(t *testing.T, rows [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "orders.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(OrderColumns))
	require.NoError(t, w.WriteAll(rows))

	return path
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	require.Error(t, err)
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open(DriverSQLite, "")
	require.Error(t, err)
}

func TestInitIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Init())
	require.NoError(t, db.Init())
}

func TestRebind(t *testing.T) {
	db := setupTestDB(t)
	// sqlite keeps positional placeholders as-is
	require.Equal(t, "SELECT ? AND ?", db.rebind("SELECT ? AND ?"))

	pg := &DB{driver: DriverPostgres}
	require.Equal(t, "SELECT $1 AND $2", pg.rebind("SELECT ? AND ?"))
}
