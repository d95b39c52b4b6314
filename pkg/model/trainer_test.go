package model

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplysight/sctl/pkg/data"
)

// trainingOrders returns a snapshot where high unit price and defect rate
// strongly predict delay, so both candidates can learn the boundary.
func trainingOrders(n int) []data.Order {
	orders := make([]data.Order, 0, n)
	for i := 0; i < n; i++ {
		delayed := i%2 == 0

		o := data.Order{
			OrderID:       fmt.Sprintf("ORD-%04d", i),
			SupplierID:    fmt.Sprintf("SUP-%d", i%6),
			Quantity:      int64(50 + i%10),
			OrderStatus:   data.OrderStatusOnTime,
			OrderPriority: "Medium",
			ItemCategory:  "Electronics",
			ShippingMode:  "Air",
			PaymentTerms:  "Net30",
			Region:        "North",
		}
		if delayed {
			o.OrderStatus = data.OrderStatusDelayed
			o.UnitPrice = 200 + float64(i%5)
			o.DefectRate = 0.3
			o.DelayDays = 10
		} else {
			o.UnitPrice = 10 + float64(i%5)
			o.DefectRate = 0.01
		}
		orders = append(orders, o)
	}
	return orders
}

func TestTrainSelectsBestByF1(t *testing.T) {
	res, err := Train(context.Background(), trainingOrders(100), DefaultConfig(42))
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, CandidateLogistic, res.Results[0].Model)
	assert.Equal(t, CandidateForest, res.Results[1].Model)

	// separable data: the winner should classify the held-out set cleanly
	assert.Greater(t, res.BestF1, 0.9)
	require.NotNil(t, res.Artifact)
	assert.Equal(t, res.Best, res.Artifact.Model)
}

func TestTrainIsDeterministic(t *testing.T) {
	orders := trainingOrders(80)

	first, err := Train(context.Background(), orders, DefaultConfig(42))
	require.NoError(t, err)

	second, err := Train(context.Background(), orders, DefaultConfig(42))
	require.NoError(t, err)

	assert.Equal(t, first.Best, second.Best)
	assert.Equal(t, first.BestF1, second.BestF1)
	require.Len(t, second.Results, len(first.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Metrics, second.Results[i].Metrics)
	}
}

func TestTrainTieKeepsCanonicalOrder(t *testing.T) {
	res, err := Train(context.Background(), trainingOrders(100), DefaultConfig(42))
	require.NoError(t, err)

	// strictly-greater selection: on an exact tie the first candidate wins
	if res.Results[0].F1 == res.Results[1].F1 {
		assert.Equal(t, CandidateLogistic, res.Best)
	}
}

func TestTrainTooFewOrders(t *testing.T) {
	_, err := Train(context.Background(), trainingOrders(2), DefaultConfig(42))
	assert.Error(t, err)
}

func TestComparisonTableRankedByF1(t *testing.T) {
	results := []CandidateResult{
		{Model: CandidateLogistic, Metrics: Metrics{F1: 0.8}},
		{Model: CandidateForest, Metrics: Metrics{F1: 0.9}},
	}

	tbl := ComparisonTable(results)
	assert.Equal(t, ComparisonColumns, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, CandidateForest, tbl.Rows[0][0])
	assert.Equal(t, CandidateLogistic, tbl.Rows[1][0])
	assert.Equal(t, "0.9000", tbl.Rows[0][4])
}

func TestLogRow(t *testing.T) {
	row := LogRow(CandidateResult{
		Timestamp: "2026-01-02 03:04:05",
		Model:     CandidateForest,
		Metrics:   Metrics{Accuracy: 0.9, Precision: 0.8, Recall: 0.7, F1: 0.75},
	})

	assert.Equal(t, []string{"2026-01-02 03:04:05", CandidateForest, "0.9000", "0.8000", "0.7000", "0.7500"}, row)
}

func TestLogisticLearnsSeparableData(t *testing.T) {
	x := [][]float64{{0}, {0.1}, {0.2}, {1.8}, {1.9}, {2}}
	y := []bool{false, false, false, true, true, true}

	m := trainLogistic(x, y, 2000, 0.1)
	for i := range x {
		assert.Equal(t, y[i], m.Predict(x[i]), "sample %d", i)
	}
}

func TestForestLearnsSeparableData(t *testing.T) {
	x := make([][]float64, 0, 40)
	y := make([]bool, 0, 40)
	for i := 0; i < 20; i++ {
		x = append(x, []float64{float64(i % 5), 0})
		y = append(y, false)
		x = append(x, []float64{float64(i%5) + 10, 1})
		y = append(y, true)
	}

	m := trainForest(x, y, 50, 5, rand.New(rand.NewSource(42)))
	for i := range x {
		assert.Equal(t, y[i], m.Predict(x[i]), "sample %d", i)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	res, err := Train(context.Background(), trainingOrders(60), DefaultConfig(42))
	require.NoError(t, err)

	b, err := res.Artifact.Encode()
	require.NoError(t, err)

	restored, err := DecodeArtifact(b)
	require.NoError(t, err)
	assert.Equal(t, res.Artifact.Model, restored.Model)

	in := Input{
		UnitPrice:  200,
		DefectRate: 0.3,
		Quantity:   50,
		SupplierAvgDelayDays: 5,
	}
	want, err := res.Artifact.Predict(in)
	require.NoError(t, err)
	got, err := restored.Predict(in)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestArtifactPredictUnseenCategory(t *testing.T) {
	res, err := Train(context.Background(), trainingOrders(60), DefaultConfig(42))
	require.NoError(t, err)

	_, err = res.Artifact.Predict(Input{ItemCategory: "Never-Seen", Region: "Atlantis"})
	assert.NoError(t, err)
}

func TestDecodeArtifactVersionCheck(t *testing.T) {
	_, err := DecodeArtifact([]byte(`{"version":99}`))
	assert.Error(t, err)

	_, err = DecodeArtifact([]byte(`not json`))
	assert.Error(t, err)
}
