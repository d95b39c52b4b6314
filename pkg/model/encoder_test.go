package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitEncoderSortsCategories(t *testing.T) {
	enc := FitEncoder([]Example{
		{Input: Input{ItemCategory: "Metals", Region: "South"}},
		{Input: Input{ItemCategory: "Electronics", Region: "North"}},
		{Input: Input{ItemCategory: "Electronics", Region: "South"}},
	})

	assert.Equal(t, []string{"Electronics", "Metals"}, enc.Categories["item_category"])
	assert.Equal(t, []string{"North", "South"}, enc.Categories["region"])
}

func TestTransformOneHot(t *testing.T) {
	enc := FitEncoder([]Example{
		{Input: Input{ItemCategory: "Electronics"}},
		{Input: Input{ItemCategory: "Metals"}},
	})

	x := enc.Transform(Input{ItemCategory: "Metals", Quantity: 10})
	require.Len(t, x, enc.Width())

	// item_category block comes first: [Electronics, Metals]
	assert.Equal(t, 0.0, x[0])
	assert.Equal(t, 1.0, x[1])
}

func TestTransformUnseenCategoryEncodesAsZeros(t *testing.T) {
	enc := FitEncoder([]Example{
		{Input: Input{ItemCategory: "Electronics"}},
		{Input: Input{ItemCategory: "Metals"}},
	})

	x := enc.Transform(Input{ItemCategory: "Furniture"})
	require.Len(t, x, enc.Width())
	assert.Equal(t, 0.0, x[0])
	assert.Equal(t, 0.0, x[1])
}

func TestTransformNumericTail(t *testing.T) {
	enc := FitEncoder([]Example{{Input: Input{}}})

	in := Input{
		Quantity:              10,
		UnitPrice:             2.5,
		DefectRate:            0.01,
		PriceChangePercent:    -1,
		SupplierAvgDelayDays:  3,
		SupplierAvgDefectRate: 0.02,
		SupplierOnTimeRate:    0.9,
	}

	x := enc.Transform(in)
	require.Len(t, x, enc.Width())

	tail := x[len(x)-7:]
	assert.Equal(t, []float64{10, 2.5, 0.01, -1, 3, 0.02, 0.9}, tail)
}

func TestWidthCountsVocabulary(t *testing.T) {
	enc := FitEncoder([]Example{
		{Input: Input{ItemCategory: "A", ShippingMode: "Air", Region: "N"}},
		{Input: Input{ItemCategory: "B", ShippingMode: "Sea", Region: "N"}},
	})

	// 2 categories + 2 modes + 1 empty payment + 1 empty priority + 1 region + 7 numerics
	assert.Equal(t, 2+2+1+1+1+7, enc.Width())
}
