package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/supplysight/sctl/pkg/data"
	"github.com/supplysight/sctl/pkg/model"
)

var (
	predictSupplierFlag = &cli.StringFlag{
		Name:     "supplier",
		Aliases:  []string{"s"},
		Usage:    "Supplier ID (history features come from its imported orders)",
		Required: true,
	}

	predictQuantityFlag = &cli.FloatFlag{
		Name:  "quantity",
		Usage: "Order quantity",
	}

	predictUnitPriceFlag = &cli.FloatFlag{
		Name:  "unit-price",
		Usage: "Unit price",
	}

	predictDefectRateFlag = &cli.FloatFlag{
		Name:  "defect-rate",
		Usage: "Expected defect rate [0,1]",
	}

	predictPriceChangeFlag = &cli.FloatFlag{
		Name:  "price-change",
		Usage: "Price change percent since last order",
	}

	predictCategoryFlag = &cli.StringFlag{
		Name:  "category",
		Usage: "Item category",
	}

	predictShippingFlag = &cli.StringFlag{
		Name:  "shipping",
		Usage: "Shipping mode",
	}

	predictPaymentFlag = &cli.StringFlag{
		Name:  "payment",
		Usage: "Payment terms",
	}

	predictPriorityFlag = &cli.StringFlag{
		Name:  "priority",
		Usage: "Order priority [Low, Medium, High]",
	}

	predictRegionFlag = &cli.StringFlag{
		Name:  "region",
		Usage: "Destination region",
	}

	predictCmd = &cli.Command{
		Name:  "predict",
		Usage: "Predict whether an order will be delayed using the trained model",
		Flags: []cli.Flag{
			predictSupplierFlag,
			predictQuantityFlag,
			predictUnitPriceFlag,
			predictDefectRateFlag,
			predictPriceChangeFlag,
			predictCategoryFlag,
			predictShippingFlag,
			predictPaymentFlag,
			predictPriorityFlag,
			predictRegionFlag,
		},
		Action: cmdPredict,
	}
)

type prediction struct {
	Model      string `json:"model" yaml:"model"`
	SupplierID string `json:"supplier_id" yaml:"supplierID"`
	Delayed    bool   `json:"delayed" yaml:"delayed"`
	Label      string `json:"label" yaml:"label"`
}

func cmdPredict(_ context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	b, err := r.store.ReadRaw(data.KindModel)
	if errors.Is(err, data.ErrArtifactNotFound) {
		return errors.New("no trained model found, run train first")
	}
	if err != nil {
		return fmt.Errorf("error loading model artifact: %w", err)
	}

	a, err := model.DecodeArtifact(b)
	if err != nil {
		return err
	}

	supplierID := cmd.String(predictSupplierFlag.Name)
	hist, err := data.GetSupplierAggregate(r.db, supplierID)
	if err != nil {
		return err
	}

	in := model.Input{
		Quantity:              cmd.Float(predictQuantityFlag.Name),
		UnitPrice:             cmd.Float(predictUnitPriceFlag.Name),
		DefectRate:            cmd.Float(predictDefectRateFlag.Name),
		PriceChangePercent:    cmd.Float(predictPriceChangeFlag.Name),
		ItemCategory:          cmd.String(predictCategoryFlag.Name),
		ShippingMode:          cmd.String(predictShippingFlag.Name),
		PaymentTerms:          cmd.String(predictPaymentFlag.Name),
		OrderPriority:         cmd.String(predictPriorityFlag.Name),
		Region:                cmd.String(predictRegionFlag.Name),
		SupplierAvgDelayDays:  hist.AvgDelayDays,
		SupplierAvgDefectRate: hist.AvgDefectRate,
		SupplierOnTimeRate:    hist.OnTimeRate,
	}

	delayed, err := a.Predict(in)
	if err != nil {
		return err
	}

	label := data.OrderStatusOnTime
	if delayed {
		label = data.OrderStatusDelayed
	}

	return writeOutput(cmd, &prediction{
		Model:      a.Model,
		SupplierID: supplierID,
		Delayed:    delayed,
		Label:      label,
	})
}
