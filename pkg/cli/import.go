package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/supplysight/sctl/pkg/data"
)

var (
	importFileFlag = &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path to the orders CSV file",
		Required: true,
	}

	importCmd = &cli.Command{
		Name:   "import",
		Usage:  "Replace the order snapshot with the content of a CSV file",
		Flags:  []cli.Flag{importFileFlag},
		Action: cmdImport,
	}
)

func cmdImport(_ context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	res, err := data.ImportOrders(r.db, cmd.String(importFileFlag.Name))
	if err != nil {
		return fmt.Errorf("error importing orders: %w", err)
	}

	slog.Info("orders imported", "imported", res.Imported, "skipped", res.Skipped)
	return writeOutput(cmd, res)
}
