package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/supplysight/sctl/pkg/data"
)

var (
	queryOrdersFlag = &cli.BoolFlag{
		Name:  "orders",
		Usage: "Score individual orders instead of reading the supplier report",
	}

	queryCmd = &cli.Command{
		Name:  "query",
		Usage: "Query the published reports",
		Commands: []*cli.Command{
			{
				Name:   "risk",
				Usage:  "Supplier risk report (or per-order scores with --orders)",
				Flags:  []cli.Flag{queryOrdersFlag},
				Action: cmdQueryRisk,
			},
			{
				Name:   "anomalies",
				Usage:  "Anomaly report",
				Action: artifactQueryAction(data.KindAnomalyReport),
			},
			{
				Name:   "clusters",
				Usage:  "Supplier cluster report",
				Action: artifactQueryAction(data.KindClusterReport),
			},
			{
				Name:   "summary",
				Usage:  "Procurement KPI summary",
				Action: artifactQueryAction(data.KindSummary),
			},
			{
				Name:   "state",
				Usage:  "Database and artifact state",
				Action: cmdQueryState,
			},
		},
	}
)

// artifactQueryAction outputs one published artifact, with a friendly error
// when the pipeline has not produced it yet.
func artifactQueryAction(kind data.Kind) func(context.Context, *cli.Command) error {
	return func(_ context.Context, cmd *cli.Command) error {
		r, err := getRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.close()

		t, err := r.store.Read(kind)
		if errors.Is(err, data.ErrArtifactNotFound) {
			return fmt.Errorf("%s not yet computed, run the pipeline first", kind)
		}
		if err != nil {
			return err
		}

		return writeOutput(cmd, t)
	}
}

func cmdQueryRisk(_ context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	if !cmd.Bool(queryOrdersFlag.Name) {
		t, err := r.store.Read(data.KindRiskReport)
		if errors.Is(err, data.ErrArtifactNotFound) {
			return fmt.Errorf("%s not yet computed, run the pipeline first", data.KindRiskReport)
		}
		if err != nil {
			return err
		}
		return writeOutput(cmd, t)
	}

	// Per-order scores are cheap enough to compute on demand, they are not
	// published as an artifact.
	orders, err := data.GetOrders(r.db)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return data.ErrNoOrders
	}

	return writeOutput(cmd, r.cfg.Risk.ScoreOrders(orders))
}

func cmdQueryState(_ context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	s, err := data.GetState(r.db, r.store)
	if err != nil {
		return err
	}

	return writeOutput(cmd, s)
}
