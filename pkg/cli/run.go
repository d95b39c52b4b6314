package cli

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/supplysight/sctl/pkg/pipeline"
)

var (
	runCmd = &cli.Command{
		Name:   "run",
		Usage:  "Run the full pipeline: score, detect, segment, train, summarize",
		Action: cmdRun,
	}

	scoreCmd = &cli.Command{
		Name:   "score",
		Usage:  "Compute the supplier risk report",
		Action: cmdScore,
	}

	detectCmd = &cli.Command{
		Name:   "detect",
		Usage:  "Flag anomalous orders",
		Action: cmdDetect,
	}

	segmentCmd = &cli.Command{
		Name:   "segment",
		Usage:  "Cluster suppliers into behavior segments",
		Action: cmdSegment,
	}

	trainCmd = &cli.Command{
		Name:   "train",
		Usage:  "Retrain the delay-prediction model",
		Action: cmdTrain,
	}
)

func cmdRun(ctx context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	res, runErr := pipeline.Run(ctx, r.db, r.store, r.cfg)
	if res != nil {
		if err := writeOutput(cmd, res); err != nil {
			return err
		}
	}
	// A partial run still reported its result, the non-zero exit comes
	// from the stage errors.
	return runErr
}

func cmdScore(_ context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	return pipeline.Score(r.db, r.store, r.cfg)
}

func cmdDetect(_ context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	n, err := pipeline.Detect(r.db, r.store, r.cfg)
	if err != nil {
		return err
	}

	slog.Info("anomaly detection complete", "flagged", n)
	return nil
}

func cmdSegment(_ context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	return pipeline.Segment(r.db, r.store, r.cfg)
}

func cmdTrain(ctx context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	tr, err := pipeline.Train(ctx, r.db, r.store, r.cfg)
	if err != nil {
		return err
	}

	return writeOutput(cmd, tr.Results)
}
