package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/supplysight/sctl/pkg/server"
)

var (
	portFlag = &cli.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen",
		Value: server.PortDefault,
	}

	serveCmd = &cli.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the local JSON API server",
		Flags:   []cli.Flag{portFlag},
		Action:  cmdServe,
	}
)

func cmdServe(ctx context.Context, cmd *cli.Command) error {
	r, err := getRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.close()

	return server.Serve(ctx, r.db, r.store, int(cmd.Int(portFlag.Name)))
}
