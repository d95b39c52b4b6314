// Package cli implements the sctl command-line application.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/supplysight/sctl/pkg/config"
	"github.com/supplysight/sctl/pkg/data"
	"github.com/supplysight/sctl/pkg/logging"
)

const (
	name = "sctl"

	reportsDirName = "reports"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFlag = &cli.StringFlag{
		Name:  "db",
		Usage: fmt.Sprintf("Path to the SQLite database file (optional, defaults to $HOME/.%s/%s)", name, data.DataFileName),
	}

	driverFlag = &cli.StringFlag{
		Name:  "driver",
		Usage: "Database driver [sqlite, postgres]",
		Value: data.DriverSQLite,
	}

	dsnFlag = &cli.StringFlag{
		Name:  "dsn",
		Usage: "Database connection string (required for the postgres driver)",
	}

	reportsFlag = &cli.StringFlag{
		Name:  "reports",
		Usage: fmt.Sprintf("Reports directory (optional, defaults to $HOME/.%s/%s)", name, reportsDirName),
	}

	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: fmt.Sprintf("Config directory (optional, defaults to $HOME/.%s)", name),
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefault("info")

	if err := newRootCmd().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:   "CLI for supplier risk, anomaly, and delay insight from procurement orders",
		Flags: []cli.Flag{
			debugFlag,
			dbFlag,
			driverFlag,
			dsnFlag,
			reportsFlag,
			configFlag,
			formatFlag,
		},
		Commands: []*cli.Command{
			importCmd,
			runCmd,
			scoreCmd,
			detectCmd,
			segmentCmd,
			trainCmd,
			predictCmd,
			queryCmd,
			serveCmd,
		},
	}
}

// runtime bundles the resources every command needs: the order database,
// the artifact store, and the pipeline config.
type runtime struct {
	db    *data.DB
	store *data.FileStore
	cfg   *config.Config
}

func (r *runtime) close() {
	if r.db != nil {
		r.db.Close()
	}
}

func getRuntime(cmd *cli.Command) (*runtime, error) {
	if cmd.Bool(debugFlag.Name) {
		logging.SetDefault("debug")
	}

	home := getHomeDir()

	dsn := cmd.String(dsnFlag.Name)
	driver := cmd.String(driverFlag.Name)
	if dsn == "" && (driver == "" || driver == data.DriverSQLite) {
		dsn = cmd.String(dbFlag.Name)
		if dsn == "" {
			dsn = filepath.Join(home, data.DataFileName)
		}
	}

	db, err := data.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	reportsDir := cmd.String(reportsFlag.Name)
	if reportsDir == "" {
		reportsDir = filepath.Join(home, reportsDirName)
	}
	store, err := data.NewFileStore(reportsDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error opening reports store: %w", err)
	}

	confDir := cmd.String(configFlag.Name)
	if confDir == "" {
		confDir = home
	}
	cfg, err := config.ReadOrCreate(confDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return &runtime{db: db, store: store, cfg: cfg}, nil
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	dir := filepath.Join(home, "."+name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		slog.Error("failed to create app home dir", "dir", dir, "error", err)
	}
	return dir
}

// writeOutput renders the command result to stdout in the selected format.
func writeOutput(cmd *cli.Command, v any) error {
	switch strings.ToLower(cmd.String(formatFlag.Name)) {
	case formatYAML, "yml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("error marshaling output: %w", err)
		}
		fmt.Fprint(os.Stdout, string(b))
	default:
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "  ")
		if err := e.Encode(v); err != nil {
			return fmt.Errorf("error encoding output: %w", err)
		}
	}
	return nil
}
