package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/programme-lv/runterm/internal/environment"
	"github.com/programme-lv/runterm/internal/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "runterm",
		Usage: "compile C programs and run them in a supervised terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config.toml (default: $XDG_CONFIG_HOME/runterm/config.toml)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			compileCmd(),
			runCmd(),
			execCmd(),
			serveCmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config and builds the logger every command uses.
func setup(cmd *cli.Command) (*environment.Config, *slog.Logger, error) {
	cfg, err := environment.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(os.Stderr, level), nil
}
