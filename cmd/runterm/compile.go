package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/programme-lv/runterm/internal/app"
	"github.com/programme-lv/runterm/internal/gatherer/termgath"
)

func compileCmd() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "compile a C source file and print diagnostics",
		ArgsUsage: "<source.c>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the compile result as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src, err := sourceArg(cmd)
			if err != nil {
				return err
			}
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			svc := app.FromConfig(cfg, logger)
			defer svc.Close()

			if !cmd.Bool("json") {
				svc.Hub().Subscribe("term", termgath.New(os.Stdout))
			}
			res := svc.Compile(ctx, src)

			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return fmt.Errorf("failed to encode result: %w", err)
				}
			}
			if !res.Succeeded() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func sourceArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", cli.Exit(fmt.Sprintf("usage: runterm %s %s", cmd.Name, cmd.ArgsUsage), 2)
	}
	path, err := filepath.Abs(cmd.Args().First())
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return path, nil
}
