package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/runterm/internal/app"
	"github.com/programme-lv/runterm/internal/gatherer/natsgath"
	"github.com/programme-lv/runterm/internal/gatherer/sqsgath"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "accept compile and run commands over NATS and stream events back",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "nats-url", Usage: "overrides nats.url"},
			&cli.StringFlag{Name: "subject", Usage: "overrides nats.subject"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if v := cmd.String("nats-url"); v != "" {
				cfg.Nats.URL = v
			}
			if v := cmd.String("subject"); v != "" {
				cfg.Nats.Subject = v
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			nc, err := nats.Connect(cfg.Nats.URL, nats.Name("runterm"))
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			defer nc.Drain()

			svc := app.FromConfig(cfg, logger)
			defer svc.Close()

			svc.Hub().Subscribe("nats", natsgath.New(nc, cfg.Nats.Subject, cfg.Nats.Compress, logger))
			if cfg.Sqs.QueueURL != "" {
				client, err := sqsgath.NewClient(ctx, cfg.Sqs.Region)
				if err != nil {
					return err
				}
				svc.Hub().Subscribe("sqs", sqsgath.NewSqsExitReporter(client, cfg.Sqs.QueueURL, logger))
			}

			bridge := natsgath.NewBridge(svc, cfg.Nats.Subject, logger)
			if _, err := bridge.Subscribe(ctx, nc); err != nil {
				return err
			}
			logger.Info("serving", "nats", cfg.Nats.URL, "subject", cfg.Nats.Subject,
				"events", natsgath.EventsSubject(cfg.Nats.Subject))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return svc.Pump(gctx) })
			g.Go(func() error {
				<-gctx.Done()
				return svc.Close()
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("shutting down")
			return nil
		},
	}
}
