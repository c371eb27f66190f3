// Package app wires the compiler, the supervisor and the event sinks into
// the command set a UI talks to.
package app

import (
	"context"
	"log/slog"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/compile"
	"github.com/programme-lv/runterm/internal/environment"
	"github.com/programme-lv/runterm/internal/gatherer"
	"github.com/programme-lv/runterm/internal/logging"
	"github.com/programme-lv/runterm/internal/monitor"
	"github.com/programme-lv/runterm/internal/proc"
	"github.com/programme-lv/runterm/internal/supervisor"
	"github.com/programme-lv/runterm/internal/terminate"
)

type Service struct {
	compiler *compile.Compiler
	sup      *supervisor.Supervisor
	hub      *gatherer.Hub
	viewport proc.Winsize
	logger   *slog.Logger
}

func New(c *compile.Compiler, sup *supervisor.Supervisor, viewport proc.Winsize, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		compiler: c,
		sup:      sup,
		hub:      gatherer.NewHub(),
		viewport: viewport.OrDefault(),
		logger:   logger,
	}
}

// FromConfig builds the whole stack for the local machine.
func FromConfig(cfg *environment.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	opts := []compile.Option{
		compile.WithTimeout(cfg.CompileTimeout()),
		compile.WithLogger(logger.With("component", "compile")),
	}
	if cfg.Compiler.Command != "" {
		opts = append(opts, compile.WithCommand(cfg.Compiler.Command))
	}

	supLog := logger.With("component", "supervisor")
	sup := supervisor.New(
		supervisor.WithLogger(supLog),
		supervisor.WithSpawner(proc.Local{DisablePty: cfg.Terminal.DisablePty, Logger: supLog}),
		supervisor.WithMonitor(monitor.New(monitor.DefaultSampler(), cfg.SampleInterval(), supLog)),
		supervisor.WithStrategies(terminate.Default(cfg.GraceWindow(), supLog)),
	)

	return New(compile.New(opts...), sup, proc.Winsize{Cols: cfg.Terminal.Cols, Rows: cfg.Terminal.Rows}, logger)
}

// Hub receives every compile and session event once Pump runs.
func (s *Service) Hub() *gatherer.Hub {
	return s.hub
}

func (s *Service) Compile(ctx context.Context, sourcePath string) api.CompileResult {
	s.hub.StartCompile(sourcePath)
	res := s.compiler.Compile(ctx, sourcePath)
	s.hub.FinishCompile(res)
	return res
}

// Run starts execPath. Zero dimensions fall back to the configured viewport.
func (s *Service) Run(ctx context.Context, execPath string, cols, rows uint16) (string, error) {
	if cols == 0 {
		cols = s.viewport.Cols
	}
	if rows == 0 {
		rows = s.viewport.Rows
	}
	return s.sup.Run(ctx, execPath, cols, rows)
}

func (s *Service) SubmitInput(text string) error {
	return s.sup.SubmitInput(text)
}

func (s *Service) Resize(cols, rows uint16) error {
	return s.sup.Resize(cols, rows)
}

func (s *Service) Stop() error {
	return s.sup.Stop()
}

// Terminal reports whether the current session runs under a pty.
func (s *Service) Terminal() bool {
	return s.sup.Terminal()
}

// Pump forwards supervisor events to the hub until Close or ctx is done.
func (s *Service) Pump(ctx context.Context) error {
	return gatherer.Pump(ctx, s.hub, s.sup.Events())
}

func (s *Service) Close() error {
	return s.sup.Close()
}
