package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/app"
	"github.com/programme-lv/runterm/internal/gatherer/respbuilder"
	"github.com/programme-lv/runterm/internal/gatherer/termgath"
)

// detachKey (Ctrl-]) stops the program while the terminal is raw.
const detachKey = 0x1d

var runFlags = []cli.Flag{
	&cli.BoolFlag{Name: "json", Usage: "suppress live output and print a JSON report at exit"},
	&cli.UintFlag{Name: "cols", Usage: "terminal width (default: current terminal or config)"},
	&cli.UintFlag{Name: "rows", Usage: "terminal height (default: current terminal or config)"},
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "compile a C source file and run it interactively",
		ArgsUsage: "<source.c>",
		Flags:     runFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src, err := sourceArg(cmd)
			if err != nil {
				return err
			}
			return session(ctx, cmd, src, true)
		},
	}
}

func execCmd() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "run an already compiled program interactively",
		ArgsUsage: "<program>",
		Flags:     runFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := sourceArg(cmd)
			if err != nil {
				return err
			}
			return session(ctx, cmd, path, false)
		},
	}
}

// exitWatch reports the exit code of the one session the CLI starts.
type exitWatch struct {
	done chan int
}

func (w *exitWatch) StartCompile(string)             {}
func (w *exitWatch) FinishCompile(api.CompileResult) {}
func (w *exitWatch) Output(string, []byte)           {}

func (w *exitWatch) Exit(_ string, code int, _ *api.ExecStats) {
	select {
	case w.done <- code:
	default:
	}
}

func session(ctx context.Context, cmd *cli.Command, path string, compileFirst bool) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	svc := app.FromConfig(cfg, logger)
	defer svc.Close()

	asJSON := cmd.Bool("json")
	report := respbuilder.New(0)
	svc.Hub().Subscribe("report", report)
	if !asJSON {
		svc.Hub().Subscribe("term", termgath.New(os.Stdout))
	}

	if compileFirst {
		res := svc.Compile(ctx, path)
		if !res.Succeeded() {
			if asJSON {
				printReport(report)
			}
			return cli.Exit("", 1)
		}
		path = res.ExecutablePath
	}

	watch := &exitWatch{done: make(chan int, 1)}
	svc.Hub().Subscribe("exit", watch)

	cols, rows := uint16(cmd.Uint("cols")), uint16(cmd.Uint("rows"))
	if c, r, ok := termSize(os.Stdin); ok {
		if cols == 0 {
			cols = c
		}
		if rows == 0 {
			rows = r
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error { return svc.Pump(context.Background()) })

	if _, err := svc.Run(gctx, path, cols, rows); err != nil {
		return err
	}

	restore := func() {}
	if svc.Terminal() && !asJSON {
		if r, err := makeRaw(os.Stdin); err == nil {
			restore = r
		} else {
			logger.Debug("stdin stays in cooked mode", "err", err)
		}
	}
	go forwardInput(svc, os.Stdin, svc.Terminal(), logger)
	stopResize := watchResize(os.Stdin, func(c, r uint16) { svc.Resize(c, r) })

	var code int
	select {
	case code = <-watch.done:
	case <-sigCtx.Done():
		svc.Stop()
		select {
		case code = <-watch.done:
		case <-time.After(5 * time.Second):
			code = api.ExitTerminated
		}
	}
	stopResize()
	restore()

	svc.Close()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if asJSON {
		printReport(report)
	}
	return exitStatus(code)
}

type inputSink interface {
	SubmitInput(text string) error
	Stop() error
}

// forwardInput copies stdin to the session. A pty gets raw bytes; a pipe
// session gets one submission per line.
func forwardInput(svc inputSink, in io.Reader, terminal bool, logger *slog.Logger) {
	buf := make([]byte, 1024)
	var line []byte
	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			if b == detachKey {
				svc.Stop()
				continue
			}
			if terminal {
				line = append(line, b)
				continue
			}
			if b == '\n' {
				svc.SubmitInput(string(line))
				line = line[:0]
				continue
			}
			line = append(line, b)
		}
		if terminal && len(line) > 0 {
			svc.SubmitInput(string(line))
			line = line[:0]
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("stopped reading stdin", "err", err)
			}
			return
		}
	}
}

func printReport(b *respbuilder.Builder) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b.Response()); err != nil {
		fmt.Fprintln(os.Stderr, "failed to encode report:", err)
	}
}

// exitStatus maps a session exit code onto a process exit status.
func exitStatus(code int) error {
	switch {
	case code == 0:
		return nil
	case code == api.ExitTerminated:
		return cli.Exit("", 137)
	case code < 0 || code > 255:
		return cli.Exit("", 1)
	default:
		return cli.Exit("", code)
	}
}
