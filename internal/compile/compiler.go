// Package compile invokes the platform C toolchain on a single source file.
package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/programme-lv/runterm/api"
	"github.com/programme-lv/runterm/internal/diag"
)

// flags are fixed: C89 in Turbo C compatibility mode.
var flags = []string{"-std=c89", "-ansi", "-pedantic", "-Wno-deprecated", "-D__TURBOC__"}

type Compiler struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Compiler)

// WithCommand overrides the toolchain executable.
func WithCommand(name string) Option {
	return func(c *Compiler) { c.command = name }
}

// WithTimeout bounds each compilation. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

func New(opts ...Option) *Compiler {
	c := &Compiler{command: DefaultCommand(runtime.GOOS)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// DefaultCommand is clang on macOS and gcc everywhere else.
func DefaultCommand(goos string) string {
	if goos == "darwin" {
		return "clang"
	}
	return "gcc"
}

// OutputPath is the source path without its extension, in the same directory.
func OutputPath(sourcePath string) string {
	return outputPath(sourcePath, runtime.GOOS)
}

func outputPath(sourcePath string, goos string) string {
	out := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	if goos == "windows" {
		out += ".exe"
	}
	return out
}

// Args returns the full argument vector passed to the toolchain.
func Args(sourcePath string, outPath string) []string {
	args := []string{sourcePath, "-o", outPath}
	return append(args, flags...)
}

// Compile blocks until the toolchain exits. It never returns an error:
// every problem is reported as a failed result with diagnostics.
func (c *Compiler) Compile(ctx context.Context, sourcePath string) api.CompileResult {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	outPath := OutputPath(sourcePath)
	cmd := exec.CommandContext(ctx, c.command, Args(sourcePath, outPath)...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	log := c.logger.With("path", sourcePath, "compiler", c.command, "took", time.Since(start).Round(time.Millisecond))

	if err == nil {
		log.Info("compilation succeeded", "out", outPath)
		return api.NewCompileSuccess(outPath)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn("compilation interrupted", "err", ctxErr)
		if errors.Is(ctxErr, context.DeadlineExceeded) && c.timeout > 0 {
			return api.NewCompileError(fmt.Sprintf("compilation timed out after %s", c.timeout))
		}
		return api.NewCompileError("compilation cancelled")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Info("compilation failed", "code", exitErr.ExitCode())
		return api.NewCompileFailure(diag.Parse(stderr.String()))
	}

	log.Error("failed to launch compiler", "err", err)
	return api.NewCompileError(fmt.Sprintf("Compiler not found: %v. Please install clang or gcc.", err))
}

// CompileAsync runs Compile in the background. The channel receives
// exactly one result and is then closed.
func (c *Compiler) CompileAsync(ctx context.Context, sourcePath string) <-chan api.CompileResult {
	done := make(chan api.CompileResult, 1)
	go func() {
		defer close(done)
		done <- c.Compile(ctx, sourcePath)
	}()
	return done
}
