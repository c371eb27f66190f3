// Package proc starts a program under a pseudo-terminal, or under plain
// pipes where no pty can be allocated.
package proc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// ErrNoPty means a pseudo-terminal could not be allocated.
var ErrNoPty = errors.New("pseudo-terminal unavailable")

type Winsize struct {
	Cols uint16
	Rows uint16
}

const (
	DefaultCols uint16 = 80
	DefaultRows uint16 = 24
)

// OrDefault replaces zero dimensions with 80x24.
func (w Winsize) OrDefault() Winsize {
	if w.Cols == 0 {
		w.Cols = DefaultCols
	}
	if w.Rows == 0 {
		w.Rows = DefaultRows
	}
	return w
}

// Proc is a started program. Read yields its merged stdout and stderr.
type Proc interface {
	io.Reader
	Pid() int
	// Terminal reports whether the program runs under a pty.
	Terminal() bool
	Send(text string) error
	Resize(ws Winsize) error
	// Wait blocks until the program exits and returns its exit code.
	Wait() (int, error)
	Done() <-chan struct{}
	Signal(sig os.Signal) error
	Kill() error
	// Close releases the read side, unblocking a pending Read.
	Close() error
}

type Spawner interface {
	Spawn(path string, ws Winsize) (Proc, error)
}

// Local spawns programs on this machine with the binary's directory as cwd.
type Local struct {
	DisablePty bool
	Logger     *slog.Logger
}

// Relative paths are resolved against the caller's working directory.
func (l Local) Spawn(path string, ws Winsize) (Proc, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat executable: %w", err)
	}

	if !l.DisablePty {
		p, err := startPty(path, ws.OrDefault())
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNoPty) {
			return nil, fmt.Errorf("failed to start %s: %w", filepath.Base(path), err)
		}
		if l.Logger != nil {
			l.Logger.Debug("falling back to pipes", "path", path, "err", err)
		}
	}

	p, err := startPipe(path)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// process is shared by the pty and pipe flavours. For a pty, out and in
// are both the master side.
type process struct {
	cmd      *exec.Cmd
	terminal bool
	out      io.ReadCloser
	in       io.WriteCloser
	resize   func(Winsize) error

	waitOnce  sync.Once
	code      int
	waitErr   error
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func newProcess(cmd *exec.Cmd, terminal bool, out io.ReadCloser, in io.WriteCloser) *process {
	return &process{
		cmd:      cmd,
		terminal: terminal,
		out:      out,
		in:       in,
		done:     make(chan struct{}),
	}
}

func (p *process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *process) Terminal() bool {
	return p.terminal
}

func (p *process) Read(b []byte) (int, error) {
	return p.out.Read(b)
}

// Send writes raw keystrokes to a pty; over pipes each submission is a line.
func (p *process) Send(text string) error {
	if !p.terminal {
		text += "\n"
	}
	_, err := io.WriteString(p.in, text)
	return err
}

func (p *process) Resize(ws Winsize) error {
	if p.resize == nil {
		return nil
	}
	return p.resize(ws.OrDefault())
}

func (p *process) Wait() (int, error) {
	p.waitOnce.Do(func() {
		p.code, p.waitErr = ExitCode(p.cmd.Wait())
		close(p.done)
	})
	return p.code, p.waitErr
}

func (p *process) Done() <-chan struct{} {
	return p.done
}

func (p *process) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *process) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *process) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.out.Close()
		if !p.terminal {
			p.in.Close()
		}
	})
	return p.closeErr
}

// ExitCode converts the result of exec.Cmd.Wait. A process killed by a
// signal reports -1.
func ExitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, err
}
