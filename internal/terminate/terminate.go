// Package terminate stops a running program and everything it spawned.
package terminate

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"
)

const DefaultWindow = 500 * time.Millisecond

type Process interface {
	Pid() int
	Signal(sig os.Signal) error
	Kill() error
	Done() <-chan struct{}
}

// Strategy starts termination of p. The returned channel is closed once
// the strategy has done everything it is going to do.
type Strategy interface {
	Terminate(p Process) <-chan struct{}
}

// Forceful kills the process group and falls back to the process itself.
type Forceful struct {
	// KillGroup kills every process in the group led by pid.
	KillGroup func(pid int) error
	Logger    *slog.Logger
}

func (f Forceful) Terminate(p Process) <-chan struct{} {
	done := make(chan struct{})
	f.kill(p)
	close(done)
	return done
}

func (f Forceful) kill(p Process) {
	if exited(p) {
		return
	}
	log := f.logger().With("pid", p.Pid())

	// pid 0 and -1 address our own group and every process we may signal
	if pid := p.Pid(); pid > 0 && f.KillGroup != nil {
		err := f.KillGroup(pid)
		if err == nil {
			log.Debug("killed process group")
			return
		}
		log.Debug("failed to kill process group", "err", err)
	}

	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Warn("failed to kill process", "err", err)
	}
}

func (f Forceful) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}

// Graceful asks with SIGTERM first and escalates to Forceful if the
// process is still running once Window has elapsed.
type Graceful struct {
	Window   time.Duration
	Forceful Forceful
}

func (g Graceful) Terminate(p Process) <-chan struct{} {
	done := make(chan struct{})
	if exited(p) {
		close(done)
		return done
	}

	if err := p.Signal(syscall.SIGTERM); err != nil {
		if !errors.Is(err, os.ErrProcessDone) {
			g.Forceful.logger().Debug("failed to send SIGTERM", "pid", p.Pid(), "err", err)
			g.Forceful.kill(p)
		}
		close(done)
		return done
	}

	window := g.Window
	if window <= 0 {
		window = DefaultWindow
	}
	go func() {
		defer close(done)
		timer := time.NewTimer(window)
		defer timer.Stop()
		select {
		case <-p.Done():
		case <-timer.C:
			g.Forceful.logger().Info("process ignored SIGTERM, killing", "pid", p.Pid(), "window", window)
			g.Forceful.kill(p)
		}
	}()
	return done
}

func exited(p Process) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

// Strategies is chosen once per platform. Force is used where waiting is
// not wanted, e.g. for a session replaced by a newer one.
type Strategies struct {
	Pty   Strategy
	Pipe  Strategy
	Force Strategy
}

func (s Strategies) For(terminal bool) Strategy {
	if terminal {
		return s.Pty
	}
	return s.Pipe
}
