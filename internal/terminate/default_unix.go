//go:build !windows

package terminate

import (
	"log/slog"
	"time"

	"golang.org/x/sys/unix"
)

func killGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}

// Default kills pty sessions outright and gives pipe sessions a
// SIGTERM window.
func Default(window time.Duration, logger *slog.Logger) Strategies {
	force := Forceful{KillGroup: killGroup, Logger: logger}
	return Strategies{
		Pty:   force,
		Pipe:  Graceful{Window: window, Forceful: force},
		Force: force,
	}
}
