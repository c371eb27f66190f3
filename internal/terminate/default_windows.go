//go:build windows

package terminate

import (
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

func killGroup(pid int) error {
	return exec.Command("taskkill", "/pid", strconv.Itoa(pid), "/T", "/F").Run()
}

// Default is forceful for every session; windows has no SIGTERM.
func Default(_ time.Duration, logger *slog.Logger) Strategies {
	force := Forceful{KillGroup: killGroup, Logger: logger}
	return Strategies{Pty: force, Pipe: force, Force: force}
}
