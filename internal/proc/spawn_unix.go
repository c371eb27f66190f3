//go:build !windows

package proc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/creack/pty"
)

func startPty(path string, ws Winsize) (*process, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPty, err)
	}
	defer tty.Close()

	if err := pty.Setsize(ptmx, &pty.Winsize{Rows: ws.Rows, Cols: ws.Cols}); err != nil {
		ptmx.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoPty, err)
	}

	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		return nil, err
	}

	p := newProcess(cmd, true, ptmx, ptmx)
	p.resize = func(ws Winsize) error {
		return pty.Setsize(ptmx, &pty.Winsize{Rows: ws.Rows, Cols: ws.Cols})
	}
	return p, nil
}

func startPipe(path string) (*process, error) {
	cmd := exec.Command(path)
	cmd.Dir = filepath.Dir(path)
	// own process group so the whole tree can be signalled
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return startPiped(cmd)
}
