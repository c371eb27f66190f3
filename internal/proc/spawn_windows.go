//go:build windows

package proc

import (
	"os/exec"
	"path/filepath"
)

func startPty(string, Winsize) (*process, error) {
	return nil, ErrNoPty
}

func startPipe(path string) (*process, error) {
	cmd := exec.Command("cmd.exe", "/c", path)
	cmd.Dir = filepath.Dir(path)
	return startPiped(cmd)
}
