package proc

import (
	"fmt"
	"os"
	"os/exec"
)

// startPiped merges stdout and stderr into a single pipe.
func startPiped(cmd *exec.Cmd) (*process, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	stdin, err := cmd.StdinPipe()
	if err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("failed to create input pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	w.Close()

	return newProcess(cmd, false, r, stdin), nil
}
