//go:build !windows

package terminate_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/runterm/internal/proc"
	"github.com/programme-lv/runterm/internal/terminate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipeStrategyKillsProcessIgnoringTerm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stubborn")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\ntrap '' TERM\nsleep 10\n"), 0755))

	p, err := proc.Local{DisablePty: true}.Spawn(path, proc.Winsize{})
	require.NoError(t, err)
	defer p.Close()

	exited := make(chan int, 1)
	go func() {
		code, _ := p.Wait()
		exited <- code
	}()

	// let the shell install its trap
	time.Sleep(100 * time.Millisecond)

	window := 200 * time.Millisecond
	start := time.Now()
	done := terminate.Default(window, nil).Pipe.Terminate(p)

	select {
	case code := <-exited:
		assert.GreaterOrEqual(t, time.Since(start), window)
		assert.Equal(t, -1, code)
	case <-time.After(5 * time.Second):
		t.Fatal("process survived termination")
	}
	waitClosed(t, done)
}
