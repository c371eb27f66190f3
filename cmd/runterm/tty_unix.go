//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// watchResize calls onResize with the new size after every SIGWINCH.
func watchResize(f *os.File, onResize func(cols, rows uint16)) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				if c, r, ok := termSize(f); ok {
					onResize(c, r)
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
