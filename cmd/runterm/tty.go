package main

import (
	"os"

	"golang.org/x/term"
)

func termSize(f *os.File) (uint16, uint16, bool) {
	cols, rows, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return 0, 0, false
	}
	return uint16(cols), uint16(rows), true
}

// makeRaw puts the terminal in raw mode so keystrokes, including Ctrl-C,
// reach the program's own terminal.
func makeRaw(f *os.File) (func(), error) {
	fd := int(f.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { term.Restore(fd, old) }, nil
}
