//go:build !unix

package main

import "os"

func watchResize(*os.File, func(cols, rows uint16)) func() {
	return func() {}
}
