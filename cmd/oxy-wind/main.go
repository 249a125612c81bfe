// Command oxy-wind renders a wind-animated foliage patch and provides tooling for the wind
// material system: shader folder resolution, texture generation and headless simulation.
package main

import (
	"os"
	"runtime"
)

// GLFW requires events to be processed on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
