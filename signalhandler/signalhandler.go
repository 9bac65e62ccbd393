package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
)

// SetupHandler configures signal handling for safer interaction with C libraries
func SetupHandler() {
	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 1)

	// Register for specific signals
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Handle signals in a separate goroutine
	go func() {
		sig := <-sigChan
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			// Clean shutdown
			os.Exit(0)
		}
	}()
}

// GetOptimalProcs returns the optimal number of worker goroutines for the
// system. Physical core count is preferred over logical: the contour and
// warp work is CPU bound inside C code, where hyperthreads buy nothing.
func GetOptimalProcs() int {
	numCPU, err := cpu.Counts(false)
	if err != nil || numCPU < 1 {
		numCPU = runtime.NumCPU()
	}

	// For image processing with CGo, using too many goroutines can cause issues
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
