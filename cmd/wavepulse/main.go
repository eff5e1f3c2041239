// Package main is the production entry point for WavePulse.
//
// Build:
//
//	go build -o build/wavepulse ./cmd/wavepulse
//
// Run:
//
//	./build/wavepulse play track.wav
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(launch).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
