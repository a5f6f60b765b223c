// Package main is the entry point for the nlfind CLI.
package main

import (
	"os"

	"github.com/runger/nlfind/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
