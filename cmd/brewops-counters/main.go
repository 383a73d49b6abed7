// Package main is the entry point for the brewops-counters admin CLI.
package main

import (
	"os"

	"brewops/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
