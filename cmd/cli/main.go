// Package main is the entry point for the handoff CLI.
// The CLI is the developer terminal tool for interacting with the handoff API.
package main

import (
	"os"

	"handoff/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
