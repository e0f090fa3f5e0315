// Package main provides the entry point for the corvus CLI.
package main

import (
	"os"

	"github.com/corvusdb/corvus/cmd/corvus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
