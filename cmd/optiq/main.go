// Package main is the entry point for the optiq CLI tool.
package main

import (
	"os"

	"github.com/Materials-Consortia/optimade-go/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
