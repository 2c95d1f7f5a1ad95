package main

import (
	"os"

	"github.com/wonny/sectorlag/cmd/lagscan/commands"
)

// main is the entry point for the lagscan CLI: go run ./cmd/lagscan [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
