package main

import (
	"os"

	"github.com/wonny/aegis-credit/cmd/creditrisk/commands"
)

// main is the entry point for the credit risk CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/creditrisk [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
