package config_test

import (
	"fmt"

	"github.com/wonny/aegis-credit/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Contracts: %s\n", cfg.Credit.DataPath)
	fmt.Printf("Model: %s\n", cfg.Credit.ModelPath)
	fmt.Printf("Database enabled: %v\n", cfg.Database.Enabled())
}
