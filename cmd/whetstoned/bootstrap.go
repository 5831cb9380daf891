package main

import (
	"fmt"

	"whetstone/internal/config"
)

// resolveConfig loads the daemon configuration and prepares the directories
// the run loop writes into. Run assumes the log directory exists.
func resolveConfig(path string) (*config.Config, error) {
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}
	return cfg, nil
}
