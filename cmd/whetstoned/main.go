package main

import (
	"context"
	"log"

	"github.com/spf13/pflag"

	"whetstone/internal/daemonrun"
)

func main() {
	var configPath string
	var logLevel string
	var development bool

	pflag.StringVarP(&configPath, "config", "c", "", "configuration file path")
	pflag.StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	pflag.BoolVar(&development, "development", false, "use development logging output")
	pflag.Parse()

	cfg, err := resolveConfig(configPath)
	if err != nil {
		log.Fatalf("whetstoned: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:    logLevel,
		Development: development,
	}); err != nil {
		log.Fatalf("whetstoned: %v", err)
	}
}
