package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"newsletter/app"
	"newsletter/config"
	"newsletter/utils"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	root := newRootCmd(openFromEnv)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openFromEnv() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger.SetOutput(os.Stderr)
	return app.Open(cfg, logger)
}
