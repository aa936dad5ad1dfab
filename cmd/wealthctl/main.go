package main

import (
	"fmt"
	"os"

	"wealth/internal/cli"
	"wealth/internal/config"
	"wealth/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	// Command output owns stdout.
	logger := cli.SetupLogger(cfg, log.ComponentCLI, os.Stderr)

	ctx, stop := cli.SignalContext()
	defer stop()

	root := cli.NewRootCommand(&cli.Env{Config: cfg, Logger: logger})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
