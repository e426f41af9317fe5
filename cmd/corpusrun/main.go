package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/torosent/corpusrun/internal/config"
	"github.com/torosent/corpusrun/internal/harness"
	"github.com/torosent/corpusrun/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	code, err := harness.Run(ctx, cfg, harness.Deps{
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	})
	if err != nil && !errors.Is(err, harness.ErrNoInput) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}
