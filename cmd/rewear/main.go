package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	err := run(context.Background(), os.Getenv, os.Getwd, os.Args[1:])
	if err != nil {
		slog.Error("server stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

// Load config from .env, environment and flags (latter wins) and run server until ctx is done or signal received
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	c := NewConfig()
	if err := c.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("error while loading .env: %w", err)
	}
	if err := c.LoadEnv(getenv); err != nil {
		return err
	}
	if err := c.ParseFlags(args); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize context that cancelled on SIGTERM
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := NewServerApp(ctx, c)
	if err != nil {
		return fmt.Errorf("can't initialize app: %w", err)
	}

	return srv.Run(ctx)
}
