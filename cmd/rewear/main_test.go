package main

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/rewear/internal/testutil"
)

func Test_run(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	port, err := testutil.RandomPort()
	require.NoError(t, err, "failed to get random port to start server")
	listenAddr := fmt.Sprintf("localhost:%d", port)

	noenv := func(string) string { return "" }

	t.Run("stop with context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		t.Cleanup(cancel)

		err := run(ctx, noenv, os.Getwd, []string{
			"--address", listenAddr,
			"--log-level", "debug",
			"--database", pg.DSN,
			"--secret-key", "secret",
		})

		require.NoError(t, err, "on correct stop should not return error")
	})

	t.Run("fail without secret key", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		t.Cleanup(cancel)

		err := run(ctx, noenv, os.Getwd, []string{
			"--address", listenAddr,
			"--database", pg.DSN,
		})

		require.ErrorContains(t, err, "secret key is required")
	})

	t.Run("fail with unknown environment", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		t.Cleanup(cancel)

		err := run(ctx, noenv, os.Getwd, []string{
			"--address", listenAddr,
			"--database", pg.DSN,
			"--secret-key", "secret",
			"--environment", "staging",
		})

		require.ErrorContains(t, err, "unknown environment")
	})
}
