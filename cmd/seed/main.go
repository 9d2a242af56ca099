package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"libraryapi/internal/app"
	"libraryapi/internal/platform/config"
	"libraryapi/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Populate the configured store with sample data",
		SilenceUsage: true,
	}
	root.AddCommand(newBooksCmd(), newAdminCmd())
	return root
}

// withStore opens the store named by the environment, runs fn and closes it.
func withStore(ctx context.Context, fn func(*app.Store, *slog.Logger) error) error {
	logger := logging.New(os.Stderr, "text", os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("close store", "error", err)
		}
	}()
	return fn(store, logger)
}
