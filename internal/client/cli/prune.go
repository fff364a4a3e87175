package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/config"
)

func (c *Cli) pruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached notifications older than a given age",
		Long: `Remove cached notifications older than a given age.

Pruning invalidates the recorded extent, so the next sync runs a full backfill.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runPrune(cmd.Context(), olderThan)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than",
		time.Duration(config.DefaultHorizonDays)*24*time.Hour, "age of the items to remove, e.g. 168h")

	return cmd
}

func (c *Cli) runPrune(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}

	app, err := c.app(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	store, err := app.Cache()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-olderThan)
	removed, err := store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	if removed > 0 && app.Tracker != nil {
		if err := app.Tracker.Reset(ctx); err != nil {
			// Не прерываем: данные уже удалены
			c.logger.Warn("Failed to reset extent after prune", zap.Error(err))
		}
	}

	c.io.Printf("Removed %d notification(s) indexed before %s\n", removed, cutoff.Local().Format(time.RFC3339))
	return nil
}
