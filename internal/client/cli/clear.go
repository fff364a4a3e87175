package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *Cli) clearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached notification and the recorded extent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the cache without --yes")
			}
			return c.runClear(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm clearing the cache")

	return cmd
}

func (c *Cli) runClear(ctx context.Context) error {
	app, err := c.app(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	store, err := app.Cache()
	if err != nil {
		return err
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if app.Tracker != nil {
		if err := app.Tracker.Reset(ctx); err != nil {
			return err
		}
	}

	c.io.Println("✓ Local cache cleared")
	return nil
}
