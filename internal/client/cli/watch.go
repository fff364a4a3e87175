package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/client/sync"
	"github.com/iudanet/notifsync/internal/config"
)

// maxWatchLines ограничивает вывод одного события
const maxWatchLines = 10

func (c *Cli) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync and keep polling for new notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runWatch(ctx)
		},
	}

	cmd.Flags().Duration("poll-interval", config.DefaultPollInterval, "interval between polls of the newest page")
	c.bind(cmd.Flags(), map[string]string{
		"sync.poll_interval": "poll-interval",
	})

	return cmd
}

func (c *Cli) runWatch(ctx context.Context) error {
	app, err := c.app(ctx, func(cfg *config.Config) {
		if cfg.Sync.PollInterval <= 0 {
			cfg.Sync.PollInterval = config.DefaultPollInterval
		}
	})
	if err != nil {
		return err
	}
	defer app.Close()

	events, unsubscribe := app.Controller.Subscribe()
	defer unsubscribe()

	c.io.Printf("Watching notifications (poll every %s). Press Ctrl+C to stop.\n", app.Config.Sync.PollInterval)
	app.Controller.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			c.io.Println("Stopped.")
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			c.printEvent(ctx, app, e)
		}
	}
}

func (c *Cli) printEvent(ctx context.Context, app *App, e sync.Event) {
	stamp := e.At.Local().Format(time.TimeOnly)

	switch e.Type {
	case sync.EventDataChanged:
		c.io.Printf("[%s] %d new notification(s)\n", stamp, e.Inserted)
		// Во время догрузки новые элементы не самые свежие
		if e.State != sync.StatePolling {
			return
		}

		items, err := app.Controller.Items(ctx, min(e.Inserted, maxWatchLines), 0)
		if err != nil {
			c.logger.Debug("Failed to read items", zap.Error(err))
			return
		}
		for _, item := range items {
			c.io.Printf("  %s\n", describeItem(item))
		}
		if e.Inserted > maxWatchLines {
			c.io.Printf("  ... and %d more\n", e.Inserted-maxWatchLines)
		}
	case sync.EventStateChanged:
		c.logger.Debug("Sync state changed", zap.String("state", e.State.String()))
		if e.State == sync.StatePolling {
			c.io.Printf("[%s] up to date\n", stamp)
		}
	case sync.EventSyncFailed:
		c.io.Printf("[%s] sync failed: %v\n", stamp, e.Err)
	}
}
