package cli

import (
	"context"
	"fmt"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/iudanet/notifsync/internal/config"
)

func (c *Cli) syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync session and exit",
		Long: `Run one sync session: serve a fresh local cache, or backfill the feed from
the server up to the horizon. Polling is disabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSync(cmd.Context())
		},
	}

	cmd.Flags().Int("page-size", config.DefaultPageSize, "items per page (1-100)")
	cmd.Flags().Int("max-pages", config.DefaultMaxPages, "maximum pages per backfill")
	c.bind(cmd.Flags(), map[string]string{
		"sync.page_size": "page-size",
		"sync.max_pages": "max-pages",
	})

	return cmd
}

func (c *Cli) runSync(ctx context.Context) error {
	app, err := c.app(ctx, func(cfg *config.Config) {
		cfg.Sync.PollInterval = 0
	})
	if err != nil {
		return err
	}
	defer app.Close()

	c.io.Println("=== Synchronization ===")

	result, err := app.Controller.Sync(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	tmpl := template.Must(template.New("sync").Parse(syncResultTemplate))
	return tmpl.Execute(c.io, result)
}
