package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

const defaultListLimit = 20

func (c *Cli) listCommand() *cobra.Command {
	var (
		limit  int
		offset int
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runList(cmd.Context(), limit, offset, format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "number of items to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of newest items to skip")
	cmd.Flags().StringVarP(&format, "output-format", "o", formatTable, "output format: table, json")

	return cmd
}

func (c *Cli) runList(ctx context.Context, limit, offset int, format string) error {
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown output format %q", format)
	}
	if limit < 0 || offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
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

	records, err := store.Range(ctx, limit, offset, storage.Descending)
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	items := make([]models.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.Payload)
	}

	if format == formatJSON {
		payload, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return err
		}
		c.io.Println(string(payload))
		return nil
	}

	if len(items) == 0 {
		c.io.Println("No notifications cached.")
		c.io.Println()
		c.io.Println("Run 'notifsync sync' to fetch the feed.")
		return nil
	}

	_, err = c.io.Write([]byte(renderItems(items, offset, c.io.IsTerminal())))
	return err
}
