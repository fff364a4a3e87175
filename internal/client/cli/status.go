package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iudanet/notifsync/internal/limiter"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// Status is the report printed by the status command.
type Status struct {
	Extent *ExtentStatus `json:"extent,omitempty" yaml:"extent,omitempty"`
	Remote *RemoteStatus `json:"remote,omitempty" yaml:"remote,omitempty"`
	Store  StoreStatus   `json:"store" yaml:"store"`
	Limits []LimitStatus `json:"limits" yaml:"limits"`
}

// StoreStatus describes the local cache.
type StoreStatus struct {
	Oldest      *time.Time `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest      *time.Time `json:"newest,omitempty" yaml:"newest,omitempty"`
	Driver      string     `json:"driver" yaml:"driver"`
	Path        string     `json:"path" yaml:"path"`
	CachedItems int        `json:"cached_items" yaml:"cached_items"`
	Ready       bool       `json:"ready" yaml:"ready"`
}

// ExtentStatus describes the recorded reach of the last completed sync.
type ExtentStatus struct {
	LastFetch        time.Time `json:"last_fetch" yaml:"last_fetch"`
	Age              string    `json:"age" yaml:"age"`
	TotalItems       int       `json:"total_items" yaml:"total_items"`
	DaysReached      int       `json:"days_reached" yaml:"days_reached"`
	HorizonDays      int       `json:"horizon_days" yaml:"horizon_days"`
	Fresh            bool      `json:"fresh" yaml:"fresh"`
	SkipFullBackfill bool      `json:"skip_full_backfill" yaml:"skip_full_backfill"`
}

// RemoteStatus is the result of a health check against the server.
type RemoteStatus struct {
	Status  string `json:"status,omitempty" yaml:"status,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// LimitStatus is the budget of one limiter class.
type LimitStatus struct {
	Class        string `json:"class" yaml:"class"`
	Window       string `json:"window" yaml:"window"`
	Capacity     int    `json:"capacity" yaml:"capacity"`
	MaxQueueSize int    `json:"max_queue_size" yaml:"max_queue_size"`
	Tokens       int    `json:"tokens" yaml:"tokens"`
}

func (c *Cli) statusCommand() *cobra.Command {
	var (
		format string
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the local cache, extent and rate limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runStatus(cmd.Context(), format, remote)
		},
	}

	cmd.Flags().StringVarP(&format, "output-format", "o", formatTable, "output format: table, json, yaml")
	cmd.Flags().BoolVar(&remote, "remote", false, "also check server health")

	return cmd
}

func (c *Cli) runStatus(ctx context.Context, format string, remote bool) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	app, err := c.app(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	status, err := c.collectStatus(ctx, app, remote)
	if err != nil {
		return err
	}

	switch format {
	case formatJSON:
		payload, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		c.io.Println(string(payload))
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(c.io)
		enc.SetIndent(2)
		if err := enc.Encode(status); err != nil {
			return err
		}
		return enc.Close()
	default:
		tmpl := template.Must(template.New("status").Funcs(template.FuncMap{
			"fmtTime": func(t any) string {
				switch v := t.(type) {
				case time.Time:
					return v.Local().Format(time.RFC3339)
				case *time.Time:
					return v.Local().Format(time.RFC3339)
				}
				return ""
			},
		}).Parse(statusTemplate))
		if err := tmpl.Execute(c.io, status); err != nil {
			return err
		}
		c.io.Println()
		_, err := c.io.Write([]byte(renderLimits(status.Limits, c.io.IsTerminal())))
		return err
	}
}

func (c *Cli) collectStatus(ctx context.Context, app *App, remote bool) (*Status, error) {
	cfg := app.Config
	status := &Status{
		Store: StoreStatus{Driver: cfg.Store.Driver, Path: cfg.Store.Path},
	}

	if store, err := app.Cache(); err == nil {
		status.Store.Ready = true

		count, err := store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count cached items: %w", err)
		}
		status.Store.CachedItems = count

		if rec, err := store.Oldest(ctx); err == nil && rec != nil {
			t := rec.TemporalKey
			status.Store.Oldest = &t
		}
		if rec, err := store.Newest(ctx); err == nil && rec != nil {
			t := rec.TemporalKey
			status.Store.Newest = &t
		}
	}

	if app.Tracker != nil {
		ext, err := app.Tracker.Load(ctx)
		if err != nil {
			return nil, err
		}
		if ext != nil {
			age := time.Since(ext.LastFetchTimestamp)
			fresh := age <= cfg.Sync.MetadataFreshness
			skip, err := app.Tracker.ShouldSkipFullBackfill(ctx)
			if err != nil {
				c.logger.Warn("Failed to evaluate extent", zap.Error(err))
			}
			status.Extent = &ExtentStatus{
				LastFetch:        ext.LastFetchTimestamp,
				Age:              age.Round(time.Second).String(),
				TotalItems:       ext.TotalItemsFetched,
				DaysReached:      ext.DaysReached,
				HorizonDays:      app.Tracker.HorizonDays(),
				Fresh:            fresh,
				SkipFullBackfill: skip,
			}
		}
	}

	for _, class := range app.Registry.Classes() {
		l := app.Registry.Get(class)
		lc := l.Config()
		status.Limits = append(status.Limits, LimitStatus{
			Class:        string(class),
			Capacity:     lc.Capacity,
			Window:       lc.Window.String(),
			MaxQueueSize: lc.MaxQueueSize,
			Tokens:       l.Tokens(),
		})
	}

	if remote {
		status.Remote = checkRemote(ctx, app)
	}

	return status, nil
}

// checkRemote calls the health endpoint through the general limiter.
func checkRemote(ctx context.Context, app *App) *RemoteStatus {
	health, err := limiter.Do(ctx, app.Registry.Get(limiter.ClassGeneral), limiter.PriorityUser, app.Client.Health)
	if err != nil {
		return &RemoteStatus{Error: err.Error()}
	}
	return &RemoteStatus{Status: health.Status, Version: health.Version}
}
