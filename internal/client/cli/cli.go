// Package cli implements the notifsync client commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/client/iocli"
	"github.com/iudanet/notifsync/internal/config"
	"github.com/iudanet/notifsync/internal/observability"
)

// VersionInfo is set via ldflags during build.
type VersionInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// LoggerFactory builds the logger from the configured level and format.
type LoggerFactory func(level, format string) (*zap.Logger, error)

type Cli struct {
	io        iocli.IO
	v         *viper.Viper
	cfg       *config.Config
	logger    *zap.Logger
	newLogger LoggerFactory
	info      VersionInfo
}

// Option customizes a Cli.
type Option func(*Cli)

// WithLoggerFactory replaces the zap logger constructor.
func WithLoggerFactory(f LoggerFactory) Option {
	return func(c *Cli) {
		if f != nil {
			c.newLogger = f
		}
	}
}

// WithViper uses v instead of a fresh viper instance.
func WithViper(v *viper.Viper) Option {
	return func(c *Cli) {
		if v != nil {
			c.v = v
		}
	}
}

func New(io iocli.IO, info VersionInfo, opts ...Option) *Cli {
	c := &Cli{
		io:        io,
		v:         viper.New(),
		newLogger: observability.NewLogger,
		info:      info,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the command line.
func (c *Cli) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// RootCommand builds the command tree.
func (c *Cli) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "notifsync",
		Short: "Notification feed sync client",
		Long: `notifsync keeps a local cache of a remote notification feed.

It serves a fresh cache without touching the network, backfills history up to
the configured horizon through a rate limiter, and polls for new items.`,
		Version:       c.info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("notifsync\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		c.info.Version, c.info.BuildDate, c.info.GitCommit))
	root.SetOut(c.io)
	root.SetErr(c.io)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ./notifsync.yaml)")
	flags.String("base-url", config.DefaultBaseURL, "feed API base URL")
	flags.String("token", "", "API bearer token (prefer NOTIFSYNC_API_TOKEN)")
	flags.String("store-driver", config.DefaultStoreDriver, "local cache backend: bolt or sqlite")
	flags.String("store-path", config.DefaultStorePath, "path to the local cache")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", config.DefaultLogFormat, "log format: auto, json, console")

	c.bind(flags, map[string]string{
		config.KeyConfigFile: "config",
		"api.base_url":       "base-url",
		"api.token":          "token",
		"store.driver":       "store-driver",
		"store.path":         "store-path",
		"log.level":          "log-level",
		"log.format":         "log-format",
	})

	root.AddCommand(
		c.syncCommand(),
		c.watchCommand(),
		c.statusCommand(),
		c.listCommand(),
		c.pruneCommand(),
		c.clearCommand(),
	)

	return root
}

// bind maps viper keys to flags so that flags override env and config file.
func (c *Cli) bind(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = c.v.BindPFlag(key, flags.Lookup(name))
	}
}

func (c *Cli) setup() error {
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}

	logger, err := c.newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}

// app builds the components for one command. The caller must Close it.
func (c *Cli) app(ctx context.Context, mutate func(cfg *config.Config)) (*App, error) {
	cfg := *c.cfg
	if mutate != nil {
		mutate(&cfg)
	}
	return NewApp(ctx, &cfg, c.logger)
}
