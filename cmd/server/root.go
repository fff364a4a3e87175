package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/config"
	"github.com/iudanet/notifsync/internal/observability"
	"github.com/iudanet/notifsync/internal/server"
	"github.com/iudanet/notifsync/internal/server/handlers"
)

// loggerFactory builds the server logger from the configured level and format.
type loggerFactory func(level, format string) (*zap.Logger, error)

func newRootCommand(out io.Writer, newLogger loggerFactory) *cobra.Command {
	if newLogger == nil {
		newLogger = observability.NewLogger
	}
	v := viper.New()

	root := &cobra.Command{
		Use:   "notifsync-server",
		Short: "Development notification feed server",
		Long: `notifsync-server serves a generated notification feed with the same API,
authentication and rate limiting the sync client expects from the real service.

Configuration comes from NOTIFSYNC_SERVER_* environment variables and flags.
A JWT secret is required (--jwt-secret or NOTIFSYNC_SERVER_JWT_SECRET).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("notifsync-server\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		Version, BuildDate, GitCommit))
	root.SetOut(out)
	root.SetErr(out)

	flags := root.PersistentFlags()
	flags.String("jwt-secret", "", "HMAC secret for access tokens")
	flags.Duration("token-ttl", 24*time.Hour, "lifetime of issued access tokens")
	bind(v, flags, map[string]string{
		"jwt_secret": "jwt-secret",
		"token_ttl":  "token-ttl",
	})

	root.AddCommand(serveCommand(v, newLogger), tokenCommand(v, out))
	return root
}

func serveCommand(v *viper.Viper, newLogger loggerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the feed server",
		Long: `Start the HTTP server. The feed is generated at startup from the dataset
seed and can grow while running (--live-every). Ctrl+C or SIGTERM shuts the
server down gracefully.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServer(v)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("Initializing server",
				zap.String("version", Version),
				zap.String("addr", cfg.Addr),
				zap.Float64("global_rps", cfg.RateLimit.GlobalRPS),
				zap.Int("per_client_requests", cfg.RateLimit.PerClientRequests),
				zap.Duration("per_client_window", cfg.RateLimit.PerClientWindow))

			return server.New(cfg, logger, server.WithVersion(Version)).Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Int("dataset-items", 500, "number of generated notifications")
	flags.Int("dataset-days", 40, "days of history the generated feed spans")
	flags.Int64("dataset-seed", 1, "seed of the generated feed")
	flags.Duration("live-every", 0, "publish a new notification at this interval (0 disables)")
	flags.Float64("global-rps", 20, "global request rate limit")
	flags.Int("global-burst", 40, "global request burst")
	flags.Int("per-client-requests", 60, "requests each client may make per window")
	flags.Duration("per-client-window", time.Minute, "per-client rate limit window")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", config.DefaultLogFormat, "log format: auto, json, console")

	bind(v, flags, map[string]string{
		"addr":                           "addr",
		"dataset.items":                  "dataset-items",
		"dataset.days":                   "dataset-days",
		"dataset.seed":                   "dataset-seed",
		"dataset.live_every":             "live-every",
		"rate_limit.global_rps":          "global-rps",
		"rate_limit.global_burst":        "global-burst",
		"rate_limit.per_client_requests": "per-client-requests",
		"rate_limit.per_client_window":   "per-client-window",
		"log.level":                      "log-level",
		"log.format":                     "log-format",
	})

	return cmd
}

func tokenCommand(v *viper.Viper, out io.Writer) *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a client",
		Long: `Print a signed access token. Pass it to the client with --token or
NOTIFSYNC_API_TOKEN.`,
		Example: `  export NOTIFSYNC_API_TOKEN=$(notifsync-server token --jwt-secret dev --client alice)`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadServer(v)
			if err != nil {
				return err
			}

			token, _, err := handlers.GenerateAccessToken(handlers.JWTConfig{
				Secret:   []byte(cfg.JWTSecret),
				TokenTTL: cfg.TokenTTL,
			}, clientID, time.Now())
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&clientID, "client", "dev", "client id embedded in the token")
	return cmd
}

func bind(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}
