// Package server wires the development feed server: a generated notification
// feed behind JWT auth, per-client and global rate limits.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iudanet/notifsync/internal/clock"
	"github.com/iudanet/notifsync/internal/config"
	"github.com/iudanet/notifsync/internal/server/dataset"
	"github.com/iudanet/notifsync/internal/server/handlers"
	"github.com/iudanet/notifsync/internal/server/middleware"
	"github.com/iudanet/notifsync/internal/server/storage"
	"github.com/iudanet/notifsync/pkg/api"
)

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	logger    *zap.Logger
	clock     clock.Clock
	feed      *storage.MemoryFeed
	generator *dataset.Generator
	clients   *middleware.RateLimiter
	cfg       config.ServerConfig
	version   string
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithClock sets the time source for the dataset and the per-client limiter.
func WithClock(clk clock.Clock) Option {
	return func(s *Server) { s.clock = clk }
}

// New creates a new HTTP server instance with a freshly generated feed.
func New(cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:    *cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = clock.OrReal(s.clock)

	s.generator = dataset.NewGenerator(cfg.Dataset.Seed)
	s.feed = storage.NewMemoryFeed(s.generator.Batch(cfg.Dataset.Items, cfg.Dataset.Days, s.clock.Now()))
	s.clients = middleware.NewRateLimiter(cfg.RateLimit.PerClientRequests, cfg.RateLimit.PerClientWindow, logger, s.clock)

	s.router = s.routes()

	logger.Info("Feed generated",
		zap.Int("items", s.feed.Len()),
		zap.Int("days", cfg.Dataset.Days),
		zap.Int64("seed", cfg.Dataset.Seed))

	return s
}

// routes builds the router. Middleware order: RealIP → RequestID → Logging →
// Recovery for every route, then Throttle → Auth → per-client limit for the feed.
func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.LoggingWithSkip(s.logger, []string{api.HealthPath}))
	r.Use(middleware.RecoveryMiddleware(s.logger))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, "the requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "the requested method is not allowed for this resource")
	})

	health := handlers.NewHealthHandler(s.logger, s.version)
	notifications := handlers.NewNotificationsHandler(s.logger, s.feed)
	throttle := rate.NewLimiter(rate.Limit(s.cfg.RateLimit.GlobalRPS), s.cfg.RateLimit.GlobalBurst)

	r.Get(api.HealthPath, health.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Throttle(throttle, s.logger))
		r.Use(middleware.AuthMiddleware(s.logger, s.jwtConfig()))
		r.Use(s.clients.Middleware)

		r.Get(api.NotificationsPath, notifications.List)
	})

	return r
}

// Handler exposes the underlying router for testing
func (s *Server) Handler() http.Handler {
	return s.router
}

// Feed returns the served feed.
func (s *Server) Feed() *storage.MemoryFeed {
	return s.feed
}

// IssueToken signs an access token for clientID with the configured TTL.
func (s *Server) IssueToken(clientID string) (string, time.Time, error) {
	return handlers.GenerateAccessToken(s.jwtConfig(), clientID, s.clock.Now())
}

func (s *Server) jwtConfig() handlers.JWTConfig {
	return handlers.JWTConfig{
		Now:      s.clock.Now,
		Secret:   []byte(s.cfg.JWTSecret),
		TokenTTL: s.cfg.TokenTTL,
	}
}

// Publish adds the next generated notification, indexed now, to the feed.
func (s *Server) Publish() api.Notification {
	n := s.generator.Next(s.clock.Now())
	s.feed.Publish(n)
	return n
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.clients.Stop()
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	defer s.clients.Stop()

	if s.cfg.Dataset.LiveEvery > 0 {
		go s.publishLoop(ctx, s.cfg.Dataset.LiveEvery)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// publishLoop добавляет новое уведомление каждые interval, пока ctx активен
func (s *Server) publishLoop(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
			n := s.Publish()
			s.logger.Debug("Published notification", zap.String("uri", n.URI), zap.String("reason", n.Reason))
		}
	}
}
