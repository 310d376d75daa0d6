package main

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vncsmyrnk/livepoll/internal/adapters/handler/http"
	"github.com/vncsmyrnk/livepoll/internal/adapters/ratelimit"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/sqldb"
	"github.com/vncsmyrnk/livepoll/internal/config"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
	"github.com/vncsmyrnk/livepoll/internal/platform/metrics"
	"github.com/vncsmyrnk/livepoll/internal/realtime"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialect, err := sqldb.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return err
	}
	db, err := sqldb.Open(ctx, dialect, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqldb.Migrate(ctx, db, dialect); err != nil {
		return err
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize Repositories
	pollRepo := sqldb.NewPollRepository(db)
	voteRepo := sqldb.NewVoteRepository(db)
	tallyRepo := sqldb.NewTallyRepository(db)

	// Initialize Services
	tallyService := services.NewTallyService(pollRepo, tallyRepo)
	hub := realtime.NewHub(tallyService, m, logger)
	voteService := services.NewVoteService(pollRepo, voteRepo, hub, m, logger)
	pollService := services.NewPollService(pollRepo)
	identity := services.NewIdentityResolver(cfg.FingerprintSalt)

	// Initialize Handlers
	handler := http.NewHandler(
		http.NewPollHandler(pollService, tallyService, logger),
		http.NewVoteHandler(voteService, identity, cfg.CookieSecure, logger),
		realtime.NewWebsocketHandler(hub, logger),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		http.RateLimits{
			Limiter: limiter,
			Create:  cfg.CreateRateLimit,
			Vote:    cfg.VoteRateLimit,
			Window:  cfg.RateLimitWindow,
		},
		logger,
	)

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "database", dialect)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	hub.Close()

	return nil
}

// newLimiter uses redis when configured so limits hold across replicas, and
// an in-process limiter otherwise.
func newLimiter(ctx context.Context, cfg config.Config, logger *slog.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis rate limiter")
		return ratelimit.NewRedisLimiter(client, "livepoll:ratelimit"), func() { client.Close() }, nil
	}

	limiter := ratelimit.NewMemoryLimiter()
	pruneCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.RateLimitWindow)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				limiter.Prune(cfg.RateLimitWindow)
			}
		}
	}()
	return limiter, cancel, nil
}
