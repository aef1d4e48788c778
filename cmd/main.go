package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/kickscore/internal/adapters/http/api"
	"github.com/okian/kickscore/internal/adapters/live"
	"github.com/okian/kickscore/internal/adapters/mcptools"
	"github.com/okian/kickscore/internal/adapters/repository"
	"github.com/okian/kickscore/internal/adapters/scoremaps"
	app "github.com/okian/kickscore/internal/app"
	"github.com/okian/kickscore/internal/config"
	"github.com/okian/kickscore/internal/domain/scoremap"
	"github.com/okian/kickscore/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	requestTimeout    = 30 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sources, closeSources, err := scoreMapSources(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSources()

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithScoreMaps(sources),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	}

	var hub *live.Hub
	if cfg.LiveEnabled {
		hub = live.NewHub(live.WithLogger(log.Named("live")), live.WithAllowedOrigins(cfg.CORSOrigins))
		go hub.Run(ctx)
		opts = append(opts, app.WithPublisher(hub))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop(context.Background())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc, serverOptions(cfg, svc, hub, log)...).Router(),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openStore builds the configured repository.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Store == config.StorePostgres {
		st, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return st, nil
	}

	st := repository.NewMemoryStore()
	if cfg.SeedFile != "" {
		seed, err := repository.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := seed.Apply(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
	}
	return st, nil
}

// scoreMapSources chains the directory and URL sources, behind the Redis
// cache when one is configured. The returned func releases the cache client.
func scoreMapSources(ctx context.Context, cfg *config.Config, log logger.Logger) (scoremap.Source, func(), error) {
	var chain scoremaps.Chain
	if cfg.ScoreMapsDir != "" {
		chain = append(chain, scoremaps.NewDirSource(cfg.ScoreMapsDir))
	}
	if cfg.ScoreMapsURL != "" {
		chain = append(chain, scoremaps.NewHTTPSource(cfg.ScoreMapsURL))
	}
	if len(chain) == 0 {
		return nil, func() {}, nil
	}
	if cfg.RedisURL == "" {
		return chain, func() {}, nil
	}

	client, err := scoremaps.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	cache := scoremaps.NewRedisCache(client, chain,
		scoremaps.WithTTL(time.Duration(cfg.ScoreMapCacheTTLSec)*time.Second),
		scoremaps.WithCacheLogger(log.Named("scoremap-cache")),
	)
	return cache, func() { _ = client.Close() }, nil
}

func serverOptions(cfg *config.Config, svc *app.Service, hub *live.Hub, log logger.Logger) []api.Option {
	opts := []api.Option{
		api.WithLogger(log.Named("http")),
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithRequestTimeout(requestTimeout),
	}
	if hub != nil {
		opts = append(opts, api.WithLive(hub))
	}
	if cfg.MCPEnabled {
		tools := mcptools.NewServer(svc,
			mcptools.WithMaxLimit(cfg.MaxLeaderboardLimit),
			mcptools.WithLogger(log.Named("mcp")),
		)
		opts = append(opts, api.WithMCP(mcptools.NewHandler(tools)))
	}
	return opts
}
