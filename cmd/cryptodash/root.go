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

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"cryptodash/internal/auth"
	"cryptodash/internal/cache"
	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/db"
	httpx "cryptodash/internal/http"
	"cryptodash/internal/logger"
	"cryptodash/internal/preferences"
	"cryptodash/internal/providers"
)

const memePoolKey = "cryptodash:meme_pool"

var errNoDatabase = errors.New("DATABASE_URL is not set")

var addr string

var rootCmd = &cobra.Command{
	Use:          "cryptodash",
	Short:        "Personalized daily crypto dashboard API.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("addr") {
		cfg.HTTPAddr = addr
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, OutputPath: cfg.LogFile, Compress: true}); err != nil {
		return cfg, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// openDB connects and migrates. A missing or unreachable database is
// reported, not fatal: the API answers 503 until it is fixed.
func openDB(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errNoDatabase
	}
	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connect: %w", err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		return nil, fmt.Errorf("database migrate: %w", err)
	}
	return gdb, nil
}

func memePool(ctx context.Context, cfg config.Config) cache.Store[[]dashboard.MemePayload] {
	if cfg.RedisURL == "" {
		return cache.NewMemory[[]dashboard.MemePayload]()
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-process meme pool", logger.ErrorField(err))
		return cache.NewMemory[[]dashboard.MemePayload]()
	}
	logger.Info("meme pool shared via redis")
	return cache.NewRedis[[]dashboard.MemePayload](client, memePoolKey, 24*time.Hour)
}

const dbRetryEvery = 15 * time.Second

// retry calls fn on every tick until it succeeds or ctx ends.
func retry[T any](ctx context.Context, every time.Duration, fn func() (T, error)) (T, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-ticker.C:
			v, err := fn()
			if err == nil {
				return v, nil
			}
			logger.Warn("database still unavailable", logger.ErrorField(err))
		}
	}
}

func buildServices(gdb *gorm.DB, tokens *auth.Tokens, dp dashboard.Providers) httpx.Services {
	prefs := &preferences.Service{Store: &preferences.GormStore{DB: gdb}}
	return httpx.Services{
		Auth:  &auth.Service{Store: &auth.GormStore{DB: gdb}, Tokens: tokens},
		Prefs: prefs,
		Dashboard: &dashboard.Service{
			Store:     &dashboard.GormStore{DB: gdb},
			Prefs:     prefs,
			Providers: dp,
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var svcs httpx.Services

	gdb, dbErr := openDB(cfg)
	if dbErr != nil {
		logger.Error("database unavailable", logger.ErrorField(dbErr))
		svcs.DatabaseErr = dbErr
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL, cfg.Production())
	if err != nil {
		logger.Error("token signing unavailable", logger.ErrorField(err))
		svcs.AuthErr = err
	}

	dp, memes := providers.New(cfg, memePool(ctx, cfg))
	go memes.Warm(ctx, cfg.MemeCacheTTL)

	if gdb != nil && tokens != nil {
		svcs = buildServices(gdb, tokens, dp)
	}
	handler := httpx.NewSwappable(httpx.NewRouter(cfg, svcs))

	// A configured but unreachable database is retried in the background;
	// the full API is swapped in once it connects.
	if dbErr != nil && !errors.Is(dbErr, errNoDatabase) && tokens != nil {
		go func() {
			gdb, err := retry(ctx, dbRetryEvery, func() (*gorm.DB, error) { return openDB(cfg) })
			if err != nil {
				return
			}
			logger.Info("database connected")
			handler.Store(httpx.NewRouter(cfg, buildServices(gdb, tokens, dp)))
		}()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logger.String("addr", cfg.HTTPAddr), logger.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ch:
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
