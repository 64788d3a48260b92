package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"kabraji/internal/cache"
	"kabraji/internal/config"
	"kabraji/internal/httpapi"
	"kabraji/internal/reporting"
	"kabraji/internal/service"
	"kabraji/internal/store"
	"kabraji/internal/store/jsonfile"
	"kabraji/internal/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.NewLogger()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped with error")
	}
	logger.Info("server stopped")
}

func run(cfg config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reportCache, closeCache := openReportCache(ctx, cfg, logger)
	defer closeCache()

	svc := service.Open(ctx, openGateway(cfg, logger), service.Options{
		InvoiceDir:        cfg.InvoiceDir,
		LowStockThreshold: decimal.NewFromInt(int64(cfg.LowStockThreshold)),
		TopProducts:       cfg.TopProducts,
		Reports:           reporting.NewEngine(reportCache, cfg.ReportCacheTTL, logger),
		Logger:            logger,
	})
	if cfg.SeedDefaults {
		if _, err := svc.InitializeDefaults(ctx); err != nil {
			return errors.Wrap(err, "seed default catalog")
		}
	}

	api := httpapi.New(svc, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		RateLimit:     cfg.RateLimit,
		Logger:        logger,
	})
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.WithFields(log.Fields{"addr": cfg.Address(), "data_file": cfg.DataFile}).Info("kabraji backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		return errors.Wrap(server.Shutdown(shutdownCtx), "shutdown")
	})
	return group.Wait()
}

func openGateway(cfg config.Config, logger log.FieldLogger) store.Gateway {
	if cfg.Ephemeral {
		logger.Warn("ephemeral mode: nothing will be written to disk")
		return memory.New()
	}
	return jsonfile.New(cfg.DataFile, logger)
}

// openReportCache connects to Redis when configured and falls back to no caching.
func openReportCache(ctx context.Context, cfg config.Config, logger log.FieldLogger) (cache.ReportCache, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("report cache: none")
		return cache.NoopReportCache{}, func() {}
	}

	redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		logger.WithError(err).Warn("redis unavailable, reports will not be cached")
		_ = redisCache.Close()
		return cache.NoopReportCache{}, func() {}
	}

	logger.WithField("addr", cfg.RedisAddr).Info("report cache: redis")
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.WithError(err).Warn("close redis")
		}
	}
}
