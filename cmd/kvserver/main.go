// Command kvserver runs the cache-fronted KV HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lordbasex/kvbench/internal/cache"
	"github.com/lordbasex/kvbench/internal/dispatcher"
	"github.com/lordbasex/kvbench/internal/health"
	"github.com/lordbasex/kvbench/internal/logging"
	"github.com/lordbasex/kvbench/internal/metrics"
	"github.com/lordbasex/kvbench/internal/serverconfig"
	"github.com/lordbasex/kvbench/internal/store"
)

func main() {
	log := logging.New("kvserver")
	defer log.Sync()

	cfg, err := serverconfig.Load(os.Args[1:])
	if err != nil {
		log.Fatal("configuration error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := store.DefaultPoolConfig()
	pool.MaxOpenConns = cfg.Threads * 4
	pool.MaxIdleConns = cfg.Threads

	st, err := store.Open(ctx, cfg.MySQLDSN, pool, store.DefaultReconnectConfig(), log)
	if err != nil {
		log.Fatal("store initialization failed", zap.Error(err))
	}
	defer st.Close()

	c := cache.New(cfg.CacheCapacity)
	m := metrics.New()
	prometheus.MustRegister(metrics.NewPromCollector(m))
	limiter := dispatcher.NewRateLimiter(dispatcher.DefaultRateLimiterConfig())
	defer limiter.Stop()
	validator := dispatcher.NewValidator(dispatcher.DefaultValidationConfig())
	checker := health.New(st)

	d := dispatcher.New(c, st, m, limiter, validator, checker, log)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: d.Router(),
	}

	log.Info("starting kvserver",
		zap.Int("cache_capacity", cfg.CacheCapacity),
		zap.Int("threads", cfg.Threads),
		zap.String("addr", addr),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("server start failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
