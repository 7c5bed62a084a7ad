package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/livestatus/internal/config"
	"github.com/hamed0406/livestatus/internal/httpapi"
	"github.com/hamed0406/livestatus/internal/logging"
	"github.com/hamed0406/livestatus/internal/metrics"
	"github.com/hamed0406/livestatus/internal/transport"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			logger.Error("config_invalid", zap.Error(e))
		}
	}
	for _, w := range cfg.Warnings() {
		logger.Warn("config_warning", zap.String("detail", w))
	}

	srv := httpapi.NewServer(logger, cfg, transport.NewAPI(cfg), transport.NewRoot(cfg), metrics.New())
	if cfg.RateLimitRedis != "" {
		opt, err := redis.ParseURL(cfg.RateLimitRedis)
		if err != nil {
			logger.Fatal("rate_limit_redis_url", zap.Error(err))
		}
		srv.Redis = redis.NewClient(opt)
		defer srv.Redis.Close()
		logger.Info("rate_limit_shared", zap.String("redis", opt.Addr))
	}

	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("web_listen",
			zap.String("addr", cfg.Addr),
			zap.String("upstream", cfg.UpstreamOrigin),
			zap.String("api_base", cfg.APIBase),
			zap.Duration("probe_timeout", cfg.ProbeTimeout),
		)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web_listen_failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("web_shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RenderWait+time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		logger.Error("web_shutdown_failed", zap.Error(err))
	}
	_ = logger.Sync()
}
