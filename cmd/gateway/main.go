package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edge-gateway/internal/audit"
	"edge-gateway/internal/auth"
	"edge-gateway/internal/config"
	"edge-gateway/internal/gateway"
	"edge-gateway/internal/metrics"
	"edge-gateway/internal/rpc"
	"edge-gateway/internal/throttle"
	"edge-gateway/pkg/logger"
	"edge-gateway/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	caller, err := rpc.NewPostgresCaller(db, cfg.DB.Schema)
	if err != nil {
		log.Error("rpc init failed", "err", err)
		os.Exit(1)
	}

	var limiter throttle.Limiter
	if cfg.ThrottleEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		rl, err := throttle.NewRedisLimiter(rdb, cfg.Throttle.Limit, cfg.Throttle.TTL)
		if err != nil {
			log.Error("throttle init failed", "err", err)
			os.Exit(1)
		}
		limiter = rl
		log.Info("concurrency cap enabled", "limit", cfg.Throttle.Limit, "ttl", cfg.Throttle.TTL)
	}

	var rates *throttle.RateLimiter
	if cfg.RateLimitEnabled() {
		rates = throttle.NewRateLimiter(cfg.Throttle.RPS, cfg.Throttle.Burst)
		log.Info("rate limit enabled", "rps", cfg.Throttle.RPS, "burst", cfg.Throttle.Burst)
	}

	auditor := audit.NewService(audit.NewLogRepo(log))

	m := metrics.New()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())
	r.GET("/metrics", gin.WrapH(m.Handler()))

	gw := gateway.New(verifier, buildFunctions(caller, auditor, rates, limiter)...).
		WithHealth(func(ctx context.Context) error { return ping(ctx, db) })
	gw.Register(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("gateway listening", "addr", srv.Addr, "env", cfg.App.Env, "functions", gw.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func ping(ctx context.Context, db *sql.DB) error {
	return utils.HealthCheck(ctx, db, 2*time.Second)
}
