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

	"go.uber.org/zap"

	"prizetalk/internal/config"
	"prizetalk/internal/pkg"
	"prizetalk/internal/repository/rdb"
	"prizetalk/internal/repository/redis"
	"prizetalk/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := pkg.NewLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := rdb.Open(cfg, logger)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	// 自动建表
	if err := rdb.Migrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// redis 可选：未配置时 token 只校验签名和过期时间
	var sessions *redis.SessionRepository
	if cfg.RedisAddr != "" {
		client, err := redis.Init(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer client.Close()
		sessions = &redis.SessionRepository{Client: client, TTL: cfg.AccessTTL}
		logger.Info("session store enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Warn("REDIS_ADDR not set, sessions are stateless")
	}

	r := router.InitRouter(router.Deps{
		Config:   cfg,
		DB:       db,
		Log:      logger,
		Tokens:   pkg.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL),
		Sessions: sessions,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server exited")
}
