package main

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/pkg/cron"
	"Inkwell/internal/pkg/database"
	"Inkwell/internal/pkg/logger"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	// 初始化日志
	logger.InitLogger(cfg.Logstash)
	gin.SetMode(gin.ReleaseMode)

	if cfg.Security.JWTSecret == "" {
		log.Error("Fatal error: security.jwt_secret is empty")
		os.Exit(1)
	}

	// 数据库连接
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		log.Error("Fatal error: failed to create database connection", "err", err)
		panic(err)
	}

	// Redis 连接，未配置时使用进程内锁
	useRedisLock := cfg.Redis.Addr != ""
	if useRedisLock {
		if err = redis.InitRedis(cfg.Redis); err != nil {
			log.Error("Fatal error: failed to create redis connection", "err", err)
			panic(err)
		}
		defer func() { _ = redis.Close() }()
	}

	// 依赖注入
	app, err := wire.BuildApplication(db, cfg, useRedisLock)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}
	defer func() {
		if err := app.Publisher.Close(); err != nil {
			log.Error("Kafka producer close failed", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	if err = cron.InitCron(app.CronMgr); err != nil {
		log.Error("Fatal error: failed to start cron jobs", "err", err)
		panic(err)
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Cron Jobs stopping...")
		app.CronMgr.Stop()
		return nil
	})

	// HTTP 服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
	}
	log.Info("App exited successfully.")
}
