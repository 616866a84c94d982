package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/suPer8Hu/portfolio-chat/internal/chat"
	"github.com/suPer8Hu/portfolio-chat/internal/clock"
	"github.com/suPer8Hu/portfolio-chat/internal/config"
	"github.com/suPer8Hu/portfolio-chat/internal/db"
	"github.com/suPer8Hu/portfolio-chat/internal/httpapi"
	"github.com/suPer8Hu/portfolio-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/portfolio-chat/internal/responder"
	"github.com/suPer8Hu/portfolio-chat/internal/store"
	"github.com/suPer8Hu/portfolio-chat/internal/store/memstore"
	"github.com/suPer8Hu/portfolio-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/portfolio-chat/internal/store/redisstore"
)

func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeKV, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	resp, err := responder.DefaultRegistry().Get(cfg.Responder)
	if err != nil {
		return err
	}

	hub := chat.NewHub(32)
	sinks := chat.MultiSink{hub}
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return fmt.Errorf("rabbit publisher: %w", err)
		}
		defer pub.Close()
		rs := rabbitmq.NewEventSink(pub, 0, logger)
		go rs.Run(ctx)
		sinks = append(sinks, rs)
		logger.Info("publishing chat events", "queue", cfg.RabbitQueue)
	}

	svc := chat.NewService(kv, resp, chat.ServiceConfig{
		ReplyDelay: cfg.ReplyDelay,
		Proactive: chat.ProactiveConfig{
			IdleDelay: cfg.ProactiveIdle,
			HideDelay: cfg.ProactiveHide,
		},
		IdleTTL: cfg.SessionIdleTTL,
	}, sinks, clock.Real(), logger)
	defer svc.Shutdown()
	svc.StartSweeper(ctx, time.Minute)

	h := handlers.NewHandler(cfg, svc, hub, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(h, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.HTTPAddr, "storage", cfg.StorageBackend, "responder", cfg.Responder)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg config.Config) (store.KV, func(), error) {
	switch cfg.StorageBackend {
	case "memory":
		return memstore.New(), func() {}, nil
	case "sqlite", "mysql":
		gdb, err := db.Connect(cfg.StorageBackend, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		repo := chat.NewRepo(gdb)
		if err := repo.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("automigrate: %w", err)
		}
		closeFn := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repo, closeFn, nil
	case "redis":
		rdb, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(rdb, 0), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported STORAGE_BACKEND=%q", cfg.StorageBackend)
	}
}
