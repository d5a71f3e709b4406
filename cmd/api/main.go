package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shinyyama/localbid-backend/internal/config"
	"github.com/shinyyama/localbid-backend/internal/db"
	"github.com/shinyyama/localbid-backend/internal/logging"
	appmw "github.com/shinyyama/localbid-backend/internal/middleware"
	"github.com/shinyyama/localbid-backend/internal/realtime"
	"github.com/shinyyama/localbid-backend/internal/server"
)

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			return err
		}
	}

	broker := realtime.NewBroker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		relay := realtime.NewRedisRelay(rdb)
		if err := relay.Start(ctx, broker.Deliver); err != nil {
			return err
		}
		broker.SetRelay(relay)
		slog.Info("realtime relay enabled", "redis_addr", cfg.RedisAddr)
	}

	auth, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		return err
	}
	if cfg.FirebaseProjectID == "" {
		slog.Warn("FIREBASE_PROJECT_ID is not set; trusting X-User-Id header")
	}

	srv := server.New(conn, auth, broker, server.Options{
		AllowedOriginSuffix: cfg.AllowedOriginSuffix,
		WSSendRate:          cfg.WSSendRate,
		WSSendBurst:         cfg.WSSendBurst,
		SHA:                 gitSHA,
		BuildTime:           buildTime,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		slog.Info("starting server", "addr", addr, "git_sha", gitSHA)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
