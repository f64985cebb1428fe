package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devfolio-backend-go/internal/config"
	"devfolio-backend-go/internal/db"
	httpapi "devfolio-backend-go/internal/http"
	"devfolio-backend-go/internal/migrations"
	"devfolio-backend-go/internal/services"
	"devfolio-backend-go/schema"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	cleanupLogs, err := setupLogger(cfg)
	if err != nil {
		slog.Error("logger setup failed", "error", err)
	} else {
		defer cleanupLogs()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		fatal("db", err)
	}
	defer database.Close()

	source, err := migrationSource(cfg)
	if err != nil {
		fatal("migrations", err)
	}
	if err := migrations.Apply(ctx, database, source); err != nil {
		fatal("migrations", err)
	}

	hub := services.NewMetricsHub()
	go hub.Run(ctx)

	server := httpapi.NewServer(database, cfg, hub, serverOptions(cfg)...)
	if err := server.Media.EnsureDirs(); err != nil {
		fatal("uploads", err)
	}
	go services.MetricsLoop(ctx, database, hub, server.Store, cfg.UploadsRoot, cfg.MetricsSampleInterval())

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", addr, "env", cfg.AppEnv, "driver", cfg.DatabaseDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	slog.Info("shutdown complete")
}

// migrationSource prefers an on-disk directory so operators can ship extra
// migrations without rebuilding; otherwise the embedded schema is used.
func migrationSource(cfg config.Config) (fs.FS, error) {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir), nil
	}
	return schema.For(cfg.DatabaseDriver)
}

func serverOptions(cfg config.Config) []httpapi.Option {
	var opts []httpapi.Option
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		opts = append(opts, httpapi.WithLimiter(
			services.NewRedisLimiter(client, "devfolio:rate:", cfg.ContactRateLimit, cfg.ContactRateWindow()),
		))
	}
	if cfg.ClamdAddr != "" {
		opts = append(opts, httpapi.WithScanner(services.ClamdScanner{Addr: cfg.ClamdAddr}))
	}
	if cfg.SMTPHost != "" && cfg.NotifyEmail != "" {
		opts = append(opts, httpapi.WithNotifier(services.MailNotifier{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.NotifyEmail,
		}))
	}
	return opts
}

func fatal(stage string, err error) {
	slog.Error("startup failed", "stage", stage, "error", err)
	os.Exit(1)
}
