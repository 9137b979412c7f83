package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	shutdownTracing, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	app, err := InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	logger := app.Logger()
	defer func() { _ = logger.Sync() }()

	logger.Info("prepnotify starting",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("lifecycle_cron", cfg.LifecycleCron),
		zap.String("reminder_cron", cfg.ReminderCron),
		zap.String("timezone", cfg.Location().String()),
		zap.Bool("rabbitmq", cfg.RabbitMQURL != ""),
		zap.Bool("redis_ledger", cfg.RedisAddr != ""),
		zap.Bool("smtp", cfg.SMTPHost != ""),
	)

	runErr := make(chan error, 1)
	go func() { runErr <- app.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err = <-runErr:
		if err != nil {
			logger.Error("app stopped", zap.Error(err))
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := app.Shutdown(shutdownCtx); serr != nil {
		logger.Error("shutdown error", zap.Error(serr))
	}
	if terr := shutdownTracing(shutdownCtx); terr != nil {
		logger.Warn("tracing shutdown error", zap.Error(terr))
	}
	return err
}
