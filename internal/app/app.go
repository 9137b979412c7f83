package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/ledger"
	"prepnotify/internal/queue"
	"prepnotify/internal/realtime"
	"prepnotify/internal/repository"
	"prepnotify/internal/scheduler"
)

type App struct {
	cfg       *config.Config
	hub       *realtime.Hub
	consumer  queue.Consumer
	scheduler *scheduler.Scheduler
	store     repository.Store
	ledger    ledger.Ledger
	server    *http.Server
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewApp(cfg *config.Config, hub *realtime.Hub, consumer queue.Consumer, sched *scheduler.Scheduler, store repository.Store, l ledger.Ledger, router *gin.Engine, logger *zap.Logger) *App {
	return &App{
		cfg:       cfg,
		hub:       hub,
		consumer:  consumer,
		scheduler: sched,
		store:     store,
		ledger:    l,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		logger: logger,
	}
}

// Run starts the hub, the queue consumer and the scheduler, then serves HTTP until
// the server is shut down.
func (a *App) Run(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.hub.Run(ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.consumer.Start(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.scheduler.Start(ctx)
	}()

	a.logger.Info("http server listening", zap.String("addr", a.cfg.HTTPAddr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server, waits for the background goroutines and then
// closes the store and ledger. They are closed even when ctx expires first.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("graceful shutdown started")
	shutdownErr := a.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = ctx.Err()
		a.logger.Warn("background workers did not stop in time", zap.Error(waitErr))
	}

	a.closeResources()
	a.logger.Info("graceful shutdown completed")
	if shutdownErr != nil {
		return shutdownErr
	}
	return waitErr
}

func (a *App) closeResources() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close failed", zap.Error(err))
	}
	if closer, ok := a.ledger.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("ledger close failed", zap.Error(err))
		}
	}
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}
