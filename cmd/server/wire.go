//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"prepnotify/internal/app"
	"prepnotify/internal/config"
	"prepnotify/internal/http"
	"prepnotify/internal/http/controller"
	"prepnotify/internal/ledger"
	"prepnotify/internal/logging"
	"prepnotify/internal/mail"
	"prepnotify/internal/queue/rabbitmq"
	"prepnotify/internal/realtime"
	"prepnotify/internal/repository"
	"prepnotify/internal/scheduler"
	"prepnotify/internal/service/lifecycle"
	"prepnotify/internal/service/notify"
	"prepnotify/internal/service/reminder"
	"prepnotify/internal/store"
)

func InitializeApp(cfg *config.Config) (*app.App, error) {
	wire.Build(
		logging.New,
		store.NewStore,
		wire.Bind(new(notify.Repository), new(repository.Store)),
		wire.Bind(new(repository.ContestRepository), new(repository.Store)),
		wire.Bind(new(repository.UserRepository), new(repository.Store)),
		realtime.NewHub,
		wire.Bind(new(notify.Pusher), new(*realtime.Hub)),
		notify.NewService,
		wire.Bind(new(lifecycle.Dispatcher), new(*notify.Service)),
		wire.Bind(new(reminder.Dispatcher), new(*notify.Service)),
		wire.Bind(new(rabbitmq.Dispatcher), new(*notify.Service)),
		ledger.New,
		mail.New,
		lifecycle.NewPoller,
		reminder.NewJob,
		scheduler.New,
		controller.NewHandler,
		http.NewRouter,
		rabbitmq.NewConsumer,
		rabbitmq.NewPublisher,
		app.NewApp,
	)
	return &app.App{}, nil
}
