package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/adapter/events"
	"github.com/polkiloo/eventreg/internal/config"
	"github.com/polkiloo/eventreg/internal/metrics"
	"github.com/polkiloo/eventreg/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewRegistrationFacade,
		newHTTPServer,
		newOutboxRelay,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade    *RegistrationFacade
	Publisher events.Publisher
	Metrics   *metrics.Recorder `optional:"true"`
	Config    *config.Config
	Logger    *slog.Logger
}

func newOutboxRelay(p workerParams) *worker.OutboxRelay {
	var observer worker.PublishObserver
	if p.Metrics != nil {
		observer = p.Metrics
	}
	return worker.NewOutboxRelay(
		p.Facade,
		p.Publisher,
		observer,
		p.Config.OutboxPollInterval,
		p.Config.OutboxBatchSize,
		p.Config.OutboxWorkers,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Relay      *worker.OutboxRelay
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting eventreg", slog.String("addr", p.Server.Addr))
			// the start context ends once OnStart returns
			p.Relay.Start(context.WithoutCancel(ctx))
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Relay.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("eventreg stopped")
			return nil
		},
	})
}
