package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/adapter/events"
	"github.com/polkiloo/eventreg/internal/adapter/idempotency"
	"github.com/polkiloo/eventreg/internal/app"
	"github.com/polkiloo/eventreg/internal/config"
	"github.com/polkiloo/eventreg/internal/logger"
	"github.com/polkiloo/eventreg/internal/metrics"
	"github.com/polkiloo/eventreg/internal/pkg/auth"
	"github.com/polkiloo/eventreg/internal/server/http/router"
	"github.com/polkiloo/eventreg/internal/storage/postgres"
	"github.com/polkiloo/eventreg/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		idempotency.Module,
		events.Module,
		metrics.Module,
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
