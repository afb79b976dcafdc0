package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/app"
	"github.com/polkiloo/eventreg/internal/server/http/handlers"
	"github.com/polkiloo/eventreg/internal/storage/postgres"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Options(
	fx.Provide(func(f *app.RegistrationFacade) handlers.RegistrationFacade { return f }),
	fx.Provide(func(s *postgres.Storage) handlers.HealthChecker { return s }),
	fx.Provide(Setup),
)
