package di

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/app"
	"github.com/polkiloo/eventreg/internal/config"
	"github.com/polkiloo/eventreg/internal/domain/repository"
	"github.com/polkiloo/eventreg/internal/storage/postgres"
	"github.com/polkiloo/eventreg/internal/test"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:         ":0",
		DatabaseURI:        "postgres://stub",
		JWTSecret:          "secret",
		TokenTTL:           time.Hour,
		LogLevel:           "info",
		ShutdownTimeout:    time.Millisecond,
		TxMaxAttempts:      3,
		TxIsolation:        config.IsolationReadCommitted,
		SettleOnCheckout:   true,
		PriceTolerance:     decimal.RequireFromString("0.50"),
		IdempotencyTTL:     time.Hour,
		KafkaTopic:         "registration.events",
		OutboxPollInterval: time.Millisecond,
		OutboxBatchSize:    1,
		OutboxWorkers:      1,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := test.NewMemoryStore()

	var (
		facade *app.RegistrationFacade
		engine *gin.Engine
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.UserRepository(test.NewUserRepositoryStub())),
			fx.Replace(repository.OrderRepository(&test.OrderRepositoryStub{})),
			fx.Replace(repository.OutboxRepository(&test.OutboxRepositoryStub{})),
			fx.Replace(repository.Transactor(store)),
		),
		fx.Populate(&facade, &engine),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected registration facade instance")
	}
	if engine == nil {
		t.Fatal("expected http router instance")
	}

	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint to be mounted, got %d", resp.Code)
	}
}
