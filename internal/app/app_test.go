package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/eventreg/internal/config"
	"github.com/polkiloo/eventreg/internal/metrics"
	testhelpers "github.com/polkiloo/eventreg/internal/test"
	"github.com/polkiloo/eventreg/internal/worker"
)

func newTestRelay() *worker.OutboxRelay {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return worker.NewOutboxRelay(&testhelpers.OutboxFacadeStub{}, &testhelpers.PublisherStub{}, nil, 10*time.Millisecond, 1, 1, logger)
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
}

func TestNewOutboxRelayUsesConfig(t *testing.T) {
	cfg := &config.Config{OutboxPollInterval: 15 * time.Second, OutboxBatchSize: 3, OutboxWorkers: 4}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	relay := newOutboxRelay(workerParams{
		Facade:    &RegistrationFacade{},
		Publisher: &testhelpers.PublisherStub{},
		Config:    cfg,
		Logger:    logger,
	})
	if relay == nil {
		t.Fatal("expected outbox relay instance")
	}

	relay = newOutboxRelay(workerParams{
		Facade:    &RegistrationFacade{},
		Publisher: &testhelpers.PublisherStub{},
		Metrics:   metrics.NewRecorder(),
		Config:    cfg,
		Logger:    logger,
	})
	if relay == nil {
		t.Fatal("expected outbox relay instance with metrics")
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	relay := newTestRelay()
	cfg := &config.Config{ShutdownTimeout: 100 * time.Millisecond}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Relay:      relay,
		Config:     cfg,
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := recorder.Start(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- recorder.Stop(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("on stop failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}
	if shutdowner.Calls() != 0 {
		t.Fatalf("expected clean run without shutdown requests, got %d", shutdowner.Calls())
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	server := &http.Server{Addr: "bad addr"}
	relay := newTestRelay()

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     logger,
		Server:     server,
		Relay:      relay,
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	_ = recorder.Stop(context.Background())
}

func TestLifecycleRecorderOrder(t *testing.T) {
	var order []string
	hook := func(name string) fx.Hook {
		return fx.Hook{
			OnStart: func(context.Context) error { order = append(order, "start "+name); return nil },
			OnStop:  func(context.Context) error { order = append(order, "stop "+name); return nil },
		}
	}
	recorder := &testhelpers.LifecycleRecorder{}
	recorder.Append(hook("storage"))
	recorder.Append(hook("server"))

	_ = recorder.Start(context.Background())
	_ = recorder.Stop(context.Background())

	want := []string{"start storage", "start server", "stop server", "stop storage"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestShutdownerStub(t *testing.T) {
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	if err := shutdowner.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-shutdowner.Called:
	default:
		t.Fatal("expected shutdown notification")
	}
	if shutdowner.Calls() != 1 {
		t.Fatalf("expected one shutdown call, got %d", shutdowner.Calls())
	}
}
