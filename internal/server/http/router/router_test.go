package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/metrics"
	"github.com/polkiloo/eventreg/internal/server/http/handlers"
	testhelpers "github.com/polkiloo/eventreg/internal/test"
)

func newEngine(t *testing.T, facade testhelpers.RegistrationFacadeStub, recorder *metrics.Recorder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return Setup(facade, testhelpers.HealthCheckerStub{}, recorder, logger)
}

func serve(engine *gin.Engine, method, target, token string, body []byte) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	facade := testhelpers.RegistrationFacadeStub{
		OrderFacadeStub: testhelpers.OrderFacadeStub{
			OrdersFn: func(context.Context, int64) ([]model.Order, error) {
				return []model.Order{{ID: 1, EventID: 1, Total: decimal.NewFromInt(5), Status: model.PaymentStatusPaid}}, nil
			},
		},
	}
	engine := newEngine(t, facade, nil)

	body, _ := json.Marshal(map[string]string{"email": "user@example.com", "password": "pass"})
	if resp := serve(engine, http.MethodPost, "/api/user/register", "", body); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for register, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodPost, "/api/user/login", "", body); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for login, got %d", resp.Code)
	}

	cases := []struct {
		name   string
		method string
		target string
		token  string
		body   []byte
		status int
	}{
		{"orders", http.MethodGet, "/api/orders", "token", nil, http.StatusOK},
		{"orders without token", http.MethodGet, "/api/orders", "", nil, http.StatusUnauthorized},
		{"order", http.MethodGet, "/api/orders/3", "token", nil, http.StatusOK},
		{"cancel", http.MethodDelete, "/api/orders/3", "token", nil, http.StatusNoContent},
		{"checkout", http.MethodPost, "/api/checkout", "token", []byte(`{"event_id":1,"merchandise":[{"sku_id":1,"quantity":1}]}`), http.StatusCreated},
		{"campsite availability is public", http.MethodGet, "/api/availability/campsites/1?check_in=2026-07-01&check_out=2026-07-02", "", nil, http.StatusOK},
		{"asset availability is public", http.MethodGet, "/api/availability/assets/1?check_in=2026-07-01&check_out=2026-07-02", "", nil, http.StatusOK},
		{"settle as buyer", http.MethodPost, "/api/admin/orders/1/settle", "token", []byte(`{"amount":"10"}`), http.StatusForbidden},
		{"settle as staff", http.MethodPost, "/api/admin/orders/1/settle", "admin", []byte(`{"amount":"10"}`), http.StatusOK},
		{"refund as staff", http.MethodPost, "/api/admin/orders/1/items/2/refund", "admin", nil, http.StatusOK},
		{"roster as staff", http.MethodPost, "/api/admin/events/1/roster/auto-assign?replace=false", "admin", nil, http.StatusOK},
		{"roster without token", http.MethodPost, "/api/admin/events/1/roster/auto-assign", "", nil, http.StatusUnauthorized},
		{"metrics disabled", http.MethodGet, "/metrics", "", nil, http.StatusNotFound},
		{"health is public", http.MethodGet, "/api/health", "", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if resp := serve(engine, tc.method, tc.target, tc.token, tc.body); resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestSetupExposesMetrics(t *testing.T) {
	recorder := metrics.NewRecorder()
	engine := newEngine(t, testhelpers.RegistrationFacadeStub{}, recorder)

	if resp := serve(engine, http.MethodGet, "/api/orders", "token", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for orders, got %d", resp.Code)
	}

	resp := serve(engine, http.MethodGet, "/metrics", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for metrics, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `eventreg_http_requests_total{handler="/api/orders",status="200"} 1`) {
		t.Fatalf("expected orders request to be counted, got:\n%s", resp.Body.String())
	}
}

func TestSetupHealthReportsDatabaseOutage(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	engine := Setup(testhelpers.RegistrationFacadeStub{}, testhelpers.HealthCheckerStub{Err: context.DeadlineExceeded}, nil, logger)

	if resp := serve(engine, http.MethodGet, "/api/health", "", nil); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while database is down, got %d", resp.Code)
	}
}

var _ handlers.RegistrationFacade = testhelpers.RegistrationFacadeStub{}
