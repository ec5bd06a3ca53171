package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/farmdesk/farmdesk-backend/pkg/config"
	"github.com/farmdesk/farmdesk-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig())(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if env := rec.Header().Get("X-FarmDesk-Env"); env != "test" {
		t.Fatalf("expected env header test, got %q", env)
	}
}

func TestHealthReady(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := HealthReady(testConfig(), logger.Nop(),
		Dependency{Name: "postgres", Pinger: stubPinger{}},
		Dependency{Name: "redis", Pinger: stubPinger{}},
	)
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Data struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Status != "ready" {
		t.Fatalf("expected ready, got %q", body.Data.Status)
	}
	if want := map[string]string{"postgres": "ok", "redis": "ok"}; !reflect.DeepEqual(body.Data.Checks, want) {
		t.Fatalf("expected checks %v got %v", want, body.Data.Checks)
	}
}

func TestHealthReadyFailsOnDependency(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := HealthReady(testConfig(), logger.Nop(),
		Dependency{Name: "postgres", Pinger: stubPinger{}},
		Dependency{Name: "redis", Pinger: stubPinger{err: errors.New("connection refused")}},
	)
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}
