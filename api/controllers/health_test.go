package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/config"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, newTestRequest(http.MethodGet, "/health/live", "", uuid.Nil, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-ZM-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-ZM-Env"))
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	deps := map[string]db.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	}
	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, deps).ServeHTTP(rec, newTestRequest(http.MethodGet, "/health/ready", "", uuid.Nil, nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	details := decodeTestEnvelope(t, rec).Error.Details
	if _, ok := details["redis"]; !ok {
		t.Fatalf("expected redis in details, got %v", details)
	}
	if _, ok := details["postgres"]; ok {
		t.Fatalf("postgres is healthy, got %v", details)
	}
}

func TestHealthReadyAllHealthy(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]db.Pinger{"postgres": stubPinger{}}).ServeHTTP(rec, newTestRequest(http.MethodGet, "/health/ready", "", uuid.Nil, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
