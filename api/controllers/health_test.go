package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/ecommerce-backend/pkg/config"
)

type stubPinger struct {
	err   error
	calls *atomic.Int32
}

func (p stubPinger) Ping(ctx context.Context) error {
	if p.calls != nil {
		p.calls.Add(1)
	}
	return p.err
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dev", resp.Header().Get("X-Ecommerce-Env"))
}

func TestHealthReadyPingsEveryDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	var calls atomic.Int32
	deps := map[string]Pinger{
		"postgres": stubPinger{calls: &calls},
		"redis":    stubPinger{calls: &calls},
	}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, deps).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHealthReadyFailsOnDependencyError(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	deps := map[string]Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, deps).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.NotContains(t, resp.Body.String(), "connection refused")
}
