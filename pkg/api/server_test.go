// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardensync/wardensync/pkg/ledger"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

type stubRunner struct{}

func (*stubRunner) RunFullSync(context.Context, reconciler.Options) (reconciler.Summary, error) {
	return reconciler.Summary{Succeeded: true}, nil
}

func (*stubRunner) SyncItem(context.Context, string, reconciler.Options) (reconciler.Summary, error) {
	return reconciler.Summary{Succeeded: true}, nil
}

func (*stubRunner) SyncNamespace(context.Context, string, reconciler.Options) (reconciler.Summary, error) {
	return reconciler.Summary{Succeeded: true}, nil
}

type stubStore struct{ ledger.Store }

func (*stubStore) ListAll(context.Context) ([]ledger.Record, error) { return nil, nil }

func newTestRouter(config Config) http.Handler {
	if config.Runner == nil {
		config.Runner = &stubRunner{}
	}
	if config.Store == nil {
		config.Store = &stubStore{}
	}
	return Router(config)
}

func TestRouterMountsCoreRoutes(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Config{})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusNoContent},
		{http.MethodGet, "/health/ready", http.StatusNoContent},
		{http.MethodPost, "/api/v1/sync", http.StatusOK},
		{http.MethodGet, "/api/v1/records", http.StatusOK},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestWebhookDisabledWithoutSecret(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Config{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhook", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookMountedWithSecret(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Config{HMACSecret: []byte("secret")})

	// Unsigned request reaches the handler and is rejected there, not 404.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhook", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsMountedWhenConfigured(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	router := newTestRouter(Config{MetricsHandler: handler})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestAPIResponsesAreJSON(t *testing.T) {
	t.Parallel()
	router := newTestRouter(Config{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
