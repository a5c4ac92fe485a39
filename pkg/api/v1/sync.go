// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

// retryAfterSeconds is the Retry-After hint sent with busy rejections.
const retryAfterSeconds = "10"

// SyncRunner executes sync runs; in production the coordinator, so API
// triggers honor the single-flight gate.
type SyncRunner interface {
	RunFullSync(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error)
	SyncItem(ctx context.Context, id string, opts reconciler.Options) (reconciler.Summary, error)
	SyncNamespace(ctx context.Context, namespace string, opts reconciler.Options) (reconciler.Summary, error)
}

// SyncRoutes defines the routes for manual sync triggers.
type SyncRoutes struct {
	runner   SyncRunner
	baseOpts reconciler.Options
}

// SyncRouter creates a new router for manual sync triggers.
func SyncRouter(runner SyncRunner, baseOpts reconciler.Options) http.Handler {
	routes := SyncRoutes{runner: runner, baseOpts: baseOpts}
	r := chi.NewRouter()
	r.Post("/", routes.fullSync)
	r.Post("/items/{id}", routes.itemSync)
	r.Post("/namespaces/{name}", routes.namespaceSync)
	return r
}

// fullSync
//
//	@Summary		Trigger a full sync
//	@Description	Run a full-scope reconciliation. cleanupOrphans=true enables orphan deletion for this run.
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	reconciler.Summary
//	@Failure		503	{string}	string	"a sync is already running and the queue is full"
//	@Router			/api/v1/sync [post]
func (s *SyncRoutes) fullSync(w http.ResponseWriter, r *http.Request) {
	opts := s.baseOpts
	if r.URL.Query().Get("cleanupOrphans") == "true" {
		opts.CleanupOrphans = true
	}
	summary, err := s.runner.RunFullSync(r.Context(), opts)
	writeSummary(w, summary, err)
}

// itemSync
//
//	@Summary		Sync a single vault item
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	reconciler.Summary
//	@Router			/api/v1/sync/items/{id} [post]
func (s *SyncRoutes) itemSync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}
	summary, err := s.runner.SyncItem(r.Context(), id, s.baseOpts)
	writeSummary(w, summary, err)
}

// namespaceSync
//
//	@Summary		Sync a single namespace
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	reconciler.Summary
//	@Router			/api/v1/sync/namespaces/{name} [post]
func (s *SyncRoutes) namespaceSync(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "Namespace is required", http.StatusBadRequest)
		return
	}
	summary, err := s.runner.SyncNamespace(r.Context(), name, s.baseOpts)
	writeSummary(w, summary, err)
}

// writeSummary renders a run result. Per-item failures still produce a 200
// with the summary carrying the failure detail; only run-level errors map to
// error statuses.
func writeSummary(w http.ResponseWriter, summary reconciler.Summary, err error) {
	switch {
	case errors.IsBusy(err):
		w.Header().Set("Retry-After", retryAfterSeconds)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case err != nil:
		logger.Errorw("sync run failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
	if encodeErr := json.NewEncoder(w).Encode(summary); encodeErr != nil {
		logger.Errorw("failed to encode sync summary", "error", encodeErr)
	}
}
