// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package v1 contains the route handlers of the engine's REST API.
package v1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Pinger is probed by the readiness endpoint. The ledger store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthcheckRouter sets up the liveness and readiness routes.
func HealthcheckRouter(readiness Pinger) http.Handler {
	routes := &healthcheckRoutes{readiness: readiness}
	r := chi.NewRouter()
	r.Get("/", routes.getHealthcheck)
	r.Get("/ready", routes.getReadiness)
	return r
}

type healthcheckRoutes struct {
	readiness Pinger
}

func (*healthcheckRoutes) getHealthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *healthcheckRoutes) getReadiness(w http.ResponseWriter, r *http.Request) {
	if h.readiness != nil {
		if err := h.readiness.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
