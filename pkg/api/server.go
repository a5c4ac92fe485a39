// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package api contains the REST API for the sync engine: the authenticated
// webhook endpoint, manual sync triggers, ledger inspection, health probes,
// and the metrics scrape path.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/wardensync/wardensync/pkg/api/v1"
	"github.com/wardensync/wardensync/pkg/ledger"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

// Not sure if these values need to be configurable.
const (
	middlewareTimeout = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Config wires the server's collaborators and policy.
type Config struct {
	// Runner executes sync runs; in production the coordinator.
	Runner v1.SyncRunner
	// Store is the ledger backing the records endpoint.
	Store ledger.Store
	// Readiness is probed by /health/ready. May be nil.
	Readiness v1.Pinger
	// HMACSecret authenticates webhook payloads. Empty disables the
	// webhook endpoint.
	HMACSecret []byte
	// SyncOptions is the base policy applied to API-triggered runs.
	SyncOptions reconciler.Options
	// MetricsHandler serves /metrics when telemetry is enabled. May be nil.
	MetricsHandler http.Handler
}

func headersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// Router assembles the full route tree.
func Router(config Config) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Timeout(middlewareTimeout),
		headersMiddleware,
	)

	routers := map[string]http.Handler{
		"/health":         v1.HealthcheckRouter(config.Readiness),
		"/api/v1/sync":    v1.SyncRouter(config.Runner, config.SyncOptions),
		"/api/v1/records": v1.RecordsRouter(config.Store),
	}
	if len(config.HMACSecret) > 0 {
		routers["/api/v1/webhook"] = v1.WebhookRouter(config.Runner, config.HMACSecret, config.SyncOptions)
	} else {
		logger.Warn("webhook HMAC secret not configured, webhook endpoint disabled")
	}
	if config.MetricsHandler != nil {
		routers["/metrics"] = config.MetricsHandler
	}

	for prefix, router := range routers {
		r.Mount(prefix, router)
	}
	return r
}

// Serve starts the server on the given address and blocks until ctx is
// canceled. It is assumed that the caller sets up appropriate signal handling.
func Serve(ctx context.Context, address string, config Config) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           Router(config),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	logger.Infof("starting HTTP server on %s", address)
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server stopped with error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
