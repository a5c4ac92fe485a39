// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry builds the metrics stack: an OTel meter provider backed
// by the Prometheus exporter, scraped from the API server's /metrics path.
// When disabled it resolves to an explicit noop provider at startup, so the
// rest of the engine never branches on a telemetry flag.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// Config holds the telemetry configuration.
type Config struct {
	// Enabled controls whether real metrics are collected.
	Enabled bool
	// ServiceName identifies the service on the exported resource.
	ServiceName string
	// ServiceVersion identifies the service version on the exported resource.
	ServiceVersion string
}

// Provider bundles the meter provider with its scrape handler.
type Provider struct {
	meterProvider metric.MeterProvider
	handler       http.Handler
	shutdown      func(context.Context) error
}

// NewProvider builds the telemetry stack from config. A disabled config
// yields a noop meter provider and a nil scrape handler.
func NewProvider(config Config) (*Provider, error) {
	if !config.Enabled {
		return &Provider{
			meterProvider: noop.NewMeterProvider(),
			shutdown:      func(context.Context) error { return nil },
		}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithoutCounterSuffixes(),
		otelprom.WithoutUnits(),
		otelprom.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return &Provider{
		meterProvider: meterProvider,
		handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}),
		shutdown: meterProvider.Shutdown,
	}, nil
}

// MeterProvider returns the meter provider, never nil.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// PrometheusHandler returns the scrape handler, nil when telemetry is
// disabled.
func (p *Provider) PrometheusHandler() http.Handler {
	return p.handler
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
