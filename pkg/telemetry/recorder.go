// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/wardensync/wardensync"

// Recorder holds the engine's instruments. It satisfies the coordinator's
// Metrics interface.
type Recorder struct {
	runs       metric.Int64Counter
	items      metric.Int64Counter
	duration   metric.Float64Histogram
	queueDepth metric.Int64Gauge
}

// NewRecorder creates the engine's instruments on the given provider.
func NewRecorder(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)

	runs, err := meter.Int64Counter("wardensync_runs_total",
		metric.WithDescription("Completed sync runs by scope and status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}

	items, err := meter.Int64Counter("wardensync_items_total",
		metric.WithDescription("Applied plan items by operation and outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create items counter: %w", err)
	}

	duration, err := meter.Float64Histogram("wardensync_run_duration_seconds",
		metric.WithDescription("Sync run duration by scope"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	queueDepth, err := meter.Int64Gauge("wardensync_queue_depth",
		metric.WithDescription("Runs waiting behind the active one"))
	if err != nil {
		return nil, fmt.Errorf("failed to create queue depth gauge: %w", err)
	}

	return &Recorder{
		runs:       runs,
		items:      items,
		duration:   duration,
		queueDepth: queueDepth,
	}, nil
}

// RecordRun records one completed run.
func (r *Recorder) RecordRun(ctx context.Context, scope, status string, duration time.Duration) {
	r.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scopeKind(scope)),
		attribute.String("status", status),
	))
	r.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("scope", scopeKind(scope)),
	))
}

// RecordItem records one applied plan item.
func (r *Recorder) RecordItem(ctx context.Context, operation, outcome string) {
	r.items.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

// SetQueueDepth records the coordinator's queue depth.
func (r *Recorder) SetQueueDepth(depth int) {
	r.queueDepth.Record(context.Background(), int64(depth))
}

// scopeKind strips the identifying part off a scope label so cardinality
// stays bounded: "item:abc" and "namespace:prod" collapse to their kinds.
func scopeKind(label string) string {
	for i := range label {
		if label[i] == ':' {
			return label[:i]
		}
	}
	return label
}
