// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit records sync-run lifecycle and per-item outcomes as JSON
// lines. The sink implementation is resolved once at startup: a LogSink when
// auditing is enabled, an explicit NoopSink otherwise.
package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

const component = "wardensync"

// RunID identifies one sync run across its audit events.
type RunID string

// Counters is the per-run counter snapshot forwarded with progress events.
type Counters struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Deleted   int `json:"deleted"`
}

// ItemEvent describes the outcome of one planned item.
type ItemEvent struct {
	Namespace    string
	SecretName   string
	SourceItemID string
	// Operation is the plan bucket: create, update, skip, or delete.
	Operation string
	// Outcome is success, failure, or skipped.
	Outcome string
	// Error carries the failure detail when Outcome is failure.
	Error string
}

// Sink receives sync-run audit events.
type Sink interface {
	// StartRun records the start of a run and returns its id.
	StartRun(ctx context.Context, scope string, totalItems int) RunID
	// Progress records in-flight counters for a run.
	Progress(ctx context.Context, id RunID, counters Counters)
	// ItemOutcome records the outcome of one planned item.
	ItemOutcome(ctx context.Context, id RunID, event ItemEvent)
	// CompleteRun records the end of a run.
	CompleteRun(ctx context.Context, id RunID, status string, errMsg string)
}

// Config configures the audit log destination.
type Config struct {
	// LogFile is the path audit lines are appended to. Empty means stdout.
	LogFile string
}

// GetLogWriter returns the writer audit lines go to.
func (c *Config) GetLogWriter() (io.Writer, error) {
	if c.LogFile == "" {
		return os.Stdout, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	return f, nil
}

// LogSink writes audit events as JSON lines.
type LogSink struct {
	logger *slog.Logger
}

var _ Sink = (*LogSink)(nil)

// NewLogSink creates a LogSink from the given config.
func NewLogSink(config *Config) (*LogSink, error) {
	if config == nil {
		config = &Config{}
	}
	w, err := config.GetLogWriter()
	if err != nil {
		return nil, err
	}
	return NewLogSinkWithWriter(w), nil
}

// NewLogSinkWithWriter creates a LogSink writing to w. Used by tests to
// capture output.
func NewLogSinkWithWriter(w io.Writer) *LogSink {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: LevelAudit})
	return &LogSink{logger: slog.New(handler)}
}

// StartRun implements Sink.
func (s *LogSink) StartRun(ctx context.Context, scope string, totalItems int) RunID {
	id := RunID(uuid.NewString())
	NewEvent(EventTypeRunStarted, string(id), OutcomeSuccess, component).
		WithTarget(map[string]string{TargetKeyScope: scope}).
		WithMetadata(map[string]any{"total_items": totalItems}).
		LogTo(ctx, s.logger)
	return id
}

// Progress implements Sink.
func (s *LogSink) Progress(ctx context.Context, id RunID, counters Counters) {
	NewEvent(EventTypeRunProgress, string(id), OutcomeSuccess, component).
		WithMetadata(map[string]any{"counters": counters}).
		LogTo(ctx, s.logger)
}

// ItemOutcome implements Sink.
func (s *LogSink) ItemOutcome(ctx context.Context, id RunID, event ItemEvent) {
	metadata := map[string]any{"operation": event.Operation}
	if event.Error != "" {
		metadata["error"] = event.Error
	}
	NewEvent(EventTypeItemOutcome, string(id), event.Outcome, component).
		WithTarget(map[string]string{
			TargetKeyNamespace: event.Namespace,
			TargetKeySecret:    event.SecretName,
			TargetKeyItemID:    event.SourceItemID,
		}).
		WithMetadata(metadata).
		LogTo(ctx, s.logger)
}

// CompleteRun implements Sink.
func (s *LogSink) CompleteRun(ctx context.Context, id RunID, status string, errMsg string) {
	event := NewEvent(EventTypeRunCompleted, string(id), status, component)
	if errMsg != "" {
		event.WithMetadata(map[string]any{"error": errMsg})
	}
	event.LogTo(ctx, s.logger)
}

// NoopSink discards all audit events. Constructed only when auditing is
// explicitly disabled, so callers always hold a concrete sink.
type NoopSink struct{}

var _ Sink = (*NoopSink)(nil)

// StartRun implements Sink. It still mints a run id so callers can correlate
// progress events and summaries.
func (*NoopSink) StartRun(context.Context, string, int) RunID {
	return RunID(uuid.NewString())
}

// Progress implements Sink.
func (*NoopSink) Progress(context.Context, RunID, Counters) {}

// ItemOutcome implements Sink.
func (*NoopSink) ItemOutcome(context.Context, RunID, ItemEvent) {}

// CompleteRun implements Sink.
func (*NoopSink) CompleteRun(context.Context, RunID, string, string) {}
