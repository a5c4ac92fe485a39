// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the sync engine.
const (
	// EventTypeRunStarted marks the start of a sync run.
	EventTypeRunStarted = "sync_run_started"
	// EventTypeRunProgress carries in-flight counters for a run.
	EventTypeRunProgress = "sync_run_progress"
	// EventTypeRunCompleted marks the end of a sync run.
	EventTypeRunCompleted = "sync_run_completed"
	// EventTypeItemOutcome records the outcome of one planned item.
	EventTypeItemOutcome = "sync_item_outcome"
)

// Outcomes for audit events.
const (
	// OutcomeSuccess indicates a successful operation.
	OutcomeSuccess = "success"
	// OutcomeFailure indicates a failed operation.
	OutcomeFailure = "failure"
	// OutcomeSkipped indicates an operation that was intentionally not performed.
	OutcomeSkipped = "skipped"
)

// Target field keys in the event target map.
const (
	// TargetKeyNamespace is the Kubernetes namespace of the affected secret.
	TargetKeyNamespace = "namespace"
	// TargetKeySecret is the name of the affected secret.
	TargetKeySecret = "secret"
	// TargetKeyItemID is the vault item id backing the secret.
	TargetKeyItemID = "item_id"
	// TargetKeyScope is the scope label of a run.
	TargetKeyScope = "scope"
)

// LevelAudit is the log level for audit events. It sits above Info so audit
// lines survive any reasonable level filter on the audit logger.
const LevelAudit = slog.Level(slog.LevelInfo + 4)

// Event is an audit event in the engine's canonical shape.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`
	// RunID ties the event to the sync run that produced it.
	RunID string `json:"run_id"`
	// Type is the event type.
	Type string `json:"type"`
	// LoggedAt is when the event was recorded.
	LoggedAt time.Time `json:"logged_at"`
	// Outcome is success, failure, or skipped.
	Outcome string `json:"outcome"`
	// Component identifies the emitting component.
	Component string `json:"component"`
	// Target describes what the event acted on.
	Target map[string]string `json:"target,omitempty"`
	// Metadata holds event-specific extra fields.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEvent creates an audit event with a fresh id and timestamp.
func NewEvent(eventType, runID, outcome, component string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		RunID:     runID,
		Type:      eventType,
		LoggedAt:  time.Now().UTC(),
		Outcome:   outcome,
		Component: component,
	}
}

// WithTarget sets the target map and returns the event for chaining.
func (e *Event) WithTarget(target map[string]string) *Event {
	e.Target = target
	return e
}

// WithMetadata sets the metadata map and returns the event for chaining.
func (e *Event) WithMetadata(metadata map[string]any) *Event {
	e.Metadata = metadata
	return e
}

// LogTo writes the event to the given logger at the audit level.
func (e *Event) LogTo(ctx context.Context, l *slog.Logger) {
	attrs := []any{
		slog.String("id", e.ID),
		slog.String("run_id", e.RunID),
		slog.String("type", e.Type),
		slog.Time("logged_at", e.LoggedAt),
		slog.String("outcome", e.Outcome),
		slog.String("component", e.Component),
	}
	if len(e.Target) > 0 {
		attrs = append(attrs, slog.Any("target", e.Target))
	}
	if len(e.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", e.Metadata))
	}
	l.Log(ctx, LevelAudit, e.Type, attrs...)
}
