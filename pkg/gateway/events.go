// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"time"

	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

// EventKind identifies what a webhook notification is about.
type EventKind string

// Webhook event kinds.
const (
	// EventItemUpdated signals a vault item was created or changed.
	EventItemUpdated EventKind = "item.updated"
	// EventItemDeleted signals a vault item was deleted or trashed.
	EventItemDeleted EventKind = "item.deleted"
	// EventNamespaceChanged signals that some items of a namespace changed.
	EventNamespaceChanged EventKind = "namespace.changed"
)

// Event is an inbound webhook notification. Transient: it is not persisted
// beyond the audit trail.
type Event struct {
	Kind      EventKind `json:"kind"`
	ItemID    string    `json:"item_id,omitempty"`
	Namespace string    `json:"namespace,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Validate reports whether the event carries what its kind requires.
func (e *Event) Validate() (string, bool) {
	switch e.Kind {
	case EventItemUpdated, EventItemDeleted:
		if e.ItemID == "" {
			return "event kind " + string(e.Kind) + " requires an item id", false
		}
	case EventNamespaceChanged:
		if e.Namespace == "" {
			return "event kind namespace.changed requires a namespace", false
		}
	default:
		return "unknown event kind " + string(e.Kind), false
	}
	return "", true
}

// ProcessingResult wraps the summary of a webhook-triggered sync with an
// explicit accept/reject status.
type ProcessingResult struct {
	Accepted bool                `json:"accepted"`
	Busy     bool                `json:"busy"`
	Reason   string              `json:"reason,omitempty"`
	Summary  *reconciler.Summary `json:"summary,omitempty"`
}

// Syncer is the narrow surface ProcessEvent routes to. Both the Gateway
// itself and the run coordinator implement it; in production the coordinator
// sits in between so webhook syncs honor the single-flight gate.
type Syncer interface {
	SyncItem(ctx context.Context, id string, opts reconciler.Options) (reconciler.Summary, error)
	SyncNamespace(ctx context.Context, namespace string, opts reconciler.Options) (reconciler.Summary, error)
}

var _ Syncer = (*Gateway)(nil)

// ProcessEvent validates and routes a webhook event through the given
// syncer. Item events, including deletions, become item-scoped syncs;
// namespace events become namespace-scoped syncs.
func ProcessEvent(ctx context.Context, syncer Syncer, event Event, opts reconciler.Options) ProcessingResult {
	if reason, ok := event.Validate(); !ok {
		return ProcessingResult{Accepted: false, Reason: reason}
	}

	var summary reconciler.Summary
	var err error
	switch event.Kind {
	case EventItemUpdated, EventItemDeleted:
		summary, err = syncer.SyncItem(ctx, event.ItemID, opts)
	case EventNamespaceChanged:
		summary, err = syncer.SyncNamespace(ctx, event.Namespace, opts)
	}

	if errors.IsBusy(err) {
		// Never silently dropped: the caller gets an explicit busy result
		// and is expected to retry.
		return ProcessingResult{Accepted: false, Busy: true, Reason: err.Error()}
	}

	result := ProcessingResult{Accepted: true, Summary: &summary}
	if err != nil {
		result.Reason = err.Error()
	}
	return result
}
