// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package reconciler

import (
	"time"

	"github.com/wardensync/wardensync/pkg/ledger"
	"github.com/wardensync/wardensync/pkg/mapper"
)

// ScopeKind identifies how a run's scope is narrowed.
type ScopeKind string

// Scope kinds.
const (
	// ScopeFull covers every vault item and every ledger record.
	ScopeFull ScopeKind = "full"
	// ScopeItem covers a single vault item and its ledger records.
	ScopeItem ScopeKind = "item"
	// ScopeNamespace covers all items and records of one namespace.
	ScopeNamespace ScopeKind = "namespace"
)

// Scope narrows a run to a subset of items and records.
type Scope struct {
	Kind      ScopeKind
	ItemID    string
	Namespace string
}

// FullScope returns the scope covering everything.
func FullScope() Scope {
	return Scope{Kind: ScopeFull}
}

// ItemScope returns the scope for a single vault item.
func ItemScope(id string) Scope {
	return Scope{Kind: ScopeItem, ItemID: id}
}

// NamespaceScope returns the scope for one namespace.
func NamespaceScope(namespace string) Scope {
	return Scope{Kind: ScopeNamespace, Namespace: namespace}
}

// Label returns a human-readable scope label for logs and audit events.
func (s Scope) Label() string {
	switch s.Kind {
	case ScopeItem:
		return "item:" + s.ItemID
	case ScopeNamespace:
		return "namespace:" + s.Namespace
	default:
		return "full"
	}
}

// Options are the per-run policy knobs.
type Options struct {
	// CleanupOrphans enables deletion of secrets whose backing vault item is
	// gone. When false, orphans are flagged in the ledger but never deleted.
	CleanupOrphans bool
	// Workers bounds concurrent secret writes within one run.
	// Zero selects DefaultWorkers.
	Workers int
	// Observer receives plan and apply events. May be nil.
	Observer Observer
}

// DefaultWorkers is the apply concurrency used when Options.Workers is zero.
const DefaultWorkers = 4

// Skip reasons in a plan.
const (
	// SkipUnchanged means the target fingerprint matches the ledger record.
	SkipUnchanged = "unchanged"
	// SkipOrphanFlagged means the record's source item is gone but orphan
	// cleanup is disabled, so the secret is flagged instead of deleted.
	SkipOrphanFlagged = "orphan-flagged"
	// SkipDuplicateTarget means another item with a newer revision claimed
	// the same (namespace, secretName).
	SkipDuplicateTarget = "duplicate-target"
	// SkipUnmanagedFlagged means the cluster sweep found a managed-labeled
	// secret unknown to both the ledger and the desired set while orphan
	// cleanup is disabled.
	SkipUnmanagedFlagged = "unmanaged-orphan-flagged"
)

// Delete reasons in a plan.
const (
	// DeleteOrphan means the ledger record's source item no longer maps to it.
	DeleteOrphan = "orphan"
	// DeleteUnmanagedOrphan means a managed-labeled secret exists in the
	// cluster with neither a ledger record nor a desired target, typically
	// after a ledger rebuild.
	DeleteUnmanagedOrphan = "unmanaged-orphan"
)

// Operations reported for applied items.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpSkip   = "skip"
	OpDelete = "delete"
)

// PlannedWrite is one create or update in a plan.
type PlannedWrite struct {
	Target *mapper.Target
	// Existing is the ledger record being replaced, nil for creates.
	Existing *ledger.Record
}

// PlannedSkip is one intentionally untouched entry in a plan.
type PlannedSkip struct {
	Namespace    string
	SecretName   string
	SourceItemID string
	Reason       string
}

// PlannedDelete is one deletion in a plan.
type PlannedDelete struct {
	Namespace    string
	SecretName   string
	SourceItemID string
	Reason       string
	// Record is the ledger record backing the secret, nil for
	// unmanaged orphans discovered by the cluster sweep.
	Record *ledger.Record
}

// Plan is the computed outcome of one diff pass. Ephemeral: it lives only for
// the duration of the run that computed it.
type Plan struct {
	Scope   Scope
	Creates []PlannedWrite
	Updates []PlannedWrite
	Skips   []PlannedSkip
	Deletes []PlannedDelete
}

// ItemError describes one per-item failure in a summary.
type ItemError struct {
	Namespace  string `json:"namespace"`
	SecretName string `json:"secret_name"`
	Operation  string `json:"operation"`
	Message    string `json:"message"`
}

// OrphanCleanupResult summarizes the orphan handling of one run.
type OrphanCleanupResult struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Summary is the aggregate outcome of one run.
type Summary struct {
	Scope         string               `json:"scope"`
	Processed     int                  `json:"processed"`
	Created       int                  `json:"created"`
	Updated       int                  `json:"updated"`
	Skipped       int                  `json:"skipped"`
	Failed        int                  `json:"failed"`
	Deleted       int                  `json:"deleted"`
	// MapperSkipped counts fetched items that failed mapping and never
	// entered the plan, as opposed to plan skips.
	MapperSkipped int                  `json:"mapper_skipped,omitempty"`
	Succeeded     bool                 `json:"succeeded"`
	Duration      time.Duration        `json:"duration"`
	Errors        []ItemError          `json:"errors,omitempty"`
	OrphanCleanup *OrphanCleanupResult `json:"orphan_cleanup,omitempty"`
	// RunError is set when the run itself aborted (configuration failure,
	// cancellation), as opposed to per-item failures.
	RunError string `json:"run_error,omitempty"`
}

// ItemResult is the applied outcome of one plan entry, delivered to observers.
type ItemResult struct {
	Namespace    string
	SecretName   string
	SourceItemID string
	Operation    string
	SkipReason   string
	Err          error
}

// Observer receives reconciliation events. Implementations must be safe for
// concurrent ItemApplied calls.
type Observer interface {
	// PlanComputed is called once after the diff pass.
	PlanComputed(plan *Plan)
	// ItemApplied is called for every applied or skipped plan entry.
	ItemApplied(result ItemResult)
	// Phase reports apply progress: done out of total for the named phase.
	Phase(phase string, done, total int)
}
