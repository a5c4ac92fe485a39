// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger defines the State Ledger: the durable mapping of managed
// secrets to the vault items they were last synced from. The ledger is the
// reconciler's memory across runs and drives orphan detection.
package ledger

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=ledger.go Store

// Status is the sync state of a managed secret.
type Status string

// Managed secret statuses.
const (
	// StatusSynced means the secret matches its source item.
	StatusSynced Status = "synced"
	// StatusFailed means the last write for the secret failed; the next run retries.
	StatusFailed Status = "failed"
	// StatusOrphaned means the backing vault item no longer maps to the secret
	// and orphan cleanup was disabled, so the secret was flagged, not deleted.
	StatusOrphaned Status = "orphaned"
)

// Record is one row of the ledger: a managed secret and the vault item it was
// last synced from. Unique on (Namespace, SecretName).
type Record struct {
	Namespace      string    `json:"namespace"`
	SecretName     string    `json:"secret_name"`
	SourceItemID   string    `json:"source_item_id"`
	SourceItemName string    `json:"source_item_name"`
	Fingerprint    string    `json:"fingerprint"`
	LastSynced     time.Time `json:"last_synced"`
	Status         Status    `json:"status"`
	LastError      string    `json:"last_error,omitempty"`
}

// Key returns the "namespace/secretName" identity of the record.
func (r *Record) Key() string {
	return r.Namespace + "/" + r.SecretName
}

// Store persists ledger records. Mutated only by the reconciler, under the
// run coordinator's exclusion.
type Store interface {
	// Get returns the record for (namespace, name), or (nil, nil) when absent.
	Get(ctx context.Context, namespace, name string) (*Record, error)
	// Upsert inserts or replaces a record keyed on (Namespace, SecretName).
	Upsert(ctx context.Context, record Record) error
	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, namespace, name string) error
	// ListAll returns every record, ordered by namespace then secret name.
	ListAll(ctx context.Context) ([]Record, error)
	// Close releases any resources held by the store.
	Close() error
}
