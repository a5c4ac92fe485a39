// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconciler computes and applies the sync plan: which managed
// secrets to create, update, skip, or delete for one pass over the vault.
//
// Per-item failures never abort the batch; they are aggregated into the run
// summary and the ledger is left in a state from which the next run retries
// them. Run-level failures (ledger unavailable, cancellation) abort the pass.
package reconciler

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wardensync/wardensync/pkg/kubernetes"
	"github.com/wardensync/wardensync/pkg/ledger"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/mapper"
)

// Reconciler owns the diff/apply cycle. It is the only writer of the ledger,
// and runs under the coordinator's single-flight gate.
type Reconciler struct {
	secrets kubernetes.SecretsClient
	store   ledger.Store
}

// New creates a Reconciler.
func New(secrets kubernetes.SecretsClient, store ledger.Store) *Reconciler {
	return &Reconciler{secrets: secrets, store: store}
}

// Reconcile runs one full diff/apply pass for the given targets and scope.
// The returned error is the run-level error, if any; per-item failures live
// in the summary.
func (r *Reconciler) Reconcile(ctx context.Context, targets []*mapper.Target, scope Scope, opts Options) (Summary, error) {
	start := time.Now()

	plan, err := r.BuildPlan(ctx, targets, scope, opts)
	if err != nil {
		return Summary{
			Scope:    scope.Label(),
			Duration: time.Since(start),
			RunError: err.Error(),
		}, err
	}

	if opts.Observer != nil {
		opts.Observer.PlanComputed(plan)
	}

	summary := r.Apply(ctx, plan, opts)
	summary.Duration = time.Since(start)

	var runErr error
	if summary.RunError != "" {
		runErr = ctx.Err()
	}
	return summary, runErr
}

// BuildPlan computes the sync plan: the desired set D (targets) diffed
// against the observed set O (ledger records in scope), plus, for full-scope
// runs, a sweep of managed-labeled cluster secrets unknown to the ledger.
func (r *Reconciler) BuildPlan(ctx context.Context, targets []*mapper.Target, scope Scope, opts Options) (*Plan, error) {
	plan := &Plan{Scope: scope}

	desired := dedupeTargets(targets, plan)

	records, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	observed := filterRecords(records, scope, desired)

	// Diff D against O. Iterate in key order so plans are deterministic.
	keys := make([]string, 0, len(desired))
	for key := range desired {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		target := desired[key]
		record, known := observed[key]
		switch {
		case !known:
			plan.Creates = append(plan.Creates, PlannedWrite{Target: target})
		case record.Fingerprint != target.Fingerprint:
			recordCopy := *record
			plan.Updates = append(plan.Updates, PlannedWrite{Target: target, Existing: &recordCopy})
		default:
			plan.Skips = append(plan.Skips, PlannedSkip{
				Namespace:    target.Namespace,
				SecretName:   target.SecretName,
				SourceItemID: target.SourceItemID,
				Reason:       SkipUnchanged,
			})
		}
	}

	// Records with no target left in D are orphans: their item was deleted,
	// untagged, or renamed away.
	orphanKeys := make([]string, 0)
	for key := range observed {
		if _, wanted := desired[key]; !wanted {
			orphanKeys = append(orphanKeys, key)
		}
	}
	sort.Strings(orphanKeys)

	for _, key := range orphanKeys {
		record := observed[key]
		recordCopy := *record
		if opts.CleanupOrphans {
			plan.Deletes = append(plan.Deletes, PlannedDelete{
				Namespace:    record.Namespace,
				SecretName:   record.SecretName,
				SourceItemID: record.SourceItemID,
				Reason:       DeleteOrphan,
				Record:       &recordCopy,
			})
		} else {
			plan.Skips = append(plan.Skips, PlannedSkip{
				Namespace:    record.Namespace,
				SecretName:   record.SecretName,
				SourceItemID: record.SourceItemID,
				Reason:       SkipOrphanFlagged,
			})
		}
	}

	// Full-scope runs also reconcile cluster reality: managed-labeled secrets
	// absent from both the ledger and D survive ledger loss and rebuilds.
	if scope.Kind == ScopeFull {
		if err := r.sweepUnmanaged(ctx, plan, desired, records, opts); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// sweepUnmanaged appends plan entries for managed-labeled cluster secrets
// that neither the ledger nor the desired set knows about.
func (r *Reconciler) sweepUnmanaged(
	ctx context.Context,
	plan *Plan,
	desired map[string]*mapper.Target,
	records []ledger.Record,
	opts Options,
) error {
	refs, err := r.secrets.ListManagedSecrets(ctx, "")
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(records))
	for i := range records {
		known[records[i].Key()] = struct{}{}
	}

	for _, ref := range refs {
		key := ref.Namespace + "/" + ref.Name
		if _, ok := desired[key]; ok {
			continue
		}
		if _, ok := known[key]; ok {
			continue
		}
		if opts.CleanupOrphans {
			plan.Deletes = append(plan.Deletes, PlannedDelete{
				Namespace:    ref.Namespace,
				SecretName:   ref.Name,
				SourceItemID: ref.SourceItemID,
				Reason:       DeleteUnmanagedOrphan,
			})
		} else {
			plan.Skips = append(plan.Skips, PlannedSkip{
				Namespace:    ref.Namespace,
				SecretName:   ref.Name,
				SourceItemID: ref.SourceItemID,
				Reason:       SkipUnmanagedFlagged,
			})
		}
	}
	return nil
}

// Apply executes the plan. Creates and updates run first, fanned out over a
// bounded worker pool; deletes follow. The ledger is only written after the
// corresponding secret write is confirmed, so a cancelled run re-derives the
// same plan on its next pass.
func (r *Reconciler) Apply(ctx context.Context, plan *Plan, opts Options) Summary {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	summary := Summary{Scope: plan.Scope.Label()}
	summary.Processed = len(plan.Creates) + len(plan.Updates)

	var mu sync.Mutex
	var done int
	writeTotal := len(plan.Creates) + len(plan.Updates)

	notify := func(result ItemResult) {
		if opts.Observer != nil {
			opts.Observer.ItemApplied(result)
		}
	}
	phase := func(name string, done, total int) {
		if opts.Observer != nil {
			opts.Observer.Phase(name, done, total)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	writes := make([]PlannedWrite, 0, writeTotal)
	operations := make([]string, 0, writeTotal)
	for _, w := range plan.Creates {
		writes = append(writes, w)
		operations = append(operations, OpCreate)
	}
	for _, w := range plan.Updates {
		writes = append(writes, w)
		operations = append(operations, OpUpdate)
	}

	for i := range writes {
		if ctx.Err() != nil {
			// Stop dispatching; in-flight writes drain below.
			break
		}
		write := writes[i]
		operation := operations[i]
		group.Go(func() error {
			err := r.applyWrite(groupCtx, write, operation)

			mu.Lock()
			if err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, ItemError{
					Namespace:  write.Target.Namespace,
					SecretName: write.Target.SecretName,
					Operation:  operation,
					Message:    err.Error(),
				})
			} else if operation == OpCreate {
				summary.Created++
			} else {
				summary.Updated++
			}
			done++
			current := done
			mu.Unlock()

			notify(ItemResult{
				Namespace:    write.Target.Namespace,
				SecretName:   write.Target.SecretName,
				SourceItemID: write.Target.SourceItemID,
				Operation:    operation,
				Err:          err,
			})
			phase("writing", current, writeTotal)
			// Item failures are aggregated, never propagated: one bad item
			// must not cancel the rest of the batch.
			return nil
		})
	}
	_ = group.Wait()

	// Skips involve at most a ledger status flip, no secret writes.
	for _, skip := range plan.Skips {
		r.applySkip(ctx, skip, &summary)
		notify(ItemResult{
			Namespace:    skip.Namespace,
			SecretName:   skip.SecretName,
			SourceItemID: skip.SourceItemID,
			Operation:    OpSkip,
			SkipReason:   skip.Reason,
		})
	}

	if len(plan.Deletes) > 0 {
		r.applyDeletes(ctx, plan, &summary, workers, notify, phase)
	} else if hasOrphanSkips(plan) {
		summary.OrphanCleanup = &OrphanCleanupResult{Scanned: countOrphanSkips(plan)}
	}

	if ctx.Err() != nil {
		summary.RunError = ctx.Err().Error()
	}
	orphanFailed := 0
	if summary.OrphanCleanup != nil {
		orphanFailed = summary.OrphanCleanup.Failed
	}
	summary.Succeeded = summary.Failed == 0 && orphanFailed == 0 && summary.RunError == ""
	return summary
}

// applyWrite performs one create or update and, on success, commits the
// matching ledger record. On failure of an existing record the ledger keeps
// its fingerprint and only gains failure bookkeeping, so the next run
// retries; a failed create of a brand-new target writes no record at all.
func (r *Reconciler) applyWrite(ctx context.Context, write PlannedWrite, operation string) error {
	target := write.Target

	var writeErr error
	if operation == OpCreate {
		writeErr = r.secrets.CreateSecret(ctx, target)
	} else {
		writeErr = r.secrets.UpdateSecret(ctx, target)
	}

	if writeErr != nil {
		logger.Errorw("secret write failed",
			"operation", operation,
			"namespace", target.Namespace,
			"secret", target.SecretName,
			"error", writeErr.Error())
		if write.Existing != nil {
			record := *write.Existing
			record.Status = ledger.StatusFailed
			record.LastError = writeErr.Error()
			if err := r.store.Upsert(ctx, record); err != nil {
				logger.Errorw("ledger bookkeeping failed", "key", record.Key(), "error", err.Error())
			}
		}
		return writeErr
	}

	record := ledger.Record{
		Namespace:      target.Namespace,
		SecretName:     target.SecretName,
		SourceItemID:   target.SourceItemID,
		SourceItemName: target.SourceItemName,
		Fingerprint:    target.Fingerprint,
		LastSynced:     time.Now().UTC(),
		Status:         ledger.StatusSynced,
	}
	if err := r.store.Upsert(ctx, record); err != nil {
		// The secret is written but the ledger is not: surface as an item
		// failure so the next run re-syncs and repairs the record.
		logger.Errorw("ledger commit failed", "key", record.Key(), "error", err.Error())
		return err
	}

	logger.Debugw("secret synced",
		"operation", operation,
		"namespace", target.Namespace,
		"secret", target.SecretName,
		"item", target.SourceItemID)
	return nil
}

// applySkip counts a skip and flips orphan-flagged records to orphaned.
func (r *Reconciler) applySkip(ctx context.Context, skip PlannedSkip, summary *Summary) {
	summary.Skipped++
	if skip.Reason == SkipUnchanged || skip.Reason == SkipDuplicateTarget {
		// Skips originating from the desired set still count as processed.
		summary.Processed++
	}
	if skip.Reason != SkipOrphanFlagged {
		return
	}

	record, err := r.store.Get(ctx, skip.Namespace, skip.SecretName)
	if err != nil || record == nil {
		return
	}
	if record.Status == ledger.StatusOrphaned {
		return
	}
	record.Status = ledger.StatusOrphaned
	if err := r.store.Upsert(ctx, *record); err != nil {
		logger.Errorw("flagging orphan failed", "key", record.Key(), "error", err.Error())
	}
}

// applyDeletes executes the delete bucket, best-effort and independent per item.
func (r *Reconciler) applyDeletes(
	ctx context.Context,
	plan *Plan,
	summary *Summary,
	workers int,
	notify func(ItemResult),
	phase func(string, int, int),
) {
	result := &OrphanCleanupResult{Scanned: len(plan.Deletes) + countOrphanSkips(plan)}
	summary.OrphanCleanup = result

	var mu sync.Mutex
	var done int
	total := len(plan.Deletes)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i := range plan.Deletes {
		if ctx.Err() != nil {
			break
		}
		del := plan.Deletes[i]
		group.Go(func() error {
			err := r.applyDelete(groupCtx, del)

			mu.Lock()
			if err != nil {
				result.Failed++
				summary.Failed++
				summary.Errors = append(summary.Errors, ItemError{
					Namespace:  del.Namespace,
					SecretName: del.SecretName,
					Operation:  OpDelete,
					Message:    err.Error(),
				})
			} else {
				result.Deleted++
				summary.Deleted++
			}
			done++
			current := done
			mu.Unlock()

			notify(ItemResult{
				Namespace:    del.Namespace,
				SecretName:   del.SecretName,
				SourceItemID: del.SourceItemID,
				Operation:    OpDelete,
				Err:          err,
			})
			phase("cleanup", current, total)
			return nil
		})
	}
	_ = group.Wait()
}

// applyDelete removes one secret and, on success, its ledger record.
func (r *Reconciler) applyDelete(ctx context.Context, del PlannedDelete) error {
	if err := r.secrets.DeleteSecret(ctx, del.Namespace, del.SecretName); err != nil {
		logger.Errorw("secret delete failed",
			"namespace", del.Namespace,
			"secret", del.SecretName,
			"reason", del.Reason,
			"error", err.Error())
		if del.Record != nil {
			record := *del.Record
			record.Status = ledger.StatusFailed
			record.LastError = err.Error()
			if upsertErr := r.store.Upsert(ctx, record); upsertErr != nil {
				logger.Errorw("ledger bookkeeping failed", "key", record.Key(), "error", upsertErr.Error())
			}
		}
		return err
	}

	if del.Record != nil {
		if err := r.store.Delete(ctx, del.Namespace, del.SecretName); err != nil {
			logger.Errorw("ledger delete failed",
				"namespace", del.Namespace, "secret", del.SecretName, "error", err.Error())
			return err
		}
	}

	logger.Infow("orphaned secret deleted",
		"namespace", del.Namespace,
		"secret", del.SecretName,
		"reason", del.Reason)
	return nil
}

// dedupeTargets keys targets by (namespace, secretName). When two items claim
// one target the newest revision wins; ties go to the lexicographically
// smallest item id. Losers become duplicate-target skips.
func dedupeTargets(targets []*mapper.Target, plan *Plan) map[string]*mapper.Target {
	desired := make(map[string]*mapper.Target, len(targets))
	for _, target := range targets {
		key := target.Key()
		current, exists := desired[key]
		if !exists {
			desired[key] = target
			continue
		}

		winner, loser := current, target
		if target.Revision.After(current.Revision) ||
			(target.Revision.Equal(current.Revision) && target.SourceItemID < current.SourceItemID) {
			winner, loser = target, current
		}
		desired[key] = winner
		plan.Skips = append(plan.Skips, PlannedSkip{
			Namespace:    loser.Namespace,
			SecretName:   loser.SecretName,
			SourceItemID: loser.SourceItemID,
			Reason:       SkipDuplicateTarget,
		})
		logger.Warnw("two vault items claim the same target",
			"target", key,
			"winner", winner.SourceItemID,
			"loser", loser.SourceItemID)
	}
	return desired
}

// filterRecords narrows the observed set to the run's scope. Selective item
// scope also pulls in records keyed by a desired target so takeovers of an
// existing (namespace, secretName) are visible.
func filterRecords(records []ledger.Record, scope Scope, desired map[string]*mapper.Target) map[string]*ledger.Record {
	observed := make(map[string]*ledger.Record)
	for i := range records {
		record := &records[i]
		switch scope.Kind {
		case ScopeFull:
			observed[record.Key()] = record
		case ScopeItem:
			if record.SourceItemID == scope.ItemID {
				observed[record.Key()] = record
			} else if _, ok := desired[record.Key()]; ok {
				observed[record.Key()] = record
			}
		case ScopeNamespace:
			if record.Namespace == scope.Namespace {
				observed[record.Key()] = record
			}
		}
	}
	return observed
}

func countOrphanSkips(plan *Plan) int {
	count := 0
	for _, skip := range plan.Skips {
		if skip.Reason == SkipOrphanFlagged || skip.Reason == SkipUnmanagedFlagged {
			count++
		}
	}
	return count
}

func hasOrphanSkips(plan *Plan) bool {
	return countOrphanSkips(plan) > 0
}
