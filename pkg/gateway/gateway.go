// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the entry point for sync requests: the full sweep and
// the webhook-triggered narrow syncs of a single item or namespace. It
// fetches and maps vault items, then delegates the diff/apply to the
// reconciler with the appropriate scope.
package gateway

import (
	"context"
	"time"

	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/mapper"
	"github.com/wardensync/wardensync/pkg/reconciler"
	"github.com/wardensync/wardensync/pkg/vault"
)

// Gateway narrows sync requests into reconciler runs. It trusts its caller:
// webhook payloads are authenticated before they reach this component.
type Gateway struct {
	vault  vault.Client
	mapper *mapper.Mapper
	rec    *reconciler.Reconciler
}

// New creates a Gateway.
func New(vaultClient vault.Client, m *mapper.Mapper, rec *reconciler.Reconciler) *Gateway {
	return &Gateway{vault: vaultClient, mapper: m, rec: rec}
}

// RunFullSync lists all vault items, maps them, and reconciles the full scope.
func (g *Gateway) RunFullSync(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error) {
	start := time.Now()
	items, err := g.vault.ListItems(ctx)
	if err != nil {
		return abortedSummary(reconciler.FullScope(), start, err), err
	}

	targets, mapperSkipped := g.mapTargets(items)
	summary, err := g.rec.Reconcile(ctx, targets, reconciler.FullScope(), opts)
	summary.MapperSkipped = mapperSkipped
	return summary, err
}

// SyncItem reconciles the scope of a single vault item. When the vault no
// longer has the item, the empty desired set against the item scope yields a
// delete-only (or flag-only) plan for its existing record.
func (g *Gateway) SyncItem(ctx context.Context, id string, opts reconciler.Options) (reconciler.Summary, error) {
	scope := reconciler.ItemScope(id)
	start := time.Now()

	item, err := g.vault.GetItem(ctx, id)
	if err != nil {
		return abortedSummary(scope, start, err), err
	}

	var targets []*mapper.Target
	mapperSkipped := 0
	if item != nil {
		targets, mapperSkipped = g.mapTargets([]vault.Item{*item})
	} else {
		logger.Infow("vault item gone, reconciling its records", "item", id)
	}
	summary, err := g.rec.Reconcile(ctx, targets, scope, opts)
	summary.MapperSkipped = mapperSkipped
	return summary, err
}

// SyncNamespace reconciles all items and records of one namespace, and never
// touches any other namespace.
func (g *Gateway) SyncNamespace(ctx context.Context, namespace string, opts reconciler.Options) (reconciler.Summary, error) {
	scope := reconciler.NamespaceScope(namespace)
	start := time.Now()

	items, err := g.vault.ListItems(ctx)
	if err != nil {
		return abortedSummary(scope, start, err), err
	}

	targets, mapperSkipped := g.mapTargets(itemsInNamespace(items, namespace))
	summary, err := g.rec.Reconcile(ctx, targets, scope, opts)
	summary.MapperSkipped = mapperSkipped
	return summary, err
}

// Plan computes the diff for a scope without applying anything. Used for
// dry runs.
func (g *Gateway) Plan(ctx context.Context, scope reconciler.Scope, opts reconciler.Options) (*reconciler.Plan, error) {
	var targets []*mapper.Target
	switch scope.Kind {
	case reconciler.ScopeItem:
		item, err := g.vault.GetItem(ctx, scope.ItemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			targets, _ = g.mapTargets([]vault.Item{*item})
		}
	case reconciler.ScopeNamespace:
		items, err := g.vault.ListItems(ctx)
		if err != nil {
			return nil, err
		}
		targets, _ = g.mapTargets(itemsInNamespace(items, scope.Namespace))
	default:
		items, err := g.vault.ListItems(ctx)
		if err != nil {
			return nil, err
		}
		targets, _ = g.mapTargets(items)
	}
	return g.rec.BuildPlan(ctx, targets, scope, opts)
}

// mapTargets runs the mapper over the fetched items. Items that fail closed
// are dropped; the mapper logs each one with its reason.
func (g *Gateway) mapTargets(items []vault.Item) ([]*mapper.Target, int) {
	targets := make([]*mapper.Target, 0, len(items))
	skipped := 0
	for i := range items {
		target, _ := g.mapper.Map(items[i])
		if target == nil {
			skipped++
			continue
		}
		targets = append(targets, target)
	}
	if skipped > 0 {
		logger.Debugw("items excluded by mapping", "count", skipped)
	}
	return targets, skipped
}

// itemsInNamespace keeps the items whose namespace tag names the given
// namespace. Items claiming other namespaces, or none, stay out of
// namespace-scoped runs and their counters.
func itemsInNamespace(items []vault.Item, namespace string) []vault.Item {
	scoped := make([]vault.Item, 0, len(items))
	for i := range items {
		if ns, ok := mapper.ItemNamespace(items[i]); ok && ns == namespace {
			scoped = append(scoped, items[i])
		}
	}
	return scoped
}

func abortedSummary(scope reconciler.Scope, start time.Time, err error) reconciler.Summary {
	return reconciler.Summary{
		Scope:    scope.Label(),
		Duration: time.Since(start),
		RunError: err.Error(),
	}
}
