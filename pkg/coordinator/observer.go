// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"sync"

	"github.com/wardensync/wardensync/pkg/audit"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

// runObserver translates reconciler events into audit events and metrics for
// one run. The run id is minted when the plan is known; runs that abort
// before planning get their id minted in complete.
type runObserver struct {
	ctx     context.Context
	sink    audit.Sink
	metrics Metrics
	scope   string

	mu       sync.Mutex
	runID    audit.RunID
	counters audit.Counters
}

var _ reconciler.Observer = (*runObserver)(nil)

func newRunObserver(ctx context.Context, sink audit.Sink, metrics Metrics, scope string) *runObserver {
	return &runObserver{ctx: ctx, sink: sink, metrics: metrics, scope: scope}
}

// PlanComputed implements reconciler.Observer.
func (o *runObserver) PlanComputed(plan *reconciler.Plan) {
	total := len(plan.Creates) + len(plan.Updates) + len(plan.Skips) + len(plan.Deletes)
	o.mu.Lock()
	o.runID = o.sink.StartRun(o.ctx, o.scope, total)
	o.mu.Unlock()
}

// ItemApplied implements reconciler.Observer.
func (o *runObserver) ItemApplied(result reconciler.ItemResult) {
	outcome := audit.OutcomeSuccess
	errMsg := ""
	switch {
	case result.Err != nil:
		outcome = audit.OutcomeFailure
		errMsg = result.Err.Error()
	case result.Operation == reconciler.OpSkip:
		outcome = audit.OutcomeSkipped
	}

	o.mu.Lock()
	switch {
	case result.Err != nil:
		o.counters.Failed++
	case result.Operation == reconciler.OpCreate:
		o.counters.Created++
	case result.Operation == reconciler.OpUpdate:
		o.counters.Updated++
	case result.Operation == reconciler.OpSkip:
		o.counters.Skipped++
	case result.Operation == reconciler.OpDelete:
		o.counters.Deleted++
	}
	if result.Operation != reconciler.OpDelete {
		o.counters.Processed++
	}
	id := o.runID
	o.mu.Unlock()

	o.sink.ItemOutcome(o.ctx, id, audit.ItemEvent{
		Namespace:    result.Namespace,
		SecretName:   result.SecretName,
		SourceItemID: result.SourceItemID,
		Operation:    result.Operation,
		Outcome:      outcome,
		Error:        errMsg,
	})
	if o.metrics != nil {
		o.metrics.RecordItem(o.ctx, result.Operation, outcome)
	}
}

// Phase implements reconciler.Observer.
func (o *runObserver) Phase(_ string, _, _ int) {
	o.mu.Lock()
	id, counters := o.runID, o.counters
	o.mu.Unlock()
	o.sink.Progress(o.ctx, id, counters)
}

// complete closes out the run's audit trail.
func (o *runObserver) complete(status, errMsg string) {
	o.mu.Lock()
	if o.runID == "" {
		o.runID = o.sink.StartRun(o.ctx, o.scope, 0)
	}
	id := o.runID
	o.mu.Unlock()
	o.sink.CompleteRun(o.ctx, id, status, errMsg)
}

func (o *runObserver) id() audit.RunID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runID
}

// fanoutObserver forwards events to multiple observers.
type fanoutObserver []reconciler.Observer

func (f fanoutObserver) PlanComputed(plan *reconciler.Plan) {
	for _, o := range f {
		o.PlanComputed(plan)
	}
}

func (f fanoutObserver) ItemApplied(result reconciler.ItemResult) {
	for _, o := range f {
		o.ItemApplied(result)
	}
}

func (f fanoutObserver) Phase(phase string, done, total int) {
	for _, o := range f {
		o.Phase(phase, done, total)
	}
}

// withObserver combines a caller-provided observer, if any, with the run
// observer.
func withObserver(existing, added reconciler.Observer) reconciler.Observer {
	if existing == nil {
		return added
	}
	return fanoutObserver{existing, added}
}
