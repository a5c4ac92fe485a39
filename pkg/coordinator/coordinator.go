// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordinator serializes sync runs. Exactly one run executes at a
// time; requests arriving while a run is active wait in a bounded FIFO queue,
// and requests beyond the queue depth are rejected with a typed busy error so
// callers can retry instead of piling up.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/wardensync/wardensync/pkg/audit"
	"github.com/wardensync/wardensync/pkg/errors"
	"github.com/wardensync/wardensync/pkg/gateway"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/reconciler"
)

// DefaultQueueDepth is the number of runs that may wait behind the active one.
const DefaultQueueDepth = 8

// Runner executes sync runs. The gateway is the production implementation.
type Runner interface {
	RunFullSync(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error)
	SyncItem(ctx context.Context, id string, opts reconciler.Options) (reconciler.Summary, error)
	SyncNamespace(ctx context.Context, namespace string, opts reconciler.Options) (reconciler.Summary, error)
}

// Metrics receives run and item measurements. The telemetry package provides
// the production implementation; a nil Metrics disables recording.
type Metrics interface {
	RecordRun(ctx context.Context, scope, status string, duration time.Duration)
	RecordItem(ctx context.Context, operation, outcome string)
	SetQueueDepth(depth int)
}

// Config configures a Coordinator.
type Config struct {
	// QueueDepth bounds how many runs may wait behind the active one.
	// Zero selects DefaultQueueDepth.
	QueueDepth int
	// Audit receives run lifecycle and item outcome events. Nil selects
	// the noop sink.
	Audit audit.Sink
	// Metrics receives run and item measurements. May be nil.
	Metrics Metrics
}

type jobResult struct {
	summary reconciler.Summary
	err     error
}

type job struct {
	ctx    context.Context
	scope  string
	opts   reconciler.Options
	run    func(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error)
	result chan jobResult
}

// Coordinator funnels all sync requests through a single worker goroutine.
type Coordinator struct {
	runner  Runner
	audit   audit.Sink
	metrics Metrics
	queue   chan *job

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

var _ gateway.Syncer = (*Coordinator)(nil)

// New creates a Coordinator. Call Start before submitting runs.
func New(runner Runner, config Config) *Coordinator {
	depth := config.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	sink := config.Audit
	if sink == nil {
		sink = &audit.NoopSink{}
	}
	return &Coordinator{
		runner:  runner,
		audit:   sink,
		metrics: config.Metrics,
		queue:   make(chan *job, depth),
	}
}

// Start launches the worker goroutine. The worker stops when ctx is canceled
// or Stop is called, whichever comes first.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return errors.NewInternalError("coordinator already started", nil)
	}
	workerCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.worker(workerCtx)
	return nil
}

// Stop shuts the worker down and waits for the in-flight run to finish, up to
// ctx's deadline. Queued runs are failed with a cancellation error.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunFullSync submits a full-scope run and blocks until it completes.
func (c *Coordinator) RunFullSync(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error) {
	return c.submit(ctx, reconciler.FullScope().Label(), opts, c.runner.RunFullSync)
}

// SyncItem submits an item-scoped run and blocks until it completes.
func (c *Coordinator) SyncItem(ctx context.Context, id string, opts reconciler.Options) (reconciler.Summary, error) {
	return c.submit(ctx, reconciler.ItemScope(id).Label(), opts,
		func(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error) {
			return c.runner.SyncItem(ctx, id, opts)
		})
}

// SyncNamespace submits a namespace-scoped run and blocks until it completes.
func (c *Coordinator) SyncNamespace(ctx context.Context, namespace string, opts reconciler.Options) (reconciler.Summary, error) {
	return c.submit(ctx, reconciler.NamespaceScope(namespace).Label(), opts,
		func(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error) {
			return c.runner.SyncNamespace(ctx, namespace, opts)
		})
}

// QueueDepth reports how many runs are currently waiting.
func (c *Coordinator) QueueDepth() int {
	return len(c.queue)
}

func (c *Coordinator) submit(
	ctx context.Context,
	scope string,
	opts reconciler.Options,
	run func(ctx context.Context, opts reconciler.Options) (reconciler.Summary, error),
) (reconciler.Summary, error) {
	c.mu.Lock()
	started, done := c.started, c.done
	c.mu.Unlock()
	if !started {
		return reconciler.Summary{}, errors.NewBusyError("coordinator is not running", nil)
	}
	select {
	case <-done:
		return reconciler.Summary{}, errors.NewBusyError("coordinator is shut down", nil)
	default:
	}

	j := &job{
		ctx:    ctx,
		scope:  scope,
		opts:   opts,
		run:    run,
		result: make(chan jobResult, 1),
	}

	select {
	case c.queue <- j:
		c.recordQueueDepth()
	default:
		return reconciler.Summary{}, errors.NewBusyError(
			"sync queue is full, retry later", nil)
	}

	select {
	case res := <-j.result:
		return res.summary, res.err
	case <-done:
		// The worker drains the queue before signalling done, so a result
		// for this job is already buffered if it was ever going to come.
		select {
		case res := <-j.result:
			return res.summary, res.err
		default:
		}
		return reconciler.Summary{}, errors.NewBusyError("coordinator is shut down", nil)
	case <-ctx.Done():
		// The worker still drains the job; the caller just stops waiting.
		return reconciler.Summary{}, ctx.Err()
	}
}

func (c *Coordinator) worker(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.drainQueue(ctx)
			return
		case j := <-c.queue:
			c.recordQueueDepth()
			c.execute(ctx, j)
		}
	}
}

// drainQueue fails every queued job after shutdown so no submitter blocks
// forever.
func (c *Coordinator) drainQueue(ctx context.Context) {
	for {
		select {
		case j := <-c.queue:
			j.result <- jobResult{err: ctx.Err()}
		default:
			c.recordQueueDepth()
			return
		}
	}
}

func (c *Coordinator) execute(ctx context.Context, j *job) {
	if j.ctx.Err() != nil {
		// The submitter gave up while the job was queued.
		j.result <- jobResult{err: j.ctx.Err()}
		return
	}

	runCtx, cancel := mergeCancel(ctx, j.ctx)
	defer cancel()

	obs := newRunObserver(runCtx, c.audit, c.metrics, j.scope)
	opts := j.opts
	opts.Observer = withObserver(opts.Observer, obs)

	logger.Infow("sync run starting", "scope", j.scope)
	summary, err := j.run(runCtx, opts)

	status := audit.OutcomeSuccess
	errMsg := summary.RunError
	if err != nil || !summary.Succeeded {
		status = audit.OutcomeFailure
	}
	if err != nil && errMsg == "" {
		errMsg = err.Error()
	}
	obs.complete(status, errMsg)
	if c.metrics != nil {
		c.metrics.RecordRun(runCtx, j.scope, status, summary.Duration)
	}
	logger.Infow("sync run finished",
		"scope", j.scope,
		"run_id", string(obs.id()),
		"status", status,
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"deleted", summary.Deleted,
		"duration", summary.Duration)

	j.result <- jobResult{summary: summary, err: err}
}

func (c *Coordinator) recordQueueDepth() {
	if c.metrics != nil {
		c.metrics.SetQueueDepth(len(c.queue))
	}
}

// mergeCancel derives a context from worker that is additionally canceled
// when the submitter's context is.
func mergeCancel(worker, submitter context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(worker)
	stop := context.AfterFunc(submitter, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
