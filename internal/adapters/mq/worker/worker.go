// Package worker drains the refresh queue into the catalog. Failures are
// logged and dropped; aggregate stats are eventually refreshed by later
// commits for the same item.
package worker

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/reelrank/reelrank/internal/adapters/mq/queue"
	"github.com/reelrank/reelrank/pkg/logger"
	"github.com/reelrank/reelrank/pkg/metrics"
)

// Default worker configuration.
const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
)

// Refresher is the catalog slice workers need.
type Refresher interface {
	RefreshAggregateStats(ctx context.Context, itemID string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes refresh jobs until stopped.
type Worker struct {
	queue     Queue
	refresher Refresher
	name      string

	shutdown chan struct{}
	done     chan struct{}

	log logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorker creates a refresh worker.
func NewWorker(q Queue, refresher Refresher, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		refresher: refresher,
		name:      "refresh-worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		log:       logger.Get().Named("refresh-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until ctx is canceled, Shutdown is called, or the
// queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight job.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.log.Warn(ctx, "worker shutdown timed out", logger.String("worker", w.name))
		return ctx.Err()
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	err := w.refresher.RefreshAggregateStats(ctx, job.ItemID)
	metrics.RecordRefreshLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		// Best effort only; log and move on.
		metrics.RecordRefreshError()
		metrics.RecordErrorByComponent("refresh-worker", "refresh_failed")
		w.log.Warn(ctx, "aggregate stats refresh failed",
			logger.String("jobID", job.JobID),
			logger.String("itemID", job.ItemID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordRefreshProcessed()
}

// Pool runs a fixed set of refresh workers.
type Pool struct {
	workers []*Worker
	log     logger.Logger
}

// NewPool creates a pool of workerCount refresh workers.
func NewPool(workerCount int, q Queue, refresher Refresher) *Pool {
	if workerCount < 1 {
		workerCount = min(defaultWorkerCount, runtime.NumCPU())
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		log:     logger.Get().Named("refresh-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, refresher, WithName("refresh-worker-"+strconv.Itoa(i)))
	}
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop shuts all workers down, bounded by a per-worker timeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.log.Warn(ctx, "refresh worker did not stop cleanly", logger.Error(err))
		}
	}
}
