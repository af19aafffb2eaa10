// Package jobs defines the background machinery that turns accepted lots
// into delivered callbacks: a bounded dispatcher feeding a worker pool, and
// the job each worker runs per lot.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/tracker"
)

// ErrQueueFull signals that the batch was rejected because the job queue
// cannot hold all of its lots. Callers surface this as backpressure.
var ErrQueueFull = errors.New("job queue is full, cannot accept new batch")

// ErrStopped signals that the dispatcher no longer accepts batches.
var ErrStopped = errors.New("dispatcher is stopped")

// dispatcher implements core.Dispatcher and manages a pool of worker
// goroutines processing lots. A weighted semaphore caps how many lots are in
// flight at once across all batches, independent of the pool size.
type dispatcher struct {
	job        core.Job
	queue      chan core.Task
	maxWorkers int
	sem        *semaphore.Weighted
	tracker    *tracker.Tracker
	metrics    *metrics.Metrics
	mu         sync.Mutex
	stopped    bool
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If cfg.MaxWorkers is 0 or negative, it defaults to 1.
func NewDispatcher(cfg *config.Config, job core.Job, tr *tracker.Tracker, m *metrics.Metrics, logger *slog.Logger) core.Dispatcher {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if job == nil {
		panic("job cannot be nil")
	}
	if tr == nil {
		panic("tracker cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &dispatcher{
		job:        job,
		queue:      make(chan core.Task, cfg.QueueSize),
		maxWorkers: maxWorkers,
		sem:        semaphore.NewWeighted(cfg.MaxConcurrentLots),
		tracker:    tr,
		metrics:    m,
		logger:     logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process tasks from the queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes tasks from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting lot worker", "id", workerID)

	for task := range d.queue {
		d.runTask(workerID, task)
	}

	d.logger.Info("shutting down lot worker", "id", workerID)
}

// runTask executes one lot job under the global concurrency ceiling.
func (d *dispatcher) runTask(workerID int, task core.Task) {
	ctx := context.Background()
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer d.sem.Release(1)

	d.logger.Info("worker processing lot",
		"worker_id", workerID,
		"batch_id", string(task.BatchID),
		"lot_id", task.Lot.LotID,
	)

	if err := d.job.Run(ctx, task); err != nil {
		d.logger.Error("lot job failed",
			"batch_id", string(task.BatchID),
			"lot_id", task.Lot.LotID,
			"error", err,
		)
	}
}

// Submit registers a batch with the tracker and queues one task per lot.
// Admission is all-or-nothing: if the queue cannot hold every lot, nothing
// is queued and the tracker is left untouched.
func (d *dispatcher) Submit(_ context.Context, req *core.BatchRequest) (core.BatchID, error) {
	batchID := core.BatchID(uuid.NewString())

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return "", ErrStopped
	}
	if cap(d.queue)-len(d.queue) < len(req.Lots) {
		d.mu.Unlock()
		return "", ErrQueueFull
	}
	d.tracker.Register(batchID, req.Lots)
	for _, lot := range req.Lots {
		// Cannot block: capacity was checked and the mutex serializes senders.
		d.queue <- core.Task{BatchID: batchID, Lot: lot, Languages: req.Languages}
	}
	d.mu.Unlock()

	d.metrics.TrackBatchAccepted()
	d.logger.Info("queued batch", "batch_id", string(batchID), "lots", len(req.Lots))
	return batchID, nil
}

// Stop gracefully shuts down the dispatcher, waiting for all queued lots to
// finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for lots to finish")

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("all queued lots have finished")
}
