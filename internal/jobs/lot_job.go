package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/storage"
	"github.com/sevigo/lot-vision/internal/tracker"
)

// LotJob is the background job run once per lot: process the images into
// descriptions, then deliver the signed result callback. Both outcomes of
// processing produce a callback; only the payload differs.
type LotJob struct {
	processor core.Processor
	deliverer core.Deliverer
	tracker   *tracker.Tracker
	store     storage.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewLotJob creates a LotJob. The store may be nil, which disables the
// delivery journal.
func NewLotJob(
	processor core.Processor,
	deliverer core.Deliverer,
	tr *tracker.Tracker,
	store storage.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) core.Job {
	if processor == nil {
		panic("processor cannot be nil")
	}
	if deliverer == nil {
		panic("deliverer cannot be nil")
	}
	if tr == nil {
		panic("tracker cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LotJob{
		processor: processor,
		deliverer: deliverer,
		tracker:   tr,
		store:     store,
		metrics:   m,
		logger:    logger,
	}
}

// Run executes the job for a single lot.
func (j *LotJob) Run(ctx context.Context, task core.Task) error {
	j.metrics.LotStarted()
	defer j.metrics.LotFinished()
	start := time.Now()
	defer func() { j.metrics.ObserveProcessingTime(time.Since(start)) }()

	j.tracker.Observe(task.BatchID, task.Lot.LotID, core.LotProcessing, 0)

	payload := j.process(ctx, task)

	j.tracker.Observe(task.BatchID, task.Lot.LotID, core.LotDelivering, 0)
	attempts, err := j.deliverer.Deliver(ctx, task.Lot.Webhook, payload)

	state := core.LotDelivered
	delivered := true
	if err != nil {
		state = core.LotDeliveryExhausted
		delivered = false
		j.logger.Error("failed to deliver callback",
			"batch_id", string(task.BatchID),
			"lot_id", task.Lot.LotID,
			"webhook", task.Lot.Webhook,
			"attempts", attempts,
			"error", err,
		)
	}
	j.tracker.Observe(task.BatchID, task.Lot.LotID, state, attempts)
	j.journal(ctx, task, payload, attempts, delivered)

	if err != nil {
		return fmt.Errorf("callback for lot %s not delivered: %w", task.Lot.LotID, err)
	}
	return nil
}

// process runs the lot through the processor and shapes the outcome into a
// callback payload. Failures are classified, logged and reported to the
// caller; they never abort the job.
func (j *LotJob) process(ctx context.Context, task core.Task) *core.CallbackPayload {
	descs, err := j.processor.Process(ctx, task.Lot, task.Languages)
	if err != nil {
		kind := core.ClassifyFailure(err)
		j.logger.Error("lot processing failed",
			"batch_id", string(task.BatchID),
			"lot_id", task.Lot.LotID,
			"kind", string(kind),
			"error", err,
		)
		j.metrics.TrackLotProcessed(string(core.StatusFailure))
		return core.FailurePayload(task.Lot.LotID, kind, core.FailureMessage(err))
	}

	j.metrics.TrackLotProcessed(string(core.StatusSuccess))
	return core.SuccessPayload(task.Lot.LotID, descs)
}

// journal records the delivery outcome. Journal failures are logged and
// swallowed; the journal is a trace, not a dependency of the lot path.
func (j *LotJob) journal(ctx context.Context, task core.Task, payload *core.CallbackPayload, attempts int, delivered bool) {
	if j.store == nil {
		return
	}

	rec := &storage.DeliveryRecord{
		BatchID:   string(task.BatchID),
		LotID:     task.Lot.LotID,
		Status:    string(payload.Status),
		Webhook:   task.Lot.Webhook,
		Attempts:  attempts,
		Delivered: delivered,
	}
	if payload.Error != nil {
		rec.ErrorKind = string(payload.Error.Kind)
		rec.ErrorMessage = payload.Error.Message
	}

	if err := j.store.RecordDelivery(ctx, rec); err != nil {
		j.logger.Error("failed to journal delivery",
			"batch_id", string(task.BatchID),
			"lot_id", task.Lot.LotID,
			"error", err,
		)
	}
}
