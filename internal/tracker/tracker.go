// Package tracker keeps the in-memory observation state for accepted
// batches: which lots exist, how far each has progressed and how many
// delivery attempts its callback took. Entries expire after the configured
// retention window.
package tracker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sevigo/lot-vision/internal/core"
)

// Batch statuses derived from the states of the batch's lots.
const (
	BatchAccepted   = "accepted"
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
)

const sweepInterval = 10 * time.Minute

// LotView is the per-lot slice of a batch snapshot.
type LotView struct {
	LotID            string    `json:"lot_id"`
	State            string    `json:"state"`
	DeliveryAttempts int       `json:"delivery_attempts,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BatchView is the read model served by the batch status endpoint.
type BatchView struct {
	BatchID   string    `json:"batch_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Lots      []LotView `json:"lots"`
}

type lotRecord struct {
	state     core.LotState
	attempts  int
	updatedAt time.Time
}

type batchRecord struct {
	createdAt time.Time
	updatedAt time.Time
	order     []string
	lots      map[string]*lotRecord
}

// Tracker is safe for concurrent use by the dispatcher workers and the
// HTTP status handler.
type Tracker struct {
	mu        sync.Mutex
	batches   map[core.BatchID]*batchRecord
	retention time.Duration
	now       func() time.Time
	done      chan struct{}
	wg        sync.WaitGroup
	logger    *slog.Logger
}

// New creates a tracker whose janitor evicts batches older than retention.
// Close must be called to stop the janitor.
func New(retention time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		panic("logger cannot be nil")
	}

	t := &Tracker{
		batches:   make(map[core.BatchID]*batchRecord),
		retention: retention,
		now:       time.Now,
		done:      make(chan struct{}),
		logger:    logger,
	}
	t.wg.Add(1)
	go t.janitor()
	return t
}

// Register records a freshly accepted batch with every lot in the accepted
// state, preserving submission order for snapshots.
func (t *Tracker) Register(id core.BatchID, lots []core.Lot) {
	now := t.now()
	rec := &batchRecord{
		createdAt: now,
		updatedAt: now,
		order:     make([]string, 0, len(lots)),
		lots:      make(map[string]*lotRecord, len(lots)),
	}
	for _, lot := range lots {
		rec.order = append(rec.order, lot.LotID)
		rec.lots[lot.LotID] = &lotRecord{state: core.LotAccepted, updatedAt: now}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches[id] = rec
}

// Observe advances a lot to the given state. Attempts is only recorded when
// positive; processing transitions pass zero. Unknown batches or lots are
// ignored, which covers entries evicted while work was still in flight.
func (t *Tracker) Observe(id core.BatchID, lotID string, state core.LotState, attempts int) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	batch, ok := t.batches[id]
	if !ok {
		return
	}
	lot, ok := batch.lots[lotID]
	if !ok {
		return
	}
	lot.state = state
	lot.updatedAt = now
	if attempts > 0 {
		lot.attempts = attempts
	}
	batch.updatedAt = now
}

// Snapshot returns the current view of a batch, or false if the ID is
// unknown or already evicted.
func (t *Tracker) Snapshot(id core.BatchID) (BatchView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch, ok := t.batches[id]
	if !ok {
		return BatchView{}, false
	}

	view := BatchView{
		BatchID:   string(id),
		CreatedAt: batch.createdAt,
		UpdatedAt: batch.updatedAt,
		Lots:      make([]LotView, 0, len(batch.order)),
	}
	allTerminal := true
	anyStarted := false
	for _, lotID := range batch.order {
		lot := batch.lots[lotID]
		view.Lots = append(view.Lots, LotView{
			LotID:            lotID,
			State:            string(lot.state),
			DeliveryAttempts: lot.attempts,
			UpdatedAt:        lot.updatedAt,
		})
		if !lot.state.Terminal() {
			allTerminal = false
		}
		if lot.state != core.LotAccepted {
			anyStarted = true
		}
	}

	switch {
	case allTerminal:
		view.Status = BatchCompleted
	case anyStarted:
		view.Status = BatchProcessing
	default:
		view.Status = BatchAccepted
	}
	return view, true
}

// Close stops the janitor goroutine.
func (t *Tracker) Close() {
	close(t.done)
	t.wg.Wait()
}

func (t *Tracker) janitor() {
	defer t.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.evictExpired()
		}
	}
}

// evictExpired drops batches older than the retention window, matching the
// TTL the result cache applies to its keys.
func (t *Tracker) evictExpired() {
	cutoff := t.now().Add(-t.retention)

	t.mu.Lock()
	defer t.mu.Unlock()
	for id, batch := range t.batches {
		if batch.createdAt.Before(cutoff) {
			delete(t.batches, id)
			t.logger.Debug("evicted expired batch", "batch_id", string(id))
		}
	}
}
