package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/storage"
	"github.com/sevigo/lot-vision/internal/tracker"
)

// StatusHandler serves batch observation snapshots for polling callers.
type StatusHandler struct {
	tracker *tracker.Tracker
	store   storage.Store
	logger  *slog.Logger
}

// NewStatusHandler creates the handler for GET /api/v1/batches/{batchID}.
// The store may be nil; then only live tracker entries can be observed.
func NewStatusHandler(tr *tracker.Tracker, store storage.Store, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		tracker: tr,
		store:   store,
		logger:  logger,
	}
}

// Handle answers with the tracker's view of a batch. Batches the tracker has
// already evicted are reconstructed from the delivery journal when one is
// configured.
func (h *StatusHandler) Handle(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")

	if view, ok := h.tracker.Snapshot(core.BatchID(batchID)); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}

	if h.store != nil {
		view, ok, err := h.fromJournal(r.Context(), batchID)
		if err != nil {
			h.logger.Error("failed to read delivery journal", "batch_id", batchID, "error", err)
			writeDetail(w, http.StatusInternalServerError, "journal_unavailable")
			return
		}
		if ok {
			writeJSON(w, http.StatusOK, view)
			return
		}
	}

	writeDetail(w, http.StatusNotFound, "batch_not_found")
}

// fromJournal rebuilds a completed batch view out of journaled deliveries.
// Only terminal states exist there: a journal row is written when a lot's
// callback either landed or exhausted its attempts.
func (h *StatusHandler) fromJournal(ctx context.Context, batchID string) (tracker.BatchView, bool, error) {
	recs, err := h.store.ListBatch(ctx, batchID)
	if err != nil {
		return tracker.BatchView{}, false, err
	}
	if len(recs) == 0 {
		return tracker.BatchView{}, false, nil
	}

	view := tracker.BatchView{
		BatchID:   batchID,
		Status:    tracker.BatchCompleted,
		CreatedAt: recs[0].CreatedAt,
		UpdatedAt: recs[0].CreatedAt,
	}
	for _, rec := range recs {
		state := core.LotDelivered
		if !rec.Delivered {
			state = core.LotDeliveryExhausted
		}
		view.Lots = append(view.Lots, tracker.LotView{
			LotID:            rec.LotID,
			State:            string(state),
			DeliveryAttempts: rec.Attempts,
			UpdatedAt:        rec.CreatedAt,
		})
		if rec.CreatedAt.After(view.UpdatedAt) {
			view.UpdatedAt = rec.CreatedAt
		}
	}
	return view, true, nil
}
