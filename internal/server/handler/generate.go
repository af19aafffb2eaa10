package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/jobs"
	"github.com/sevigo/lot-vision/internal/signature"
)

// GenerateHandler processes incoming batch description requests.
type GenerateHandler struct {
	signer     *signature.Signer
	processor  core.Processor
	dispatcher core.Dispatcher
	logger     *slog.Logger
}

// NewGenerateHandler creates the handler for POST /api/v1/generate-descriptions.
func NewGenerateHandler(signer *signature.Signer, processor core.Processor, dispatcher core.Dispatcher, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		signer:     signer,
		processor:  processor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type acceptedResponse struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
	Lots    int    `json:"lots"`
}

// Handle authenticates and validates a batch request, then either processes
// its single lot synchronously or queues the batch for background work.
// Authentication runs before validation: an unsigned caller learns nothing
// about what the API considers valid.
func (h *GenerateHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "unreadable_body")
		return
	}

	var req core.BatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Debug("rejecting malformed request body", "error", err)
		writeDetail(w, http.StatusBadRequest, "invalid_json")
		return
	}

	// The signature covers the raw request body, not the decoded struct, so
	// fields this version does not know about still count.
	if err := h.signer.Verify(json.RawMessage(body), req.Signature); err != nil {
		h.logger.Warn("rejecting request with invalid signature", "error", err)
		writeDetail(w, http.StatusUnauthorized, "invalid_signature")
		return
	}

	if err := core.ValidateRequest(&req); err != nil {
		h.logger.Debug("rejecting invalid batch", "error", err)
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Lots) == 1 {
		h.handleSingle(w, r, &req)
		return
	}
	h.handleBatch(w, r, &req)
}

// handleSingle processes a one-lot request inline and answers with the
// signed result payload. The lot's webhook is not called on this path.
func (h *GenerateHandler) handleSingle(w http.ResponseWriter, r *http.Request, req *core.BatchRequest) {
	lot := req.Lots[0]

	var payload *core.CallbackPayload
	descs, err := h.processor.Process(r.Context(), lot, req.Languages)
	if err != nil {
		kind := core.ClassifyFailure(err)
		h.logger.Error("synchronous lot processing failed",
			"lot_id", lot.LotID,
			"kind", string(kind),
			"error", err,
		)
		payload = core.FailurePayload(lot.LotID, kind, core.FailureMessage(err))
	} else {
		payload = core.SuccessPayload(lot.LotID, descs)
	}

	sig, err := h.signer.Sign(payload)
	if err != nil {
		h.logger.Error("failed to sign result payload", "lot_id", lot.LotID, "error", err)
		writeDetail(w, http.StatusInternalServerError, "signing_failed")
		return
	}
	payload.Signature = sig

	writeJSON(w, http.StatusOK, payload)
}

// handleBatch queues the lots for background processing and acknowledges.
func (h *GenerateHandler) handleBatch(w http.ResponseWriter, r *http.Request, req *core.BatchRequest) {
	batchID, err := h.dispatcher.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) || errors.Is(err, jobs.ErrStopped) {
			h.logger.Warn("rejecting batch, no queue capacity", "lots", len(req.Lots), "error", err)
			writeDetail(w, http.StatusServiceUnavailable, "queue_full")
			return
		}
		h.logger.Error("failed to queue batch", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal_error")
		return
	}

	h.logger.Info("batch accepted", "batch_id", string(batchID), "lots", len(req.Lots))
	writeJSON(w, http.StatusAccepted, acceptedResponse{
		BatchID: string(batchID),
		Status:  "accepted",
		Lots:    len(req.Lots),
	})
}
