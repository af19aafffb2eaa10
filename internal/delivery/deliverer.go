// Package delivery posts signed result callbacks to caller webhooks,
// retrying with exponential backoff until the endpoint accepts or the
// attempt budget runs out.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/signature"
)

const deliveryUserAgent = "LotVision/1.0"

// ErrDeliveryExhausted reports that every delivery attempt for a callback
// failed. The lot result is final at that point; it is not re-queued.
var ErrDeliveryExhausted = errors.New("delivery attempts exhausted")

// httpDeliverer signs each payload and posts it to the lot's webhook. Any
// 2xx answer counts as accepted; everything else is retried with capped
// exponential backoff.
type httpDeliverer struct {
	signer      *signature.Signer
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	timeout     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewDeliverer creates the production webhook deliverer.
func NewDeliverer(cfg *config.Config, signer *signature.Signer, m *metrics.Metrics, logger *slog.Logger) core.Deliverer {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if signer == nil {
		panic("signer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &httpDeliverer{
		signer:      signer,
		client:      &http.Client{},
		maxAttempts: cfg.DeliveryMaxAttempts,
		baseDelay:   cfg.DeliveryBaseDelay,
		maxDelay:    cfg.DeliveryMaxDelay,
		timeout:     cfg.DeliveryTimeout,
		sleep:       sleepCtx,
		metrics:     m,
		logger:      logger,
	}
}

// Deliver signs payload and posts it to webhookURL. It returns how many
// attempts were made. On exhaustion the error wraps ErrDeliveryExhausted.
func (d *httpDeliverer) Deliver(ctx context.Context, webhookURL string, payload *core.CallbackPayload) (int, error) {
	sig, err := d.signer.Sign(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to sign callback payload: %w", err)
	}
	payload.Signature = sig

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode callback payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := d.sleep(ctx, d.delayFor(attempt)); err != nil {
				return attempt - 1, fmt.Errorf("delivery interrupted: %w", err)
			}
		}

		lastErr = d.post(ctx, webhookURL, body)
		if lastErr == nil {
			d.metrics.TrackWebhook("success")
			d.metrics.ObserveDeliveryAttempts(attempt)
			if attempt > 1 {
				d.logger.Info("callback delivered after retries", "webhook", webhookURL, "attempts", attempt)
			}
			return attempt, nil
		}

		d.logger.Warn("callback delivery attempt failed",
			"webhook", webhookURL,
			"attempt", attempt,
			"max_attempts", d.maxAttempts,
			"error", lastErr,
		)
	}

	d.metrics.TrackWebhook("failure")
	d.metrics.ObserveDeliveryAttempts(d.maxAttempts)
	return d.maxAttempts, fmt.Errorf("%w: %s: %v", ErrDeliveryExhausted, webhookURL, lastErr)
}

func (d *httpDeliverer) post(ctx context.Context, url string, body []byte) error {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", deliveryUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// delayFor computes the pause before the given attempt: the base delay
// doubled per retry, capped at the configured maximum.
func (d *httpDeliverer) delayFor(attempt int) time.Duration {
	delay := d.baseDelay << (attempt - 2)
	if delay <= 0 || delay > d.maxDelay {
		return d.maxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
