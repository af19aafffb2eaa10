// Package llm adapts the OpenAI-compatible generation API used to produce
// and translate lot descriptions. The service treats the model as an opaque
// capability: it builds request bodies, classifies failures, and extracts
// output text, nothing more.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
)

const responsesPath = "/v1/responses"

// maxErrorBodyBytes bounds how much of an upstream error body ends up in
// logs and failure messages.
const maxErrorBodyBytes = 2048

// Client is a minimal HTTP client for the /v1/responses endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for the configured OpenAI-compatible endpoint.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:  cfg.OpenAIAPIKey,
		http:    &http.Client{Timeout: cfg.GenerationTimeout},
		logger:  logger,
	}
}

// Responses posts a request body to /v1/responses and returns the raw JSON
// response. Failures come back classified: HTTP 408/429/5xx and transport
// errors are transient, other non-2xx statuses are permanent rejections.
func (c *Client) Responses(ctx context.Context, body any) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, core.PermanentFailure("failed to encode generation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+responsesPath, bytes.NewReader(data))
	if err != nil {
		return nil, core.PermanentFailure("failed to build generation request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, core.TransientFailure("generation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Warn("generation API returned an error", "status", resp.StatusCode, "body", string(snippet))
		err := fmt.Errorf("generation API returned status %d: %s", resp.StatusCode, string(snippet))
		if retryableStatus(resp.StatusCode) {
			return nil, core.TransientFailure("generation API unavailable", err)
		}
		return nil, core.PermanentFailure("generation API rejected request", err)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.TransientFailure("failed to read generation response", err)
	}
	return raw, nil
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
