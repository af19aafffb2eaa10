package processor

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/metrics"
)

const (
	imageUserAgent = "LotVision/1.0"

	// maxImageBytes rejects photos the vision endpoint would refuse anyway.
	maxImageBytes = 10 * 1024 * 1024

	imageCheckAttempts = 2
)

// ImageChecker verifies that image URLs are reachable and look like images.
type ImageChecker interface {
	// Unreachable returns the subset of urls that failed the check.
	Unreachable(ctx context.Context, urls []string) []string
}

// httpImageChecker probes each URL with a HEAD request: 2xx status, an
// image/* content type and a plausible size count as reachable.
type httpImageChecker struct {
	client     *http.Client
	retryPause time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewImageChecker creates the production HEAD-based image checker.
func NewImageChecker(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) ImageChecker {
	return &httpImageChecker{
		client:     &http.Client{Timeout: cfg.ImageCheckTimeout},
		retryPause: 2 * time.Second,
		metrics:    m,
		logger:     logger,
	}
}

func (c *httpImageChecker) Unreachable(ctx context.Context, urls []string) []string {
	results := make([]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			results[i] = c.reachable(gctx, url)
			return nil
		})
	}
	_ = g.Wait()

	var bad []string
	for i, ok := range results {
		c.metrics.TrackImageValidation(ok)
		if !ok {
			bad = append(bad, urls[i])
		}
	}
	return bad
}

func (c *httpImageChecker) reachable(ctx context.Context, url string) bool {
	for attempt := 0; attempt < imageCheckAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(c.retryPause):
			}
		}
		if c.probe(ctx, url) {
			return true
		}
	}
	c.logger.Warn("image unreachable", "url", url)
	return false
}

func (c *httpImageChecker) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", imageUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return false
	}
	// A missing Content-Length passes; some CDNs omit it on HEAD.
	if lengthHeader := resp.Header.Get("Content-Length"); lengthHeader != "" {
		length, err := strconv.ParseInt(lengthHeader, 10, 64)
		if err != nil || length > maxImageBytes {
			return false
		}
	}
	return true
}
