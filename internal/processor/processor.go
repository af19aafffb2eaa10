// Package processor turns a single lot into its per-language descriptions.
// It validates image reachability, generates the English text through the
// vision model, translates it into the remaining requested languages, and
// consults the description cache so identical lots are not generated twice.
package processor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/storage"
)

const baseLanguage = "en"

type processor struct {
	generator  core.Generator
	images     ImageChecker
	cache      storage.DescriptionCache
	metrics    *metrics.Metrics
	maxRetries int
	backoff    func(attempt int) time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// New creates the lot processor. The cache may be nil, which disables
// description reuse but changes nothing else.
func New(
	cfg *config.Config,
	generator core.Generator,
	images ImageChecker,
	cache storage.DescriptionCache,
	m *metrics.Metrics,
	logger *slog.Logger,
) core.Processor {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}
	if images == nil {
		panic("image checker cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &processor{
		generator:  generator,
		images:     images,
		cache:      cache,
		metrics:    m,
		maxRetries: cfg.MaxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<(attempt-1)) * time.Second
		},
		sleep:  sleepCtx,
		logger: logger,
	}
}

// Process produces the description set for one lot. The returned map holds
// exactly the requested languages. Any error it returns carries a failure
// classification for the caller's callback payload.
func (p *processor) Process(ctx context.Context, lot core.Lot, languages []string) (core.Descriptions, error) {
	if len(lot.Images) == 0 {
		return nil, core.ValidationFailure("lot %s has no images", lot.LotID)
	}
	if len(languages) == 0 {
		return nil, core.ValidationFailure("lot %s requests no languages", lot.LotID)
	}

	urls := make([]string, len(lot.Images))
	for i, img := range lot.Images {
		urls[i] = img.URL
	}
	if bad := p.images.Unreachable(ctx, urls); len(bad) > 0 {
		return nil, core.ValidationFailure("unreachable images: %s", strings.Join(bad, ", "))
	}

	digest := contentDigest(lot)
	out := make(core.Descriptions, len(languages))
	var missing []string
	for _, lang := range languages {
		lang = strings.ToLower(lang)
		if text, ok := p.cached(ctx, digest, lang); ok {
			out[lang] = text
			continue
		}
		missing = append(missing, lang)
	}
	if len(missing) == 0 {
		p.logger.Debug("all descriptions served from cache", "lot_id", lot.LotID)
		return out, nil
	}

	base, err := p.baseDescription(ctx, lot, digest, out)
	if err != nil {
		return nil, err
	}

	for _, lang := range missing {
		if lang == baseLanguage {
			out[lang] = base
			continue
		}
		text, err := p.withRetry(ctx, "translate", func() (string, error) {
			return p.generator.Translate(ctx, base, lang)
		})
		if err != nil {
			return nil, err
		}
		out[lang] = text
		p.store(ctx, digest, lang, text)
	}
	return out, nil
}

// baseDescription resolves the English text every translation starts from,
// preferring the already-resolved set, then the cache, then a fresh
// generation.
func (p *processor) baseDescription(ctx context.Context, lot core.Lot, digest string, out core.Descriptions) (string, error) {
	if text, ok := out[baseLanguage]; ok {
		return text, nil
	}
	if text, ok := p.cached(ctx, digest, baseLanguage); ok {
		return text, nil
	}

	text, err := p.withRetry(ctx, "describe", func() (string, error) {
		return p.generator.Describe(ctx, lot)
	})
	if err != nil {
		return "", err
	}
	p.store(ctx, digest, baseLanguage, text)
	return text, nil
}

// withRetry runs fn up to maxRetries times, backing off between attempts.
// Non-retryable failures return immediately.
func (p *processor) withRetry(ctx context.Context, op string, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			p.metrics.TrackGenerationRetry()
			if err := p.sleep(ctx, p.backoff(attempt)); err != nil {
				return "", core.TransientFailure(fmt.Sprintf("%s interrupted", op), err)
			}
		}

		text, err := fn()
		if err == nil {
			return text, nil
		}
		if !core.Retryable(err) {
			return "", err
		}
		lastErr = err
		p.logger.Warn("generation attempt failed",
			"op", op,
			"attempt", attempt+1,
			"max_retries", p.maxRetries,
			"error", err,
		)
	}
	return "", lastErr
}

func (p *processor) cached(ctx context.Context, digest, lang string) (string, bool) {
	if p.cache == nil {
		return "", false
	}
	text, ok, err := p.cache.Get(ctx, cacheKey(digest, lang))
	if err != nil {
		p.logger.Warn("description cache read failed", "lang", lang, "error", err)
		return "", false
	}
	return text, ok
}

// store writes a generated text to the cache. Failures are logged and
// swallowed; the cache is an optimization, not a dependency.
func (p *processor) store(ctx context.Context, digest, lang, text string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey(digest, lang), text); err != nil {
		p.logger.Warn("description cache write failed", "lang", lang, "error", err)
	}
}

func cacheKey(digest, lang string) string {
	return fmt.Sprintf("lv:desc:%s:%s", digest, lang)
}

// contentDigest fingerprints the inputs that determine a lot's description:
// its image URLs in order and the free-form additional info.
func contentDigest(lot core.Lot) string {
	h := sha256.New()
	for _, img := range lot.Images {
		h.Write([]byte(img.URL))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte(lot.AdditionalInfo))
	return hex.EncodeToString(h.Sum(nil))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
