package processor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/mocks"
)

type stubChecker struct {
	bad []string
}

func (s stubChecker) Unreachable(context.Context, []string) []string {
	return s.bad
}

type memCache struct {
	data map[string]string
	sets int
}

func (m *memCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key, value string) error {
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
	m.sets++
	return nil
}

func newTestProcessor(gen core.Generator, images ImageChecker, cache *memCache) *processor {
	p := &processor{
		generator:  gen,
		images:     images,
		maxRetries: 3,
		backoff:    func(int) time.Duration { return 0 },
		sleep:      func(context.Context, time.Duration) error { return nil },
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if cache != nil {
		p.cache = cache
	}
	return p
}

func testLot() core.Lot {
	return core.Lot{
		LotID:   "lot-42",
		Webhook: "https://dealer.example/hook",
		Images: []core.Image{
			{URL: "https://img.example/1.jpg"},
			{URL: "https://img.example/2.jpg"},
		},
		AdditionalInfo: "2019 wagon, one owner",
	}
}

func TestProcess_GeneratesAndTranslates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Describe(gomock.Any(), gomock.Any()).Return("An elegant estate car.", nil)
	gen.EXPECT().Translate(gomock.Any(), "An elegant estate car.", "de").Return("Ein eleganter Kombi.", nil)

	cache := &memCache{}
	p := newTestProcessor(gen, stubChecker{}, cache)

	out, err := p.Process(context.Background(), testLot(), []string{"en", "de"})
	require.NoError(t, err)
	assert.Equal(t, core.Descriptions{
		"en": "An elegant estate car.",
		"de": "Ein eleganter Kombi.",
	}, out)
	assert.Equal(t, 2, cache.sets, "both languages should be cached")
}

func TestProcess_NoImages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	p := newTestProcessor(mocks.NewMockGenerator(ctrl), stubChecker{}, nil)

	lot := testLot()
	lot.Images = nil
	_, err := p.Process(context.Background(), lot, []string{"en"})
	require.Error(t, err)
	assert.Equal(t, core.FailureValidation, core.ClassifyFailure(err))
}

func TestProcess_UnreachableImages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	checker := stubChecker{bad: []string{"https://img.example/2.jpg"}}
	p := newTestProcessor(mocks.NewMockGenerator(ctrl), checker, nil)

	_, err := p.Process(context.Background(), testLot(), []string{"en"})
	require.Error(t, err)
	assert.Equal(t, core.FailureValidation, core.ClassifyFailure(err))
	assert.Contains(t, err.Error(), "https://img.example/2.jpg")
}

func TestProcess_ServesFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lot := testLot()
	digest := contentDigest(lot)
	cache := &memCache{data: map[string]string{
		cacheKey(digest, "en"): "Cached English.",
		cacheKey(digest, "fr"): "Français en cache.",
	}}

	// No expectations on the generator: a full cache hit must not call it.
	p := newTestProcessor(mocks.NewMockGenerator(ctrl), stubChecker{}, cache)

	out, err := p.Process(context.Background(), lot, []string{"en", "fr"})
	require.NoError(t, err)
	assert.Equal(t, core.Descriptions{
		"en": "Cached English.",
		"fr": "Français en cache.",
	}, out)
	assert.Zero(t, cache.sets)
}

func TestProcess_ReusesCachedEnglishForTranslation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	lot := testLot()
	cache := &memCache{data: map[string]string{
		cacheKey(contentDigest(lot), "en"): "Cached English.",
	}}

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Translate(gomock.Any(), "Cached English.", "fr").Return("Traduction fraîche.", nil)

	p := newTestProcessor(gen, stubChecker{}, cache)

	out, err := p.Process(context.Background(), lot, []string{"fr"})
	require.NoError(t, err)
	assert.Equal(t, core.Descriptions{"fr": "Traduction fraîche."}, out)
}

func TestProcess_CacheFailureTreatedAsMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Describe(gomock.Any(), gomock.Any()).Return("Fresh text.", nil)

	// A broken cache must not fail the lot; reads degrade to misses and
	// writes are dropped.
	cache := mocks.NewMockDescriptionCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", false, errors.New("redis down")).AnyTimes()
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down")).AnyTimes()

	p := newTestProcessor(gen, stubChecker{}, nil)
	p.cache = cache

	out, err := p.Process(context.Background(), testLot(), []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, "Fresh text.", out["en"])
}

func TestProcess_RetriesTransientFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	calls := 0
	gen.EXPECT().Describe(gomock.Any(), gomock.Any()).Times(3).DoAndReturn(
		func(context.Context, core.Lot) (string, error) {
			calls++
			if calls < 3 {
				return "", core.TransientFailure("upstream hiccup", errors.New("503"))
			}
			return "Third time lucky.", nil
		},
	)

	p := newTestProcessor(gen, stubChecker{}, nil)

	out, err := p.Process(context.Background(), testLot(), []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, "Third time lucky.", out["en"])
}

func TestProcess_PermanentFailureStopsRetrying(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Describe(gomock.Any(), gomock.Any()).Times(1).
		Return("", core.PermanentFailure("model rejected request", errors.New("400")))

	p := newTestProcessor(gen, stubChecker{}, nil)

	_, err := p.Process(context.Background(), testLot(), []string{"en"})
	require.Error(t, err)
	assert.Equal(t, core.FailurePermanent, core.ClassifyFailure(err))
}

func TestProcess_RetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Describe(gomock.Any(), gomock.Any()).Times(3).
		Return("", core.TransientFailure("upstream overloaded", errors.New("429")))

	p := newTestProcessor(gen, stubChecker{}, nil)

	_, err := p.Process(context.Background(), testLot(), []string{"en"})
	require.Error(t, err)
	assert.Equal(t, core.FailureTransient, core.ClassifyFailure(err))
}

func TestContentDigest_SensitiveToInputs(t *testing.T) {
	base := testLot()

	reordered := testLot()
	reordered.Images[0], reordered.Images[1] = reordered.Images[1], reordered.Images[0]

	changedInfo := testLot()
	changedInfo.AdditionalInfo = "different notes"

	assert.Equal(t, contentDigest(base), contentDigest(testLot()))
	assert.NotEqual(t, contentDigest(base), contentDigest(reordered))
	assert.NotEqual(t, contentDigest(base), contentDigest(changedInfo))
}
