package jobs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/delivery"
	"github.com/sevigo/lot-vision/internal/signature"
	"github.com/sevigo/lot-vision/internal/tracker"
	"github.com/sevigo/lot-vision/mocks"
)

// webhookCollector records every callback body posted to it.
type webhookCollector struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (c *webhookCollector) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		c.mu.Lock()
		c.bodies = append(c.bodies, body)
		c.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (c *webhookCollector) payloads(t *testing.T) []core.CallbackPayload {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]core.CallbackPayload, 0, len(c.bodies))
	for _, body := range c.bodies {
		var p core.CallbackPayload
		require.NoError(t, json.Unmarshal(body, &p))
		out = append(out, p)
	}
	return out
}

func pipelineConfig() *config.Config {
	return &config.Config{
		MaxWorkers:          4,
		MaxConcurrentLots:   8,
		QueueSize:           32,
		DeliveryMaxAttempts: 3,
		DeliveryBaseDelay:   time.Millisecond,
		DeliveryMaxDelay:    5 * time.Millisecond,
		DeliveryTimeout:     2 * time.Second,
	}
}

func echoProcessor(ctrl *gomock.Controller) *mocks.MockProcessor {
	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Process(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
		func(_ context.Context, lot core.Lot, langs []string) (core.Descriptions, error) {
			descs := make(core.Descriptions, len(langs))
			for _, lang := range langs {
				descs[lang] = "<p>" + lot.LotID + "</p>"
			}
			return descs, nil
		},
	)
	return proc
}

// Wires a real dispatcher, lot job and deliverer together and checks that a
// batch of N lots produces exactly N signed callbacks, one per lot.
func TestPipeline_EveryLotGetsOneSignedCallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	collector := &webhookCollector{}
	srv := httptest.NewServer(collector.handler())
	defer srv.Close()

	const numLots = 10
	req := &core.BatchRequest{Version: core.Version, Languages: []string{"en", "de"}}
	want := make([]string, 0, numLots)
	for i := range numLots {
		id := string(rune('a' + i))
		want = append(want, "lot-"+id)
		req.Lots = append(req.Lots, core.Lot{
			LotID:   "lot-" + id,
			Webhook: srv.URL,
			Images:  []core.Image{{URL: "https://img.example/1.jpg"}},
		})
	}

	cfg := pipelineConfig()
	signer := signature.NewSigner("pipeline-key")
	tr := newTestTracker(t)
	del := delivery.NewDeliverer(cfg, signer, nil, testLogger())
	job := NewLotJob(echoProcessor(ctrl), del, tr, nil, nil, testLogger())
	d := NewDispatcher(cfg, job, tr, nil, testLogger())

	batchID, err := d.Submit(context.Background(), req)
	require.NoError(t, err)

	// Stop drains the queue, so every callback has landed afterwards.
	d.Stop()

	payloads := collector.payloads(t)
	require.Len(t, payloads, numLots)

	got := make([]string, 0, numLots)
	for i, p := range payloads {
		got = append(got, p.LotID)
		assert.Equal(t, core.StatusSuccess, p.Status)
		assert.Equal(t, "<p>"+p.LotID+"</p>", p.Descriptions["en"])
		assert.NoError(t, signer.Verify(json.RawMessage(collector.bodies[i]), p.Signature),
			"callback for %s must carry a valid signature", p.LotID)
	}
	assert.ElementsMatch(t, want, got, "every submitted lot gets exactly one callback")

	view, ok := tr.Snapshot(batchID)
	require.True(t, ok)
	assert.Equal(t, tracker.BatchCompleted, view.Status)
	for _, lot := range view.Lots {
		assert.Equal(t, string(core.LotDelivered), lot.State)
	}
}

// One lot points at a dead webhook. Its delivery must exhaust the retry
// budget without holding up or dropping the other lots' callbacks.
func TestPipeline_DeadWebhookDoesNotStarveOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	collector := &webhookCollector{}
	srv := httptest.NewServer(collector.handler())
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	const numGood = 9
	req := &core.BatchRequest{Version: core.Version, Languages: []string{"en"}}
	want := make([]string, 0, numGood)
	for i := range numGood {
		id := string(rune('a' + i))
		want = append(want, "lot-"+id)
		req.Lots = append(req.Lots, core.Lot{
			LotID:   "lot-" + id,
			Webhook: srv.URL,
			Images:  []core.Image{{URL: "https://img.example/1.jpg"}},
		})
	}
	req.Lots = append(req.Lots, core.Lot{
		LotID:   "lot-dead",
		Webhook: deadURL,
		Images:  []core.Image{{URL: "https://img.example/1.jpg"}},
	})

	cfg := pipelineConfig()
	signer := signature.NewSigner("pipeline-key")
	tr := newTestTracker(t)
	del := delivery.NewDeliverer(cfg, signer, nil, testLogger())
	job := NewLotJob(echoProcessor(ctrl), del, tr, nil, nil, testLogger())
	d := NewDispatcher(cfg, job, tr, nil, testLogger())

	batchID, err := d.Submit(context.Background(), req)
	require.NoError(t, err)
	d.Stop()

	payloads := collector.payloads(t)
	got := make([]string, 0, len(payloads))
	for _, p := range payloads {
		got = append(got, p.LotID)
	}
	assert.ElementsMatch(t, want, got, "good webhooks receive their callbacks")

	view, ok := tr.Snapshot(batchID)
	require.True(t, ok)
	assert.Equal(t, tracker.BatchCompleted, view.Status, "an exhausted lot is still terminal")

	states := make(map[string]tracker.LotView, len(view.Lots))
	for _, lot := range view.Lots {
		states[lot.LotID] = lot
	}
	require.Contains(t, states, "lot-dead")
	assert.Equal(t, string(core.LotDeliveryExhausted), states["lot-dead"].State)
	assert.Equal(t, cfg.DeliveryMaxAttempts, states["lot-dead"].DeliveryAttempts)
	for _, id := range want {
		assert.Equal(t, string(core.LotDelivered), states[id].State, "lot %s", id)
	}
}
