package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/delivery"
	"github.com/sevigo/lot-vision/internal/storage"
	"github.com/sevigo/lot-vision/internal/tracker"
	"github.com/sevigo/lot-vision/mocks"
)

func testTask() core.Task {
	return core.Task{
		BatchID: "batch-1",
		Lot: core.Lot{
			LotID:   "lot-1",
			Webhook: "https://dealer.example/hook",
			Images:  []core.Image{{URL: "https://img.example/1.jpg"}},
		},
		Languages: []string{"en", "de"},
	}
}

func registerTestBatch(t *testing.T) *tracker.Tracker {
	t.Helper()
	tr := newTestTracker(t)
	tr.Register("batch-1", []core.Lot{{LotID: "lot-1", Webhook: "https://dealer.example/hook"}})
	return tr
}

func TestLotJob_SuccessDelivered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	descs := core.Descriptions{"en": "A car.", "de": "Ein Auto."}
	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Process(gomock.Any(), gomock.Any(), []string{"en", "de"}).Return(descs, nil)

	var payload *core.CallbackPayload
	del := mocks.NewMockDeliverer(ctrl)
	del.EXPECT().Deliver(gomock.Any(), "https://dealer.example/hook", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, p *core.CallbackPayload) (int, error) {
			payload = p
			return 1, nil
		},
	)

	store := mocks.NewMockStore(ctrl)
	store.EXPECT().RecordDelivery(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *storage.DeliveryRecord) error {
			assert.Equal(t, "batch-1", rec.BatchID)
			assert.Equal(t, "lot-1", rec.LotID)
			assert.Equal(t, string(core.StatusSuccess), rec.Status)
			assert.Equal(t, 1, rec.Attempts)
			assert.True(t, rec.Delivered)
			return nil
		},
	)

	tr := registerTestBatch(t)
	job := NewLotJob(proc, del, tr, store, nil, testLogger())
	require.NoError(t, job.Run(context.Background(), testTask()))

	require.NotNil(t, payload)
	assert.Equal(t, core.StatusSuccess, payload.Status)
	assert.Equal(t, descs, payload.Descriptions)
	assert.Nil(t, payload.Error)
	assert.Equal(t, core.Version, payload.Version)

	view, ok := tr.Snapshot("batch-1")
	require.True(t, ok)
	assert.Equal(t, tracker.BatchCompleted, view.Status)
	assert.Equal(t, string(core.LotDelivered), view.Lots[0].State)
	assert.Equal(t, 1, view.Lots[0].DeliveryAttempts)
}

func TestLotJob_ProcessingFailureDeliversFailureCallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Process(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, core.ValidationFailure("unreachable images: https://img.example/1.jpg"))

	var payload *core.CallbackPayload
	del := mocks.NewMockDeliverer(ctrl)
	del.EXPECT().Deliver(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, p *core.CallbackPayload) (int, error) {
			payload = p
			return 1, nil
		},
	)

	tr := registerTestBatch(t)
	job := NewLotJob(proc, del, tr, nil, nil, testLogger())

	// A processing failure is a delivered result, not a job error.
	require.NoError(t, job.Run(context.Background(), testTask()))

	require.NotNil(t, payload)
	assert.Equal(t, core.StatusFailure, payload.Status)
	require.NotNil(t, payload.Error)
	assert.Equal(t, core.FailureValidation, payload.Error.Kind)
	assert.Contains(t, payload.Error.Message, "unreachable images")
	assert.Nil(t, payload.Descriptions)

	view, ok := tr.Snapshot("batch-1")
	require.True(t, ok)
	assert.Equal(t, string(core.LotDelivered), view.Lots[0].State)
}

func TestLotJob_DeliveryExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Process(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(core.Descriptions{"en": "A car."}, nil)

	del := mocks.NewMockDeliverer(ctrl)
	del.EXPECT().Deliver(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(5, fmt.Errorf("webhook kept failing: %w", delivery.ErrDeliveryExhausted))

	store := mocks.NewMockStore(ctrl)
	store.EXPECT().RecordDelivery(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rec *storage.DeliveryRecord) error {
			assert.Equal(t, 5, rec.Attempts)
			assert.False(t, rec.Delivered)
			return nil
		},
	)

	tr := registerTestBatch(t)
	job := NewLotJob(proc, del, tr, store, nil, testLogger())

	err := job.Run(context.Background(), testTask())
	require.Error(t, err)
	assert.ErrorIs(t, err, delivery.ErrDeliveryExhausted)

	view, ok := tr.Snapshot("batch-1")
	require.True(t, ok)
	assert.Equal(t, string(core.LotDeliveryExhausted), view.Lots[0].State)
	assert.Equal(t, 5, view.Lots[0].DeliveryAttempts)
}

func TestLotJob_JournalFailureIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proc := mocks.NewMockProcessor(ctrl)
	proc.EXPECT().Process(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(core.Descriptions{"en": "A car."}, nil)

	del := mocks.NewMockDeliverer(ctrl)
	del.EXPECT().Deliver(gomock.Any(), gomock.Any(), gomock.Any()).Return(1, nil)

	store := mocks.NewMockStore(ctrl)
	store.EXPECT().RecordDelivery(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	job := NewLotJob(proc, del, registerTestBatch(t), store, nil, testLogger())
	assert.NoError(t, job.Run(context.Background(), testTask()))
}
