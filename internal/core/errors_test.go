package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{
			name: "validation failure",
			err:  ValidationFailure("images cannot be empty"),
			want: FailureValidation,
		},
		{
			name: "permanent failure",
			err:  PermanentFailure("model rejected request", errors.New("status 400")),
			want: FailurePermanent,
		},
		{
			name: "transient failure",
			err:  TransientFailure("upstream overloaded", errors.New("status 503")),
			want: FailureTransient,
		},
		{
			name: "wrapped classified failure",
			err:  fmt.Errorf("processing lot: %w", ValidationFailure("bad image")),
			want: FailureValidation,
		},
		{
			name: "unclassified error defaults to transient",
			err:  errors.New("something odd happened"),
			want: FailureTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(TransientFailure("timeout", nil)))
	assert.True(t, Retryable(errors.New("unknown")), "unknown errors stay retryable")
	assert.False(t, Retryable(ValidationFailure("empty images")))
	assert.False(t, Retryable(PermanentFailure("rejected", nil)))
}

func TestLotStateTerminal(t *testing.T) {
	assert.False(t, LotAccepted.Terminal())
	assert.False(t, LotProcessing.Terminal())
	assert.False(t, LotDelivering.Terminal())
	assert.True(t, LotDelivered.Terminal())
	assert.True(t, LotDeliveryExhausted.Terminal())
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "bad image", FailureMessage(ValidationFailure("bad image")))
	assert.Equal(t, "plain error", FailureMessage(errors.New("plain error")))
}
