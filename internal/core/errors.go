package core

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a lot failed. The kind decides whether the
// processor retries and is reported verbatim in failure callbacks.
type FailureKind string

const (
	// FailureAuth marks a request whose signature did not verify. It rejects
	// the whole batch before any lot work starts.
	FailureAuth FailureKind = "authentication_failed"

	// FailureValidation marks structurally or semantically invalid input,
	// such as an unreachable image URL. Never retried.
	FailureValidation FailureKind = "validation_error"

	// FailureTransient marks failures that may succeed on retry, such as
	// upstream timeouts or 5xx responses. Retried up to the configured cap.
	FailureTransient FailureKind = "transient"

	// FailurePermanent marks explicit upstream rejections that retrying
	// cannot fix. Never retried.
	FailurePermanent FailureKind = "permanent"
)

// ErrAuthenticationFailed is returned when a request signature is missing or
// does not match the canonical message.
var ErrAuthenticationFailed = errors.New("authentication failed: invalid signature")

// LotFailure is a classified processing failure for a single lot.
type LotFailure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *LotFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *LotFailure) Unwrap() error {
	return f.Err
}

// ValidationFailure builds a non-retryable validation failure.
func ValidationFailure(format string, args ...any) *LotFailure {
	return &LotFailure{Kind: FailureValidation, Message: fmt.Sprintf(format, args...)}
}

// TransientFailure wraps an error as a retryable failure.
func TransientFailure(message string, err error) *LotFailure {
	return &LotFailure{Kind: FailureTransient, Message: message, Err: err}
}

// PermanentFailure wraps an error as a non-retryable upstream rejection.
func PermanentFailure(message string, err error) *LotFailure {
	return &LotFailure{Kind: FailurePermanent, Message: message, Err: err}
}

// ClassifyFailure extracts the failure kind from an error. Errors that carry
// no classification default to transient, so unknown conditions stay eligible
// for capped retries rather than failing a lot outright.
func ClassifyFailure(err error) FailureKind {
	var lf *LotFailure
	if errors.As(err, &lf) {
		return lf.Kind
	}
	return FailureTransient
}

// Retryable reports whether the processor may retry after this error.
func Retryable(err error) bool {
	return ClassifyFailure(err) == FailureTransient
}

// FailureMessage returns the human-readable message for a failure, falling
// back to the error text for unclassified errors.
func FailureMessage(err error) string {
	var lf *LotFailure
	if errors.As(err, &lf) {
		return lf.Message
	}
	return err.Error()
}
