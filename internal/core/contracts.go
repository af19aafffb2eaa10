package core

import (
	"context"
)

//go:generate mockgen -destination=../../mocks/mock_contracts.go -package=mocks . Dispatcher,Processor,Deliverer,Generator,Job

// Dispatcher accepts verified batches and fans their lots out to background
// workers. This interface decouples the HTTP layer from the job execution
// mechanism.
type Dispatcher interface {
	// Submit enqueues one job per lot of an already verified and validated
	// batch. Admission is atomic: either every lot is queued under the
	// returned batch ID or the whole batch is rejected.
	Submit(ctx context.Context, req *BatchRequest) (BatchID, error)

	// Stop drains the queue and waits for in-flight lots to finish.
	Stop()
}

// Task is one queued unit of work: a single lot plus the batch context it
// arrived with.
type Task struct {
	BatchID   BatchID
	Lot       Lot
	Languages []string
}

// Job represents a single, executable unit of work that can be processed by
// the dispatcher's workers.
type Job interface {
	// Run carries one lot from processing through callback delivery. The
	// returned error reports work that could not reach the caller, such as
	// an exhausted webhook; per-lot processing failures are delivered as
	// failure callbacks, not returned.
	Run(ctx context.Context, task Task) error
}

// Processor turns one lot into descriptions for the requested languages.
type Processor interface {
	// Process validates the lot's images and generates a description per
	// language. The returned error is a classified *LotFailure when the lot
	// fails; retry policy for transient upstream errors is applied inside.
	Process(ctx context.Context, lot Lot, languages []string) (Descriptions, error)
}

// Deliverer posts a signed result callback to a lot's webhook.
type Deliverer interface {
	// Deliver signs the payload and posts it, retrying with backoff until a
	// 2xx response or the attempt cap. It returns the number of attempts
	// made and ErrDeliveryExhausted (wrapped) when the cap is reached.
	Deliver(ctx context.Context, webhookURL string, payload *CallbackPayload) (int, error)
}

// Generator is the opaque external capability that produces description text.
// Implementations call a vision-capable model for Describe and a text model
// for Translate.
type Generator interface {
	// Describe produces the English description for a lot from its images
	// and the seller-provided text.
	Describe(ctx context.Context, lot Lot) (string, error)

	// Translate renders an already generated description into the target
	// language, preserving markup.
	Translate(ctx context.Context, text, language string) (string, error)
}
