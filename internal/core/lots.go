// Package core defines the essential interfaces and data structures that form
// the backbone of the application. These components are designed to be
// abstract, allowing for flexible and decoupled implementations of the
// application's logic.
package core

// Image is a single photograph of a lot, referenced by URL.
type Image struct {
	URL string `json:"url"`
}

// Lot is one car listing inside a batch request. Each lot carries its own
// webhook so results for different lots can go to different endpoints.
type Lot struct {
	LotID          string  `json:"lot_id"`
	Webhook        string  `json:"webhook"`
	AdditionalInfo string  `json:"additional_info,omitempty"`
	Images         []Image `json:"images"`
}

// BatchRequest is the wire shape of POST /api/v1/generate-descriptions.
type BatchRequest struct {
	Signature string   `json:"signature"`
	Version   string   `json:"version"`
	Languages []string `json:"languages"`
	Lots      []Lot    `json:"lots"`
}

// Descriptions maps a language code to the generated description text.
type Descriptions map[string]string

// BatchID identifies an accepted batch for status observation.
type BatchID string

// LotStatus is the outcome reported in a callback payload.
type LotStatus string

const (
	StatusSuccess LotStatus = "success"
	StatusFailure LotStatus = "failure"
)

// ErrorInfo describes a per-lot failure in a callback payload.
type ErrorInfo struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// CallbackPayload is posted to a lot's webhook once processing reaches a
// terminal result. Exactly one of Descriptions or Error is set. The signature
// covers the whole payload minus the signature field itself.
type CallbackPayload struct {
	LotID        string       `json:"lot_id"`
	Status       LotStatus    `json:"status"`
	Descriptions Descriptions `json:"descriptions,omitempty"`
	Error        *ErrorInfo   `json:"error,omitempty"`
	Version      string       `json:"version"`
	Signature    string       `json:"signature,omitempty"`
}

// SuccessPayload builds an unsigned success callback for a lot.
func SuccessPayload(lotID string, descs Descriptions) *CallbackPayload {
	return &CallbackPayload{
		LotID:        lotID,
		Status:       StatusSuccess,
		Descriptions: descs,
		Version:      Version,
	}
}

// FailurePayload builds an unsigned failure callback for a lot.
func FailurePayload(lotID string, kind FailureKind, message string) *CallbackPayload {
	return &CallbackPayload{
		LotID:   lotID,
		Status:  StatusFailure,
		Error:   &ErrorInfo{Kind: kind, Message: message},
		Version: Version,
	}
}

// Version is the only protocol version the service accepts and emits.
const Version = "1.0.0"
