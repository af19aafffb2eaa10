package core

// LotState tracks a lot through its lifecycle. Transitions only move
// forward: accepted -> processing -> delivering -> delivered or
// delivery_exhausted. Processing failures still pass through delivering,
// because a failure callback is delivered like any other result.
type LotState string

const (
	LotAccepted          LotState = "accepted"
	LotProcessing        LotState = "processing"
	LotDelivering        LotState = "delivering"
	LotDelivered         LotState = "delivered"
	LotDeliveryExhausted LotState = "delivery_exhausted"
)

// Terminal reports whether no further transitions are possible.
func (s LotState) Terminal() bool {
	return s == LotDelivered || s == LotDeliveryExhausted
}
