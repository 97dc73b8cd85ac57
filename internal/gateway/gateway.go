// Package gateway integrates the external payment gateway.  The
// Gateway interface has two implementations: a REST client for the
// real gateway and an in-memory fake used in demo mode and tests.
package gateway

import "context"

// Order is the gateway's view of a created order.  Amount is in
// minor currency units (paise for INR).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Refund is the gateway's record of a processed refund.  Amount is
// in minor currency units.
type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Gateway creates orders and processes refunds with the external
// payment provider.  Amounts are always minor units.  Calls are
// not retried; an error means the caller must re-initiate.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error)
	Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64) (*Refund, error)
}
