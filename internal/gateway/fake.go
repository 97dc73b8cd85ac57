package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway simulates the payment gateway in memory.  It is used
// when no gateway keys are configured (demo mode) and as the test
// double.  Orders and refunds are recorded so tests can assert on
// them.
type FakeGateway struct {
	mu      sync.Mutex
	orders  map[string]*Order
	refunds map[string]*Refund

	// FailNext makes the next call return an error, letting tests
	// exercise upstream failure paths.
	FailNext bool
}

// NewFakeGateway returns an empty fake gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		orders:  make(map[string]*Order),
		refunds: make(map[string]*Refund),
	}
}

// CreateOrder records and returns a fake order with an id like
// order_<hex>.
func (g *FakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailNext {
		g.FailNext = false
		return nil, fmt.Errorf("gateway unavailable")
	}
	order := &Order{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   amountMinor,
		Currency: currency,
	}
	g.orders[order.ID] = order
	log.Printf("fake-gateway: created order %s amount=%d %s receipt=%s", order.ID, amountMinor, currency, receipt)
	return order, nil
}

// Refund records and returns a fake refund.
func (g *FakeGateway) Refund(_ context.Context, gatewayPaymentID string, amountMinor int64) (*Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailNext {
		g.FailNext = false
		return nil, fmt.Errorf("gateway unavailable")
	}
	refund := &Refund{
		ID:     "rfnd_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount: amountMinor,
		Status: "processed",
	}
	g.refunds[gatewayPaymentID] = refund
	return refund, nil
}

// Orders returns a snapshot of the orders created so far.
func (g *FakeGateway) Orders() []Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Order, 0, len(g.orders))
	for _, o := range g.orders {
		out = append(out, *o)
	}
	return out
}

// RefundFor returns the refund recorded for a gateway payment id,
// if any.
func (g *FakeGateway) RefundFor(gatewayPaymentID string) (*Refund, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.refunds[gatewayPaymentID]
	return r, ok
}
