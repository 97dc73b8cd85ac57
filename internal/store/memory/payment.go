package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
)

// PaymentStore is the in-memory PaymentStore.
type PaymentStore struct {
	mu       sync.Mutex
	nextID   uint64
	payments map[uint64]*model.Payment
	byOrder  map[string]uint64
}

// NewPaymentStore returns an empty in-memory payment store.
func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		nextID:   1,
		payments: make(map[uint64]*model.Payment),
		byOrder:  make(map[string]uint64),
	}
}

func (s *PaymentStore) Create(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byOrder[p.OrderID]; exists {
		return fmt.Errorf("%w: order id already exists", service.ErrConflict)
	}
	now := time.Now().UTC()
	p.ID = s.nextID
	s.nextID++
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	s.payments[p.ID] = &cp
	s.byOrder[p.OrderID] = p.ID
	return nil
}

func (s *PaymentStore) GetByID(_ context.Context, id uint64) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment not found", service.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *PaymentStore) GetByOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byOrder[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: payment not found", service.ErrNotFound)
	}
	cp := *s.payments[id]
	return &cp, nil
}

func (s *PaymentStore) ListByUser(_ context.Context, userID uint64) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Payment{}
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *PaymentStore) ListAll(_ context.Context) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *PaymentStore) MarkSuccess(_ context.Context, id uint64, gatewayPaymentID, signature string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.Status != model.PaymentPending {
		return fmt.Errorf("%w: payment is not pending", service.ErrInvalidState)
	}
	p.Status = model.PaymentSuccess
	p.GatewayPaymentID = gatewayPaymentID
	p.Signature = signature
	p.PaidAt = &at
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *PaymentStore) MarkFailed(_ context.Context, id uint64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.Status != model.PaymentPending {
		return fmt.Errorf("%w: payment is not pending", service.ErrInvalidState)
	}
	p.Status = model.PaymentFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *PaymentStore) MarkRefunded(_ context.Context, id uint64, amount int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.Status != model.PaymentSuccess {
		return fmt.Errorf("%w: only successful payments can be refunded", service.ErrInvalidState)
	}
	p.Status = model.PaymentRefunded
	p.RefundAmount = amount
	p.RefundedAt = &at
	p.UpdatedAt = time.Now().UTC()
	return nil
}
