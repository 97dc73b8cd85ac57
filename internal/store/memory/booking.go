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

// BookingStore is the in-memory BookingStore.
type BookingStore struct {
	mu       sync.Mutex
	nextID   uint64
	bookings map[uint64]*model.Booking
}

// NewBookingStore returns an empty in-memory booking store.
func NewBookingStore() *BookingStore {
	return &BookingStore{nextID: 1, bookings: make(map[uint64]*model.Booking)}
}

func (s *BookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	b.ID = s.nextID
	s.nextID++
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *BookingStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking not found", service.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (s *BookingStore) ListByUser(_ context.Context, userID uint64, statuses []string) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := map[string]bool{}
	for _, st := range statuses {
		wanted[st] = true
	}
	out := []model.Booking{}
	for _, b := range s.bookings {
		if b.UserID != userID {
			continue
		}
		if len(wanted) > 0 && !wanted[b.Status] {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *BookingStore) ListAll(_ context.Context) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *BookingStore) CountByLot(_ context.Context, lotID uint64) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, b := range s.bookings {
		if b.LotID == lotID {
			counts[b.Status]++
		}
	}
	return counts, nil
}

func (s *BookingStore) UpdateDuration(_ context.Context, id uint64, duration int, amount int64, endTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != model.BookingPending {
		return fmt.Errorf("%w: cannot update booking after payment", service.ErrInvalidState)
	}
	b.DurationHours = duration
	b.Amount = amount
	b.EndTime = endTime
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *BookingStore) Activate(_ context.Context, id, paymentID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != model.BookingPending {
		return fmt.Errorf("%w: booking is not in pending status", service.ErrInvalidState)
	}
	b.Status = model.BookingActive
	b.PaymentID = &paymentID
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *BookingStore) Cancel(_ context.Context, id uint64, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || (b.Status != model.BookingPending && b.Status != model.BookingActive) {
		return fmt.Errorf("%w: booking cannot be cancelled", service.ErrConflict)
	}
	b.Status = model.BookingCancelled
	b.CancelledAt = &at
	b.CancellationReason = reason
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *BookingStore) Complete(_ context.Context, id uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != model.BookingActive {
		return fmt.Errorf("%w: booking is not active", service.ErrInvalidState)
	}
	b.Status = model.BookingCompleted
	b.CompletedAt = &at
	b.UpdatedAt = time.Now().UTC()
	return nil
}
