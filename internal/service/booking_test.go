package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/queue"
	"github.com/parkease/parkease/internal/service"
	"github.com/parkease/parkease/internal/store/memory"
)

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	activated []queue.BookingEvent
	cancelled []queue.BookingEvent
}

func (n *recordingNotifier) BookingActivated(_ context.Context, ev queue.BookingEvent) {
	n.activated = append(n.activated, ev)
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, ev queue.BookingEvent) {
	n.cancelled = append(n.cancelled, ev)
}

type bookingFixture struct {
	lots     *memory.LotStore
	bookings *memory.BookingStore
	users    *memory.UserStore
	notifier *recordingNotifier
	svc      *service.BookingService
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		lots:     memory.NewLotStore(),
		bookings: memory.NewBookingStore(),
		users:    memory.NewUserStore(),
		notifier: &recordingNotifier{},
	}
	f.svc = service.NewBookingService(f.lots, f.bookings, f.users, f.notifier)
	return f
}

func (f *bookingFixture) addLot(t *testing.T, total int, price int64) *model.ParkingLot {
	t.Helper()
	lot := &model.ParkingLot{
		Name:           "Central Garage",
		Address:        "1 Main Street",
		TotalSlots:     total,
		AvailableSlots: total,
		PricePerHour:   price,
		IsActive:       true,
	}
	require.NoError(t, f.lots.Create(context.Background(), lot))
	return lot
}

func TestBookingCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("computes amount and window", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 10, 50)

		b, err := f.svc.Create(ctx, 1, lot.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, model.BookingPending, b.Status)
		assert.Equal(t, int64(150), b.Amount)
		assert.Equal(t, 3, b.DurationHours)
		assert.Equal(t, b.StartTime.Add(3*time.Hour), b.EndTime)
		assert.NotEmpty(t, b.QRCode)

		// creation does not touch inventory
		got, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.AvailableSlots)
	})

	t.Run("rejects duration out of bounds", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 10, 50)

		_, err := f.svc.Create(ctx, 1, lot.ID, 0)
		assert.ErrorIs(t, err, service.ErrValidation)
		_, err = f.svc.Create(ctx, 1, lot.ID, 13)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("rejects inactive lot", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 10, 50)
		require.NoError(t, f.lots.Deactivate(ctx, lot.ID))

		_, err := f.svc.Create(ctx, 1, lot.ID, 2)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("rejects unknown lot", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.svc.Create(ctx, 1, 999, 2)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("rejects full lot", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 1, 50)
		require.NoError(t, f.lots.ReserveSlot(ctx, lot.ID))

		_, err := f.svc.Create(ctx, 1, lot.ID, 2)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

func TestBookingActivate(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements inventory and notifies", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 2, 50)
		b, err := f.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)

		got, err := f.svc.Activate(ctx, b.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, model.BookingActive, got.Status)
		require.NotNil(t, got.PaymentID)
		assert.Equal(t, uint64(7), *got.PaymentID)

		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, l.AvailableSlots)
		require.Len(t, f.notifier.activated, 1)
		assert.Equal(t, b.ID, f.notifier.activated[0].BookingID)
	})

	t.Run("never oversells the last slot", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 1, 50)
		b1, err := f.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)
		b2, err := f.svc.Create(ctx, 2, lot.ID, 2)
		require.NoError(t, err)

		_, err = f.svc.Activate(ctx, b1.ID, 1)
		require.NoError(t, err)
		_, err = f.svc.Activate(ctx, b2.ID, 2)
		assert.ErrorIs(t, err, service.ErrInvalidState)

		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, l.AvailableSlots)
	})

	t.Run("rejects non-pending booking", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 2, 50)
		b, err := f.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)
		_, err = f.svc.Activate(ctx, b.ID, 1)
		require.NoError(t, err)

		_, err = f.svc.Activate(ctx, b.ID, 2)
		assert.ErrorIs(t, err, service.ErrInvalidState)

		// the duplicate attempt must not leak a slot
		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, l.AvailableSlots)
	})
}

func TestBookingCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending cancel releases nothing", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 3, 50)
		b, err := f.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)

		got, err := f.svc.Cancel(ctx, 1, false, b.ID, "")
		require.NoError(t, err)
		assert.Equal(t, model.BookingCancelled, got.Status)
		assert.Equal(t, "User cancelled", got.CancellationReason)

		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, l.AvailableSlots)
		require.Len(t, f.notifier.cancelled, 1)
	})

	t.Run("active cancel returns the slot", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 1, 50)
		b, err := f.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)
		_, err = f.svc.Activate(ctx, b.ID, 1)
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, 1, false, b.ID, "plans changed")
		require.NoError(t, err)

		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, l.AvailableSlots)
	})

	t.Run("double cancel conflicts", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 1, 50)
		b, err := f.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, 1, false, b.ID, "")
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, 1, false, b.ID, "")
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("stranger cannot cancel, admin can", func(t *testing.T) {
		f := newBookingFixture(t)
		lot := f.addLot(t, 1, 50)
		b, err := f.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, 2, false, b.ID, "")
		assert.ErrorIs(t, err, service.ErrForbidden)

		_, err = f.svc.Cancel(ctx, 2, true, b.ID, "lot closed for maintenance")
		assert.NoError(t, err)
	})
}

func TestBookingComplete(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	lot := f.addLot(t, 1, 50)
	b, err := f.svc.Create(ctx, 1, lot.ID, 2)
	require.NoError(t, err)

	t.Run("requires active status", func(t *testing.T) {
		_, err := f.svc.Complete(ctx, b.ID)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("releases the slot", func(t *testing.T) {
		_, err := f.svc.Activate(ctx, b.ID, 1)
		require.NoError(t, err)

		got, err := f.svc.Complete(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BookingCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)

		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, l.AvailableSlots)
	})
}

func TestBookingUpdateDuration(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	lot := f.addLot(t, 2, 40)
	b, err := f.svc.Create(ctx, 1, lot.ID, 2)
	require.NoError(t, err)

	t.Run("recomputes amount and end time", func(t *testing.T) {
		got, err := f.svc.UpdateDuration(ctx, 1, b.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, got.DurationHours)
		assert.Equal(t, int64(200), got.Amount)
		assert.Equal(t, b.StartTime.Add(5*time.Hour), got.EndTime)
	})

	t.Run("only the owner may edit", func(t *testing.T) {
		_, err := f.svc.UpdateDuration(ctx, 2, b.ID, 3)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("locked after activation", func(t *testing.T) {
		_, err := f.svc.Activate(ctx, b.ID, 1)
		require.NoError(t, err)
		_, err = f.svc.UpdateDuration(ctx, 1, b.ID, 3)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

func TestBookingLists(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	lot := f.addLot(t, 5, 50)

	b1, err := f.svc.Create(ctx, 1, lot.ID, 2)
	require.NoError(t, err)
	b2, err := f.svc.Create(ctx, 1, lot.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 2, lot.ID, 2)
	require.NoError(t, err)

	_, err = f.svc.Activate(ctx, b1.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, 1, false, b2.ID, "")
	require.NoError(t, err)

	t.Run("by user", func(t *testing.T) {
		out, err := f.svc.ListByUser(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("active only", func(t *testing.T) {
		out, err := f.svc.ListActive(ctx, 1)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, b1.ID, out[0].ID)
	})

	t.Run("history", func(t *testing.T) {
		out, err := f.svc.ListHistory(ctx, 1)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, b2.ID, out[0].ID)
	})

	t.Run("admin all", func(t *testing.T) {
		out, err := f.svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, out, 3)
	})

	t.Run("lot stats", func(t *testing.T) {
		counts, err := f.svc.LotStats(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, counts[model.BookingActive])
		assert.Equal(t, 1, counts[model.BookingCancelled])
		assert.Equal(t, 1, counts[model.BookingPending])
	})
}

func TestBookingGetOwnership(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture(t)
	lot := f.addLot(t, 1, 50)
	b, err := f.svc.Create(ctx, 1, lot.ID, 2)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, 1, false, b.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, 2, false, b.ID)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = f.svc.Get(ctx, 2, true, b.ID)
	assert.NoError(t, err)
}
