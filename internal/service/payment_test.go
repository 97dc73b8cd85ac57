package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkease/parkease/internal/gateway"
	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
	"github.com/parkease/parkease/internal/store/memory"
)

const testSecret = "test_secret"

type paymentFixture struct {
	*bookingFixture
	payments *memory.PaymentStore
	gw       *gateway.FakeGateway
	svc      *service.PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	bf := newBookingFixture(t)
	f := &paymentFixture{
		bookingFixture: bf,
		payments:       memory.NewPaymentStore(),
		gw:             gateway.NewFakeGateway(),
	}
	f.svc = service.NewPaymentService(f.payments, bf.svc, f.gw, testSecret, "INR")
	return f
}

// checkoutBooking creates a lot and a pending booking and opens a
// gateway order for it.
func (f *paymentFixture) checkoutBooking(t *testing.T, userID uint64, total int, price int64, hours int) (*model.ParkingLot, *service.Checkout) {
	t.Helper()
	ctx := context.Background()
	lot := f.addLot(t, total, price)
	b, err := f.bookingFixture.svc.Create(ctx, userID, lot.ID, hours)
	require.NoError(t, err)
	co, err := f.svc.CreateOrder(ctx, userID, b.ID)
	require.NoError(t, err)
	return lot, co
}

func TestPaymentCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("amount converts to minor units", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, co := f.checkoutBooking(t, 1, 2, 50, 2)

		assert.Equal(t, int64(10000), co.Amount) // 100 * 100 paise
		assert.Equal(t, "INR", co.Currency)
		assert.Equal(t, model.PaymentPending, co.Payment.Status)
		assert.Equal(t, int64(100), co.Payment.Amount)
		assert.Equal(t, co.OrderID, co.Payment.OrderID)
	})

	t.Run("rejects someone else's booking", func(t *testing.T) {
		f := newPaymentFixture(t)
		lot := f.addLot(t, 1, 50)
		b, err := f.bookingFixture.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)

		_, err = f.svc.CreateOrder(ctx, 2, b.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("rejects non-pending booking", func(t *testing.T) {
		f := newPaymentFixture(t)
		lot := f.addLot(t, 1, 50)
		b, err := f.bookingFixture.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)
		_, err = f.bookingFixture.svc.Cancel(ctx, 1, false, b.ID, "")
		require.NoError(t, err)

		_, err = f.svc.CreateOrder(ctx, 1, b.ID)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("gateway failure surfaces", func(t *testing.T) {
		f := newPaymentFixture(t)
		lot := f.addLot(t, 1, 50)
		b, err := f.bookingFixture.svc.Create(ctx, 1, lot.ID, 2)
		require.NoError(t, err)

		f.gw.FailNext = true
		_, err = f.svc.CreateOrder(ctx, 1, b.ID)
		assert.Error(t, err)
	})
}

func TestPaymentVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("activates booking and decrements inventory", func(t *testing.T) {
		f := newPaymentFixture(t)
		lot, co := f.checkoutBooking(t, 1, 1, 50, 2)

		sig := gateway.Signature(co.OrderID, "pay_1", testSecret)
		res, err := f.svc.Verify(ctx, 1, service.VerifyInput{
			OrderID: co.OrderID, PaymentID: "pay_1", Signature: sig,
		})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentSuccess, res.Payment.Status)
		assert.Equal(t, "pay_1", res.Payment.GatewayPaymentID)
		require.NotNil(t, res.Payment.PaidAt)
		assert.Equal(t, model.BookingActive, res.Booking.Status)

		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, l.AvailableSlots)
	})

	t.Run("repeated callback is idempotent", func(t *testing.T) {
		f := newPaymentFixture(t)
		lot, co := f.checkoutBooking(t, 1, 1, 50, 2)

		in := service.VerifyInput{
			OrderID:   co.OrderID,
			PaymentID: "pay_1",
			Signature: gateway.Signature(co.OrderID, "pay_1", testSecret),
		}
		_, err := f.svc.Verify(ctx, 1, in)
		require.NoError(t, err)

		res, err := f.svc.Verify(ctx, 1, in)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentSuccess, res.Payment.Status)
		assert.Equal(t, model.BookingActive, res.Booking.Status)

		// the duplicate must not decrement the lot a second time
		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, l.AvailableSlots)
	})

	t.Run("rejects forged signature", func(t *testing.T) {
		f := newPaymentFixture(t)
		lot, co := f.checkoutBooking(t, 1, 1, 50, 2)

		_, err := f.svc.Verify(ctx, 1, service.VerifyInput{
			OrderID:   co.OrderID,
			PaymentID: "pay_1",
			Signature: gateway.Signature(co.OrderID, "pay_1", "wrong_secret"),
		})
		assert.ErrorIs(t, err, service.ErrSignatureMismatch)

		// payment is marked failed and the slot stays free
		p, err := f.payments.GetByOrderID(ctx, co.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentFailed, p.Status)
		assert.Equal(t, "signature mismatch", p.FailureReason)
		l, err := f.lots.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, l.AvailableSlots)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.svc.Verify(ctx, 1, service.VerifyInput{})
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("rejects unknown order", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.svc.Verify(ctx, 1, service.VerifyInput{
			OrderID:   "order_ghost",
			PaymentID: "pay_1",
			Signature: gateway.Signature("order_ghost", "pay_1", testSecret),
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("rejects another user's order", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, co := f.checkoutBooking(t, 1, 1, 50, 2)

		_, err := f.svc.Verify(ctx, 2, service.VerifyInput{
			OrderID:   co.OrderID,
			PaymentID: "pay_1",
			Signature: gateway.Signature(co.OrderID, "pay_1", testSecret),
		})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("rejects mismatched booking id", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, co := f.checkoutBooking(t, 1, 1, 50, 2)

		_, err := f.svc.Verify(ctx, 1, service.VerifyInput{
			OrderID:   co.OrderID,
			PaymentID: "pay_1",
			Signature: gateway.Signature(co.OrderID, "pay_1", testSecret),
			BookingID: co.Payment.BookingID + 1,
		})
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestPaymentRefund(t *testing.T) {
	ctx := context.Background()

	verified := func(t *testing.T, f *paymentFixture) *model.Payment {
		t.Helper()
		_, co := f.checkoutBooking(t, 1, 1, 50, 2)
		res, err := f.svc.Verify(ctx, 1, service.VerifyInput{
			OrderID:   co.OrderID,
			PaymentID: "pay_1",
			Signature: gateway.Signature(co.OrderID, "pay_1", testSecret),
		})
		require.NoError(t, err)
		return res.Payment
	}

	t.Run("full refund by default", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := verified(t, f)

		got, err := f.svc.Refund(ctx, p.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentRefunded, got.Status)
		assert.Equal(t, int64(100), got.RefundAmount)
		r, ok := f.gw.RefundFor("pay_1")
		require.True(t, ok)
		assert.Equal(t, int64(10000), r.Amount) // minor units
	})

	t.Run("partial refund", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := verified(t, f)

		got, err := f.svc.Refund(ctx, p.ID, 40)
		require.NoError(t, err)
		assert.Equal(t, int64(40), got.RefundAmount)
	})

	t.Run("amount above total rejected", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := verified(t, f)

		_, err := f.svc.Refund(ctx, p.ID, 101)
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("pending payment cannot refund", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, co := f.checkoutBooking(t, 1, 1, 50, 2)

		_, err := f.svc.Refund(ctx, co.Payment.ID, 0)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("double refund rejected", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := verified(t, f)
		_, err := f.svc.Refund(ctx, p.ID, 0)
		require.NoError(t, err)

		_, err = f.svc.Refund(ctx, p.ID, 0)
		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

// TestBookingPaymentLifecycle walks the whole happy path plus the
// cancellation tail: book, pay, verify, then cancel and watch the
// slot come back.
func TestBookingPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)

	lot := f.addLot(t, 1, 50)
	b, err := f.bookingFixture.svc.Create(ctx, 1, lot.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Amount)

	co, err := f.svc.CreateOrder(ctx, 1, b.ID)
	require.NoError(t, err)

	res, err := f.svc.Verify(ctx, 1, service.VerifyInput{
		OrderID:   co.OrderID,
		PaymentID: "pay_life",
		Signature: gateway.Signature(co.OrderID, "pay_life", testSecret),
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingActive, res.Booking.Status)

	l, err := f.lots.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, l.AvailableSlots)

	cancelled, err := f.bookingFixture.svc.Cancel(ctx, 1, false, b.ID, "left early")
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)

	l, err = f.lots.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, l.AvailableSlots)
}

func TestPaymentQueries(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(t)
	_, co := f.checkoutBooking(t, 1, 2, 50, 2)
	_, err := f.svc.Verify(ctx, 1, service.VerifyInput{
		OrderID:   co.OrderID,
		PaymentID: "pay_1",
		Signature: gateway.Signature(co.OrderID, "pay_1", testSecret),
	})
	require.NoError(t, err)

	t.Run("ownership on get", func(t *testing.T) {
		_, err := f.svc.Get(ctx, 1, false, co.Payment.ID)
		assert.NoError(t, err)
		_, err = f.svc.Get(ctx, 2, false, co.Payment.ID)
		assert.ErrorIs(t, err, service.ErrForbidden)
		_, err = f.svc.Get(ctx, 2, true, co.Payment.ID)
		assert.NoError(t, err)
	})

	t.Run("list by user", func(t *testing.T) {
		out, err := f.svc.ListByUser(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("admin list with stats", func(t *testing.T) {
		payments, stats, err := f.svc.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
		assert.Equal(t, 1, stats.Total)
		assert.Equal(t, 1, stats.Successful)
		assert.Equal(t, int64(100), stats.TotalAmount)
	})
}
