package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
)

// PaymentRepo persists payments.  Each payment is keyed by its
// unique gateway order id; the gateway payment id gets its own
// unique index once verification fills it in.  Status changes use
// the same conditional UPDATE pattern as bookings, which also makes
// a repeated verification callback a no-op at the SQL level.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, booking_id, user_id, amount, currency, order_id,
	gateway_payment_id, signature, status, paid_at, refunded_at, refund_amount,
	failure_reason, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	var gatewayPaymentID, signature, failureReason sql.NullString
	var paidAt, refundedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.BookingID, &p.UserID, &p.Amount, &p.Currency, &p.OrderID,
		&gatewayPaymentID, &signature, &p.Status, &paidAt, &refundedAt,
		&p.RefundAmount, &failureReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.GatewayPaymentID = gatewayPaymentID.String
	p.Signature = signature.String
	p.FailureReason = failureReason.String
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	if refundedAt.Valid {
		t := refundedAt.Time
		p.RefundedAt = &t
	}
	return &p, nil
}

// Create inserts a pending payment and populates the generated ID
// and timestamps on the provided record.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments
		(booking_id, user_id, amount, currency, order_id, status)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.BookingID, p.UserID, p.Amount, p.Currency, p.OrderID, p.Status)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return fmt.Errorf("%w: order id already exists", service.ErrConflict)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	created, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

// GetByID returns a single payment.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payment not found", service.ErrNotFound)
	}
	return p, err
}

// GetByOrderID returns the payment created for a gateway order.
func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ?`, orderID)
	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payment not found", service.ErrNotFound)
	}
	return p, err
}

// ListByUser returns the user's payments newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
}

// ListAll returns every payment newest first.
func (r *PaymentRepo) ListAll(ctx context.Context) ([]model.Payment, error) {
	return r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
}

// MarkSuccess records a verified payment.  Only a pending payment
// can become successful, so a duplicate callback affects zero rows.
func (r *PaymentRepo) MarkSuccess(ctx context.Context, id uint64, gatewayPaymentID, signature string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, gateway_payment_id = ?, signature = ?, paid_at = ?
		 WHERE id = ? AND status = ?`,
		model.PaymentSuccess, gatewayPaymentID, signature, at, id, model.PaymentPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: payment is not pending", service.ErrInvalidState)
	}
	return nil
}

// MarkFailed records a failed verification.  Failed payments are
// terminal; a fresh order must be created to retry.
func (r *PaymentRepo) MarkFailed(ctx context.Context, id uint64, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, failure_reason = ?
		 WHERE id = ? AND status = ?`,
		model.PaymentFailed, reason, id, model.PaymentPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: payment is not pending", service.ErrInvalidState)
	}
	return nil
}

// MarkRefunded records a processed refund on a successful payment.
func (r *PaymentRepo) MarkRefunded(ctx context.Context, id uint64, amount int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, refund_amount = ?, refunded_at = ?
		 WHERE id = ? AND status = ?`,
		model.PaymentRefunded, amount, at, id, model.PaymentSuccess)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: only successful payments can be refunded", service.ErrInvalidState)
	}
	return nil
}

func (r *PaymentRepo) queryPayments(ctx context.Context, q string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
