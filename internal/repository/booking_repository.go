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

// BookingRepo persists bookings.  Status transitions are enforced
// with conditional UPDATEs: the status predicate lives in the WHERE
// clause, so a transition that lost a race affects zero rows and is
// reported as a state error instead of silently overwriting.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, lot_id, duration_hours, amount, start_time, end_time,
	qr_code, status, payment_id, cancelled_at, cancellation_reason, completed_at,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var paymentID sql.NullInt64
	var cancelledAt, completedAt sql.NullTime
	var reason sql.NullString
	err := row.Scan(
		&b.ID, &b.UserID, &b.LotID, &b.DurationHours, &b.Amount,
		&b.StartTime, &b.EndTime, &b.QRCode, &b.Status,
		&paymentID, &cancelledAt, &reason, &completedAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		pid := uint64(paymentID.Int64)
		b.PaymentID = &pid
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	if reason.Valid {
		b.CancellationReason = reason.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		b.CompletedAt = &t
	}
	return &b, nil
}

// Create inserts a pending booking and populates the generated ID
// and timestamps on the provided record.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
		(user_id, lot_id, duration_hours, amount, start_time, end_time, qr_code, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		b.UserID, b.LotID, b.DurationHours, b.Amount,
		b.StartTime, b.EndTime, b.QRCode, b.Status)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return fmt.Errorf("%w: qr code already exists", service.ErrConflict)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	created, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *created
	return nil
}

// GetByID returns a single booking.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: booking not found", service.ErrNotFound)
	}
	return b, err
}

// ListByUser returns the user's bookings newest first, optionally
// filtered to a set of statuses.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, statuses []string) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ?`
	args := []any{userID}
	if len(statuses) > 0 {
		q += " AND status IN (?" + strings.Repeat(",?", len(statuses)-1) + ")"
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	q += " ORDER BY created_at DESC"
	return r.queryBookings(ctx, q, args...)
}

// ListAll returns every booking newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	return r.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
}

// CountByLot returns booking counts per status for one lot.
func (r *BookingRepo) CountByLot(ctx context.Context, lotID uint64) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM bookings WHERE lot_id = ? GROUP BY status", lotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// UpdateDuration rewrites duration, amount and end time while the
// booking is still pending.
func (r *BookingRepo) UpdateDuration(ctx context.Context, id uint64, duration int, amount int64, endTime time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET duration_hours = ?, amount = ?, end_time = ?
		 WHERE id = ? AND status = ?`,
		duration, amount, endTime, id, model.BookingPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: cannot update booking after payment", service.ErrInvalidState)
	}
	return nil
}

// Activate moves a pending booking to active and links its payment.
func (r *BookingRepo) Activate(ctx context.Context, id, paymentID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, payment_id = ?
		 WHERE id = ? AND status = ?`,
		model.BookingActive, paymentID, id, model.BookingPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: booking is not in pending status", service.ErrInvalidState)
	}
	return nil
}

// Cancel moves a pending or active booking to cancelled and records
// the reason and timestamp.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64, reason string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancelled_at = ?, cancellation_reason = ?
		 WHERE id = ? AND status IN (?, ?)`,
		model.BookingCancelled, at, reason, id, model.BookingPending, model.BookingActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: booking cannot be cancelled", service.ErrConflict)
	}
	return nil
}

// Complete moves an active booking to completed.
func (r *BookingRepo) Complete(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		model.BookingCompleted, at, id, model.BookingActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: booking is not active", service.ErrInvalidState)
	}
	return nil
}

func (r *BookingRepo) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
