package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
)

// ParkingLotRepo provides CRUD and slot counter operations for
// parking lots.  Slot adjustments are single conditional UPDATEs so
// two concurrent activations can never oversell the last slot and
// a release can never push the counter past the lot's total.  All
// timestamp columns are stored in UTC.
type ParkingLotRepo struct {
	db *sql.DB
}

// NewParkingLotRepo returns a ParkingLotRepo bound to the given database.
func NewParkingLotRepo(db *sql.DB) *ParkingLotRepo { return &ParkingLotRepo{db: db} }

const lotColumns = `id, name, address, lat, lon, total_slots, available_slots,
	price_per_hour, amenities, rating, is_active, created_by, created_at, updated_at`

func scanLot(row interface{ Scan(...any) error }) (*model.ParkingLot, error) {
	var lot model.ParkingLot
	var amenities sql.NullString
	var createdBy sql.NullInt64
	err := row.Scan(
		&lot.ID, &lot.Name, &lot.Address, &lot.Lat, &lot.Lon,
		&lot.TotalSlots, &lot.AvailableSlots, &lot.PricePerHour,
		&amenities, &lot.Rating, &lot.IsActive, &createdBy,
		&lot.CreatedAt, &lot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if amenities.Valid {
		lot.Amenities = amenities.String
	}
	if createdBy.Valid {
		lot.CreatedBy = uint64(createdBy.Int64)
	}
	return &lot, nil
}

// Create inserts a new lot.  Available slots start equal to the
// total; the generated ID and timestamps are populated on the
// provided record.
func (r *ParkingLotRepo) Create(ctx context.Context, lot *model.ParkingLot) error {
	const q = `INSERT INTO parking_lots
		(name, address, lat, lon, total_slots, available_slots, price_per_hour, amenities, rating, is_active, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		lot.Name, lot.Address, lot.Lat, lot.Lon,
		lot.TotalSlots, lot.AvailableSlots, lot.PricePerHour,
		nullString(lot.Amenities), lot.Rating, lot.IsActive, nullID(lot.CreatedBy))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	lot.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	created, err := r.GetByID(ctx, lot.ID)
	if err != nil {
		return err
	}
	*lot = *created
	return nil
}

// GetByID returns one lot regardless of its active flag.
func (r *ParkingLotRepo) GetByID(ctx context.Context, id uint64) (*model.ParkingLot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+lotColumns+` FROM parking_lots WHERE id = ?`, id)
	lot, err := scanLot(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: parking lot not found", service.ErrNotFound)
	}
	return lot, err
}

// List returns active lots newest first with pagination and an
// optional case-insensitive search over name and address.  The
// second return value is the total match count for the pager.
func (r *ParkingLotRepo) List(ctx context.Context, search string, page, limit int) ([]model.ParkingLot, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	where := "WHERE is_active = 1"
	args := []any{}
	if search != "" {
		where += " AND (name LIKE ? OR address LIKE ?)"
		pat := "%" + search + "%"
		args = append(args, pat, pat)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM parking_lots "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + lotColumns + ` FROM parking_lots ` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	lots := make([]model.ParkingLot, 0, limit)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, 0, err
		}
		lots = append(lots, *lot)
	}
	return lots, total, rows.Err()
}

// Nearby returns active lots within radiusKM of (lat, lon) ordered
// by distance.  The distance is computed with the haversine
// formula directly in SQL; 6371 is the earth radius in km.
func (r *ParkingLotRepo) Nearby(ctx context.Context, lat, lon, radiusKM float64, limit int) ([]model.ParkingLot, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if radiusKM <= 0 {
		radiusKM = 10
	}
	const q = `SELECT ` + lotColumns + `,
		(6371 * ACOS(LEAST(1.0,
			COS(RADIANS(?)) * COS(RADIANS(lat)) * COS(RADIANS(lon) - RADIANS(?)) +
			SIN(RADIANS(?)) * SIN(RADIANS(lat))))) AS distance_km
		FROM parking_lots
		WHERE is_active = 1
		HAVING distance_km <= ?
		ORDER BY distance_km
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, lat, lon, lat, radiusKM, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lots := make([]model.ParkingLot, 0, limit)
	for rows.Next() {
		var lot model.ParkingLot
		var amenities sql.NullString
		var createdBy sql.NullInt64
		var distance float64
		err := rows.Scan(
			&lot.ID, &lot.Name, &lot.Address, &lot.Lat, &lot.Lon,
			&lot.TotalSlots, &lot.AvailableSlots, &lot.PricePerHour,
			&amenities, &lot.Rating, &lot.IsActive, &createdBy,
			&lot.CreatedAt, &lot.UpdatedAt, &distance,
		)
		if err != nil {
			return nil, err
		}
		if amenities.Valid {
			lot.Amenities = amenities.String
		}
		if createdBy.Valid {
			lot.CreatedBy = uint64(createdBy.Int64)
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// Update writes the editable lot fields.  When the total shrinks
// the available counter is clamped down with it so the invariant
// available <= total keeps holding.
func (r *ParkingLotRepo) Update(ctx context.Context, lot *model.ParkingLot) error {
	const q = `UPDATE parking_lots SET
		name = ?, address = ?, lat = ?, lon = ?,
		total_slots = ?, available_slots = LEAST(available_slots, ?),
		price_per_hour = ?, amenities = ?, rating = ?, is_active = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		lot.Name, lot.Address, lot.Lat, lot.Lon,
		lot.TotalSlots, lot.TotalSlots,
		lot.PricePerHour, nullString(lot.Amenities), lot.Rating, lot.IsActive,
		lot.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Verify existence; an update writing identical values also
		// reports zero affected rows.
		if _, err := r.GetByID(ctx, lot.ID); err != nil {
			return err
		}
	}
	updated, err := r.GetByID(ctx, lot.ID)
	if err != nil {
		return err
	}
	*lot = *updated
	return nil
}

// Deactivate soft deletes a lot.  Lots are never removed because
// bookings and payments keep referencing them.
func (r *ParkingLotRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE parking_lots SET is_active = 0 WHERE id = ? AND is_active = 1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: parking lot is already inactive", service.ErrConflict)
	}
	return nil
}

// ReserveSlot takes one slot from the lot.  The WHERE clause makes
// the decrement conditional on a slot actually being free, which
// closes the overselling race for the last slot.
func (r *ParkingLotRepo) ReserveSlot(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE parking_lots SET available_slots = available_slots - 1
		 WHERE id = ? AND is_active = 1 AND available_slots > 0`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: no available slots", service.ErrInvalidState)
	}
	return nil
}

// ReleaseSlot returns one slot to the lot, clamped to the total.
// A release on a lot already at capacity is a no-op, not an error.
func (r *ParkingLotRepo) ReleaseSlot(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE parking_lots
		 SET available_slots = LEAST(available_slots + 1, total_slots)
		 WHERE id = ?`, id)
	return err
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}
