package model

import "time"

// ParkingLot represents a parking facility that users can book
// slots in.  Each lot tracks a fixed total number of slots and a
// live count of slots still available.  Lots are never hard
// deleted; deactivating a lot clears its IsActive flag so that it
// stops appearing in browse and nearby results.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the lot.
//  Address        – street address shown to users.
//  Lat, Lon       – geocoordinate used for nearby queries.
//  TotalSlots     – fixed capacity of the lot (>= 1).
//  AvailableSlots – slots currently free (0 <= available <= total).
//  PricePerHour   – price in whole currency units per hour (>= 0).
//  Amenities      – optional comma separated amenity list.
//  Rating         – average user rating, 0..5.
//  IsActive       – soft delete flag.
//  CreatedBy      – admin user who created the lot.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type ParkingLot struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
	PricePerHour   int64     `json:"price_per_hour"`
	Amenities      string    `json:"amenities,omitempty"`
	Rating         float64   `json:"rating"`
	IsActive       bool      `json:"is_active"`
	CreatedBy      uint64    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasAvailableSlots reports whether at least one slot is free.
func (p *ParkingLot) HasAvailableSlots() bool {
	return p.AvailableSlots > 0
}
