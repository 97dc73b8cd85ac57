package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
)

func seedLot(t *testing.T, s *LotStore, name string, lat, lon float64, total int) *model.ParkingLot {
	t.Helper()
	lot := &model.ParkingLot{
		Name:           name,
		Address:        name + " street",
		Lat:            lat,
		Lon:            lon,
		TotalSlots:     total,
		AvailableSlots: total,
		PricePerHour:   30,
		IsActive:       true,
	}
	require.NoError(t, s.Create(context.Background(), lot))
	return lot
}

func TestLotStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	seedLot(t, s, "Airport Garage", 12.95, 77.66, 100)
	seedLot(t, s, "Mall Parking", 12.97, 77.59, 40)
	inactive := seedLot(t, s, "Old Depot", 12.90, 77.60, 10)
	require.NoError(t, s.Deactivate(ctx, inactive.ID))

	t.Run("hides inactive lots", func(t *testing.T) {
		lots, total, err := s.List(ctx, "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, lots, 2)
	})

	t.Run("search matches name case-insensitively", func(t *testing.T) {
		lots, total, err := s.List(ctx, "airport", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, lots, 1)
		assert.Equal(t, "Airport Garage", lots[0].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		lots, total, err := s.List(ctx, "", 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, lots, 1)
	})
}

func TestLotStoreNearby(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	near := seedLot(t, s, "City Center", 12.9716, 77.5946, 20)
	seedLot(t, s, "Far Away", 13.30, 78.10, 20) // ~65km out

	lots, err := s.Nearby(ctx, 12.9716, 77.5946, 5, 10)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, near.ID, lots[0].ID)
}

func TestLotStoreSlotCounters(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	lot := seedLot(t, s, "Tiny Lot", 0, 0, 1)

	require.NoError(t, s.ReserveSlot(ctx, lot.ID))
	err := s.ReserveSlot(ctx, lot.ID)
	assert.ErrorIs(t, err, service.ErrInvalidState)

	require.NoError(t, s.ReleaseSlot(ctx, lot.ID))
	// release clamps at total_slots instead of failing
	require.NoError(t, s.ReleaseSlot(ctx, lot.ID))

	got, err := s.GetByID(ctx, lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSlots)
}

func TestLotStoreUpdateClampsAvailable(t *testing.T) {
	ctx := context.Background()
	s := NewLotStore()
	lot := seedLot(t, s, "Shrinking Lot", 0, 0, 10)

	lot.TotalSlots = 4
	require.NoError(t, s.Update(ctx, lot))
	assert.Equal(t, 4, lot.AvailableSlots)
}
