// Package memory provides in-memory implementations of the service
// store interfaces.  They back the standalone demo mode, where the
// server runs without MySQL, and double as fixtures in tests.  Each
// store guards its maps with a mutex; the transition guards mirror
// the conditional UPDATEs of the MySQL repositories.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parkease/parkease/internal/model"
	"github.com/parkease/parkease/internal/service"
)

// LotStore is the in-memory LotStore.
type LotStore struct {
	mu     sync.Mutex
	nextID uint64
	lots   map[uint64]*model.ParkingLot
}

// NewLotStore returns an empty in-memory lot store.
func NewLotStore() *LotStore {
	return &LotStore{nextID: 1, lots: make(map[uint64]*model.ParkingLot)}
}

func (s *LotStore) Create(_ context.Context, lot *model.ParkingLot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	lot.ID = s.nextID
	s.nextID++
	lot.CreatedAt = now
	lot.UpdatedAt = now
	cp := *lot
	s.lots[lot.ID] = &cp
	return nil
}

func (s *LotStore) GetByID(_ context.Context, id uint64) (*model.ParkingLot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return nil, fmt.Errorf("%w: parking lot not found", service.ErrNotFound)
	}
	cp := *lot
	return &cp, nil
}

func (s *LotStore) List(_ context.Context, search string, page, limit int) ([]model.ParkingLot, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []model.ParkingLot{}
	needle := strings.ToLower(search)
	for _, lot := range s.lots {
		if !lot.IsActive {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(lot.Name), needle) &&
			!strings.Contains(strings.ToLower(lot.Address), needle) {
			continue
		}
		matched = append(matched, *lot)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *LotStore) Nearby(_ context.Context, lat, lon, radiusKM float64, limit int) ([]model.ParkingLot, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if radiusKM <= 0 {
		radiusKM = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	type withDist struct {
		lot  model.ParkingLot
		dist float64
	}
	matched := []withDist{}
	for _, lot := range s.lots {
		if !lot.IsActive {
			continue
		}
		d := haversineKM(lat, lon, lot.Lat, lot.Lon)
		if d <= radiusKM {
			matched = append(matched, withDist{lot: *lot, dist: d})
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].dist < matched[j].dist })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]model.ParkingLot, 0, len(matched))
	for _, m := range matched {
		out = append(out, m.lot)
	}
	return out, nil
}

func (s *LotStore) Update(_ context.Context, lot *model.ParkingLot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.lots[lot.ID]
	if !ok {
		return fmt.Errorf("%w: parking lot not found", service.ErrNotFound)
	}
	cur.Name = lot.Name
	cur.Address = lot.Address
	cur.Lat = lot.Lat
	cur.Lon = lot.Lon
	cur.TotalSlots = lot.TotalSlots
	if cur.AvailableSlots > cur.TotalSlots {
		cur.AvailableSlots = cur.TotalSlots
	}
	cur.PricePerHour = lot.PricePerHour
	cur.Amenities = lot.Amenities
	cur.Rating = lot.Rating
	cur.IsActive = lot.IsActive
	cur.UpdatedAt = time.Now().UTC()
	*lot = *cur
	return nil
}

func (s *LotStore) Deactivate(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return fmt.Errorf("%w: parking lot not found", service.ErrNotFound)
	}
	if !lot.IsActive {
		return fmt.Errorf("%w: parking lot is already inactive", service.ErrConflict)
	}
	lot.IsActive = false
	lot.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *LotStore) ReserveSlot(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok || !lot.IsActive || lot.AvailableSlots <= 0 {
		return fmt.Errorf("%w: no available slots", service.ErrInvalidState)
	}
	lot.AvailableSlots--
	lot.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *LotStore) ReleaseSlot(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return fmt.Errorf("%w: parking lot not found", service.ErrNotFound)
	}
	if lot.AvailableSlots < lot.TotalSlots {
		lot.AvailableSlots++
	}
	lot.UpdatedAt = time.Now().UTC()
	return nil
}

// haversineKM returns the great-circle distance between two
// coordinates in kilometres.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
