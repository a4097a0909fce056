package service

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"parkspot/internal/db"
	"parkspot/internal/entities"
	apperrors "parkspot/internal/errors"
	"parkspot/internal/geo"
	"parkspot/internal/repository"
)

type SpotLister interface {
	List(filters repository.SpotFilters) ([]db.ParkingSpot, error)
}

type OccupancyStore interface {
	OverlappingSpotIDs(start, end time.Time) (map[uuid.UUID]struct{}, error)
	CountActiveAt(spotID uuid.UUID, at time.Time) (int, error)
}

// SearchFilters are the recognized optional search filters.
type SearchFilters struct {
	MinPrice     *float64
	MaxPrice     *float64
	SpotType     string
	Availability string
}

type SearchService struct {
	Spots    SpotLister
	Bookings OccupancyStore
	nowFn    func() time.Time
}

func NewSearchService(spots SpotLister, bookings OccupancyStore) *SearchService {
	return &SearchService{
		Spots:    spots,
		Bookings: bookings,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Search returns active spots within radiusKm of the center that have no
// blocking booking overlapping [start,end), ordered by distance with the
// spot id as a deterministic tiebreak. An empty result is not an error.
func (s *SearchService) Search(lat, lng, radiusKm float64, start, end time.Time, filters SearchFilters) (*entities.SearchResponse, error) {
	if err := validateSearchInput(lat, lng, radiusKm); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.Validation("start_time and end_time are required")
	}
	if !end.After(start) {
		return nil, apperrors.Validation("end_time must be after start_time")
	}
	repoFilters, err := toSpotFilters(filters)
	if err != nil {
		return nil, err
	}

	spots, err := s.Spots.List(repoFilters)
	if err != nil {
		return nil, err
	}
	busy, err := s.Bookings.OverlappingSpotIDs(start, end)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		spot     db.ParkingSpot
		distance float64
	}
	var candidates []candidate
	for _, spot := range spots {
		if _, occupied := busy[spot.ID]; occupied {
			continue
		}
		d := geo.DistanceKm(lat, lng, spot.Latitude, spot.Longitude)
		if d > radiusKm {
			continue
		}
		candidates = append(candidates, candidate{spot: spot, distance: d})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].spot.ID.String() < candidates[j].spot.ID.String()
	})

	resp := &entities.SearchResponse{Results: []entities.SearchResult{}}
	for _, c := range candidates {
		resp.Results = append(resp.Results, entities.SearchResult{
			SpotResponse: toSpotResponse(&c.spot),
			DistanceKm:   geo.RoundKm(c.distance),
		})
	}
	resp.Count = len(resp.Results)
	return resp, nil
}

// Nearby skips the time window and reports live capacity instead:
// available_now = max(0, total units - blocking bookings covering now).
func (s *SearchService) Nearby(lat, lng, radiusKm float64, limit int) (*entities.NearbyResponse, error) {
	if err := validateSearchInput(lat, lng, radiusKm); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	spots, err := s.Spots.List(repository.SpotFilters{ActiveOnly: true, MinUnits: 1})
	if err != nil {
		return nil, err
	}

	type candidate struct {
		spot     db.ParkingSpot
		distance float64
	}
	var candidates []candidate
	for _, spot := range spots {
		d := geo.DistanceKm(lat, lng, spot.Latitude, spot.Longitude)
		if d > radiusKm {
			continue
		}
		candidates = append(candidates, candidate{spot: spot, distance: d})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].spot.ID.String() < candidates[j].spot.ID.String()
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	now := s.nowFn()
	resp := &entities.NearbyResponse{Spots: []entities.NearbySpot{}}
	for _, c := range candidates {
		current, err := s.Bookings.CountActiveAt(c.spot.ID, now)
		if err != nil {
			return nil, err
		}
		available := c.spot.TotalUnits - current
		if available < 0 {
			available = 0
		}
		resp.Spots = append(resp.Spots, entities.NearbySpot{
			SpotResponse: toSpotResponse(&c.spot),
			DistanceKm:   geo.RoundKm(c.distance),
			AvailableNow: available,
		})
	}
	return resp, nil
}

func validateSearchInput(lat, lng, radiusKm float64) error {
	if err := geo.ValidateCoords(lat, lng); err != nil {
		return apperrors.Validation(err.Error())
	}
	if radiusKm <= 0 {
		return apperrors.Validation("radius must be positive")
	}
	return nil
}

func toSpotFilters(f SearchFilters) (repository.SpotFilters, error) {
	filters := repository.SpotFilters{
		ActiveOnly: true,
		MinPrice:   f.MinPrice,
		MaxPrice:   f.MaxPrice,
	}
	if f.SpotType != "" {
		spotType, err := db.ParseSpotType(f.SpotType)
		if err != nil {
			return filters, apperrors.Validation(err.Error())
		}
		filters.SpotType = spotType
	}
	if f.Availability != "" {
		availability, err := db.ParseAvailability(f.Availability)
		if err != nil {
			return filters, apperrors.Validation(err.Error())
		}
		filters.Availability = availability
	}
	return filters, nil
}
