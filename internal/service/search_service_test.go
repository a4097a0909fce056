package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkspot/internal/db"
	apperrors "parkspot/internal/errors"
)

const (
	centerLat = 37.7749
	centerLng = -122.4194
)

// kmNorth shifts a latitude north by roughly km kilometers.
func kmNorth(lat, km float64) float64 {
	return lat + km/111.19
}

func testSpot(title string, lat, lng float64, units int) *db.ParkingSpot {
	return &db.ParkingSpot{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Title:        title,
		Address:      title + " address",
		Latitude:     lat,
		Longitude:    lng,
		SpotType:     db.SpotLot,
		PricePerHour: 10.00,
		TotalUnits:   units,
		Availability: db.Availability24x7,
		IsActive:     true,
	}
}

func searchWindow() (time.Time, time.Time) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return start, start.Add(2 * time.Hour)
}

func TestSearchOrdersByDistance(t *testing.T) {
	near := testSpot("near", kmNorth(centerLat, 0.5), centerLng, 1)
	far := testSpot("far", kmNorth(centerLat, 8), centerLng, 1)
	svc := NewSearchService(newFakeSpotStore(far, near), &fakeOccupancy{})

	start, end := searchWindow()
	resp, err := svc.Search(centerLat, centerLng, 10, start, end, SearchFilters{})
	require.NoError(t, err)

	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "near", resp.Results[0].Title)
	assert.Equal(t, "far", resp.Results[1].Title)
	assert.InDelta(t, 0.5, resp.Results[0].DistanceKm, 0.05)
	assert.InDelta(t, 8.0, resp.Results[1].DistanceKm, 0.1)
}

func TestSearchExcludesBeyondRadius(t *testing.T) {
	inside := testSpot("inside", kmNorth(centerLat, 3), centerLng, 1)
	outside := testSpot("outside", kmNorth(centerLat, 12), centerLng, 1)
	svc := NewSearchService(newFakeSpotStore(inside, outside), &fakeOccupancy{})

	start, end := searchWindow()
	resp, err := svc.Search(centerLat, centerLng, 10, start, end, SearchFilters{})
	require.NoError(t, err)

	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "inside", resp.Results[0].Title)
}

func TestSearchExcludesBookedSpots(t *testing.T) {
	free := testSpot("free", kmNorth(centerLat, 1), centerLng, 1)
	taken := testSpot("taken", kmNorth(centerLat, 2), centerLng, 1)
	occupancy := &fakeOccupancy{busy: map[uuid.UUID]struct{}{taken.ID: {}}}
	svc := NewSearchService(newFakeSpotStore(free, taken), occupancy)

	start, end := searchWindow()
	resp, err := svc.Search(centerLat, centerLng, 10, start, end, SearchFilters{})
	require.NoError(t, err)

	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "free", resp.Results[0].Title)
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	svc := NewSearchService(newFakeSpotStore(), &fakeOccupancy{})
	start, end := searchWindow()

	resp, err := svc.Search(centerLat, centerLng, 10, start, end, SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Results)
}

func TestSearchValidation(t *testing.T) {
	svc := NewSearchService(newFakeSpotStore(), &fakeOccupancy{})
	start, end := searchWindow()

	cases := []struct {
		name string
		run  func() error
	}{
		{"latitude out of range", func() error {
			_, err := svc.Search(91, centerLng, 10, start, end, SearchFilters{})
			return err
		}},
		{"longitude out of range", func() error {
			_, err := svc.Search(centerLat, -181, 10, start, end, SearchFilters{})
			return err
		}},
		{"non-positive radius", func() error {
			_, err := svc.Search(centerLat, centerLng, 0, start, end, SearchFilters{})
			return err
		}},
		{"reversed window", func() error {
			_, err := svc.Search(centerLat, centerLng, 10, end, start, SearchFilters{})
			return err
		}},
		{"zero window", func() error {
			_, err := svc.Search(centerLat, centerLng, 10, start, start, SearchFilters{})
			return err
		}},
		{"unknown spot type", func() error {
			_, err := svc.Search(centerLat, centerLng, 10, start, end, SearchFilters{SpotType: "helipad"})
			return err
		}},
		{"unknown availability", func() error {
			_, err := svc.Search(centerLat, centerLng, 10, start, end, SearchFilters{Availability: "sometimes"})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
		})
	}
}

func TestSearchAppliesPriceFilters(t *testing.T) {
	cheap := testSpot("cheap", kmNorth(centerLat, 1), centerLng, 1)
	cheap.PricePerHour = 5.00
	pricey := testSpot("pricey", kmNorth(centerLat, 2), centerLng, 1)
	pricey.PricePerHour = 25.00
	svc := NewSearchService(newFakeSpotStore(cheap, pricey), &fakeOccupancy{})

	start, end := searchWindow()
	max := 10.0
	resp, err := svc.Search(centerLat, centerLng, 10, start, end, SearchFilters{MaxPrice: &max})
	require.NoError(t, err)

	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "cheap", resp.Results[0].Title)
}

func TestNearbyReportsLiveCapacity(t *testing.T) {
	spot := testSpot("lot", kmNorth(centerLat, 1), centerLng, 5)
	occupancy := &fakeOccupancy{counts: map[uuid.UUID]int{spot.ID: 2}}
	svc := NewSearchService(newFakeSpotStore(spot), occupancy)

	resp, err := svc.Nearby(centerLat, centerLng, 5, 10)
	require.NoError(t, err)

	require.Len(t, resp.Spots, 1)
	assert.Equal(t, 3, resp.Spots[0].AvailableNow)
}

func TestNearbyCapacityNeverNegative(t *testing.T) {
	spot := testSpot("overbooked", kmNorth(centerLat, 1), centerLng, 2)
	occupancy := &fakeOccupancy{counts: map[uuid.UUID]int{spot.ID: 4}}
	svc := NewSearchService(newFakeSpotStore(spot), occupancy)

	resp, err := svc.Nearby(centerLat, centerLng, 5, 10)
	require.NoError(t, err)
	require.Len(t, resp.Spots, 1)
	assert.Equal(t, 0, resp.Spots[0].AvailableNow)
}

func TestNearbySkipsZeroUnitSpots(t *testing.T) {
	listed := testSpot("listed", kmNorth(centerLat, 1), centerLng, 2)
	empty := testSpot("empty", kmNorth(centerLat, 1), centerLng, 0)
	svc := NewSearchService(newFakeSpotStore(listed, empty), &fakeOccupancy{})

	resp, err := svc.Nearby(centerLat, centerLng, 5, 10)
	require.NoError(t, err)
	require.Len(t, resp.Spots, 1)
	assert.Equal(t, "listed", resp.Spots[0].Title)
}

func TestNearbyHonorsLimit(t *testing.T) {
	store := newFakeSpotStore(
		testSpot("a", kmNorth(centerLat, 1), centerLng, 1),
		testSpot("b", kmNorth(centerLat, 2), centerLng, 1),
		testSpot("c", kmNorth(centerLat, 3), centerLng, 1),
	)
	svc := NewSearchService(store, &fakeOccupancy{})

	resp, err := svc.Nearby(centerLat, centerLng, 5, 2)
	require.NoError(t, err)
	require.Len(t, resp.Spots, 2)
	assert.Equal(t, "a", resp.Spots[0].Title)
	assert.Equal(t, "b", resp.Spots[1].Title)
}

func TestNearbyDefaultsLimitToTen(t *testing.T) {
	store := newFakeSpotStore()
	for i := 0; i < 11; i++ {
		store.Create(testSpot(string(rune('a'+i)), kmNorth(centerLat, 0.1*float64(i+1)), centerLng, 1))
	}
	svc := NewSearchService(store, &fakeOccupancy{})

	resp, err := svc.Nearby(centerLat, centerLng, 5, 0)
	require.NoError(t, err)
	require.Len(t, resp.Spots, 10)
	// Closest first; the eleventh (farthest) spot is the one cut.
	assert.Equal(t, "a", resp.Spots[0].Title)
	for _, spot := range resp.Spots {
		assert.NotEqual(t, "k", spot.Title)
	}
}
