package entities

import (
	"time"

	"github.com/google/uuid"
)

type SpotResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Address      string    `json:"address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	SpotType     string    `json:"spot_type"`
	PricePerHour float64   `json:"price_per_hour"`
	TotalUnits   int       `json:"total_units"`
	Availability string    `json:"availability"`
	Features     []string  `json:"features"`
	IsActive     bool      `json:"is_active"`
}

type SpotDetailResponse struct {
	SpotResponse
	Description  string       `json:"description"`
	Instructions string       `json:"instructions"`
	OwnerID      uuid.UUID    `json:"owner_id"`
	Upcoming     []BookedSlot `json:"upcoming_bookings"`
	CreatedAt    time.Time    `json:"created_at"`
}

type SpotsList struct {
	Count int            `json:"count"`
	Spots []SpotResponse `json:"spots"`
}

// SearchResult pairs a spot with its rounded distance from the search
// center.
type SearchResult struct {
	SpotResponse
	DistanceKm float64 `json:"distance"`
}

type SearchResponse struct {
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// NearbySpot reports live capacity instead of a time-window check:
// available_now is the unit count minus bookings covering the current
// instant.
type NearbySpot struct {
	SpotResponse
	DistanceKm   float64 `json:"distance"`
	AvailableNow int     `json:"available_now"`
}

type NearbyResponse struct {
	Spots []NearbySpot `json:"spots"`
}
