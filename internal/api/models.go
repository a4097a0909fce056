package api

import (
	"time"

	"github.com/google/uuid"
)

// Auth
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Spots
type SpotRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	SpotType     string   `json:"spot_type"`
	PricePerHour float64  `json:"price_per_hour"`
	TotalUnits   int      `json:"total_units"`
	Availability string   `json:"availability"`
	Features     []string `json:"features"`
	Instructions string   `json:"instructions"`
}

// Bookings
type CreateBookingRequest struct {
	SpotID    uuid.UUID `json:"spot_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes"`
}

type ExtendBookingRequest struct {
	Hours float64 `json:"hours"`
}
