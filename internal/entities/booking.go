package entities

import (
	"time"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	SpotID        uuid.UUID `json:"spot_id"`
	SpotTitle     string    `json:"spot_title,omitempty"`
	SpotAddress   string    `json:"spot_address,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
	TotalPrice    float64   `json:"total_price"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CheckoutURL   string    `json:"checkout_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BookingsList struct {
	Count    int               `json:"count"`
	Bookings []BookingResponse `json:"bookings"`
}

// BookedSlot is one occupied [start,end) interval on a spot.
type BookedSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type SpotAvailabilityResponse struct {
	SpotID      uuid.UUID    `json:"spot_id"`
	Date        string       `json:"date"`
	BookedSlots []BookedSlot `json:"booked_slots"`
}
