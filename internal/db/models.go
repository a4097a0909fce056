package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ParkingSpot struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Title        string
	Description  string
	Address      string
	Latitude     float64
	Longitude    float64
	SpotType     string
	PricePerHour float64
	TotalUnits   int
	Availability string
	Features     pq.StringArray
	Instructions string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Booking struct {
	ID              uuid.UUID
	Code            string
	UserID          uuid.UUID
	SpotID          uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	DurationHours   float64
	TotalPrice      float64
	Status          string
	PaymentIntentID string
	StripeSessionID string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
