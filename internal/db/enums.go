package db

import "fmt"

// Booking statuses. Confirmed and active are the blocking statuses: they
// occupy a spot's capacity for conflict purposes. Pending bookings are
// unpaid holds and never block; completed, cancelled and expired are
// terminal.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingActive    = "active"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
	BookingExpired   = "expired"
)

// BlockingStatuses lists the statuses considered by the conflict checker.
var BlockingStatuses = []string{BookingConfirmed, BookingActive}

func ValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingActive,
		BookingCompleted, BookingCancelled, BookingExpired:
		return true
	}
	return false
}

// TerminalBookingStatus reports whether a booking can no longer change
// state.
func TerminalBookingStatus(s string) bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingExpired:
		return true
	}
	return false
}

// Spot types.
const (
	SpotGarage   = "garage"
	SpotLot      = "lot"
	SpotStreet   = "street"
	SpotDriveway = "driveway"
	SpotOther    = "other"
)

func ParseSpotType(s string) (string, error) {
	switch s {
	case SpotGarage, SpotLot, SpotStreet, SpotDriveway, SpotOther:
		return s, nil
	}
	return "", fmt.Errorf("unknown spot type %q", s)
}

// Availability schedules.
const (
	AvailabilityWeekdays9to5 = "weekdays_9_5"
	AvailabilityWeekends     = "weekends"
	Availability24x7         = "24_7"
	AvailabilityCustom       = "custom"
)

func ParseAvailability(s string) (string, error) {
	switch s {
	case AvailabilityWeekdays9to5, AvailabilityWeekends, Availability24x7, AvailabilityCustom:
		return s, nil
	}
	return "", fmt.Errorf("unknown availability schedule %q", s)
}
