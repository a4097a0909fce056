package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"parkspot/internal/db"
)

type JobStore interface {
	ActiveBookingIDsPastEndTime() ([]uuid.UUID, error)
	ConfirmedBookingIDsPastStart(grace time.Duration) ([]uuid.UUID, error)
	PendingBookingIDsOlderThan(before time.Time) ([]uuid.UUID, error)
	UpdateBookingStatuses(ids []uuid.UUID, newStatus string) (int64, error)
}

type JobService struct {
	Repo  JobStore
	nowFn func() time.Time
}

func NewJobService(repo JobStore) *JobService {
	return &JobService{
		Repo:  repo,
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// CompleteFinishedBookings moves active bookings past their end time to
// completed.
func (s *JobService) CompleteFinishedBookings() error {
	ids, err := s.Repo.ActiveBookingIDsPastEndTime()
	if err != nil {
		return fmt.Errorf("cron job: failed to get active bookings past end time: %w", err)
	}
	return s.sweep(ids, db.BookingCompleted)
}

// ExpireUnusedBookings moves confirmed bookings never activated within
// the grace window after their start time to expired.
func (s *JobService) ExpireUnusedBookings(grace time.Duration) error {
	ids, err := s.Repo.ConfirmedBookingIDsPastStart(grace)
	if err != nil {
		return fmt.Errorf("cron job: failed to get confirmed bookings past start time: %w", err)
	}
	return s.sweep(ids, db.BookingExpired)
}

// CancelStalePendingBookings moves unpaid holds older than ttl to
// cancelled. Bookings are never deleted, so the code and history survive
// the sweep.
func (s *JobService) CancelStalePendingBookings(ttl time.Duration) error {
	ids, err := s.Repo.PendingBookingIDsOlderThan(s.nowFn().Add(-ttl))
	if err != nil {
		return fmt.Errorf("cron job: failed to get stale pending bookings: %w", err)
	}
	return s.sweep(ids, db.BookingCancelled)
}

func (s *JobService) sweep(ids []uuid.UUID, newStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	log.Printf("Cron Job: marking %d bookings as '%s'", len(ids), newStatus)
	n, err := s.Repo.UpdateBookingStatuses(ids, newStatus)
	if err != nil {
		return fmt.Errorf("cron job: failed to update booking statuses: %w", err)
	}
	log.Printf("Cron Job: updated %d bookings to '%s'", n, newStatus)
	return nil
}
