package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parkspot/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// ActiveBookingIDsPastEndTime finds active bookings whose end time has
// passed; they are swept to completed.
func (r *JobRepository) ActiveBookingIDsPastEndTime() ([]uuid.UUID, error) {
	return r.queryIDs(
		`SELECT id FROM bookings WHERE status = $1 AND end_time < NOW()`,
		db.BookingActive,
	)
}

// ConfirmedBookingIDsPastStart finds confirmed bookings never activated
// within the grace window after their start time; they are swept to
// expired.
func (r *JobRepository) ConfirmedBookingIDsPastStart(grace time.Duration) ([]uuid.UUID, error) {
	return r.queryIDs(
		`SELECT id FROM bookings WHERE status = $1 AND start_time < NOW() - $2::interval`,
		db.BookingConfirmed, fmt.Sprintf("%d minutes", int(grace.Minutes())),
	)
}

// PendingBookingIDsOlderThan finds unpaid holds created before the
// cutoff; they are swept to cancelled. Bookings are never deleted, only
// status-transitioned, so codes and history stay intact.
func (r *JobRepository) PendingBookingIDsOlderThan(before time.Time) ([]uuid.UUID, error) {
	return r.queryIDs(
		`SELECT id FROM bookings WHERE status = $1 AND created_at < $2`,
		db.BookingPending, before,
	)
}

func (r *JobRepository) queryIDs(query string, args ...interface{}) ([]uuid.UUID, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying booking ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booking ids: %w", err)
	}
	return ids, nil
}

// UpdateBookingStatuses moves the given bookings to newStatus and bumps
// updated_at.
func (r *JobRepository) UpdateBookingStatuses(ids []uuid.UUID, newStatus string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.DB.Exec(
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2)`,
		newStatus, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("error updating booking statuses: %w", err)
	}
	return result.RowsAffected()
}
