package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"parkspot/internal/db"
)

var (
	// ErrOverlap is returned when a write would violate the no-overlap
	// invariant for blocking bookings on a spot.
	ErrOverlap = errors.New("booking interval overlaps an existing booking")
	// ErrDuplicateCode is returned when an insert hits the unique booking
	// code constraint; the caller regenerates and retries.
	ErrDuplicateCode = errors.New("booking code already taken")
	// ErrStateChanged is returned when a guarded status transition matches
	// no row, meaning the booking moved to an incompatible status.
	ErrStateChanged = errors.New("booking is not in a compatible status")
	// ErrSpotUnavailable is returned when the booked spot is missing or
	// deactivated.
	ErrSpotUnavailable = errors.New("parking spot not found or inactive")
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

type rowQueryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// hasOverlap evaluates the half-open interval predicate
// [s1,e1) ∩ [s2,e2) ≠ ∅  ⇔  s1 < e2 AND e1 > s2
// against blocking bookings for the spot. A zero-duration interval can
// never satisfy it.
func hasOverlap(q rowQueryer, spotID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	var excludeArg interface{}
	if exclude != nil {
		excludeArg = *exclude
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE spot_id = $1
			  AND status = ANY($2)
			  AND start_time < $4
			  AND end_time > $3
			  AND ($5::uuid IS NULL OR id <> $5::uuid)
		)`
	var overlaps bool
	err := q.QueryRow(query, spotID, pq.Array(db.BlockingStatuses), start, end, excludeArg).Scan(&overlaps)
	if err != nil {
		return false, fmt.Errorf("error checking booking overlap: %w", err)
	}
	return overlaps, nil
}

// HasOverlap is the conflict predicate over current storage state. It has
// no side effects.
func (r *BookingRepository) HasOverlap(spotID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	return hasOverlap(r.DB, spotID, start, end, exclude)
}

// lockSpot serializes conflicting writers on the spot row so the
// check-then-act between overlap test and write cannot race.
func lockSpot(tx *sql.Tx, spotID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(`SELECT id FROM parking_spots WHERE id = $1 AND is_active FOR UPDATE`, spotID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSpotUnavailable
		}
		return fmt.Errorf("error locking parking spot: %w", err)
	}
	return nil
}

// CreateIfFree inserts the booking unless a blocking booking overlaps its
// interval. The overlap check and the insert run under one transaction
// holding the spot row lock.
func (r *BookingRepository) CreateIfFree(booking *db.Booking) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning booking transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockSpot(tx, booking.SpotID); err != nil {
		return err
	}

	overlaps, err := hasOverlap(tx, booking.SpotID, booking.StartTime, booking.EndTime, nil)
	if err != nil {
		return err
	}
	if overlaps {
		return ErrOverlap
	}

	query := `
		INSERT INTO bookings
		(id, code, user_id, spot_id, start_time, end_time, duration_hours, total_price,
		 status, payment_intent_id, stripe_session_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = tx.Exec(query,
		booking.ID, booking.Code, booking.UserID, booking.SpotID,
		booking.StartTime, booking.EndTime, booking.DurationHours, booking.TotalPrice,
		booking.Status, booking.PaymentIntentID, booking.StripeSessionID, booking.Notes,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "code") {
			return ErrDuplicateCode
		}
		return fmt.Errorf("error inserting booking: %w", err)
	}
	return tx.Commit()
}

// ExtendIfFree moves an active booking's end time forward. Only the added
// tail [currentEnd, newEnd) is checked for overlap, excluding the booking
// itself. The update either fully applies or nothing is mutated.
func (r *BookingRepository) ExtendIfFree(bookingID, spotID uuid.UUID, currentEnd, newEnd time.Time, newDuration, newTotal float64) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning extend transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockSpot(tx, spotID); err != nil {
		return err
	}

	overlaps, err := hasOverlap(tx, spotID, currentEnd, newEnd, &bookingID)
	if err != nil {
		return err
	}
	if overlaps {
		return ErrOverlap
	}

	result, err := tx.Exec(`
		UPDATE bookings
		SET end_time = $1, duration_hours = $2, total_price = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5 AND end_time = $6`,
		newEnd, newDuration, newTotal, bookingID, db.BookingActive, currentEnd,
	)
	if err != nil {
		return fmt.Errorf("error extending booking: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStateChanged
	}
	return tx.Commit()
}

// ConfirmIfFree flips a pending booking to confirmed once payment settles.
// Pending bookings do not block, so the interval is re-checked under the
// spot lock: of two overlapping pending holds only one can ever confirm.
func (r *BookingRepository) ConfirmIfFree(bookingID uuid.UUID, paymentIntentID string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("error beginning confirm transaction: %w", err)
	}
	defer tx.Rollback()

	var spotID uuid.UUID
	var start, end time.Time
	var status string
	err = tx.QueryRow(
		`SELECT spot_id, start_time, end_time, status FROM bookings WHERE id = $1 FOR UPDATE`,
		bookingID,
	).Scan(&spotID, &start, &end, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("error loading booking for confirmation: %w", err)
	}
	if status != db.BookingPending {
		return ErrStateChanged
	}

	if err := lockSpot(tx, spotID); err != nil {
		return err
	}
	overlaps, err := hasOverlap(tx, spotID, start, end, &bookingID)
	if err != nil {
		return err
	}
	if overlaps {
		return ErrOverlap
	}

	_, err = tx.Exec(`
		UPDATE bookings SET status = $1, payment_intent_id = $2, updated_at = NOW() WHERE id = $3`,
		db.BookingConfirmed, paymentIntentID, bookingID,
	)
	if err != nil {
		return fmt.Errorf("error confirming booking: %w", err)
	}
	return tx.Commit()
}

// TransitionStatus applies a guarded status change and reports whether a
// row matched. Zero rows means the booking was not in any allowed status.
func (r *BookingRepository) TransitionStatus(id uuid.UUID, to string, allowedFrom ...string) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = ANY($3)`,
		to, id, pq.Array(allowedFrom),
	)
	if err != nil {
		return false, fmt.Errorf("error updating booking status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetStripeSession links a checkout session to a freshly created booking.
func (r *BookingRepository) SetStripeSession(id uuid.UUID, sessionID string) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET stripe_session_id = $1, updated_at = NOW() WHERE id = $2`,
		sessionID, id,
	)
	if err != nil {
		return fmt.Errorf("error setting stripe session: %w", err)
	}
	return nil
}

const bookingColumns = `id, code, user_id, spot_id, start_time, end_time, duration_hours,
		total_price, status, payment_intent_id, stripe_session_id, notes, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.Code, &b.UserID, &b.SpotID, &b.StartTime, &b.EndTime, &b.DurationHours,
		&b.TotalPrice, &b.Status, &b.PaymentIntentID, &b.StripeSessionID, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepository) GetByID(id uuid.UUID) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	booking, err := scanBooking(r.DB.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return booking, nil
}

func (r *BookingRepository) GetByStripeSessionID(sessionID string) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE stripe_session_id = $1`
	booking, err := scanBooking(r.DB.QueryRow(query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying booking by session: %w", err)
	}
	return booking, nil
}

func (r *BookingRepository) ListByUser(userID uuid.UUID, status string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return r.queryBookings(query, args...)
}

func (r *BookingRepository) ListBySpot(spotID uuid.UUID) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE spot_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(query, spotID)
}

func (r *BookingRepository) queryBookings(query string, args ...interface{}) ([]db.Booking, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating bookings: %w", err)
	}
	return bookings, nil
}

// BookedSlots returns the blocking [start,end) intervals touching the
// given window, ordered by start time.
func (r *BookingRepository) BookedSlots(spotID uuid.UUID, from, to time.Time) ([][2]time.Time, error) {
	query := `
		SELECT start_time, end_time FROM bookings
		WHERE spot_id = $1
		  AND status = ANY($2)
		  AND start_time < $4
		  AND end_time > $3
		ORDER BY start_time`
	rows, err := r.DB.Query(query, spotID, pq.Array(db.BlockingStatuses), from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying booked slots: %w", err)
	}
	defer rows.Close()

	var slots [][2]time.Time
	for rows.Next() {
		var start, end time.Time
		if err := rows.Scan(&start, &end); err != nil {
			return nil, fmt.Errorf("error scanning booked slot: %w", err)
		}
		slots = append(slots, [2]time.Time{start, end})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booked slots: %w", err)
	}
	return slots, nil
}

// OverlappingSpotIDs returns the spots occupied by any blocking booking
// overlapping the window, for exclusion during availability search.
func (r *BookingRepository) OverlappingSpotIDs(start, end time.Time) (map[uuid.UUID]struct{}, error) {
	query := `
		SELECT DISTINCT spot_id FROM bookings
		WHERE status = ANY($1)
		  AND start_time < $3
		  AND end_time > $2`
	rows, err := r.DB.Query(query, pq.Array(db.BlockingStatuses), start, end)
	if err != nil {
		return nil, fmt.Errorf("error querying overlapping spots: %w", err)
	}
	defer rows.Close()

	busy := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning overlapping spot id: %w", err)
		}
		busy[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating overlapping spots: %w", err)
	}
	return busy, nil
}

// CountActiveAt counts blocking bookings whose interval contains the
// instant, for the live available-units figure.
func (r *BookingRepository) CountActiveAt(spotID uuid.UUID, at time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE spot_id = $1
		  AND status = ANY($2)
		  AND start_time <= $3
		  AND end_time > $3`
	err := r.DB.QueryRow(query, spotID, pq.Array(db.BlockingStatuses), at).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting active bookings: %w", err)
	}
	return count, nil
}
