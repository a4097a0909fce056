package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"parkspot/internal/db"
	"parkspot/internal/entities"
	apperrors "parkspot/internal/errors"
	"parkspot/internal/repository"
)

// maxCodeAttempts bounds booking-code regeneration on unique-constraint
// collisions. The BK###-##### space is small enough that collisions are
// expected under load, so every draw is verified by the unique index.
const maxCodeAttempts = 5

type BookingStore interface {
	HasOverlap(spotID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error)
	CreateIfFree(booking *db.Booking) error
	ExtendIfFree(bookingID, spotID uuid.UUID, currentEnd, newEnd time.Time, newDuration, newTotal float64) error
	ConfirmIfFree(bookingID uuid.UUID, paymentIntentID string) error
	TransitionStatus(id uuid.UUID, to string, allowedFrom ...string) (bool, error)
	SetStripeSession(id uuid.UUID, sessionID string) error
	GetByID(id uuid.UUID) (*db.Booking, error)
	GetByStripeSessionID(sessionID string) (*db.Booking, error)
	ListByUser(userID uuid.UUID, status string) ([]db.Booking, error)
}

type SpotGetter interface {
	GetByID(id uuid.UUID) (*db.ParkingSpot, error)
}

// PaymentProvider drives the payment gateway around booking creation and
// cancellation. A nil provider leaves bookings pending with no checkout.
type PaymentProvider interface {
	CreateCheckoutSession(amountCents int64, currency, bookingCode, customerEmail string) (url, sessionID string, err error)
	RefundPayment(paymentIntentID string) error
}

// Notifier delivers booking status notifications. Implementations are
// fire-and-forget; delivery failures never fail the request.
type Notifier interface {
	BookingStatusChanged(booking *db.Booking, spot *db.ParkingSpot, user *db.User)
}

type UserGetter interface {
	GetByID(id uuid.UUID) (*db.User, error)
}

type BookingService struct {
	Repo     BookingStore
	Spots    SpotGetter
	Users    UserGetter
	Payments PaymentProvider
	Notify   Notifier
	nowFn    func() time.Time
}

func NewBookingService(repo BookingStore, spots SpotGetter, users UserGetter, payments PaymentProvider, notify Notifier) *BookingService {
	return &BookingService{
		Repo:     repo,
		Spots:    spots,
		Users:    users,
		Payments: payments,
		Notify:   notify,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// HasConflict reports whether [start,end) overlaps any blocking booking
// for the spot, excluding excludeID when set. Zero-duration intervals
// never conflict; a reversed interval is a validation error the caller
// must have rejected already.
func (s *BookingService) HasConflict(spotID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	if end.Equal(start) {
		return false, nil
	}
	if end.Before(start) {
		return false, apperrors.Validation("end_time must be after start_time")
	}
	return s.Repo.HasOverlap(spotID, start, end, excludeID)
}

// Create books [start,end) on a spot. Derived fields (code, duration,
// total price) are computed here before the record is constructed; the
// conflict check and insert run atomically in the store.
func (s *BookingService) Create(userID, spotID uuid.UUID, start, end time.Time, notes, userEmail string) (*entities.BookingResponse, error) {
	if start.IsZero() || end.IsZero() {
		return nil, apperrors.Validation("start_time and end_time are required")
	}
	if !end.After(start) {
		return nil, apperrors.Validation("end_time must be after start_time")
	}

	spot, err := s.Spots.GetByID(spotID)
	if err != nil {
		return nil, err
	}
	if spot == nil || !spot.IsActive {
		return nil, apperrors.NotFound("parking spot not found")
	}

	duration := end.Sub(start).Hours()
	total := round2(duration * spot.PricePerHour)
	now := s.nowFn()

	booking := &db.Booking{
		ID:            uuid.New(),
		UserID:        userID,
		SpotID:        spotID,
		StartTime:     start,
		EndTime:       end,
		DurationHours: duration,
		TotalPrice:    total,
		Status:        db.BookingPending,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 0; ; attempt++ {
		booking.Code = generateBookingCode()
		err = s.Repo.CreateIfFree(booking)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			if attempt+1 >= maxCodeAttempts {
				return nil, fmt.Errorf("could not allocate a unique booking code after %d attempts", maxCodeAttempts)
			}
			continue
		}
		if errors.Is(err, repository.ErrOverlap) {
			return nil, apperrors.Conflict("this time slot is already booked")
		}
		if errors.Is(err, repository.ErrSpotUnavailable) {
			return nil, apperrors.NotFound("parking spot not found")
		}
		return nil, err
	}

	resp := toBookingResponse(booking, spot)
	if s.Payments != nil {
		url, sessionID, err := s.Payments.CreateCheckoutSession(
			int64(math.Round(total*100)), "usd", booking.Code, userEmail)
		if err != nil {
			// The pending hold stays; the stale-pending sweep reclaims it.
			log.Printf("Could not create checkout session for booking %s: %v", booking.Code, err)
			return &resp, nil
		}
		if err := s.Repo.SetStripeSession(booking.ID, sessionID); err != nil {
			return nil, err
		}
		resp.CheckoutURL = url
	}
	return &resp, nil
}

// Extend pushes an active booking's end time by additionalHours. Only the
// added tail is conflict-checked, excluding the booking itself; the
// update is atomic and additive on duration and price.
func (s *BookingService) Extend(userID, bookingID uuid.UUID, additionalHours float64) (*entities.BookingResponse, error) {
	if additionalHours <= 0 {
		return nil, apperrors.Validation("hours must be positive")
	}

	booking, err := s.getOwned(userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != db.BookingActive {
		return nil, apperrors.InvalidState("can only extend active sessions")
	}

	spot, err := s.Spots.GetByID(booking.SpotID)
	if err != nil {
		return nil, err
	}
	if spot == nil {
		return nil, fmt.Errorf("spot %s missing for booking %s", booking.SpotID, booking.Code)
	}

	newEnd := booking.EndTime.Add(time.Duration(additionalHours * float64(time.Hour)))
	newDuration := booking.DurationHours + additionalHours
	newTotal := round2(booking.TotalPrice + additionalHours*spot.PricePerHour)

	err = s.Repo.ExtendIfFree(booking.ID, booking.SpotID, booking.EndTime, newEnd, newDuration, newTotal)
	if err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return nil, apperrors.Conflict("cannot extend due to conflicting bookings")
		}
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, apperrors.InvalidState("booking changed while extending, retry")
		}
		return nil, err
	}

	booking.EndTime = newEnd
	booking.DurationHours = newDuration
	booking.TotalPrice = newTotal
	resp := toBookingResponse(booking, spot)
	return &resp, nil
}

// Cancel rejects unless the booking is pending or confirmed. Cancelled is
// terminal; a second cancel is an invalid-state error.
func (s *BookingService) Cancel(userID, bookingID uuid.UUID) (*entities.BookingResponse, error) {
	booking, err := s.getOwned(userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != db.BookingPending && booking.Status != db.BookingConfirmed {
		return nil, apperrors.InvalidState("cannot cancel this booking")
	}

	ok, err := s.Repo.TransitionStatus(booking.ID, db.BookingCancelled, db.BookingPending, db.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("cannot cancel this booking")
	}
	booking.Status = db.BookingCancelled

	if booking.PaymentIntentID != "" && s.Payments != nil {
		if err := s.Payments.RefundPayment(booking.PaymentIntentID); err != nil {
			log.Printf("Refund failed for booking %s: %v", booking.Code, err)
		}
	}
	s.notify(booking)

	resp := toBookingResponse(booking, nil)
	return &resp, nil
}

// Activate starts the parking session on a confirmed booking. Allowed
// only once the booked window has begun and before it ends.
func (s *BookingService) Activate(userID, bookingID uuid.UUID) (*entities.BookingResponse, error) {
	booking, err := s.getOwned(userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != db.BookingConfirmed {
		return nil, apperrors.InvalidState("can only activate confirmed bookings")
	}
	now := s.nowFn()
	if now.Before(booking.StartTime) {
		return nil, apperrors.InvalidState("booking window has not started yet")
	}
	if !now.Before(booking.EndTime) {
		return nil, apperrors.InvalidState("booking window has already passed")
	}

	ok, err := s.Repo.TransitionStatus(booking.ID, db.BookingActive, db.BookingConfirmed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("can only activate confirmed bookings")
	}
	booking.Status = db.BookingActive

	resp := toBookingResponse(booking, nil)
	return &resp, nil
}

// ConfirmBySession settles a pending booking after the payment webhook.
// The interval is re-checked under the spot lock; if a competing hold
// confirmed first, the booking is cancelled and the payment refunded.
func (s *BookingService) ConfirmBySession(sessionID, paymentIntentID string) error {
	booking, err := s.Repo.GetByStripeSessionID(sessionID)
	if err != nil {
		return err
	}
	if booking == nil {
		return apperrors.NotFound("no booking for checkout session")
	}

	err = s.Repo.ConfirmIfFree(booking.ID, paymentIntentID)
	if errors.Is(err, repository.ErrStateChanged) {
		// Webhook redelivery: already confirmed is fine.
		current, gerr := s.Repo.GetByID(booking.ID)
		if gerr == nil && current != nil && current.Status == db.BookingConfirmed {
			return nil
		}
		return apperrors.InvalidState("booking is no longer pending")
	}
	if errors.Is(err, repository.ErrOverlap) || errors.Is(err, repository.ErrSpotUnavailable) {
		log.Printf("Booking %s lost its slot before payment settled, refunding", booking.Code)
		if _, terr := s.Repo.TransitionStatus(booking.ID, db.BookingCancelled, db.BookingPending); terr != nil {
			log.Printf("Could not cancel booking %s: %v", booking.Code, terr)
		}
		if s.Payments != nil && paymentIntentID != "" {
			if rerr := s.Payments.RefundPayment(paymentIntentID); rerr != nil {
				log.Printf("Refund failed for booking %s: %v", booking.Code, rerr)
			}
		}
		return apperrors.Conflict("slot was taken before payment settled")
	}
	if err != nil {
		return err
	}

	booking.Status = db.BookingConfirmed
	booking.PaymentIntentID = paymentIntentID
	s.notify(booking)
	return nil
}

func (s *BookingService) Get(userID, bookingID uuid.UUID) (*entities.BookingResponse, error) {
	booking, err := s.getOwned(userID, bookingID)
	if err != nil {
		return nil, err
	}
	spot, _ := s.Spots.GetByID(booking.SpotID)
	resp := toBookingResponse(booking, spot)
	return &resp, nil
}

func (s *BookingService) ListMine(userID uuid.UUID, status string) (*entities.BookingsList, error) {
	if status != "" && !db.ValidBookingStatus(status) {
		return nil, apperrors.Validation("unknown booking status")
	}
	bookings, err := s.Repo.ListByUser(userID, status)
	if err != nil {
		return nil, err
	}
	list := &entities.BookingsList{Count: len(bookings), Bookings: []entities.BookingResponse{}}
	for i := range bookings {
		list.Bookings = append(list.Bookings, toBookingResponse(&bookings[i], nil))
	}
	return list, nil
}

// getOwned scopes lookups to the requesting user; foreign bookings are
// indistinguishable from missing ones.
func (s *BookingService) getOwned(userID, bookingID uuid.UUID) (*db.Booking, error) {
	booking, err := s.Repo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.UserID != userID {
		return nil, apperrors.NotFound("booking not found")
	}
	return booking, nil
}

func (s *BookingService) notify(booking *db.Booking) {
	if s.Notify == nil {
		return
	}
	spot, err := s.Spots.GetByID(booking.SpotID)
	if err != nil || spot == nil {
		log.Printf("Could not load spot for notification on booking %s: %v", booking.Code, err)
		return
	}
	user, err := s.Users.GetByID(booking.UserID)
	if err != nil || user == nil {
		log.Printf("Could not load user for notification on booking %s: %v", booking.Code, err)
		return
	}
	s.Notify.BookingStatusChanged(booking, spot, user)
}

func generateBookingCode() string {
	return fmt.Sprintf("BK%03d-%05d", rand.Intn(900)+100, rand.Intn(90000)+10000)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func toBookingResponse(b *db.Booking, spot *db.ParkingSpot) entities.BookingResponse {
	resp := entities.BookingResponse{
		ID:            b.ID,
		Code:          b.Code,
		SpotID:        b.SpotID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		DurationHours: b.DurationHours,
		TotalPrice:    b.TotalPrice,
		Status:        b.Status,
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if spot != nil {
		resp.SpotTitle = spot.Title
		resp.SpotAddress = spot.Address
	}
	return resp
}
