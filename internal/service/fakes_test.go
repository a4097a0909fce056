package service

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"parkspot/internal/db"
	"parkspot/internal/repository"
)

type overlapCall struct {
	spotID     uuid.UUID
	start, end time.Time
	exclude    *uuid.UUID
}

// fakeBookingStore implements BookingStore in memory. Overlap is
// evaluated against the stored blocking bookings with the same half-open
// predicate the storage layer uses; the overlap flag forces a conflict
// regardless of contents.
type fakeBookingStore struct {
	bookings       map[uuid.UUID]*db.Booking
	overlap        bool
	overlapCalls   []overlapCall
	duplicateCodes int
	sessions       map[uuid.UUID]string
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		bookings: map[uuid.UUID]*db.Booking{},
		sessions: map[uuid.UUID]string{},
	}
}

func blockingStatus(status string) bool {
	return status == db.BookingConfirmed || status == db.BookingActive
}

func (f *fakeBookingStore) overlaps(spotID uuid.UUID, start, end time.Time, exclude *uuid.UUID) bool {
	if f.overlap {
		return true
	}
	for _, b := range f.bookings {
		if b.SpotID != spotID || !blockingStatus(b.Status) {
			continue
		}
		if exclude != nil && b.ID == *exclude {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			return true
		}
	}
	return false
}

func (f *fakeBookingStore) HasOverlap(spotID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	f.overlapCalls = append(f.overlapCalls, overlapCall{spotID: spotID, start: start, end: end, exclude: exclude})
	return f.overlaps(spotID, start, end, exclude), nil
}

func (f *fakeBookingStore) CreateIfFree(booking *db.Booking) error {
	if f.duplicateCodes > 0 {
		f.duplicateCodes--
		return repository.ErrDuplicateCode
	}
	if f.overlaps(booking.SpotID, booking.StartTime, booking.EndTime, nil) {
		return repository.ErrOverlap
	}
	stored := *booking
	f.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeBookingStore) ExtendIfFree(bookingID, spotID uuid.UUID, currentEnd, newEnd time.Time, newDuration, newTotal float64) error {
	if f.overlaps(spotID, currentEnd, newEnd, &bookingID) {
		return repository.ErrOverlap
	}
	booking, ok := f.bookings[bookingID]
	if !ok || booking.Status != db.BookingActive || !booking.EndTime.Equal(currentEnd) {
		return repository.ErrStateChanged
	}
	booking.EndTime = newEnd
	booking.DurationHours = newDuration
	booking.TotalPrice = newTotal
	return nil
}

func (f *fakeBookingStore) ConfirmIfFree(bookingID uuid.UUID, paymentIntentID string) error {
	booking, ok := f.bookings[bookingID]
	if !ok || booking.Status != db.BookingPending {
		return repository.ErrStateChanged
	}
	if f.overlaps(booking.SpotID, booking.StartTime, booking.EndTime, &bookingID) {
		return repository.ErrOverlap
	}
	booking.Status = db.BookingConfirmed
	booking.PaymentIntentID = paymentIntentID
	return nil
}

func (f *fakeBookingStore) TransitionStatus(id uuid.UUID, to string, allowedFrom ...string) (bool, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return false, nil
	}
	for _, from := range allowedFrom {
		if booking.Status == from {
			booking.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingStore) SetStripeSession(id uuid.UUID, sessionID string) error {
	f.sessions[id] = sessionID
	if booking, ok := f.bookings[id]; ok {
		booking.StripeSessionID = sessionID
	}
	return nil
}

func (f *fakeBookingStore) GetByID(id uuid.UUID) (*db.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) GetByStripeSessionID(sessionID string) (*db.Booking, error) {
	for _, booking := range f.bookings {
		if booking.StripeSessionID == sessionID {
			copied := *booking
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeBookingStore) ListByUser(userID uuid.UUID, status string) ([]db.Booking, error) {
	var out []db.Booking
	for _, booking := range f.bookings {
		if booking.UserID != userID {
			continue
		}
		if status != "" && booking.Status != status {
			continue
		}
		out = append(out, *booking)
	}
	return out, nil
}

type fakeSpotStore struct {
	spots map[uuid.UUID]*db.ParkingSpot
}

func newFakeSpotStore(spots ...*db.ParkingSpot) *fakeSpotStore {
	f := &fakeSpotStore{spots: map[uuid.UUID]*db.ParkingSpot{}}
	for _, spot := range spots {
		f.spots[spot.ID] = spot
	}
	return f
}

func (f *fakeSpotStore) Create(spot *db.ParkingSpot) error {
	stored := *spot
	f.spots[spot.ID] = &stored
	return nil
}

func (f *fakeSpotStore) GetByID(id uuid.UUID) (*db.ParkingSpot, error) {
	spot, ok := f.spots[id]
	if !ok {
		return nil, nil
	}
	copied := *spot
	return &copied, nil
}

func (f *fakeSpotStore) List(filters repository.SpotFilters) ([]db.ParkingSpot, error) {
	var out []db.ParkingSpot
	for _, spot := range f.spots {
		if filters.ActiveOnly && !spot.IsActive {
			continue
		}
		if filters.OwnerID != nil && spot.OwnerID != *filters.OwnerID {
			continue
		}
		if filters.MinPrice != nil && spot.PricePerHour < *filters.MinPrice {
			continue
		}
		if filters.MaxPrice != nil && spot.PricePerHour > *filters.MaxPrice {
			continue
		}
		if filters.SpotType != "" && spot.SpotType != filters.SpotType {
			continue
		}
		if filters.Availability != "" && spot.Availability != filters.Availability {
			continue
		}
		if filters.MinUnits > 0 && spot.TotalUnits < filters.MinUnits {
			continue
		}
		out = append(out, *spot)
	}
	return out, nil
}

func (f *fakeSpotStore) Update(spot *db.ParkingSpot) (bool, error) {
	existing, ok := f.spots[spot.ID]
	if !ok || existing.OwnerID != spot.OwnerID {
		return false, nil
	}
	stored := *spot
	f.spots[spot.ID] = &stored
	return true, nil
}

func (f *fakeSpotStore) Deactivate(id, ownerID uuid.UUID) (bool, error) {
	spot, ok := f.spots[id]
	if !ok || spot.OwnerID != ownerID {
		return false, nil
	}
	spot.IsActive = false
	return true, nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*db.User
}

func newFakeUserStore(users ...*db.User) *fakeUserStore {
	f := &fakeUserStore{users: map[uuid.UUID]*db.User{}}
	for _, user := range users {
		f.users[user.ID] = user
	}
	return f
}

func (f *fakeUserStore) Create(email, password, firstName, lastName, phone string) (*db.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return nil, repository.ErrEmailTaken
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	user := &db.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		CreatedAt:    time.Now().UTC(),
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*db.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByID(id uuid.UUID) (*db.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

type fakePayments struct {
	createdSessions int
	failCreate      bool
	refunded        []string
}

func (f *fakePayments) CreateCheckoutSession(amountCents int64, currency, bookingCode, customerEmail string) (string, string, error) {
	if f.failCreate {
		return "", "", errFakePayment
	}
	f.createdSessions++
	return "https://checkout.test/" + bookingCode, "cs_" + bookingCode, nil
}

func (f *fakePayments) RefundPayment(paymentIntentID string) error {
	f.refunded = append(f.refunded, paymentIntentID)
	return nil
}

var errFakePayment = &fakePaymentError{}

type fakePaymentError struct{}

func (*fakePaymentError) Error() string { return "payment gateway unavailable" }

// fakeOccupancy implements OccupancyStore with fixed busy spots and
// per-spot active counts.
type fakeOccupancy struct {
	busy   map[uuid.UUID]struct{}
	counts map[uuid.UUID]int
}

func (f *fakeOccupancy) OverlappingSpotIDs(start, end time.Time) (map[uuid.UUID]struct{}, error) {
	if f.busy == nil {
		return map[uuid.UUID]struct{}{}, nil
	}
	return f.busy, nil
}

func (f *fakeOccupancy) CountActiveAt(spotID uuid.UUID, at time.Time) (int, error) {
	return f.counts[spotID], nil
}

// fakeSpotBookings implements SpotBookingReader.
type fakeSpotBookings struct {
	bookings []db.Booking
	slots    [][2]time.Time
}

func (f *fakeSpotBookings) ListBySpot(spotID uuid.UUID) ([]db.Booking, error) {
	var out []db.Booking
	for _, booking := range f.bookings {
		if booking.SpotID == spotID {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (f *fakeSpotBookings) BookedSlots(spotID uuid.UUID, from, to time.Time) ([][2]time.Time, error) {
	return f.slots, nil
}
