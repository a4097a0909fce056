package service

import (
	"time"

	"github.com/google/uuid"

	"parkspot/internal/db"
	"parkspot/internal/entities"
	apperrors "parkspot/internal/errors"
	"parkspot/internal/geo"
	"parkspot/internal/repository"
)

type SpotStore interface {
	Create(spot *db.ParkingSpot) error
	GetByID(id uuid.UUID) (*db.ParkingSpot, error)
	List(filters repository.SpotFilters) ([]db.ParkingSpot, error)
	Update(spot *db.ParkingSpot) (bool, error)
	Deactivate(id, ownerID uuid.UUID) (bool, error)
}

type SpotBookingReader interface {
	ListBySpot(spotID uuid.UUID) ([]db.Booking, error)
	BookedSlots(spotID uuid.UUID, from, to time.Time) ([][2]time.Time, error)
}

// SpotInput carries the owner-editable listing fields.
type SpotInput struct {
	Title        string
	Description  string
	Address      string
	Latitude     float64
	Longitude    float64
	SpotType     string
	PricePerHour float64
	TotalUnits   int
	Availability string
	Features     []string
	Instructions string
}

type SpotService struct {
	Repo     SpotStore
	Bookings SpotBookingReader
	nowFn    func() time.Time
}

func NewSpotService(repo SpotStore, bookings SpotBookingReader) *SpotService {
	return &SpotService{
		Repo:     repo,
		Bookings: bookings,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *SpotService) Create(ownerID uuid.UUID, input SpotInput) (*entities.SpotResponse, error) {
	if err := validateSpotInput(input); err != nil {
		return nil, err
	}
	now := s.nowFn()
	spot := &db.ParkingSpot{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        input.Title,
		Description:  input.Description,
		Address:      input.Address,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		SpotType:     input.SpotType,
		PricePerHour: input.PricePerHour,
		TotalUnits:   input.TotalUnits,
		Availability: input.Availability,
		Features:     input.Features,
		Instructions: input.Instructions,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(spot); err != nil {
		return nil, err
	}
	resp := toSpotResponse(spot)
	return &resp, nil
}

func (s *SpotService) Get(id uuid.UUID) (*entities.SpotDetailResponse, error) {
	spot, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if spot == nil || !spot.IsActive {
		return nil, apperrors.NotFound("parking spot not found")
	}

	now := s.nowFn()
	slots, err := s.Bookings.BookedSlots(id, now, now.Add(7*24*time.Hour))
	if err != nil {
		return nil, err
	}

	detail := &entities.SpotDetailResponse{
		SpotResponse: toSpotResponse(spot),
		Description:  spot.Description,
		Instructions: spot.Instructions,
		OwnerID:      spot.OwnerID,
		Upcoming:     toBookedSlots(slots),
		CreatedAt:    spot.CreatedAt,
	}
	return detail, nil
}

// List returns active listings with the caller's explicit filters.
func (s *SpotService) List(filters SearchFilters) (*entities.SpotsList, error) {
	repoFilters, err := toSpotFilters(filters)
	if err != nil {
		return nil, err
	}
	spots, err := s.Repo.List(repoFilters)
	if err != nil {
		return nil, err
	}
	return toSpotsList(spots), nil
}

// ListMine returns all of the owner's listings, deactivated ones
// included.
func (s *SpotService) ListMine(ownerID uuid.UUID) (*entities.SpotsList, error) {
	spots, err := s.Repo.List(repository.SpotFilters{OwnerID: &ownerID})
	if err != nil {
		return nil, err
	}
	return toSpotsList(spots), nil
}

func (s *SpotService) Update(ownerID, id uuid.UUID, input SpotInput) (*entities.SpotResponse, error) {
	if err := validateSpotInput(input); err != nil {
		return nil, err
	}
	spot, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if spot == nil || spot.OwnerID != ownerID {
		return nil, apperrors.NotFound("parking spot not found")
	}

	spot.Title = input.Title
	spot.Description = input.Description
	spot.Address = input.Address
	spot.Latitude = input.Latitude
	spot.Longitude = input.Longitude
	spot.SpotType = input.SpotType
	spot.PricePerHour = input.PricePerHour
	spot.TotalUnits = input.TotalUnits
	spot.Availability = input.Availability
	spot.Features = input.Features
	spot.Instructions = input.Instructions

	ok, err := s.Repo.Update(spot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("parking spot not found")
	}
	resp := toSpotResponse(spot)
	return &resp, nil
}

// Deactivate soft-deletes; listings are never removed so booking history
// stays intact.
func (s *SpotService) Deactivate(ownerID, id uuid.UUID) error {
	ok, err := s.Repo.Deactivate(id, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("parking spot not found")
	}
	return nil
}

// SpotBookings lists the bookings on an owned spot, newest first.
func (s *SpotService) SpotBookings(ownerID, spotID uuid.UUID) (*entities.BookingsList, error) {
	spot, err := s.Repo.GetByID(spotID)
	if err != nil {
		return nil, err
	}
	if spot == nil || spot.OwnerID != ownerID {
		return nil, apperrors.NotFound("parking spot not found")
	}
	bookings, err := s.Bookings.ListBySpot(spotID)
	if err != nil {
		return nil, err
	}
	list := &entities.BookingsList{Count: len(bookings), Bookings: []entities.BookingResponse{}}
	for i := range bookings {
		list.Bookings = append(list.Bookings, toBookingResponse(&bookings[i], spot))
	}
	return list, nil
}

// Availability lists the booked [start,end) slots of blocking bookings
// touching the given calendar day (UTC).
func (s *SpotService) Availability(spotID uuid.UUID, date string) (*entities.SpotAvailabilityResponse, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, apperrors.Validation("date must be formatted YYYY-MM-DD")
	}
	spot, err := s.Repo.GetByID(spotID)
	if err != nil {
		return nil, err
	}
	if spot == nil || !spot.IsActive {
		return nil, apperrors.NotFound("parking spot not found")
	}

	slots, err := s.Bookings.BookedSlots(spotID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &entities.SpotAvailabilityResponse{
		SpotID:      spotID,
		Date:        date,
		BookedSlots: toBookedSlots(slots),
	}, nil
}

func validateSpotInput(input SpotInput) error {
	if input.Title == "" {
		return apperrors.Validation("title is required")
	}
	if input.Address == "" {
		return apperrors.Validation("address is required")
	}
	if err := geo.ValidateCoords(input.Latitude, input.Longitude); err != nil {
		return apperrors.Validation(err.Error())
	}
	if input.PricePerHour < 0 {
		return apperrors.Validation("price_per_hour must not be negative")
	}
	if input.TotalUnits < 0 {
		return apperrors.Validation("total_units must not be negative")
	}
	if _, err := db.ParseSpotType(input.SpotType); err != nil {
		return apperrors.Validation(err.Error())
	}
	if _, err := db.ParseAvailability(input.Availability); err != nil {
		return apperrors.Validation(err.Error())
	}
	return nil
}

func toSpotResponse(spot *db.ParkingSpot) entities.SpotResponse {
	features := []string(spot.Features)
	if features == nil {
		features = []string{}
	}
	return entities.SpotResponse{
		ID:           spot.ID,
		Title:        spot.Title,
		Address:      spot.Address,
		Latitude:     spot.Latitude,
		Longitude:    spot.Longitude,
		SpotType:     spot.SpotType,
		PricePerHour: spot.PricePerHour,
		TotalUnits:   spot.TotalUnits,
		Availability: spot.Availability,
		Features:     features,
		IsActive:     spot.IsActive,
	}
}

func toSpotsList(spots []db.ParkingSpot) *entities.SpotsList {
	list := &entities.SpotsList{Count: len(spots), Spots: []entities.SpotResponse{}}
	for i := range spots {
		list.Spots = append(list.Spots, toSpotResponse(&spots[i]))
	}
	return list
}

func toBookedSlots(slots [][2]time.Time) []entities.BookedSlot {
	out := []entities.BookedSlot{}
	for _, slot := range slots {
		out = append(out, entities.BookedSlot{StartTime: slot[0], EndTime: slot[1]})
	}
	return out
}
