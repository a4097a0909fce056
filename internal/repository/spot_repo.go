package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"parkspot/internal/db"
)

// SpotFilters enumerates the recognized listing filters. Filtering is
// explicit at every call site; there is no implicit active-only default.
type SpotFilters struct {
	ActiveOnly   bool
	OwnerID      *uuid.UUID
	MinPrice     *float64
	MaxPrice     *float64
	SpotType     string
	Availability string
	MinUnits     int
}

type SpotRepository struct {
	DB *sql.DB
}

func NewSpotRepository(database *sql.DB) *SpotRepository {
	return &SpotRepository{DB: database}
}

const spotColumns = `id, owner_id, title, description, address, latitude, longitude,
		spot_type, price_per_hour, total_units, availability, features, instructions,
		is_active, created_at, updated_at`

func scanSpot(row interface{ Scan(...interface{}) error }) (*db.ParkingSpot, error) {
	var s db.ParkingSpot
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Title, &s.Description, &s.Address, &s.Latitude, &s.Longitude,
		&s.SpotType, &s.PricePerHour, &s.TotalUnits, &s.Availability, &s.Features,
		&s.Instructions, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SpotRepository) Create(spot *db.ParkingSpot) error {
	query := `
		INSERT INTO parking_spots
		(id, owner_id, title, description, address, latitude, longitude, spot_type,
		 price_per_hour, total_units, availability, features, instructions, is_active,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.DB.Exec(query,
		spot.ID, spot.OwnerID, spot.Title, spot.Description, spot.Address,
		spot.Latitude, spot.Longitude, spot.SpotType, spot.PricePerHour,
		spot.TotalUnits, spot.Availability, spot.Features, spot.Instructions,
		spot.IsActive, spot.CreatedAt, spot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting parking spot: %w", err)
	}
	return nil
}

func (r *SpotRepository) GetByID(id uuid.UUID) (*db.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE id = $1`
	spot, err := scanSpot(r.DB.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying parking spot: %w", err)
	}
	return spot, nil
}

func (r *SpotRepository) List(filters SpotFilters) ([]db.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters.ActiveOnly {
		query += " AND is_active"
	}
	if filters.OwnerID != nil {
		query += " AND owner_id = $" + strconv.Itoa(idx)
		args = append(args, *filters.OwnerID)
		idx++
	}
	if filters.MinPrice != nil {
		query += " AND price_per_hour >= $" + strconv.Itoa(idx)
		args = append(args, *filters.MinPrice)
		idx++
	}
	if filters.MaxPrice != nil {
		query += " AND price_per_hour <= $" + strconv.Itoa(idx)
		args = append(args, *filters.MaxPrice)
		idx++
	}
	if filters.SpotType != "" {
		query += " AND spot_type = $" + strconv.Itoa(idx)
		args = append(args, filters.SpotType)
		idx++
	}
	if filters.Availability != "" {
		query += " AND availability = $" + strconv.Itoa(idx)
		args = append(args, filters.Availability)
		idx++
	}
	if filters.MinUnits > 0 {
		query += " AND total_units >= $" + strconv.Itoa(idx)
		args = append(args, filters.MinUnits)
		idx++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing parking spots: %w", err)
	}
	defer rows.Close()

	var spots []db.ParkingSpot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning parking spot: %w", err)
		}
		spots = append(spots, *spot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating parking spots: %w", err)
	}
	return spots, nil
}

// Update rewrites the mutable listing fields. Ownership is enforced in
// the WHERE clause; zero rows means the spot is missing or foreign.
func (r *SpotRepository) Update(spot *db.ParkingSpot) (bool, error) {
	query := `
		UPDATE parking_spots
		SET title = $1, description = $2, address = $3, latitude = $4, longitude = $5,
		    spot_type = $6, price_per_hour = $7, total_units = $8, availability = $9,
		    features = $10, instructions = $11, updated_at = NOW()
		WHERE id = $12 AND owner_id = $13`
	result, err := r.DB.Exec(query,
		spot.Title, spot.Description, spot.Address, spot.Latitude, spot.Longitude,
		spot.SpotType, spot.PricePerHour, spot.TotalUnits, spot.Availability,
		spot.Features, spot.Instructions, spot.ID, spot.OwnerID,
	)
	if err != nil {
		return false, fmt.Errorf("error updating parking spot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Deactivate soft-deletes a listing. Spots are never hard-deleted.
func (r *SpotRepository) Deactivate(id, ownerID uuid.UUID) (bool, error) {
	result, err := r.DB.Exec(
		`UPDATE parking_spots SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("error deactivating parking spot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
