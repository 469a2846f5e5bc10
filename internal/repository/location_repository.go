package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/handymanapp/handyman-backend/internal/models"
)

// ErrLocationNotFound возвращается, когда адрес не найден.
var ErrLocationNotFound = errors.New("location not found")

// LocationRepository отвечает за работу с таблицей locations.
// Точка хранится в geography колонке, наружу отдаётся парой latitude/longitude.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository создаёт экземпляр репозитория.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

const locationColumns = `
	id, user_id, address, city, state, zip_code,
	ST_Y(coordinates::geometry) AS latitude,
	ST_X(coordinates::geometry) AS longitude,
	is_primary, property_type, created_at
`

// Create сохраняет новый адрес пользователя.
func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (user_id, address, city, state, zip_code, coordinates, is_primary, property_type)
		VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography, $8, $9)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		loc.UserID, loc.Address, loc.City, loc.State, loc.ZipCode,
		loc.Longitude, loc.Latitude, loc.IsPrimary, loc.PropertyType,
	).Scan(&loc.ID, &loc.CreatedAt); err != nil {
		return fmt.Errorf("location repository: create %w", err)
	}

	return nil
}

// GetByID возвращает адрес по идентификатору.
func (r *LocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var loc models.Location
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`

	if err := r.db.GetContext(ctx, &loc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("location repository: get by id %w", err)
	}

	return &loc, nil
}

// ListByUser возвращает все адреса пользователя.
func (r *LocationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE user_id = $1 ORDER BY created_at DESC`

	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query, userID); err != nil {
		return nil, fmt.Errorf("location repository: list by user %w", err)
	}

	return locations, nil
}
