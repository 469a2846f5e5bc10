package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/handymanapp/handyman-backend/internal/models"
)

// ErrProviderNotFound возвращается, когда запись исполнителя не найдена.
var ErrProviderNotFound = errors.New("provider not found")

// ProviderRepository отвечает за работу с таблицей providers.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository создаёт экземпляр репозитория.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

const providerColumns = `
	id, email, hashed_password, full_name, phone, status, job_types,
	hourly_rate, rating, completed_jobs, is_available, is_active,
	ST_Y(current_location::geometry) AS latitude,
	ST_X(current_location::geometry) AS longitude,
	created_at, updated_at
`

// Create создаёт нового исполнителя со статусом pending.
func (r *ProviderRepository) Create(ctx context.Context, provider *models.Provider) error {
	query := `
		INSERT INTO providers (email, hashed_password, full_name, phone, status, job_types, hourly_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, rating, completed_jobs, is_available, is_active, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		provider.Email, provider.PasswordHash, provider.FullName, provider.Phone,
		models.ProviderStatusPending, pq.Array([]string(provider.JobTypes)), provider.HourlyRate,
	).Scan(
		&provider.ID, &provider.Rating, &provider.CompletedJobs,
		&provider.IsAvailable, &provider.IsActive, &provider.CreatedAt, &provider.UpdatedAt,
	); err != nil {
		if isUniqueViolationOn(err, "providers_phone_key") {
			return ErrPhoneTaken
		}
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("provider repository: create %w", err)
	}
	provider.Status = models.ProviderStatusPending

	return nil
}

// GetByEmail возвращает исполнителя по email.
func (r *ProviderRepository) GetByEmail(ctx context.Context, email string) (*models.Provider, error) {
	var provider models.Provider
	query := `SELECT ` + providerColumns + ` FROM providers WHERE email = $1`

	if err := r.db.GetContext(ctx, &provider, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("provider repository: get by email %w", err)
	}

	return &provider, nil
}

// GetByID возвращает исполнителя по идентификатору.
func (r *ProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	if err := r.db.GetContext(ctx, &provider, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("provider repository: get by id %w", err)
	}

	return &provider, nil
}

// ProviderProfileUpdate содержит изменяемые поля профиля исполнителя.
type ProviderProfileUpdate struct {
	IsAvailable *bool
	HourlyRate  *float64
	JobTypes    []string
	Latitude    *float64
	Longitude   *float64
}

// UpdateProfile обновляет переданные поля профиля исполнителя.
func (r *ProviderRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProviderProfileUpdate) error {
	setClause := ""
	args := []interface{}{}
	argIndex := 1

	addSet := func(expr string, value interface{}) {
		if setClause != "" {
			setClause += ", "
		}
		setClause += fmt.Sprintf(expr, argIndex)
		args = append(args, value)
		argIndex++
	}

	if update.IsAvailable != nil {
		addSet("is_available = $%d", *update.IsAvailable)
	}
	if update.HourlyRate != nil {
		addSet("hourly_rate = $%d", *update.HourlyRate)
	}
	if update.JobTypes != nil {
		addSet("job_types = $%d", pq.Array(update.JobTypes))
	}
	if update.Latitude != nil && update.Longitude != nil {
		if setClause != "" {
			setClause += ", "
		}
		setClause += fmt.Sprintf("current_location = ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography", argIndex, argIndex+1)
		args = append(args, *update.Longitude, *update.Latitude)
		argIndex += 2
	}

	if setClause == "" {
		return nil
	}

	query := fmt.Sprintf(`UPDATE providers SET %s, updated_at = NOW() WHERE id = $%d`, setClause, argIndex)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("provider repository: update profile %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("provider repository: update profile rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrProviderNotFound
	}

	return nil
}

// UpdateStatus изменяет статус исполнителя (админская операция).
func (r *ProviderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE providers SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("provider repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("provider repository: update status rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrProviderNotFound
	}

	return nil
}

// CountAvailableNearby возвращает количество допущенных исполнителей нужного
// типа работ в радиусе radiusKM от точки. Используется для расчёта surge.
func (r *ProviderRepository) CountAvailableNearby(ctx context.Context, lat, lon, radiusKM float64, jobType string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM providers
		WHERE status = 'verified'
		  AND is_available = TRUE
		  AND is_active = TRUE
		  AND $1 = ANY(job_types)
		  AND current_location IS NOT NULL
		  AND ST_DWithin(current_location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, jobType, lon, lat, radiusKM*1000); err != nil {
		return 0, fmt.Errorf("provider repository: count available nearby %w", err)
	}

	return count, nil
}

// FindAvailableNearby возвращает допущенных исполнителей нужного типа работ
// в радиусе radiusKM от точки, отсортированных по расстоянию.
func (r *ProviderRepository) FindAvailableNearby(ctx context.Context, lat, lon, radiusKM float64, jobType string) ([]models.ProviderSearchResult, error) {
	query := `
		SELECT ` + providerColumns + `,
			ST_Distance(current_location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography) / 1000 AS distance_km
		FROM providers
		WHERE status = 'verified'
		  AND is_available = TRUE
		  AND is_active = TRUE
		  AND $1 = ANY(job_types)
		  AND current_location IS NOT NULL
		  AND ST_DWithin(current_location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
		ORDER BY distance_km
	`

	var providers []models.ProviderSearchResult
	if err := r.db.SelectContext(ctx, &providers, query, jobType, lon, lat, radiusKM*1000); err != nil {
		return nil, fmt.Errorf("provider repository: find available nearby %w", err)
	}

	return providers, nil
}
