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

var (
	// ErrJobNotFound возвращается, когда заявка не найдена.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobExpired возвращается при попытке принять истёкшую заявку.
	ErrJobExpired = errors.New("job expired")
	// ErrJobStatusConflict возвращается, когда условный переход статуса не сработал.
	ErrJobStatusConflict = errors.New("job status conflict")
	// ErrAssignmentExists возвращается, когда заявку уже принял другой исполнитель.
	ErrAssignmentExists = errors.New("assignment already exists")
	// ErrAssignmentNotFound возвращается, когда назначение не найдено.
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// JobRepository отвечает за работу с таблицами jobs, job_images и job_assignments.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository создаёт экземпляр репозитория.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `
	j.id, j.user_id, j.location_id, j.job_type, j.title, j.description, j.status,
	j.severity, j.estimated_price, j.final_price, j.surge_multiplier,
	j.estimated_square_footage, j.ai_confidence, j.extra_data, j.expires_at,
	j.created_at, j.updated_at
`

// Create сохраняет новую заявку.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (
			user_id, location_id, job_type, title, description, status, severity,
			estimated_price, final_price, surge_multiplier,
			estimated_square_footage, ai_confidence, extra_data, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		job.UserID, job.LocationID, job.JobType, job.Title, job.Description,
		job.Status, job.Severity, job.EstimatedPrice, job.FinalPrice,
		job.SurgeMultiplier, job.EstimatedSqFt, job.AIConfidence,
		job.ExtraData, job.ExpiresAt,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return fmt.Errorf("job repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	query := `SELECT ` + jobColumns + ` FROM jobs j WHERE j.id = $1`

	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id %w", err)
	}

	return &job, nil
}

// JobListFilter задаёт фильтры списка заявок пользователя.
type JobListFilter struct {
	Status  string
	JobType string
	Limit   int
	Offset  int
}

// ListByUser возвращает заявки пользователя с фильтрами и пагинацией.
func (r *JobRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter JobListFilter) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs j WHERE j.user_id = $1`
	args := []interface{}{userID}
	argIndex := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND j.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.JobType != "" {
		query += fmt.Sprintf(" AND j.job_type = $%d", argIndex)
		args = append(args, filter.JobType)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY j.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("job repository: list by user %w", err)
	}

	return jobs, nil
}

// JobSearchParams задаёт параметры геопоиска заявок.
type JobSearchParams struct {
	Latitude  float64
	Longitude float64
	RadiusKM  float64
	JobType   string
	JobTypes  []string
	Limit     int
}

// SearchNearby возвращает открытые неистёкшие заявки в радиусе от точки,
// отсортированные по расстоянию. Расстояние считается по geography, в километрах.
func (r *JobRepository) SearchNearby(ctx context.Context, params JobSearchParams) ([]models.JobSearchResult, error) {
	query := `
		SELECT ` + jobColumns + `,
			ST_Distance(l.coordinates, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000 AS distance_km
		FROM jobs j
		JOIN locations l ON l.id = j.location_id
		WHERE j.status = 'pending'
		  AND (j.expires_at IS NULL OR j.expires_at > NOW())
		  AND ST_DWithin(l.coordinates, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
	`
	args := []interface{}{params.Longitude, params.Latitude, params.RadiusKM * 1000}
	argIndex := 4

	if params.JobType != "" {
		query += fmt.Sprintf(" AND j.job_type = $%d", argIndex)
		args = append(args, params.JobType)
		argIndex++
	}
	if len(params.JobTypes) > 0 {
		query += fmt.Sprintf(" AND j.job_type = ANY($%d)", argIndex)
		args = append(args, pq.Array(params.JobTypes))
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY distance_km LIMIT $%d", argIndex)
	args = append(args, params.Limit)

	var results []models.JobSearchResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("job repository: search nearby %w", err)
	}

	return results, nil
}

// UpdateDetails обновляет заголовок и описание открытой заявки.
func (r *JobRepository) UpdateDetails(ctx context.Context, id uuid.UUID, title string, description *string) (*models.Job, error) {
	query := `
		UPDATE jobs j
		SET title = $1, description = $2, updated_at = NOW()
		WHERE j.id = $3 AND j.status = 'pending'
		RETURNING ` + jobColumns + `
	`

	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, title, description, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobStatusConflict
		}
		return nil, fmt.Errorf("job repository: update details %w", err)
	}

	return &job, nil
}

// Cancel переводит заявку в cancelled, если она ещё в pending или assigned.
func (r *JobRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'assigned')
	`, id)
	if err != nil {
		return fmt.Errorf("job repository: cancel %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: cancel rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrJobStatusConflict
	}

	return nil
}

// Accept атомарно назначает заявку исполнителю: условный перевод pending -> assigned
// и вставка назначения выполняются в одной транзакции. Уникальный индекс по job_id
// гарантирует, что из двух конкурентных попыток пройдёт ровно одна.
func (r *JobRepository) Accept(ctx context.Context, jobID, providerID uuid.UUID) (assignment *models.JobAssignment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("job repository: accept begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'assigned', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND (expires_at IS NULL OR expires_at > NOW())
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("job repository: accept update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("job repository: accept rows affected %w", err)
	}
	if rowsAffected == 0 {
		return nil, r.classifyAcceptFailure(ctx, jobID)
	}

	assignment = &models.JobAssignment{JobID: jobID, ProviderID: providerID}
	if err = tx.QueryRowxContext(ctx, `
		INSERT INTO job_assignments (job_id, provider_id)
		VALUES ($1, $2)
		RETURNING id, assigned_at
	`, jobID, providerID).Scan(&assignment.ID, &assignment.AssignedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAssignmentExists
		}
		return nil, fmt.Errorf("job repository: accept insert assignment %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("job repository: accept commit %w", err)
	}

	return assignment, nil
}

// classifyAcceptFailure выясняет, почему условный перевод в assigned не сработал.
func (r *JobRepository) classifyAcceptFailure(ctx context.Context, jobID uuid.UUID) error {
	var status string
	var expired bool
	err := r.db.QueryRowxContext(ctx, `
		SELECT status, expires_at IS NOT NULL AND expires_at <= NOW()
		FROM jobs WHERE id = $1
	`, jobID).Scan(&status, &expired)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("job repository: classify accept failure %w", err)
	}

	if status == models.JobStatusPending && expired {
		return ErrJobExpired
	}
	switch status {
	case models.JobStatusExpired:
		return ErrJobExpired
	case models.JobStatusAssigned, models.JobStatusInProgress:
		return ErrAssignmentExists
	default:
		return ErrJobStatusConflict
	}
}

// GetAssignmentByJobID возвращает назначение по заявке.
func (r *JobRepository) GetAssignmentByJobID(ctx context.Context, jobID uuid.UUID) (*models.JobAssignment, error) {
	var assignment models.JobAssignment
	query := `
		SELECT id, job_id, provider_id, assigned_at, started_at, completed_at, final_price, rating, review
		FROM job_assignments
		WHERE job_id = $1
	`

	if err := r.db.GetContext(ctx, &assignment, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("job repository: get assignment by job id %w", err)
	}

	return &assignment, nil
}

// ListAssignmentsByProvider возвращает назначения исполнителя.
func (r *JobRepository) ListAssignmentsByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]models.JobAssignment, error) {
	query := `
		SELECT id, job_id, provider_id, assigned_at, started_at, completed_at, final_price, rating, review
		FROM job_assignments
		WHERE provider_id = $1
		ORDER BY assigned_at DESC
		LIMIT $2 OFFSET $3
	`

	var assignments []models.JobAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, providerID, limit, offset); err != nil {
		return nil, fmt.Errorf("job repository: list assignments by provider %w", err)
	}

	return assignments, nil
}

// StartWork переводит назначенную заявку в in_progress и фиксирует started_at.
func (r *JobRepository) StartWork(ctx context.Context, jobID, providerID uuid.UUID) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("job repository: start work begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'in_progress', updated_at = NOW()
		WHERE id = $1 AND status = 'assigned'
	`, jobID)
	if err != nil {
		return fmt.Errorf("job repository: start work update job %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: start work rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrJobStatusConflict
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE job_assignments
		SET started_at = NOW()
		WHERE job_id = $1 AND provider_id = $2
	`, jobID, providerID)
	if err != nil {
		return fmt.Errorf("job repository: start work update assignment %w", err)
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: start work assignment rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrAssignmentNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("job repository: start work commit %w", err)
	}

	return nil
}

// Complete завершает работу: фиксирует completed_at, цену и оценку в назначении,
// переводит заявку в completed и обновляет агрегаты исполнителя.
func (r *JobRepository) Complete(ctx context.Context, jobID, providerID uuid.UUID, rating *int, review *string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("job repository: complete begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`, jobID)
	if err != nil {
		return fmt.Errorf("job repository: complete update job %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: complete rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrJobStatusConflict
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE job_assignments
		SET completed_at = NOW(),
			rating = $3,
			review = $4,
			final_price = (SELECT final_price FROM jobs WHERE id = $1)
		WHERE job_id = $1 AND provider_id = $2
	`, jobID, providerID, rating, review)
	if err != nil {
		return fmt.Errorf("job repository: complete update assignment %w", err)
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: complete assignment rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrAssignmentNotFound
	}

	// Пересчитываем агрегаты исполнителя по всем его оценённым назначениям.
	if _, err = tx.ExecContext(ctx, `
		UPDATE providers
		SET completed_jobs = completed_jobs + 1,
			rating = COALESCE((
				SELECT AVG(rating)::numeric(3,2)
				FROM job_assignments
				WHERE provider_id = $1 AND rating IS NOT NULL
			), rating),
			updated_at = NOW()
		WHERE id = $1
	`, providerID); err != nil {
		return fmt.Errorf("job repository: complete update provider stats %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("job repository: complete commit %w", err)
	}

	return nil
}

// ExpirePending переводит все просроченные открытые заявки в expired.
// Операция идемпотентна: повторный вызов не трогает уже истёкшие заявки.
func (r *JobRepository) ExpirePending(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("job repository: expire pending %w", err)
	}

	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("job repository: expire pending rows affected %w", err)
	}

	return expired, nil
}

// CreateImage сохраняет запись о фотографии заявки.
func (r *JobRepository) CreateImage(ctx context.Context, image *models.JobImage) error {
	query := `
		INSERT INTO job_images (job_id, image_url, image_type, analysis_results)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		image.JobID, image.ImageURL, image.ImageType, image.AnalysisResults,
	).Scan(&image.ID, &image.CreatedAt); err != nil {
		return fmt.Errorf("job repository: create image %w", err)
	}

	return nil
}

// ListImages возвращает фотографии заявки.
func (r *JobRepository) ListImages(ctx context.Context, jobID uuid.UUID) ([]models.JobImage, error) {
	query := `
		SELECT id, job_id, image_url, image_type, analysis_results, created_at
		FROM job_images
		WHERE job_id = $1
		ORDER BY created_at
	`

	var images []models.JobImage
	if err := r.db.SelectContext(ctx, &images, query, jobID); err != nil {
		return nil, fmt.Errorf("job repository: list images %w", err)
	}

	return images, nil
}
