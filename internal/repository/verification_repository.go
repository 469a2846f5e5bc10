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

// ErrVerificationNotFound возвращается, когда документ верификации не найден.
var ErrVerificationNotFound = errors.New("verification not found")

// VerificationRepository отвечает за работу с таблицей provider_verifications.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository создаёт экземпляр репозитория.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Create сохраняет загруженный документ верификации.
func (r *VerificationRepository) Create(ctx context.Context, v *models.ProviderVerification) error {
	query := `
		INSERT INTO provider_verifications (provider_id, document_type, document_url, extracted_data)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_verified, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		v.ProviderID, v.DocumentType, v.DocumentURL, v.ExtractedData,
	).Scan(&v.ID, &v.IsVerified, &v.CreatedAt); err != nil {
		return fmt.Errorf("verification repository: create %w", err)
	}

	return nil
}

// GetByID возвращает документ по идентификатору.
func (r *VerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProviderVerification, error) {
	var v models.ProviderVerification
	query := `
		SELECT id, provider_id, document_type, document_url, extracted_data, is_verified, verified_at, verified_by, created_at
		FROM provider_verifications
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, &v, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("verification repository: get by id %w", err)
	}

	return &v, nil
}

// ListByProvider возвращает все документы исполнителя.
func (r *VerificationRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.ProviderVerification, error) {
	query := `
		SELECT id, provider_id, document_type, document_url, extracted_data, is_verified, verified_at, verified_by, created_at
		FROM provider_verifications
		WHERE provider_id = $1
		ORDER BY created_at DESC
	`

	var docs []models.ProviderVerification
	if err := r.db.SelectContext(ctx, &docs, query, providerID); err != nil {
		return nil, fmt.Errorf("verification repository: list by provider %w", err)
	}

	return docs, nil
}

// Approve отмечает документ проверенным указанным администратором.
func (r *VerificationRepository) Approve(ctx context.Context, id, verifiedBy uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE provider_verifications
		SET is_verified = TRUE, verified_at = NOW(), verified_by = $2
		WHERE id = $1
	`, id, verifiedBy)
	if err != nil {
		return fmt.Errorf("verification repository: approve %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verification repository: approve rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrVerificationNotFound
	}

	return nil
}
