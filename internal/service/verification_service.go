package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/validation"
)

// VerificationServiceRepository описывает зависимости сервиса верификации.
type VerificationServiceRepository interface {
	Create(ctx context.Context, v *models.ProviderVerification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProviderVerification, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.ProviderVerification, error)
	Approve(ctx context.Context, id, verifiedBy uuid.UUID) error
}

// VerificationService инкапсулирует загрузку и проверку документов исполнителя.
// Одобрение документа не меняет статус исполнителя автоматически:
// допуск выдаёт администратор отдельной операцией.
type VerificationService struct {
	repo VerificationServiceRepository
}

// NewVerificationService создаёт сервис верификации.
func NewVerificationService(repo VerificationServiceRepository) *VerificationService {
	return &VerificationService{repo: repo}
}

// SubmitDocument сохраняет загруженный документ верификации.
func (s *VerificationService) SubmitDocument(ctx context.Context, providerID uuid.UUID, documentType, documentURL string, extractedData json.RawMessage) (*models.ProviderVerification, error) {
	if err := validation.ValidateDocumentType(documentType); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if documentURL == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "документ обязателен")
	}

	v := &models.ProviderVerification{
		ProviderID:    providerID,
		DocumentType:  documentType,
		DocumentURL:   documentURL,
		ExtractedData: extractedData,
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	return v, nil
}

// ListDocuments возвращает документы исполнителя.
func (s *VerificationService) ListDocuments(ctx context.Context, providerID uuid.UUID) ([]models.ProviderVerification, error) {
	return s.repo.ListByProvider(ctx, providerID)
}

// ApproveDocument отмечает документ проверенным. Только для администратора.
func (s *VerificationService) ApproveDocument(ctx context.Context, id, adminID uuid.UUID) (*models.ProviderVerification, error) {
	if err := s.repo.Approve(ctx, id, adminID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
