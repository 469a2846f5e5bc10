package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/repository"
	"github.com/handymanapp/handyman-backend/internal/validation"
)

// ProviderServiceRepository описывает зависимости ProviderService от хранилища.
type ProviderServiceRepository interface {
	Create(ctx context.Context, provider *models.Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update repository.ProviderProfileUpdate) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// ProviderService инкапсулирует регистрацию и профиль исполнителя.
type ProviderService struct {
	repo         ProviderServiceRepository
	tokenManager *TokenManager
}

// NewProviderService создаёт сервис исполнителей.
func NewProviderService(repo ProviderServiceRepository, tokenManager *TokenManager) *ProviderService {
	return &ProviderService{repo: repo, tokenManager: tokenManager}
}

// RegisterProviderInput содержит данные исполнителя при регистрации.
type RegisterProviderInput struct {
	Email      string
	Password   string
	FullName   string
	Phone      string
	JobTypes   []string
	HourlyRate *float64
}

// ProviderAuthResult возвращает итог регистрации исполнителя.
type ProviderAuthResult struct {
	Provider  *models.Provider
	TokenPair *TokenPair
}

// Register создаёт исполнителя со статусом pending и выдаёт токены.
// Принимать заявки он сможет только после верификации администратором.
func (s *ProviderService) Register(ctx context.Context, in RegisterProviderInput) (*ProviderAuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateJobTypes(in.JobTypes); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateHourlyRate(in.HourlyRate); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("provider service: не удалось захешировать пароль: %w", err)
	}

	provider := &models.Provider{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(passHash),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		JobTypes:     pq.StringArray(in.JobTypes),
		HourlyRate:   in.HourlyRate,
	}

	if err := s.repo.Create(ctx, provider); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "email уже зарегистрирован")
		}
		if errors.Is(err, repository.ErrPhoneTaken) {
			return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "телефон уже зарегистрирован")
		}
		return nil, err
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(provider.ID, models.RoleProvider)
	if err != nil {
		return nil, err
	}

	return &ProviderAuthResult{Provider: provider, TokenPair: tokenPair}, nil
}

// GetProfile возвращает профиль исполнителя.
func (s *ProviderService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfileInput содержит изменяемые поля профиля исполнителя.
type UpdateProfileInput struct {
	IsAvailable *bool
	HourlyRate  *float64
	JobTypes    []string
	Latitude    *float64
	Longitude   *float64
}

// UpdateProfile обновляет профиль исполнителя и возвращает актуальное состояние.
func (s *ProviderService) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*models.Provider, error) {
	if in.JobTypes != nil {
		if err := validation.ValidateJobTypes(in.JobTypes); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if err := validation.ValidateHourlyRate(in.HourlyRate); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, apperror.New(apperror.ErrCodeValidation, "широта и долгота передаются вместе")
	}
	if in.Latitude != nil {
		if err := validation.ValidateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	if err := s.repo.UpdateProfile(ctx, id, repository.ProviderProfileUpdate{
		IsAvailable: in.IsAvailable,
		HourlyRate:  in.HourlyRate,
		JobTypes:    in.JobTypes,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// SetStatus изменяет статус исполнителя. Только для администратора.
func (s *ProviderService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Provider, error) {
	if _, ok := models.ValidProviderStatuses[status]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестный статус исполнителя: %s", status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}
