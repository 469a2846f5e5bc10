package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/validation"
)

// LocationServiceRepository описывает зависимости LocationService от хранилища.
type LocationServiceRepository interface {
	Create(ctx context.Context, loc *models.Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Location, error)
}

// LocationService инкапсулирует работу с адресами пользователей.
type LocationService struct {
	repo LocationServiceRepository
}

// NewLocationService создаёт сервис адресов.
func NewLocationService(repo LocationServiceRepository) *LocationService {
	return &LocationService{repo: repo}
}

// CreateLocationInput содержит данные нового адреса.
type CreateLocationInput struct {
	Address      string
	City         string
	State        string
	ZipCode      string
	Latitude     float64
	Longitude    float64
	IsPrimary    bool
	PropertyType *string
}

// Create сохраняет адрес пользователя.
func (s *LocationService) Create(ctx context.Context, userID uuid.UUID, in CreateLocationInput) (*models.Location, error) {
	if err := validation.ValidateAddress(in.Address, in.City, in.State, in.ZipCode); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	loc := &models.Location{
		UserID:       userID,
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		ZipCode:      strings.TrimSpace(in.ZipCode),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		IsPrimary:    in.IsPrimary,
		PropertyType: in.PropertyType,
	}

	if err := s.repo.Create(ctx, loc); err != nil {
		return nil, err
	}

	return loc, nil
}

// Get возвращает адрес пользователя. Чужие адреса недоступны.
func (s *LocationService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Location, error) {
	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loc.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return loc, nil
}

// List возвращает все адреса пользователя.
func (s *LocationService) List(ctx context.Context, userID uuid.UUID) ([]models.Location, error) {
	return s.repo.ListByUser(ctx, userID)
}
