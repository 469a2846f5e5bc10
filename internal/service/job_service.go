package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/handymanapp/handyman-backend/internal/logger"
	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/pricing"
	"github.com/handymanapp/handyman-backend/internal/repository"
	"github.com/handymanapp/handyman-backend/internal/validation"
)

// JobServiceRepository описывает зависимости JobService от хранилища заявок.
type JobServiceRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter repository.JobListFilter) ([]models.Job, error)
	SearchNearby(ctx context.Context, params repository.JobSearchParams) ([]models.JobSearchResult, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, title string, description *string) (*models.Job, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Accept(ctx context.Context, jobID, providerID uuid.UUID) (*models.JobAssignment, error)
	GetAssignmentByJobID(ctx context.Context, jobID uuid.UUID) (*models.JobAssignment, error)
	StartWork(ctx context.Context, jobID, providerID uuid.UUID) error
	Complete(ctx context.Context, jobID, providerID uuid.UUID, rating *int, review *string) error
	ExpirePending(ctx context.Context) (int64, error)
	CreateImage(ctx context.Context, image *models.JobImage) error
	ListImages(ctx context.Context, jobID uuid.UUID) ([]models.JobImage, error)
}

// JobLocationRepository описывает доступ к адресам.
type JobLocationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
}

// JobProviderRepository описывает доступ к исполнителям из JobService.
type JobProviderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	CountAvailableNearby(ctx context.Context, lat, lon, radiusKM float64, jobType string) (int, error)
	FindAvailableNearby(ctx context.Context, lat, lon, radiusKM float64, jobType string) ([]models.ProviderSearchResult, error)
}

// WeatherSource отдаёт погодные условия для расчёта цены.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*pricing.Weather, error)
}

// Notifier доставляет события субъектам через WebSocket.
type Notifier interface {
	Notify(subjectID uuid.UUID, event string, data any) error
}

// JobService инкапсулирует жизненный цикл заявок: создание с расчётом цены,
// геопоиск, назначение, выполнение и истечение.
type JobService struct {
	jobs      JobServiceRepository
	locations JobLocationRepository
	providers JobProviderRepository
	engine    *pricing.Engine
	weather   WeatherSource
	notifier  Notifier

	defaultRadiusKM float64
	jobExpiry       time.Duration
}

// NewJobService создаёт сервис заявок.
func NewJobService(
	jobs JobServiceRepository,
	locations JobLocationRepository,
	providers JobProviderRepository,
	engine *pricing.Engine,
	weather WeatherSource,
	notifier Notifier,
	defaultRadiusKM float64,
	jobExpiry time.Duration,
) *JobService {
	return &JobService{
		jobs:            jobs,
		locations:       locations,
		providers:       providers,
		engine:          engine,
		weather:         weather,
		notifier:        notifier,
		defaultRadiusKM: defaultRadiusKM,
		jobExpiry:       jobExpiry,
	}
}

// CreateJobInput содержит данные новой заявки.
type CreateJobInput struct {
	LocationID      uuid.UUID
	JobType         string
	Title           string
	Description     *string
	Severity        *string
	EstimatedPrice  *float64
	SurgeMultiplier *float64
	SquareFootage   *float64
	AIConfidence    *float64
	ExtraData       json.RawMessage
}

// CreateJob создаёт заявку. Если цена не передана, она рассчитывается движком
// ценообразования по типу работ, сложности, погоде и плотности исполнителей.
// Инвариант: final_price = estimated_price * surge_multiplier.
func (s *JobService) CreateJob(ctx context.Context, userID uuid.UUID, in CreateJobInput) (*models.Job, *pricing.Quote, error) {
	if err := validation.ValidateJobType(in.JobType); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateJobTitle(in.Title); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateJobDescription(in.Description); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateSeverity(in.Severity); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.EstimatedPrice != nil {
		if err := validation.ValidatePrice("ориентировочная цена", *in.EstimatedPrice); err != nil {
			return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.SurgeMultiplier != nil {
		if err := validation.ValidateSurgeMultiplier(*in.SurgeMultiplier); err != nil {
			return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	location, err := s.locations.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, nil, err
	}
	if location.UserID != userID {
		return nil, nil, apperror.ErrForbidden
	}

	quote := s.quote(ctx, location, in)

	estimated := quote.EstimatedPrice
	surge := quote.SurgeMultiplier
	if in.EstimatedPrice != nil {
		estimated = *in.EstimatedPrice
		surge = 1.0
		if in.SurgeMultiplier != nil {
			surge = *in.SurgeMultiplier
		}
	}
	final := math.Round(estimated*surge*100) / 100

	expiresAt := time.Now().Add(s.jobExpiry)
	job := &models.Job{
		UserID:          userID,
		LocationID:      in.LocationID,
		JobType:         in.JobType,
		Title:           in.Title,
		Description:     in.Description,
		Status:          models.JobStatusPending,
		Severity:        in.Severity,
		EstimatedPrice:  estimated,
		FinalPrice:      final,
		SurgeMultiplier: surge,
		EstimatedSqFt:   in.SquareFootage,
		AIConfidence:    in.AIConfidence,
		ExtraData:       in.ExtraData,
		ExpiresAt:       &expiresAt,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, err
	}

	s.notifyNearbyProviders(ctx, job, location)

	return job, &quote, nil
}

// quote считает разбивку цены; погода необязательна, её недоступность не
// блокирует создание заявки.
func (s *JobService) quote(ctx context.Context, location *models.Location, in CreateJobInput) pricing.Quote {
	nearby, err := s.providers.CountAvailableNearby(ctx, location.Latitude, location.Longitude, s.defaultRadiusKM, in.JobType)
	if err != nil {
		logger.Log.WithField("error", err.Error()).Warn("job service: не удалось посчитать исполнителей рядом")
		nearby = 0
	}

	var conditions *pricing.Weather
	if s.weather != nil {
		conditions, err = s.weather.Current(ctx, location.Latitude, location.Longitude)
		if err != nil {
			logger.Log.WithField("error", err.Error()).Warn("job service: погодный сервис недоступен")
			conditions = nil
		}
	}

	return s.engine.Estimate(in.JobType, in.Severity, in.SquareFootage, conditions, nearby)
}

// notifyNearbyProviders рассылает событие о новой заявке допущенным
// исполнителям поблизости. Доставка best-effort, в фоне.
func (s *JobService) notifyNearbyProviders(ctx context.Context, job *models.Job, location *models.Location) {
	if s.notifier == nil {
		return
	}

	jobCopy := *job
	lat, lon := location.Latitude, location.Longitude
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Errorf("job service: паника при рассылке о новой заявке: %v", r)
			}
		}()

		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		providers, err := s.providers.FindAvailableNearby(bgCtx, lat, lon, s.defaultRadiusKM, jobCopy.JobType)
		if err != nil {
			logger.Log.WithField("error", err.Error()).Warn("job service: не удалось найти исполнителей для рассылки")
			return
		}

		for _, p := range providers {
			if err := s.notifier.Notify(p.ID, "job.created", jobCopy); err != nil {
				logger.Log.WithField("error", err.Error()).Debug("job service: не удалось уведомить исполнителя")
			}
		}
	}()
}

// GetJob возвращает заявку, доступную актору: владельцу, назначенному
// исполнителю или администратору.
func (s *JobService) GetJob(ctx context.Context, jobID, actorID uuid.UUID, role string) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if role == models.RoleAdmin || job.UserID == actorID {
		return job, nil
	}

	if role == models.RoleProvider {
		assignment, err := s.jobs.GetAssignmentByJobID(ctx, jobID)
		if err == nil && assignment.ProviderID == actorID {
			return job, nil
		}
	}

	return nil, apperror.ErrForbidden
}

// ListJobs возвращает заявки пользователя.
func (s *JobService) ListJobs(ctx context.Context, userID uuid.UUID, filter repository.JobListFilter) ([]models.Job, error) {
	if filter.Status != "" {
		if _, ok := models.ValidJobStatuses[filter.Status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестный статус: %s", filter.Status))
		}
	}
	if filter.JobType != "" {
		if err := validation.ValidateJobType(filter.JobType); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.jobs.ListByUser(ctx, userID, filter)
}

// SearchInput задаёт параметры геопоиска открытых заявок.
type SearchInput struct {
	Latitude  float64
	Longitude float64
	RadiusKM  float64
	JobType   string
	Limit     int
}

// SearchJobs возвращает открытые заявки в радиусе от точки по возрастанию расстояния.
func (s *JobService) SearchJobs(ctx context.Context, in SearchInput) ([]models.JobSearchResult, error) {
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.RadiusKM == 0 {
		in.RadiusKM = s.defaultRadiusKM
	}
	if err := validation.ValidateRadius(in.RadiusKM); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.JobType != "" {
		if err := validation.ValidateJobType(in.JobType); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 50
	}

	return s.jobs.SearchNearby(ctx, repository.JobSearchParams{
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		RadiusKM:  in.RadiusKM,
		JobType:   in.JobType,
		Limit:     in.Limit,
	})
}

// AvailableJobsForProvider возвращает подходящие исполнителю открытые заявки
// рядом с его позицией (или с переданной точкой).
func (s *JobService) AvailableJobsForProvider(ctx context.Context, providerID uuid.UUID, lat, lon *float64, radiusKM float64) ([]models.JobSearchResult, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !provider.CanTakeJobs() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "исполнитель не допущен к приёму заявок")
	}

	searchLat, searchLon := lat, lon
	if searchLat == nil || searchLon == nil {
		searchLat, searchLon = provider.Latitude, provider.Longitude
	}
	if searchLat == nil || searchLon == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "не задана позиция исполнителя")
	}
	if err := validation.ValidateCoordinates(*searchLat, *searchLon); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if radiusKM == 0 {
		radiusKM = s.defaultRadiusKM
	}
	if err := validation.ValidateRadius(radiusKM); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	return s.jobs.SearchNearby(ctx, repository.JobSearchParams{
		Latitude:  *searchLat,
		Longitude: *searchLon,
		RadiusKM:  radiusKM,
		JobTypes:  []string(provider.JobTypes),
		Limit:     50,
	})
}

// UpdateJob обновляет заголовок и описание открытой заявки владельца.
func (s *JobService) UpdateJob(ctx context.Context, jobID, userID uuid.UUID, title string, description *string) (*models.Job, error) {
	if err := validation.ValidateJobTitle(title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateJobDescription(description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apperror.ErrForbidden
	}

	updated, err := s.jobs.UpdateDetails(ctx, jobID, title, description)
	if err != nil {
		if errors.Is(err, repository.ErrJobStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeState, "заявку можно редактировать только до назначения")
		}
		return nil, err
	}

	return updated, nil
}

// CancelJob отменяет заявку. Доступно владельцу и администратору,
// допустимо из pending и assigned.
func (s *JobService) CancelJob(ctx context.Context, jobID, actorID uuid.UUID, role string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.UserID != actorID && role != models.RoleAdmin {
		return apperror.ErrForbidden
	}

	if err := s.jobs.Cancel(ctx, jobID); err != nil {
		if errors.Is(err, repository.ErrJobStatusConflict) {
			return apperror.New(apperror.ErrCodeState,
				fmt.Sprintf("заявку в статусе %s отменить нельзя", job.Status))
		}
		return err
	}

	return nil
}

// AcceptJob атомарно назначает заявку исполнителю. Из двух конкурентных
// попыток проходит ровно одна, вторая получает конфликт.
func (s *JobService) AcceptJob(ctx context.Context, jobID, providerID uuid.UUID) (*models.JobAssignment, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !provider.CanTakeJobs() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "исполнитель не допущен к приёму заявок")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !provider.ServesJobType(job.JobType) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "исполнитель не обслуживает этот тип работ")
	}

	assignment, err := s.jobs.Accept(ctx, jobID, providerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobExpired):
			return nil, apperror.New(apperror.ErrCodeState, "срок заявки истёк")
		case errors.Is(err, repository.ErrAssignmentExists):
			return nil, apperror.ErrJobAlreadyTaken
		case errors.Is(err, repository.ErrJobStatusConflict):
			return nil, apperror.New(apperror.ErrCodeState, "заявка недоступна для принятия")
		default:
			return nil, err
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(job.UserID, "job.accepted", assignment); err != nil {
			logger.Log.WithField("error", err.Error()).Debug("job service: не удалось уведомить заказчика")
		}
	}

	return assignment, nil
}

// StartJob переводит назначенную исполнителю заявку в работу.
func (s *JobService) StartJob(ctx context.Context, jobID, providerID uuid.UUID) error {
	assignment, err := s.jobs.GetAssignmentByJobID(ctx, jobID)
	if err != nil {
		return err
	}
	if assignment.ProviderID != providerID {
		return apperror.ErrForbidden
	}

	if err := s.jobs.StartWork(ctx, jobID, providerID); err != nil {
		if errors.Is(err, repository.ErrJobStatusConflict) {
			return apperror.New(apperror.ErrCodeState, "начать можно только назначенную заявку")
		}
		return err
	}

	return nil
}

// CompleteJob завершает заявку в работе. Оценка опциональна, но строго 1..5.
func (s *JobService) CompleteJob(ctx context.Context, jobID, providerID uuid.UUID, rating *int, review *string) error {
	if rating != nil {
		if err := validation.ValidateRating(*rating); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if err := validation.ValidateReview(review); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	assignment, err := s.jobs.GetAssignmentByJobID(ctx, jobID)
	if err != nil {
		return err
	}
	if assignment.ProviderID != providerID {
		return apperror.ErrForbidden
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	if err := s.jobs.Complete(ctx, jobID, providerID, rating, review); err != nil {
		if errors.Is(err, repository.ErrJobStatusConflict) {
			return apperror.New(apperror.ErrCodeState, "завершить можно только заявку в работе")
		}
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(job.UserID, "job.completed", map[string]any{"job_id": jobID}); err != nil {
			logger.Log.WithField("error", err.Error()).Debug("job service: не удалось уведомить заказчика")
		}
	}

	return nil
}

// AttachImage сохраняет запись о загруженной фотографии заявки.
func (s *JobService) AttachImage(ctx context.Context, jobID, userID uuid.UUID, image *models.JobImage) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.UserID != userID {
		return apperror.ErrForbidden
	}

	image.JobID = jobID
	return s.jobs.CreateImage(ctx, image)
}

// ListImages возвращает фотографии заявки, доступные актору.
func (s *JobService) ListImages(ctx context.Context, jobID, actorID uuid.UUID, role string) ([]models.JobImage, error) {
	if _, err := s.GetJob(ctx, jobID, actorID, role); err != nil {
		return nil, err
	}
	return s.jobs.ListImages(ctx, jobID)
}

// ExpireStaleJobs однократно переводит просроченные открытые заявки в expired.
// Операция идемпотентна и безопасна при конкурентных запусках.
func (s *JobService) ExpireStaleJobs(ctx context.Context) (int64, error) {
	return s.jobs.ExpirePending(ctx)
}

// RunExpirySweeper крутит фоновый цикл истечения заявок до отмены контекста.
func (s *JobService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := s.ExpireStaleJobs(ctx)
			if err != nil {
				logger.Log.WithField("error", err.Error()).Error("job service: цикл истечения заявок завершился с ошибкой")
				continue
			}
			if expired > 0 {
				logger.Log.WithField("count", expired).Info("job service: просроченные заявки закрыты")
			}
		}
	}
}
