package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/handymanapp/handyman-backend/internal/logger"
	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/pricing"
	"github.com/handymanapp/handyman-backend/internal/repository"
)

func TestMain(m *testing.M) {
	logger.Init("fatal")
	os.Exit(m.Run())
}

type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	if args.Error(0) == nil {
		job.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockJobRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter repository.JobListFilter) ([]models.Job, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *mockJobRepo) SearchNearby(ctx context.Context, params repository.JobSearchParams) ([]models.JobSearchResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]models.JobSearchResult), args.Error(1)
}

func (m *mockJobRepo) UpdateDetails(ctx context.Context, id uuid.UUID, title string, description *string) (*models.Job, error) {
	args := m.Called(ctx, id, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *mockJobRepo) Cancel(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJobRepo) Accept(ctx context.Context, jobID, providerID uuid.UUID) (*models.JobAssignment, error) {
	args := m.Called(ctx, jobID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobAssignment), args.Error(1)
}

func (m *mockJobRepo) GetAssignmentByJobID(ctx context.Context, jobID uuid.UUID) (*models.JobAssignment, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobAssignment), args.Error(1)
}

func (m *mockJobRepo) StartWork(ctx context.Context, jobID, providerID uuid.UUID) error {
	args := m.Called(ctx, jobID, providerID)
	return args.Error(0)
}

func (m *mockJobRepo) Complete(ctx context.Context, jobID, providerID uuid.UUID, rating *int, review *string) error {
	args := m.Called(ctx, jobID, providerID, rating, review)
	return args.Error(0)
}

func (m *mockJobRepo) ExpirePending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockJobRepo) CreateImage(ctx context.Context, image *models.JobImage) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *mockJobRepo) ListImages(ctx context.Context, jobID uuid.UUID) ([]models.JobImage, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.JobImage), args.Error(1)
}

type mockLocationRepo struct {
	mock.Mock
}

func (m *mockLocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

type mockProviderRepoForJobs struct {
	mock.Mock
}

func (m *mockProviderRepoForJobs) GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

func (m *mockProviderRepoForJobs) CountAvailableNearby(ctx context.Context, lat, lon, radiusKM float64, jobType string) (int, error) {
	args := m.Called(ctx, lat, lon, radiusKM, jobType)
	return args.Int(0), args.Error(1)
}

func (m *mockProviderRepoForJobs) FindAvailableNearby(ctx context.Context, lat, lon, radiusKM float64, jobType string) ([]models.ProviderSearchResult, error) {
	args := m.Called(ctx, lat, lon, radiusKM, jobType)
	return args.Get(0).([]models.ProviderSearchResult), args.Error(1)
}

func newTestJobService(jobs *mockJobRepo, locations *mockLocationRepo, providers *mockProviderRepoForJobs) *JobService {
	return NewJobService(jobs, locations, providers, pricing.NewEngine(2.2), nil, nil, 10, time.Hour)
}

func verifiedProvider(id uuid.UUID, jobTypes ...string) *models.Provider {
	return &models.Provider{
		ID:          id,
		Status:      models.ProviderStatusVerified,
		IsAvailable: true,
		IsActive:    true,
		JobTypes:    pq.StringArray(jobTypes),
	}
}

func TestJobService_CreateJob_EnginePricing(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	userID := uuid.New()
	locationID := uuid.New()
	location := &models.Location{ID: locationID, UserID: userID, Latitude: 55.75, Longitude: 37.62}

	locations.On("GetByID", ctx, locationID).Return(location, nil)
	providers.On("CountAvailableNearby", ctx, 55.75, 37.62, 10.0, models.JobTypePlumbing).Return(10, nil)
	jobs.On("Create", ctx, mock.AnythingOfType("*models.Job")).Return(nil)

	job, quote, err := svc.CreateJob(ctx, userID, CreateJobInput{
		LocationID: locationID,
		JobType:    models.JobTypePlumbing,
		Title:      "Протекает кран на кухне",
	})

	assert.NoError(t, err)
	assert.NotNil(t, quote)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 75.0, job.EstimatedPrice)
	assert.Equal(t, 1.0, job.SurgeMultiplier)
	assert.Equal(t, 75.0, job.FinalPrice)
	assert.NotNil(t, job.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *job.ExpiresAt, time.Minute)
}

func TestJobService_CreateJob_ClientPriceWithSurge(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	userID := uuid.New()
	locationID := uuid.New()
	location := &models.Location{ID: locationID, UserID: userID, Latitude: 55.75, Longitude: 37.62}
	price := 100.0
	surge := 1.5

	locations.On("GetByID", ctx, locationID).Return(location, nil)
	providers.On("CountAvailableNearby", ctx, 55.75, 37.62, 10.0, models.JobTypeHandyman).Return(10, nil)
	jobs.On("Create", ctx, mock.AnythingOfType("*models.Job")).Return(nil)

	job, _, err := svc.CreateJob(ctx, userID, CreateJobInput{
		LocationID:      locationID,
		JobType:         models.JobTypeHandyman,
		Title:           "Повесить полку",
		EstimatedPrice:  &price,
		SurgeMultiplier: &surge,
	})

	assert.NoError(t, err)
	assert.Equal(t, 100.0, job.EstimatedPrice)
	assert.Equal(t, 1.5, job.SurgeMultiplier)
	assert.Equal(t, 150.0, job.FinalPrice)
}

func TestJobService_CreateJob_ForeignLocation(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	locationID := uuid.New()
	location := &models.Location{ID: locationID, UserID: uuid.New(), Latitude: 55.75, Longitude: 37.62}
	locations.On("GetByID", ctx, locationID).Return(location, nil)

	_, _, err := svc.CreateJob(ctx, uuid.New(), CreateJobInput{
		LocationID: locationID,
		JobType:    models.JobTypeHandyman,
		Title:      "Повесить полку",
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestJobService_CreateJob_InvalidJobType(t *testing.T) {
	svc := newTestJobService(new(mockJobRepo), new(mockLocationRepo), new(mockProviderRepoForJobs))

	_, _, err := svc.CreateJob(context.Background(), uuid.New(), CreateJobInput{
		LocationID: uuid.New(),
		JobType:    "window_washing",
		Title:      "Помыть окна",
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestJobService_AcceptJob_Success(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	providerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, UserID: uuid.New(), JobType: models.JobTypeSnowRemoval, Status: models.JobStatusPending}
	assignment := &models.JobAssignment{ID: uuid.New(), JobID: jobID, ProviderID: providerID}

	providers.On("GetByID", ctx, providerID).Return(verifiedProvider(providerID, models.JobTypeSnowRemoval), nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	jobs.On("Accept", ctx, jobID, providerID).Return(assignment, nil)

	got, err := svc.AcceptJob(ctx, jobID, providerID)

	assert.NoError(t, err)
	assert.Equal(t, assignment.ID, got.ID)
}

func TestJobService_AcceptJob_AlreadyTaken(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	providerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, JobType: models.JobTypeSnowRemoval, Status: models.JobStatusAssigned}

	providers.On("GetByID", ctx, providerID).Return(verifiedProvider(providerID, models.JobTypeSnowRemoval), nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	jobs.On("Accept", ctx, jobID, providerID).Return(nil, repository.ErrAssignmentExists)

	_, err := svc.AcceptJob(ctx, jobID, providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestJobService_AcceptJob_Expired(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	providerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, JobType: models.JobTypeSnowRemoval, Status: models.JobStatusPending}

	providers.On("GetByID", ctx, providerID).Return(verifiedProvider(providerID, models.JobTypeSnowRemoval), nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	jobs.On("Accept", ctx, jobID, providerID).Return(nil, repository.ErrJobExpired)

	_, err := svc.AcceptJob(ctx, jobID, providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "истёк")
}

func TestJobService_AcceptJob_CancelledJob(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	providerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, JobType: models.JobTypeSnowRemoval, Status: models.JobStatusCancelled}

	providers.On("GetByID", ctx, providerID).Return(verifiedProvider(providerID, models.JobTypeSnowRemoval), nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	jobs.On("Accept", ctx, jobID, providerID).Return(nil, repository.ErrJobStatusConflict)

	_, err := svc.AcceptJob(ctx, jobID, providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	// Отменённая заявка не выдаётся за занятую другим исполнителем
	assert.NotContains(t, err.Error(), "уже принял")
	assert.Contains(t, err.Error(), "недоступна")
}

func TestJobService_AcceptJob_UnverifiedProvider(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	providerID := uuid.New()
	provider := verifiedProvider(providerID, models.JobTypeSnowRemoval)
	provider.Status = models.ProviderStatusPending
	providers.On("GetByID", ctx, providerID).Return(provider, nil)

	_, err := svc.AcceptJob(ctx, uuid.New(), providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestJobService_AcceptJob_WrongJobType(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	providerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, JobType: models.JobTypeElectrical, Status: models.JobStatusPending}

	providers.On("GetByID", ctx, providerID).Return(verifiedProvider(providerID, models.JobTypeSnowRemoval), nil)
	jobs.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := svc.AcceptJob(ctx, jobID, providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestJobService_CompleteJob_InvalidRating(t *testing.T) {
	svc := newTestJobService(new(mockJobRepo), new(mockLocationRepo), new(mockProviderRepoForJobs))

	rating := 6
	err := svc.CompleteJob(context.Background(), uuid.New(), uuid.New(), &rating, nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestJobService_CompleteJob_ForeignAssignment(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := newTestJobService(jobs, new(mockLocationRepo), new(mockProviderRepoForJobs))
	ctx := context.Background()

	jobID := uuid.New()
	assignment := &models.JobAssignment{ID: uuid.New(), JobID: jobID, ProviderID: uuid.New()}
	jobs.On("GetAssignmentByJobID", ctx, jobID).Return(assignment, nil)

	err := svc.CompleteJob(ctx, jobID, uuid.New(), nil, nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestJobService_StartJob_NotAssigned(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := newTestJobService(jobs, new(mockLocationRepo), new(mockProviderRepoForJobs))
	ctx := context.Background()

	providerID := uuid.New()
	jobID := uuid.New()
	assignment := &models.JobAssignment{ID: uuid.New(), JobID: jobID, ProviderID: providerID}

	jobs.On("GetAssignmentByJobID", ctx, jobID).Return(assignment, nil)
	jobs.On("StartWork", ctx, jobID, providerID).Return(repository.ErrJobStatusConflict)

	err := svc.StartJob(ctx, jobID, providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestJobService_UpdateJob_AfterAssignment(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := newTestJobService(jobs, new(mockLocationRepo), new(mockProviderRepoForJobs))
	ctx := context.Background()

	userID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, UserID: userID, Status: models.JobStatusAssigned}

	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	jobs.On("UpdateDetails", ctx, jobID, "Новый заголовок", (*string)(nil)).Return(nil, repository.ErrJobStatusConflict)

	_, err := svc.UpdateJob(ctx, jobID, userID, "Новый заголовок", nil)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestJobService_CancelJob_AdminAllowed(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	jobID := uuid.New()
	adminID := uuid.New()
	job := &models.Job{ID: jobID, UserID: uuid.New(), Status: models.JobStatusPending}

	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	jobs.On("Cancel", ctx, jobID).Return(nil)

	err := svc.CancelJob(ctx, jobID, adminID, models.RoleAdmin)

	assert.NoError(t, err)
	jobs.AssertCalled(t, "Cancel", ctx, jobID)
}

func TestJobService_CancelJob_StrangerForbidden(t *testing.T) {
	jobs := new(mockJobRepo)
	locations := new(mockLocationRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, locations, providers)
	ctx := context.Background()

	jobID := uuid.New()
	job := &models.Job{ID: jobID, UserID: uuid.New(), Status: models.JobStatusPending}

	jobs.On("GetByID", ctx, jobID).Return(job, nil)

	err := svc.CancelJob(ctx, jobID, uuid.New(), models.RoleUser)

	assert.ErrorIs(t, err, apperror.ErrForbidden)
	jobs.AssertNotCalled(t, "Cancel", ctx, jobID)
}

func TestJobService_GetJob_Access(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := newTestJobService(jobs, new(mockLocationRepo), new(mockProviderRepoForJobs))
	ctx := context.Background()

	ownerID := uuid.New()
	providerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, UserID: ownerID, Status: models.JobStatusAssigned}
	assignment := &models.JobAssignment{JobID: jobID, ProviderID: providerID}

	jobs.On("GetByID", ctx, jobID).Return(job, nil)
	jobs.On("GetAssignmentByJobID", ctx, jobID).Return(assignment, nil)

	// Владелец видит свою заявку
	got, err := svc.GetJob(ctx, jobID, ownerID, models.RoleUser)
	assert.NoError(t, err)
	assert.Equal(t, jobID, got.ID)

	// Назначенный исполнитель видит заявку
	got, err = svc.GetJob(ctx, jobID, providerID, models.RoleProvider)
	assert.NoError(t, err)
	assert.Equal(t, jobID, got.ID)

	// Посторонний пользователь доступа не имеет
	_, err = svc.GetJob(ctx, jobID, uuid.New(), models.RoleUser)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestJobService_SearchJobs_InvalidCoordinates(t *testing.T) {
	svc := newTestJobService(new(mockJobRepo), new(mockLocationRepo), new(mockProviderRepoForJobs))

	_, err := svc.SearchJobs(context.Background(), SearchInput{Latitude: 91, Longitude: 0})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestJobService_AvailableJobs_NoPosition(t *testing.T) {
	jobs := new(mockJobRepo)
	providers := new(mockProviderRepoForJobs)
	svc := newTestJobService(jobs, new(mockLocationRepo), providers)
	ctx := context.Background()

	providerID := uuid.New()
	providers.On("GetByID", ctx, providerID).Return(verifiedProvider(providerID, models.JobTypeHandyman), nil)

	_, err := svc.AvailableJobsForProvider(ctx, providerID, nil, nil, 0)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "позиция")
}

func TestJobService_ExpireStaleJobs(t *testing.T) {
	jobs := new(mockJobRepo)
	svc := newTestJobService(jobs, new(mockLocationRepo), new(mockProviderRepoForJobs))
	ctx := context.Background()

	jobs.On("ExpirePending", ctx).Return(int64(3), nil)

	expired, err := svc.ExpireStaleJobs(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), expired)
}
