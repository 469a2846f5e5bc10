package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
		user.IsActive = true
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockProviderRepoForAuth struct {
	mock.Mock
}

func (m *mockProviderRepoForAuth) GetByEmail(ctx context.Context, email string) (*models.Provider, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

func (m *mockProviderRepoForAuth) GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

func newTestAuthService(users *mockUserRepo, providers *mockProviderRepoForAuth) *AuthService {
	tokens := NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	return NewAuthService(users, providers, tokens)
}

func TestAuthService_RegisterUser_Success(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	result, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email:    "ivan@example.com",
		Password: "SuperSecret1!",
		FullName: "Иван Петров",
	})

	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, result.Role)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	assert.Equal(t, "ivan@example.com", result.User.Email)
	// Пароль хранится только в виде bcrypt хеша
	assert.NotEqual(t, "SuperSecret1!", result.User.PasswordHash)
}

func TestAuthService_RegisterUser_EmailTaken(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrEmailTaken)

	_, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email:    "ivan@example.com",
		Password: "SuperSecret1!",
		FullName: "Иван Петров",
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "уже зарегистрирован")
}

func TestAuthService_RegisterUser_PhoneTaken(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrPhoneTaken)

	phone := "+79001234567"
	_, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email:    "ivan@example.com",
		Password: "SuperSecret1!",
		FullName: "Иван Петров",
		Phone:    &phone,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "телефон")
}

func TestAuthService_RegisterUser_InvalidEmail(t *testing.T) {
	svc := newTestAuthService(new(mockUserRepo), new(mockProviderRepoForAuth))

	_, err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Email:    "not-an-email",
		Password: "SuperSecret1!",
		FullName: "Иван Петров",
	})

	assert.Error(t, err)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	user := &models.User{ID: uuid.New(), Email: "ivan@example.com", PasswordHash: string(hash), IsActive: true}
	users.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "ivan@example.com", Password: "wrong-password"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неверный email или пароль")
}

func TestAuthService_Login_ProviderAccount(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	provider := &models.Provider{ID: uuid.New(), Email: "master@example.com", PasswordHash: string(hash), IsActive: true}
	providers.On("GetByEmail", ctx, "master@example.com").Return(provider, nil)

	result, err := svc.Login(ctx, LoginInput{
		Email:       "master@example.com",
		Password:    "correct-password",
		AccountType: models.RoleProvider,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.RoleProvider, result.Role)
	assert.NotNil(t, result.Provider)
	assert.Nil(t, result.User)
}

func TestAuthService_Login_AdminRoleInToken(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	admin := &models.User{
		ID:           uuid.New(),
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	users.On("GetByEmail", ctx, "admin@example.com").Return(admin, nil)

	result, err := svc.Login(ctx, LoginInput{Email: "admin@example.com", Password: "correct-password"})

	assert.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, result.Role)

	tokens := NewTokenManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	subjectID, role, err := tokens.ParseAccess(result.TokenPair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, admin.ID, subjectID)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "ivan@example.com", IsActive: false}
	users.On("GetByEmail", ctx, "ivan@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "ivan@example.com", Password: "whatever"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "заблокирован")
}

func TestAuthService_Refresh_RoundTrip(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	registered, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email:    "ivan@example.com",
		Password: "SuperSecret1!",
		FullName: "Иван Петров",
	})
	assert.NoError(t, err)

	users.On("GetByID", ctx, registered.User.ID).Return(registered.User, nil)

	pair, err := svc.Refresh(ctx, registered.TokenPair.RefreshToken)

	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestAuthService_Refresh_AccessTokenRejected(t *testing.T) {
	users := new(mockUserRepo)
	providers := new(mockProviderRepoForAuth)
	svc := newTestAuthService(users, providers)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	registered, err := svc.RegisterUser(ctx, RegisterUserInput{
		Email:    "ivan@example.com",
		Password: "SuperSecret1!",
		FullName: "Иван Петров",
	})
	assert.NoError(t, err)

	// Access токен подписан другим секретом и не должен проходить как refresh
	_, err = svc.Refresh(ctx, registered.TokenPair.AccessToken)
	assert.Error(t, err)
}
