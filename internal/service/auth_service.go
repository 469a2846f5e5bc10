package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/repository"
	"github.com/handymanapp/handyman-backend/internal/validation"
)

// AuthUserRepository описывает зависимости AuthService от хранилища пользователей.
type AuthUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthProviderRepository описывает зависимости AuthService от хранилища исполнителей.
type AuthProviderRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Provider, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
}

// AuthService инкапсулирует регистрацию и аутентификацию заказчиков и исполнителей.
type AuthService struct {
	users        AuthUserRepository
	providers    AuthProviderRepository
	tokenManager *TokenManager
}

// RegisterUserInput содержит данные заказчика при регистрации.
type RegisterUserInput struct {
	Email    string
	Password string
	FullName string
	Phone    *string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email       string
	Password    string
	AccountType string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User
	Provider  *models.Provider
	Role      string
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users AuthUserRepository, providers AuthProviderRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		users:        users,
		providers:    providers,
		tokenManager: tokenManager,
	}
}

// RegisterUser создаёт нового заказчика и выдаёт токены.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterUserInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	if in.Phone != nil && *in.Phone != "" {
		if err := validation.ValidatePhone(*in.Phone); err != nil {
			return nil, fmt.Errorf("auth service: %w", err)
		}
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(passHash),
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        in.Phone,
		Role:         models.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "email уже зарегистрирован")
		}
		if errors.Is(err, repository.ErrPhoneTaken) {
			return nil, apperror.Wrap(err, apperror.ErrCodeConflict, "телефон уже зарегистрирован")
		}
		return nil, err
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:      user,
		Role:      user.Role,
		TokenPair: tokenPair,
	}, nil
}

// Login проверяет учётные данные и возвращает токены.
// AccountType выбирает таблицу: заказчики и исполнители живут раздельно.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	switch in.AccountType {
	case "", models.RoleUser:
		return s.loginUser(ctx, in)
	case models.RoleProvider:
		return s.loginProvider(ctx, in)
	default:
		return nil, fmt.Errorf("auth service: неизвестный тип аккаунта: %s", in.AccountType)
	}
}

func (s *AuthService) loginUser(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, fmt.Errorf("auth service: неверный email или пароль")
	}

	if !user.IsActive {
		return nil, fmt.Errorf("auth service: аккаунт заблокирован")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("auth service: неверный email или пароль")
	}

	// Роль берётся из профиля: администраторы входят как обычные заказчики.
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(user.ID, role)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:      user,
		Role:      role,
		TokenPair: tokenPair,
	}, nil
}

func (s *AuthService) loginProvider(ctx context.Context, in LoginInput) (*AuthResult, error) {
	provider, err := s.providers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, fmt.Errorf("auth service: неверный email или пароль")
	}

	if !provider.IsActive {
		return nil, fmt.Errorf("auth service: аккаунт заблокирован")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(provider.PasswordHash), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("auth service: неверный email или пароль")
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(provider.ID, models.RoleProvider)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Provider:  provider,
		Role:      models.RoleProvider,
		TokenPair: tokenPair,
	}, nil
}

// Refresh выпускает новую пару токенов по refresh токену.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*TokenPair, error) {
	subjectID, role, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, fmt.Errorf("auth service: refresh токен невалиден: %w", err)
	}

	// Проверяем, что субъект всё ещё существует и активен.
	switch role {
	case models.RoleUser, models.RoleAdmin:
		user, err := s.users.GetByID(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		if !user.IsActive {
			return nil, fmt.Errorf("auth service: аккаунт заблокирован")
		}
	case models.RoleProvider:
		provider, err := s.providers.GetByID(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		if !provider.IsActive {
			return nil, fmt.Errorf("auth service: аккаунт заблокирован")
		}
	default:
		return nil, fmt.Errorf("auth service: неизвестная роль в токене: %s", role)
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(subjectID, role)
	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

// CurrentUser возвращает профиль заказчика по идентификатору из токена.
func (s *AuthService) CurrentUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// CurrentProvider возвращает профиль исполнителя по идентификатору из токена.
func (s *AuthService) CurrentProvider(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return s.providers.GetByID(ctx, id)
}
