package dto

import "encoding/json"

// RegisterUserRequest - запрос регистрации заказчика.
type RegisterUserRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone"`
}

// LoginRequest - запрос входа. AccountType выбирает таблицу субъекта.
type LoginRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	AccountType string `json:"account_type"`
}

// RefreshRequest - запрос обновления пары токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegisterProviderRequest - запрос регистрации исполнителя.
type RegisterProviderRequest struct {
	Email      string   `json:"email" binding:"required"`
	Password   string   `json:"password" binding:"required"`
	FullName   string   `json:"full_name" binding:"required"`
	Phone      string   `json:"phone" binding:"required"`
	JobTypes   []string `json:"job_types" binding:"required"`
	HourlyRate *float64 `json:"hourly_rate"`
}

// UpdateProviderRequest - запрос изменения профиля исполнителя.
type UpdateProviderRequest struct {
	IsAvailable *bool    `json:"is_available"`
	HourlyRate  *float64 `json:"hourly_rate"`
	JobTypes    []string `json:"job_types"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// UpdateProviderStatusRequest - админский запрос изменения статуса исполнителя.
type UpdateProviderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateJobRequest - запрос создания заявки.
type CreateJobRequest struct {
	LocationID      string          `json:"location_id" binding:"required"`
	JobType         string          `json:"job_type" binding:"required"`
	Title           string          `json:"title" binding:"required"`
	Description     *string         `json:"description"`
	Severity        *string         `json:"severity"`
	EstimatedPrice  *float64        `json:"estimated_price"`
	SurgeMultiplier *float64        `json:"surge_multiplier"`
	SquareFootage   *float64        `json:"estimated_square_footage"`
	AIConfidence    *float64        `json:"ai_confidence"`
	ExtraData       json.RawMessage `json:"extra_data"`
}

// UpdateJobRequest - запрос редактирования открытой заявки.
type UpdateJobRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
}

// CompleteJobRequest - запрос завершения работы с опциональной оценкой.
type CompleteJobRequest struct {
	Rating *int    `json:"rating"`
	Review *string `json:"review"`
}

// CreateLocationRequest - запрос сохранения адреса.
type CreateLocationRequest struct {
	Address      string   `json:"address" binding:"required"`
	City         string   `json:"city" binding:"required"`
	State        string   `json:"state" binding:"required"`
	ZipCode      string   `json:"zip_code" binding:"required"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	IsPrimary    bool     `json:"is_primary"`
	PropertyType *string  `json:"property_type"`
}
