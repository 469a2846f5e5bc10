package dto

import (
	"github.com/handymanapp/handyman-backend/internal/models"
)

// AuthResponse represents tokens together with the authenticated subject
type AuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Role         string           `json:"role"`
	User         *models.User     `json:"user,omitempty"`
	Provider     *models.Provider `json:"provider,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
