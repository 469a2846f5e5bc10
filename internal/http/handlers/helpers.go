package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/handymanapp/handyman-backend/internal/pkg/apperror"
	"github.com/handymanapp/handyman-backend/internal/repository"
)

// respondServiceError переводит ошибку сервисного слоя в HTTP ответ.
func respondServiceError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
		return
	}

	switch {
	case errors.Is(err, repository.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "заявка не найдена"})
	case errors.Is(err, repository.ErrLocationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "адрес не найден"})
	case errors.Is(err, repository.ErrProviderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "исполнитель не найден"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "пользователь не найден"})
	case errors.Is(err, repository.ErrVerificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "документ не найден"})
	case errors.Is(err, repository.ErrAssignmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "назначение не найдено"})
	case errors.Is(err, repository.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email уже зарегистрирован"})
	case errors.Is(err, repository.ErrPhoneTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "телефон уже зарегистрирован"})
	case errors.Is(err, repository.ErrAssignmentExists):
		c.JSON(http.StatusConflict, gin.H{"error": "заявку уже принял другой исполнитель"})
	case errors.Is(err, repository.ErrJobStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "статус заявки не допускает это действие"})
	case errors.Is(err, repository.ErrJobExpired):
		c.JSON(http.StatusConflict, gin.H{"error": "срок заявки истёк"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
