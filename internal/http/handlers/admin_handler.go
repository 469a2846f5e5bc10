package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/handymanapp/handyman-backend/internal/dto"
	"github.com/handymanapp/handyman-backend/internal/http/handlers/common"
	"github.com/handymanapp/handyman-backend/internal/service"
)

// AdminHandler предоставляет административные операции: подтверждение
// документов и управление статусом исполнителей.
type AdminHandler struct {
	providers     *service.ProviderService
	verifications *service.VerificationService
}

// NewAdminHandler создаёт хэндлер.
func NewAdminHandler(providers *service.ProviderService, verifications *service.VerificationService) *AdminHandler {
	return &AdminHandler{providers: providers, verifications: verifications}
}

// ApproveVerification обрабатывает POST /admin/verifications/:id/approve.
func (h *AdminHandler) ApproveVerification(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	verificationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	verification, err := h.verifications.ApproveDocument(c.Request.Context(), verificationID, adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, verification)
}

// SetProviderStatus обрабатывает PATCH /admin/providers/:id/status.
func (h *AdminHandler) SetProviderStatus(c *gin.Context) {
	providerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateProviderStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	provider, err := h.providers.SetStatus(c.Request.Context(), providerID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, provider)
}
