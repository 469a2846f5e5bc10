package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/handymanapp/handyman-backend/internal/dto"
	"github.com/handymanapp/handyman-backend/internal/http/handlers/common"
	"github.com/handymanapp/handyman-backend/internal/service"
)

// LocationHandler предоставляет HTTP слой для адресов пользователя.
type LocationHandler struct {
	locations *service.LocationService
}

// NewLocationHandler создаёт хэндлер.
func NewLocationHandler(locations *service.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// Create обрабатывает POST /locations.
func (h *LocationHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateLocationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	location, err := h.locations.Create(c.Request.Context(), userID, service.CreateLocationInput{
		Address:      req.Address,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		IsPrimary:    req.IsPrimary,
		PropertyType: req.PropertyType,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, location)
}

// List обрабатывает GET /locations.
func (h *LocationHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	locations, err := h.locations.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// Get обрабатывает GET /locations/:id.
func (h *LocationHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	locationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	location, err := h.locations.Get(c.Request.Context(), locationID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, location)
}
