package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProviderHandler_AvailableJobs_RadiusTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	providerID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", providerID)
		c.Set("role", "provider")
		c.Next()
	})
	handler := &ProviderHandler{}
	r.GET("/providers/available-jobs", handler.AvailableJobs)

	req, _ := http.NewRequest("GET", "/providers/available-jobs?radius_km=500", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderHandler_AcceptJob_InvalidJobID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	providerID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", providerID)
		c.Set("role", "provider")
		c.Next()
	})
	handler := &ProviderHandler{}
	r.POST("/providers/jobs/:id/accept", handler.AcceptJob)

	req, _ := http.NewRequest("POST", "/providers/jobs/not-a-uuid/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderHandler_SubmitVerification_MissingDocumentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	providerID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", providerID)
		c.Set("role", "provider")
		c.Next()
	})
	handler := &ProviderHandler{}
	r.POST("/providers/verifications", handler.SubmitVerification)

	req, _ := http.NewRequest("POST", "/providers/verifications", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProviderHandler_SubmitVerification_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProviderHandler{}
	r.POST("/providers/verifications", handler.SubmitVerification)

	req, _ := http.NewRequest("POST", "/providers/verifications", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
