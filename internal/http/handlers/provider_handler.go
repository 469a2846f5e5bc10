package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/handymanapp/handyman-backend/internal/dto"
	"github.com/handymanapp/handyman-backend/internal/http/handlers/common"
	"github.com/handymanapp/handyman-backend/internal/service"
	"github.com/handymanapp/handyman-backend/internal/storage"
	"github.com/handymanapp/handyman-backend/internal/validation"
)

// Разрешённые форматы документов верификации: сканы и фотографии.
var allowedDocumentExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var allowedDocumentMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// ProviderHandler предоставляет HTTP слой для исполнителей: профиль,
// подходящие заявки, жизненный цикл работы и документы верификации.
type ProviderHandler struct {
	providers     *service.ProviderService
	jobs          *service.JobService
	verifications *service.VerificationService
	storage       *storage.MediaStorage
}

// NewProviderHandler создаёт хэндлер.
func NewProviderHandler(providers *service.ProviderService, jobs *service.JobService, verifications *service.VerificationService, media *storage.MediaStorage) *ProviderHandler {
	return &ProviderHandler{providers: providers, jobs: jobs, verifications: verifications, storage: media}
}

// Register обрабатывает POST /providers/profile - регистрацию исполнителя.
func (h *ProviderHandler) Register(c *gin.Context) {
	var req dto.RegisterProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.providers.Register(c.Request.Context(), service.RegisterProviderInput{
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Phone:      req.Phone,
		JobTypes:   req.JobTypes,
		HourlyRate: req.HourlyRate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"provider": result.Provider,
		"tokens":   result.TokenPair,
	})
}

// Me обрабатывает GET /providers/me.
func (h *ProviderHandler) Me(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	provider, err := h.providers.GetProfile(c.Request.Context(), providerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, provider)
}

// UpdateMe обрабатывает PATCH /providers/me.
func (h *ProviderHandler) UpdateMe(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateProviderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	provider, err := h.providers.UpdateProfile(c.Request.Context(), providerID, service.UpdateProfileInput{
		IsAvailable: req.IsAvailable,
		HourlyRate:  req.HourlyRate,
		JobTypes:    req.JobTypes,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, provider)
}

// AvailableJobs обрабатывает GET /providers/available-jobs.
// Точка поиска берётся из query параметров или из текущей позиции профиля.
func (h *ProviderHandler) AvailableJobs(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var lat, lon *float64
	if v, ok := common.ParseFloatQuery(c, "lat"); ok {
		lat = &v
	}
	if v, ok := common.ParseFloatQuery(c, "lon"); ok {
		lon = &v
	}

	radius, hasRadius := common.ParseFloatQuery(c, "radius_km")
	if hasRadius {
		if err := validation.ValidateRadius(radius); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	results, err := h.jobs.AvailableJobsForProvider(c.Request.Context(), providerID, lat, lon, radius)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": results})
}

// AcceptJob обрабатывает POST /providers/jobs/:id/accept.
// Заявку получает ровно один исполнитель, гонка решается на уровне БД.
func (h *ProviderHandler) AcceptJob(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	assignment, err := h.jobs.AcceptJob(c.Request.Context(), jobID, providerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

// StartJob обрабатывает POST /providers/jobs/:id/start.
func (h *ProviderHandler) StartJob(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.StartJob(c.Request.Context(), jobID, providerID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "работа начата"})
}

// CompleteJob обрабатывает POST /providers/jobs/:id/complete.
func (h *ProviderHandler) CompleteJob(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CompleteJobRequest
	// Тело необязательно, завершение без оценки допустимо
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	if err := h.jobs.CompleteJob(c.Request.Context(), jobID, providerID, req.Rating, req.Review); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "работа завершена"})
}

// SubmitVerification обрабатывает POST /providers/verifications.
// Документ загружается как multipart файл, тип проверяется по магическим байтам.
func (h *ProviderHandler) SubmitVerification(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	documentType := c.PostForm("document_type")
	if documentType == "" {
		common.RespondBadRequest(c, "поле document_type обязательно")
		return
	}

	var extractedData json.RawMessage
	if raw := c.PostForm("extracted_data"); raw != "" {
		if !json.Valid([]byte(raw)) {
			common.RespondBadRequest(c, "extracted_data должен быть валидным JSON")
			return
		}
		extractedData = json.RawMessage(raw)
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedDocumentExtensions[ext] {
		common.RespondBadRequest(c, "неподдерживаемый формат документа, разрешены pdf, jpg и png")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondInternalError(c, err.Error())
		return
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown || !allowedDocumentMimeTypes[kind.MIME.Value] {
		common.RespondBadRequest(c, "не удалось определить тип документа, разрешены pdf, jpg и png")
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			common.RespondInternalError(c, "не удалось сбросить позицию файла")
			return
		}
	}

	relativePath, _, err := h.storage.Save(c.Request.Context(), providerID, file.Filename, src)
	if err != nil {
		common.RespondInternalError(c, err.Error())
		return
	}

	verification, err := h.verifications.SubmitDocument(c.Request.Context(), providerID, documentType, relativePath, extractedData)
	if err != nil {
		_ = h.storage.Delete(c.Request.Context(), relativePath)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, verification)
}

// ListVerifications обрабатывает GET /providers/verifications.
func (h *ProviderHandler) ListVerifications(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	verifications, err := h.verifications.ListDocuments(c.Request.Context(), providerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verifications": verifications})
}
