package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/handymanapp/handyman-backend/internal/dto"
	"github.com/handymanapp/handyman-backend/internal/http/handlers/common"
	"github.com/handymanapp/handyman-backend/internal/models"
	"github.com/handymanapp/handyman-backend/internal/repository"
	"github.com/handymanapp/handyman-backend/internal/service"
	"github.com/handymanapp/handyman-backend/internal/storage"
	"github.com/handymanapp/handyman-backend/internal/validation"
)

// Разрешённые форматы фотографий к заявке.
var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// JobHandler предоставляет HTTP слой для заявок заказчика.
type JobHandler struct {
	jobs    *service.JobService
	storage *storage.MediaStorage
}

// NewJobHandler создаёт хэндлер.
func NewJobHandler(jobs *service.JobService, media *storage.MediaStorage) *JobHandler {
	return &JobHandler{jobs: jobs, storage: media}
}

// Create обрабатывает POST /jobs.
func (h *JobHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateJobRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		common.RespondBadRequest(c, "location_id должен быть валидным UUID")
		return
	}

	job, quote, err := h.jobs.CreateJob(c.Request.Context(), userID, service.CreateJobInput{
		LocationID:      locationID,
		JobType:         req.JobType,
		Title:           req.Title,
		Description:     req.Description,
		Severity:        req.Severity,
		EstimatedPrice:  req.EstimatedPrice,
		SurgeMultiplier: req.SurgeMultiplier,
		SquareFootage:   req.SquareFootage,
		AIConfidence:    req.AIConfidence,
		ExtraData:       req.ExtraData,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"job": job, "quote": quote})
}

// List обрабатывает GET /jobs - заявки текущего пользователя.
func (h *JobHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	filter := repository.JobListFilter{
		Status:  c.Query("status"),
		JobType: c.Query("job_type"),
		Limit:   limit,
		Offset:  offset,
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), userID, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Search обрабатывает GET /jobs/search?lat=&lon=&radius_km=&job_type=.
func (h *JobHandler) Search(c *gin.Context) {
	lat, okLat := common.ParseFloatQuery(c, "lat")
	lon, okLon := common.ParseFloatQuery(c, "lon")
	if !okLat || !okLon {
		common.RespondBadRequest(c, "параметры lat и lon обязательны")
		return
	}

	radius, hasRadius := common.ParseFloatQuery(c, "radius_km")
	if hasRadius {
		if err := validation.ValidateRadius(radius); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	results, err := h.jobs.SearchJobs(c.Request.Context(), service.SearchInput{
		Latitude:  lat,
		Longitude: lon,
		RadiusKM:  radius,
		JobType:   c.Query("job_type"),
		Limit:     common.ParseIntQuery(c, "limit", 50),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": results})
}

// Get обрабатывает GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID, actorID, role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Update обрабатывает PATCH /jobs/:id - правку открытой заявки.
func (h *JobHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateJobRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.UpdateJob(c.Request.Context(), jobID, userID, req.Title, req.Description)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Cancel обрабатывает DELETE /jobs/:id.
func (h *JobHandler) Cancel(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.CancelJob(c.Request.Context(), jobID, userID, role); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "заявка отменена"})
}

// UploadImage обрабатывает POST /jobs/:id/images. Тип файла проверяется
// по магическим байтам, а не только по расширению.
func (h *JobHandler) UploadImage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
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
	if !allowedImageExtensions[ext] {
		common.RespondBadRequest(c, "неподдерживаемый формат файла, разрешены jpg, png, webp и heic")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondInternalError(c, err.Error())
		return
	}
	defer src.Close()

	// Читаем первые 512 байт для проверки магических байтов
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла, разрешены только изображения")
		return
	}
	if !allowedImageMimeTypes[kind.MIME.Value] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый тип файла (%s), разрешены только изображения", kind.MIME.Value))
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			common.RespondInternalError(c, "не удалось сбросить позицию файла")
			return
		}
	}

	relativePath, _, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		common.RespondInternalError(c, err.Error())
		return
	}

	imageType := c.PostForm("image_type")
	image := &models.JobImage{
		JobID:    jobID,
		ImageURL: relativePath,
	}
	if imageType != "" {
		image.ImageType = &imageType
	}
	// Результаты анализа приходят готовыми от клиента
	if raw := c.PostForm("analysis_results"); raw != "" {
		if !json.Valid([]byte(raw)) {
			_ = h.storage.Delete(c.Request.Context(), relativePath)
			common.RespondBadRequest(c, "analysis_results должен быть валидным JSON")
			return
		}
		image.AnalysisResults = json.RawMessage(raw)
	}

	if err := h.jobs.AttachImage(c.Request.Context(), jobID, userID, image); err != nil {
		// Заявка чужая или не найдена, файл больше не нужен
		_ = h.storage.Delete(c.Request.Context(), relativePath)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, image)
}

// ListImages обрабатывает GET /jobs/:id/images.
func (h *JobHandler) ListImages(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	images, err := h.jobs.ListImages(c.Request.Context(), jobID, actorID, role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}
