package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ignatzorin/findperson-backend/internal/service"
)

// Разрешённые типы фотографий. Тип определяется по магическим байтам,
// а не по расширению или Content-Type из запроса.
var allowedPhotoMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ReportHandler предоставляет HTTP слой для заявок о пропавших.
type ReportHandler struct {
	reports        *service.ReportService
	maxUploadBytes int64
	devMode        bool
}

// NewReportHandler создаёт хэндлер.
func NewReportHandler(reports *service.ReportService, maxUploadBytes int64, devMode bool) *ReportHandler {
	return &ReportHandler{
		reports:        reports,
		maxUploadBytes: maxUploadBytes,
		devMode:        devMode,
	}
}

// Create обрабатывает POST /api/reports (multipart).
func (h *ReportHandler) Create(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "требуется авторизация"})
		return
	}

	age, err := strconv.Atoi(strings.TrimSpace(c.PostForm("age")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "возраст должен быть числом"})
		return
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	report, createErr := h.reports.Create(c.Request.Context(), userID.String(), service.CreateReportInput{
		Name:             c.PostForm("name"),
		Age:              age,
		Gender:           c.PostForm("gender"),
		LastSeenLocation: c.PostForm("lastSeenLocation"),
		Description:      c.PostForm("description"),
		ContactPhone:     c.PostForm("contactPhone"),
		Photo:            photo,
	})
	if createErr != nil {
		respondError(c, createErr)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListMissing обрабатывает GET /api/reports.
func (h *ReportHandler) ListMissing(c *gin.Context) {
	reports, err := h.reports.ListMissing(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// ListFound обрабатывает GET /api/reports/found.
func (h *ReportHandler) ListFound(c *gin.Context) {
	reports, err := h.reports.ListFound(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// ListMine обрабатывает GET /api/reports/myreports.
func (h *ReportHandler) ListMine(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "требуется авторизация"})
		return
	}

	reports, err := h.reports.ListMine(c.Request.Context(), userID.String())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// Near обрабатывает GET /api/reports/nearme?lat=..&lng=..&distance=..
func (h *ReportHandler) Near(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "параметр lat должен быть числом"})
		return
	}

	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "параметр lng должен быть числом"})
		return
	}

	// Радиус опциональный: без него действует дефолт сервиса.
	var distanceKm float64
	if raw := c.Query("distance"); raw != "" {
		distanceKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "параметр distance должен быть числом"})
			return
		}
	}

	reports, err := h.reports.Near(c.Request.Context(), lat, lng, distanceKm)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// Get обрабатывает GET /api/reports/:id.
func (h *ReportHandler) Get(c *gin.Context) {
	id, _ := primitive.ObjectIDFromHex(c.Param("id"))

	report, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Update обрабатывает PUT /api/reports/:id (multipart, только владелец).
func (h *ReportHandler) Update(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "требуется авторизация"})
		return
	}

	id, _ := primitive.ObjectIDFromHex(c.Param("id"))

	var in service.UpdateReportInput
	if v, ok := c.GetPostForm("name"); ok {
		in.Name = &v
	}
	if v, ok := c.GetPostForm("age"); ok {
		age, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "возраст должен быть числом"})
			return
		}
		in.Age = &age
	}
	if v, ok := c.GetPostForm("gender"); ok {
		in.Gender = &v
	}
	if v, ok := c.GetPostForm("lastSeenLocation"); ok {
		in.LastSeenLocation = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = &v
	}
	if v, ok := c.GetPostForm("contactPhone"); ok {
		in.ContactPhone = &v
	}

	if _, err := c.FormFile("photo"); err == nil {
		photo, readErr := h.readPhoto(c)
		if readErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": readErr.Error()})
			return
		}
		in.Photo = photo
	}

	report, err := h.reports.Update(c.Request.Context(), id, userID.String(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// SetStatus обрабатывает PUT /api/reports/:id/status.
func (h *ReportHandler) SetStatus(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "требуется авторизация"})
		return
	}

	id, _ := primitive.ObjectIDFromHex(c.Param("id"))

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "статус обязателен"})
		return
	}

	report, err := h.reports.SetStatus(c.Request.Context(), id, userID.String(), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Delete обрабатывает DELETE /api/reports/:id.
func (h *ReportHandler) Delete(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "требуется авторизация"})
		return
	}

	id, _ := primitive.ObjectIDFromHex(c.Param("id"))

	if err := h.reports.Delete(c.Request.Context(), id, userID.String()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "заявка удалена"})
}

// Regeocode обрабатывает POST /api/reports/regeocode.
// Служебная операция: повторно геокодирует старые записи с координатами
// [0, 0]. Доступна только в development окружении.
func (h *ReportHandler) Regeocode(c *gin.Context) {
	if !h.devMode {
		c.JSON(http.StatusNotFound, gin.H{"msg": "страница не найдена"})
		return
	}

	updated, err := h.reports.RegeocodeLegacy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// readPhoto читает файл photo из multipart формы и проверяет, что это
// изображение допустимого типа и размера.
func (h *ReportHandler) readPhoto(c *gin.Context) ([]byte, error) {
	file, err := c.FormFile("photo")
	if err != nil {
		// Отсутствие файла не ошибка формы: сервис сам решает,
		// обязательна ли фотография для операции.
		return nil, nil
	}

	if file.Size == 0 {
		return nil, fmt.Errorf("файл не может быть пустым")
	}
	if file.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("файл слишком большой, максимум %d МБ", h.maxUploadBytes/(1024*1024))
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл")
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, fmt.Errorf("файл слишком большой, максимум %d МБ", h.maxUploadBytes/(1024*1024))
	}

	if err := validatePhotoBytes(data); err != nil {
		return nil, err
	}

	return data, nil
}

// validatePhotoBytes проверяет магические байты файла.
func validatePhotoBytes(data []byte) error {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return fmt.Errorf("не удалось определить тип файла")
	}

	if !allowedPhotoMimeTypes[kind.MIME.Value] {
		return fmt.Errorf("неподдерживаемый формат файла, разрешены JPEG, PNG и WebP")
	}

	return nil
}
