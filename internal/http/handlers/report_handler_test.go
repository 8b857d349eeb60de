package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/findperson-backend/internal/http/middleware"
)

func TestReportHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil, maxUploadBytes: 10 << 20}
	r.POST("/reports", handler.Create)

	req, _ := http.NewRequest("POST", "/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_ListMine_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	r.GET("/reports/myreports", handler.ListMine)

	req, _ := http.NewRequest("GET", "/reports/myreports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_Delete_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	r.DELETE("/reports/:id", handler.Delete)

	req, _ := http.NewRequest("DELETE", "/reports/507f1f77bcf86cd799439011", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_Near_MalformedCoordinates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	r.GET("/reports/nearme", handler.Near)

	req, _ := http.NewRequest("GET", "/reports/nearme?lat=abc&lng=30", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "msg")
}

func TestReportHandler_Near_MissingLng(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	r.GET("/reports/nearme", handler.Near)

	req, _ := http.NewRequest("GET", "/reports/nearme?lat=59.93", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestObjectIDValidator_MalformedIDIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/reports/:id", middleware.ObjectIDValidator("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest("GET", "/reports/not-an-objectid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestObjectIDValidator_ValidIDPasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/reports/:id", middleware.ObjectIDValidator("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest("GET", "/reports/507f1f77bcf86cd799439011", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReportHandler_SetStatus_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{reports: nil}
	r.PUT("/reports/:id/status", handler.SetStatus)

	req, _ := http.NewRequest("PUT", "/reports/507f1f77bcf86cd799439011/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidatePhotoBytes_RejectsNonImage(t *testing.T) {
	err := validatePhotoBytes([]byte("definitely not an image payload"))
	assert.Error(t, err)
}

func TestValidatePhotoBytes_AcceptsPNG(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	err := validatePhotoBytes(png)
	assert.NoError(t, err)
}
