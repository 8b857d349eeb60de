package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	db    *sqlx.DB
	mongo *mongo.Client
}

// NewHealthHandler создаёт новый health handler.
func NewHealthHandler(db *sqlx.DB, mongoClient *mongo.Client) *HealthHandler {
	return &HealthHandler{db: db, mongo: mongoClient}
}

// HealthResponse представляет ответ health check.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		checks["postgres"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["postgres"] = "healthy"
	}

	if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
		checks["mongodb"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["mongodb"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
