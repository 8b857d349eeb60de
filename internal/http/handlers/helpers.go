package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/findperson-backend/internal/http/middleware"
	"github.com/ignatzorin/findperson-backend/internal/logger"
	"github.com/ignatzorin/findperson-backend/internal/pkg/apperror"
)

var errUserNotFound = errors.New("пользователь не найден в контексте")

// currentUserID извлекает userID из контекста.
func currentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, errUserNotFound
	}

	return userID, nil
}

// respondError переводит ошибку сервисного слоя в HTTP ответ формата
// {"msg": "..."}. Детали внутренних ошибок клиенту не раскрываются —
// они уходят только в лог.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"path":  c.FullPath(),
				"error": appErr.Error(),
			}).Error("внутренняя ошибка при обработке запроса")
		}
		c.JSON(appErr.HTTPStatus, gin.H{"msg": appErr.Message})
		return
	}

	if logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("необработанная ошибка при обработке запроса")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"msg": "внутренняя ошибка сервера"})
}
