package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectIDValidator проверяет, что параметр пути — валидный ObjectID.
// Невалидный идентификатор неотличим от несуществующего, поэтому
// отвечаем 404, а не 400.
// Использование: router.GET("/reports/:id", ObjectIDValidator("id"), handler.Get)
func ObjectIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			c.JSON(http.StatusNotFound, gin.H{"msg": "заявка не найдена"})
			c.Abort()
			return
		}

		if _, err := primitive.ObjectIDFromHex(idStr); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"msg": "заявка не найдена"})
			c.Abort()
			return
		}

		c.Next()
	}
}
