package middleware

import (
	"log"
	"net/http"

	"expansion-planner/internal/api/models"

	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware turns panics into INTERNAL_ERROR responses
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("[API] panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: msg,
			},
		})
	})
}
