package handlers

import (
	"errors"
	"net/http"

	"expansion-planner/internal/api/models"
	"expansion-planner/internal/data"
	"expansion-planner/internal/index"

	"github.com/gin-gonic/gin"
)

func abortWithError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// classify maps a pipeline error onto a status code and an error body
func classify(err error) (int, models.ErrorDetail) {
	var se *data.SchemaError
	if errors.As(err, &se) {
		return http.StatusBadRequest, models.ErrorDetail{
			Code:    "SCHEMA_ERROR",
			Message: err.Error(),
			Details: map[string]interface{}{
				"table":  se.Table,
				"column": se.Column,
			},
		}
	}
	var re *index.ReferenceError
	if errors.As(err, &re) {
		return http.StatusUnprocessableEntity, models.ErrorDetail{
			Code:    "REFERENCE_ERROR",
			Message: err.Error(),
			Details: map[string]interface{}{
				"table":  re.Table,
				"column": re.Column,
				"value":  re.Value,
				"target": re.Target,
			},
		}
	}
	var ve *index.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, models.ErrorDetail{
			Code:    "INVALID_ASSET",
			Message: err.Error(),
			Details: map[string]interface{}{
				"asset": ve.Asset,
			},
		}
	}
	return http.StatusUnprocessableEntity, models.ErrorDetail{
		Code:    "SOLVE_FAILED",
		Message: err.Error(),
	}
}

func abortWithPipelineError(c *gin.Context, err error) {
	status, detail := classify(err)
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: detail})
}
