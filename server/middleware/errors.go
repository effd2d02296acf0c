package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/backendkit/errors"
	"github.com/kbukum/backendkit/logger"
)

// writeError writes err as a JSON error body.
func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}

// NotFound responds 404 for requests no route handled.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		appErr := apperrors.NotFound("route", c.Request.Method+" "+c.Request.URL.Path)
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}

// ErrorHandler renders errors attached with c.Error. AppErrors keep their
// status and code; other errors become 500s. Server errors are logged.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr := apperrors.FromError(err)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.WithContext(c.Request.Context()).Error("Request failed", logger.ErrorFields(c.Request.URL.Path, err))
		}
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
	}
}
