package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error as the
// standard failure envelope. Errors that are not AppErrors are reported as
// INTERNAL_SERVER_ERROR and never leak their text. Nothing is written when the
// handler already produced a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		switch appErr.Kind() {
		case apperrors.KindInternal, apperrors.KindStoreUnavailable, apperrors.KindInconsistent:
			fields := []interface{}{
				"code", appErr.Code,
				"kind", appErr.Kind(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", RequestID(c),
			}
			if appErr.Internal != nil {
				fields = append(fields, "error", appErr.Internal.Error())
			}
			logger.Get().Errorw("request failed", fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
			"success": false,
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}
