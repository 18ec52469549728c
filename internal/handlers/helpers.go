package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/pagination"
	"tally/internal/services"
	"tally/internal/tz"
	"tally/internal/uuid"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool        `json:"success" example:"false"`
	Error   ErrorDetail `json:"error"`
}

// PaginationMeta describes the page carried by a list response.
type PaginationMeta struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	PageCount int   `json:"page_count"`
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid id.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// bindPage parses page and page_size query parameters.
func bindPage(c *gin.Context) (pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	page.Defaults()
	return page, nil
}

// normalizer resolves the user's timezone for parsing wire dates. A broken
// settings store degrades to UTC.
func normalizer(settings services.SettingsServicer) tz.Normalizer {
	if settings == nil {
		return tz.NewNormalizer(nil)
	}
	prefs, err := settings.Preferences()
	if err != nil {
		logger.Get().Warnw("failed to load preferences, using UTC", "error", err)
		return tz.NewNormalizer(nil)
	}
	return prefs.Normalizer()
}

// optionalString returns nil for an absent or blank query parameter.
func optionalString(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// respondOK writes a success envelope.
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondPage writes a success envelope carrying one page of items.
func respondPage[T any](c *gin.Context, status int, page *pagination.PageResponse[T]) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    page.Items,
		"pagination": PaginationMeta{
			Page:      page.Page,
			PageSize:  page.PageSize,
			Total:     page.Total,
			PageCount: page.PageCount,
		},
	})
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"success": false,
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// invalidInput wraps a binding failure.
// enumErrors maps the enum binding tags to their domain error codes.
var enumErrors = map[string]*apperrors.AppError{
	"account_type":     apperrors.ErrInvalidAccountType,
	"category_type":    apperrors.ErrInvalidCategoryType,
	"transaction_type": apperrors.ErrInvalidTransactionType,
	"budget_period":    apperrors.ErrInvalidBudgetPeriod,
	"log_level":        apperrors.ErrInvalidLogLevel,
}

// invalidInput converts a binding failure into an AppError. A rejected enum
// value reports the enum's own code.
func invalidInput(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if sentinel, ok := enumErrors[fe.Tag()]; ok {
				return sentinel
			}
		}
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}
