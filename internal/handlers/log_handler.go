package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/services"
)

// LogQuery holds the log list filters bound from the query string.
type LogQuery struct {
	Level    string `form:"level" binding:"omitempty,log_level"`
	Category string `form:"category" binding:"omitempty,max=50"`
	Search   string `form:"search" binding:"omitempty,max=200"`
}

// LogHandler exposes the activity log.
type LogHandler struct {
	logService      services.LogServicer
	settingsService services.SettingsServicer
}

// NewLogHandler creates a new LogHandler.
func NewLogHandler(logService services.LogServicer, settingsService services.SettingsServicer) *LogHandler {
	return &LogHandler{logService: logService, settingsService: settingsService}
}

// ListLogs returns log entries, newest first.
// @Summary     List log entries
// @Tags        logs
// @Produce     json
// @Param       level     query string false "Log level"
// @Param       category  query string false "Log category"
// @Param       search    query string false "Search message and details"
// @Param       from_date query string false "Range start"
// @Param       to_date   query string false "Range end"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {array}  models.Log
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /logs [get]
func (h *LogHandler) ListLogs(c *gin.Context) {
	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query LogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	filter := services.LogFilter{
		Category: query.Category,
		Search:   query.Search,
	}
	if query.Level != "" {
		level := models.LogLevel(query.Level)
		filter.Level = &level
	}
	filter.From, filter.To = normalizer(h.settingsService).DateRange(c.Query("from_date"), c.Query("to_date"))

	result, err := h.logService.ListLogs(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondPage(c, http.StatusOK, result)
}

// GetLevelCounts returns how many entries exist at each level.
// @Summary     Log level counts
// @Tags        logs
// @Produce     json
// @Success     200 {array} services.LevelCount
// @Router      /logs/levels [get]
func (h *LogHandler) GetLevelCounts(c *gin.Context) {
	counts, err := h.logService.GetLevelCounts()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, counts)
}

// PruneLogs deletes entries older than the given number of days.
// @Summary     Prune log entries
// @Tags        logs
// @Produce     json
// @Param       older_than_days query int true "Age in days"
// @Success     200 {object} map[string]int64
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /logs [delete]
func (h *LogHandler) PruneLogs(c *gin.Context) {
	days, err := strconv.Atoi(c.Query("older_than_days"))
	if err != nil || days < 1 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "older_than_days must be a positive integer"))
		return
	}

	deleted, err := h.logService.PruneLogs(time.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"deleted": deleted})
}
