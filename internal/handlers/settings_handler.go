package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tally/internal/services"
)

// SettingsHandler exposes user preferences.
type SettingsHandler struct {
	settingsService services.SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// SetSettingRequest carries the new value of one setting.
type SetSettingRequest struct {
	Value string `json:"value" binding:"required,max=100"`
}

// ListSettings returns every stored setting.
// @Summary     List settings
// @Tags        settings
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /settings [get]
func (h *SettingsHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingsService.All()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, settings)
}

// GetPreferences returns the resolved timezone, currency and date format.
// @Summary     Resolved preferences
// @Tags        settings
// @Produce     json
// @Success     200 {object} services.Preferences
// @Router      /settings/preferences [get]
func (h *SettingsHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.settingsService.Preferences()
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, prefs)
}

// SetSetting stores one setting.
// @Summary     Set a setting
// @Tags        settings
// @Accept      json
// @Produce     json
// @Param       key     path string            true "Setting key"
// @Param       request body SetSettingRequest true "New value"
// @Success     200 {object} models.Setting
// @Failure     400 {object} ErrorResponse "Invalid value"
// @Router      /settings/{key} [put]
func (h *SettingsHandler) SetSetting(c *gin.Context) {
	var req SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	setting, err := h.settingsService.Set(c.Param("key"), req.Value)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, setting)
}
