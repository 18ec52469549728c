package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "tally/internal/errors"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/store"
	"tally/internal/tz"
)

// Defaults applied when a setting has never been written.
const (
	DefaultTimezone   = "UTC"
	DefaultCurrency   = "USD"
	DefaultDateFormat = "2006-01-02"
)

// settingsService handles user preferences.
type settingsService struct {
	db       *gorm.DB
	settings *store.Repository[models.Setting]
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB) SettingsServicer {
	return &settingsService{db: db, settings: store.NewRepository[models.Setting](db)}
}

// Get returns the stored value for key, or defaultValue when unset.
func (s *settingsService) Get(key, defaultValue string) (string, error) {
	setting, err := s.settings.First(store.Filter{store.Eq("key", key)})
	if err != nil {
		return "", err
	}
	if setting == nil {
		return defaultValue, nil
	}
	return setting.Value, nil
}

// Set creates or replaces the value for key.
func (s *settingsService) Set(key, value string) (*models.Setting, error) {
	if key == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "setting key is required")
	}
	if key == SettingTimezone {
		if _, err := tz.LoadLocation(value); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "timezone: unknown zone "+value)
		}
	}

	setting := &models.Setting{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return nil, apperrors.FromStore(err, nil)
	}
	return setting, nil
}

// All returns every stored setting keyed by name.
func (s *settingsService) All() (map[string]string, error) {
	rows, err := s.settings.Find(nil, "key")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Preferences resolves the typed preferences. An unknown timezone falls back
// to UTC rather than failing every request.
func (s *settingsService) Preferences() (*Preferences, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}

	prefs := &Preferences{
		Timezone:   valueOr(all, SettingTimezone, DefaultTimezone),
		Currency:   valueOr(all, SettingCurrency, DefaultCurrency),
		DateFormat: valueOr(all, SettingDateFormat, DefaultDateFormat),
	}

	loc, err := tz.LoadLocation(prefs.Timezone)
	if err != nil {
		logger.Get().Warnw("invalid timezone setting, using UTC", "timezone", prefs.Timezone, "error", err)
		prefs.Timezone = DefaultTimezone
		loc = nil
	}
	prefs.Location = loc
	return prefs, nil
}

func valueOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}
