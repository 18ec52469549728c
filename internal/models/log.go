package models

import (
	"time"

	"tally/internal/uuid"

	"gorm.io/gorm"
)

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelSuccess LogLevel = "SUCCESS"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// Valid reports whether l is a supported level.
func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelSuccess, LogLevelWarning, LogLevelError:
		return true
	}
	return false
}

// Log is a user-visible record of something the ledger did.
type Log struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Level     LogLevel  `gorm:"not null;index" json:"level"`
	Category  string    `gorm:"not null;index" json:"category"`
	Message   string    `gorm:"not null" json:"message"`
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

// BeforeCreate assigns an id and timestamp when missing.
func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return nil
}
