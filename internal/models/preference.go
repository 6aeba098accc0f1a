// internal/models/preference.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const PreferenceTheme = "theme"

// Preference is one key-value entry scoped to a user.
type Preference struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Key       string    `json:"key" gorm:"size:50;primaryKey"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}
