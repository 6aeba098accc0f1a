// internal/services/preference_service.go
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/repository"
)

// DefaultTheme is returned until a user saves a theme.
const DefaultTheme = models.ThemeLight

type PreferenceService struct {
	prefs repository.PreferenceRepository
}

type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,theme"`
}

func NewPreferenceService(prefs repository.PreferenceRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs}
}

func (s *PreferenceService) Theme(ctx context.Context, userID uuid.UUID) (models.Theme, error) {
	pref, err := s.prefs.Get(ctx, userID, models.PreferenceTheme)
	if apperr.Is(err, apperr.KindNotFound) {
		return DefaultTheme, nil
	}
	if err != nil {
		return "", err
	}

	theme := models.Theme(pref.Value)
	if !theme.Valid() {
		return DefaultTheme, nil
	}
	return theme, nil
}

func (s *PreferenceService) SetTheme(ctx context.Context, userID uuid.UUID, theme models.Theme) error {
	if !theme.Valid() {
		return apperr.Validation("theme must be light or dark", map[string]string{"theme": string(theme)})
	}
	return s.prefs.Put(ctx, &models.Preference{
		UserID: userID,
		Key:    models.PreferenceTheme,
		Value:  string(theme),
	})
}
