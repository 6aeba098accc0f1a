// internal/repository/preference.go
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
)

var timeNow = time.Now

type GormPreferenceRepository struct {
	db *gorm.DB
}

func NewGormPreferenceRepository(db *gorm.DB) *GormPreferenceRepository {
	return &GormPreferenceRepository{db: db}
}

func (r *GormPreferenceRepository) Get(ctx context.Context, userID uuid.UUID, key string) (*models.Preference, error) {
	var pref models.Preference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND key = ?", userID, key).
		First(&pref).Error
	if err != nil {
		return nil, translate(err, "preference")
	}
	return &pref, nil
}

// Put inserts or overwrites the (user, key) entry.
func (r *GormPreferenceRepository) Put(ctx context.Context, pref *models.Preference) error {
	pref.UpdatedAt = timeNow()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(pref).Error
	return translate(err, "preference")
}

type preferenceKey struct {
	userID uuid.UUID
	key    string
}

type MemoryPreferenceRepository struct {
	mu    sync.RWMutex
	prefs map[preferenceKey]models.Preference
}

func NewMemoryPreferenceRepository() *MemoryPreferenceRepository {
	return &MemoryPreferenceRepository{prefs: make(map[preferenceKey]models.Preference)}
}

func (r *MemoryPreferenceRepository) Get(ctx context.Context, userID uuid.UUID, key string) (*models.Preference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pref, ok := r.prefs[preferenceKey{userID, key}]
	if !ok {
		return nil, apperr.NotFound("preference not found")
	}
	return &pref, nil
}

func (r *MemoryPreferenceRepository) Put(ctx context.Context, pref *models.Preference) error {
	pref.UpdatedAt = timeNow()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[preferenceKey{pref.UserID, pref.Key}] = *pref
	return nil
}
