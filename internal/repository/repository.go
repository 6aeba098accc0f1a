// internal/repository/repository.go

// Package repository is the data-store boundary. Every implementation of
// ListingRepository evaluates the listing policy itself, so callers cannot
// skip it.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/utils"
)

// ListingSortFields are the columns List may order by.
var ListingSortFields = []string{"created_at", "price", "title"}

type ListingFilter struct {
	utils.PaginationParams
	OwnerID *uuid.UUID
}

type ListingRepository interface {
	// List returns one page of matching listings and the total match count.
	List(ctx context.Context, caller *policy.Caller, filter ListingFilter) ([]models.Listing, int64, error)
	Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*models.Listing, error)
	// Insert assigns ID and CreatedAt on success.
	Insert(ctx context.Context, caller *policy.Caller, listing *models.Listing) error
	// Update replaces the mutable fields of the row with listing.ID.
	// CreatedAt is never changed and is copied back into listing.
	Update(ctx context.Context, caller *policy.Caller, listing *models.Listing) error
	Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type PreferenceRepository interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (*models.Preference, error)
	Put(ctx context.Context, pref *models.Preference) error
}

// checkRow mirrors the table constraints of the PostgreSQL schema. Both
// implementations run it before writing.
func checkRow(l *models.Listing) error {
	if !models.ValidPrice(l.Price) {
		return apperr.Validation("invalid listing: price must be a finite amount between 0 and 99999999.99", nil)
	}
	if !l.Condition.Valid() {
		return apperr.Validation("invalid listing: condition must be New or Used", nil)
	}
	return nil
}
