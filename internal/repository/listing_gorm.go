// internal/repository/listing_gorm.go
package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/database"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/utils"
)

// listingColumns are the columns an update may write. id and created_at
// are deliberately absent.
var listingColumns = []string{
	"title", "description", "price", "condition", "category",
	"image_url", "seller_name", "seller_phone", "owner_id",
}

// GormListingRepository stores listings in PostgreSQL. Every statement
// runs inside database.WithCaller so the row-level-security policies see
// the caller.
type GormListingRepository struct {
	db *gorm.DB
}

func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

func (r *GormListingRepository) List(ctx context.Context, caller *policy.Caller, filter ListingFilter) ([]models.Listing, int64, error) {
	if err := policy.Evaluate(policy.Select, caller, nil, nil); err != nil {
		return nil, 0, err
	}
	params := utils.NormalizePagination(filter.PaginationParams)

	var listings []models.Listing
	var total int64
	err := database.WithCaller(ctx, r.db, caller.UserID, func(tx *gorm.DB) error {
		query := tx.Model(&models.Listing{})

		if params.Category != "" {
			query = query.Where("category = ?", params.Category)
		}
		if params.Search != "" {
			searchTerm := "%" + escapeLike(strings.ToLower(params.Search)) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
		}
		if filter.OwnerID != nil {
			query = query.Where("owner_id = ?", *filter.OwnerID)
		}

		if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
			return err
		}

		query = utils.ApplySort(query, params, ListingSortFields)
		query = utils.ApplyPagination(query, params)
		return query.Find(&listings).Error
	})
	if err != nil {
		return nil, 0, translate(err, "listing")
	}
	return listings, total, nil
}

func (r *GormListingRepository) Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*models.Listing, error) {
	if err := policy.Evaluate(policy.Select, caller, nil, nil); err != nil {
		return nil, err
	}

	var listing models.Listing
	err := database.WithCaller(ctx, r.db, caller.UserID, func(tx *gorm.DB) error {
		return tx.First(&listing, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err, "listing")
	}
	return &listing, nil
}

func (r *GormListingRepository) Insert(ctx context.Context, caller *policy.Caller, listing *models.Listing) error {
	if err := policy.Evaluate(policy.Insert, caller, nil, listing); err != nil {
		return err
	}
	if err := checkRow(listing); err != nil {
		return err
	}

	listing.ID = uuid.Nil
	err := database.WithCaller(ctx, r.db, caller.UserID, func(tx *gorm.DB) error {
		return tx.Create(listing).Error
	})
	return translate(err, "listing")
}

func (r *GormListingRepository) Update(ctx context.Context, caller *policy.Caller, listing *models.Listing) error {
	if caller == nil || caller.UserID == uuid.Nil {
		return policy.Evaluate(policy.Update, caller, nil, listing)
	}
	if err := checkRow(listing); err != nil {
		return err
	}

	err := database.WithCaller(ctx, r.db, caller.UserID, func(tx *gorm.DB) error {
		var existing models.Listing
		if err := tx.First(&existing, "id = ?", listing.ID).Error; err != nil {
			return err
		}
		if err := policy.Evaluate(policy.Update, caller, &existing, listing); err != nil {
			return err
		}

		result := tx.Model(&existing).Select(listingColumns).Updates(listing)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// The USING clause of listings_update filtered the row out.
			return apperr.Authorization("only the owner can edit this listing")
		}

		listing.CreatedAt = existing.CreatedAt
		return nil
	})
	return translate(err, "listing")
}

func (r *GormListingRepository) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	// No DELETE policy exists, so there is nothing to send to the database.
	return policy.Evaluate(policy.Delete, caller, nil, nil)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
