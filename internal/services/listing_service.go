// internal/services/listing_service.go
package services

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/campus-market/internal/contact"
	"github.com/javajoker/campus-market/internal/form"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/placeholder"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/repository"
	"github.com/javajoker/campus-market/internal/utils"
)

type ListingService struct {
	listings    repository.ListingRepository
	photos      form.PhotoUploader
	links       *contact.LinkBuilder
	countryCode string
}

// ListingRequest is the one-shot form of the listing wizard. Omitted
// fields stay unset (create) or unchanged (edit).
type ListingRequest struct {
	Title       *string           `json:"title" validate:"omitempty,max=120"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	Category    *string           `json:"category" validate:"omitempty,max=50"`
	Price       *float64          `json:"price" validate:"omitempty,gte=0"`
	Condition   *models.Condition `json:"condition" validate:"omitempty,condition"`
	ImageURL    *string           `json:"image_url" validate:"omitempty,url"`
	SellerName  *string           `json:"seller_name" validate:"omitempty,max=100"`
	SellerPhone *string           `json:"seller_phone" validate:"omitempty,max=32"`
	CountryCode *string           `json:"country_code" validate:"omitempty,startswith=+,max=5"`
}

func (r *ListingRequest) patch() form.Patch {
	p := form.Patch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Condition:   r.Condition,
		ImageURL:    r.ImageURL,
		SellerName:  r.SellerName,
		SellerPhone: r.SellerPhone,
		CountryCode: r.CountryCode,
	}
	if r.Price != nil {
		price := strconv.FormatFloat(*r.Price, 'f', -1, 64)
		p.Price = &price
	}
	return p
}

// ListingView is a listing as the API shows it to a given caller.
type ListingView struct {
	*models.Listing
	Placeholder *placeholder.Gradient `json:"placeholder,omitempty"`
	Editable    bool                  `json:"editable"`
}

func NewListingService(listings repository.ListingRepository, photos form.PhotoUploader, links *contact.LinkBuilder, countryCode string) *ListingService {
	return &ListingService{
		listings:    listings,
		photos:      photos,
		links:       links,
		countryCode: countryCode,
	}
}

func NewListingView(l *models.Listing, caller *policy.Caller) ListingView {
	v := ListingView{Listing: l}
	if l.ImageURL == "" {
		g := placeholder.For(l.Title, l.Category, l.ID.String())
		v.Placeholder = &g
	}
	if caller != nil {
		v.Editable = l.OwnedBy(caller.UserID)
	}
	return v
}

func NewListingViews(listings []models.Listing, caller *policy.Caller) []ListingView {
	views := make([]ListingView, 0, len(listings))
	for i := range listings {
		views = append(views, NewListingView(&listings[i], caller))
	}
	return views
}

func (s *ListingService) List(ctx context.Context, caller *policy.Caller, filter repository.ListingFilter) (utils.PaginationResult, error) {
	filter.PaginationParams = utils.NormalizePagination(filter.PaginationParams)

	listings, total, err := s.listings.List(ctx, caller, filter)
	if err != nil {
		return utils.PaginationResult{}, err
	}
	return utils.CreatePaginationResult(NewListingViews(listings, caller), total, filter.PaginationParams), nil
}

func (s *ListingService) Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*ListingView, error) {
	listing, err := s.listings.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	view := NewListingView(listing, caller)
	return &view, nil
}

// Create walks a fresh wizard through every step with req and submits it.
func (s *ListingService) Create(ctx context.Context, caller *policy.Caller, req *ListingRequest) (*ListingView, error) {
	c := form.New(s.countryCode)
	return s.complete(ctx, caller, c, req)
}

// Edit does the same as Create for an existing listing.
func (s *ListingService) Edit(ctx context.Context, caller *policy.Caller, id uuid.UUID, req *ListingRequest) (*ListingView, error) {
	existing, err := s.listings.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	c := form.ForEdit(existing, s.countryCode)
	return s.complete(ctx, caller, c, req)
}

func (s *ListingService) complete(ctx context.Context, caller *policy.Caller, c *form.Controller, req *ListingRequest) (*ListingView, error) {
	c.Apply(req.patch())
	for c.Step() != form.StepContact {
		if err := c.Next(); err != nil {
			return nil, err
		}
	}

	listing, err := c.Submit(ctx, caller, s.listings, s.photos)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"user_id":    caller.UserID,
	}).Info("Listing saved")

	view := NewListingView(listing, caller)
	return &view, nil
}

func (s *ListingService) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	return s.listings.Delete(ctx, caller, id)
}

// ContactLink returns the chat deep link for the listing's seller.
func (s *ListingService) ContactLink(ctx context.Context, caller *policy.Caller, id uuid.UUID) (string, error) {
	listing, err := s.listings.Get(ctx, caller, id)
	if err != nil {
		return "", err
	}
	return s.links.ChatLink(listing)
}

func (s *ListingService) Placeholder(ctx context.Context, caller *policy.Caller, id uuid.UUID) (placeholder.Gradient, error) {
	listing, err := s.listings.Get(ctx, caller, id)
	if err != nil {
		return placeholder.Gradient{}, err
	}
	return placeholder.For(listing.Title, listing.Category, listing.ID.String()), nil
}
