// internal/services/draft_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/form"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/repository"
)

// DraftService keeps step-by-step listing wizards in memory. Each draft
// belongs to the user who opened it and expires after ttl of inactivity.
type DraftService struct {
	mu          sync.Mutex
	drafts      map[uuid.UUID]*draft
	ttl         time.Duration
	listings    repository.ListingRepository
	photos      form.PhotoUploader
	countryCode string
	now         func() time.Time
}

type draft struct {
	id        uuid.UUID
	owner     uuid.UUID
	form      *form.Controller
	expiresAt time.Time
}

type DraftView struct {
	ID        uuid.UUID `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
	form.State
}

func NewDraftService(listings repository.ListingRepository, photos form.PhotoUploader, countryCode string, ttl time.Duration) *DraftService {
	return &DraftService{
		drafts:      make(map[uuid.UUID]*draft),
		ttl:         ttl,
		listings:    listings,
		photos:      photos,
		countryCode: countryCode,
		now:         time.Now,
	}
}

// Open starts a wizard. With listingID set it edits that listing, which
// must belong to caller.
func (s *DraftService) Open(ctx context.Context, caller *policy.Caller, listingID *uuid.UUID) (*DraftView, error) {
	if err := policy.Evaluate(policy.Select, caller, nil, nil); err != nil {
		return nil, err
	}

	controller := form.New(s.countryCode)
	if listingID != nil {
		existing, err := s.listings.Get(ctx, caller, *listingID)
		if err != nil {
			return nil, err
		}
		if !existing.OwnedBy(caller.UserID) {
			return nil, apperr.Authorization("only the owner can edit this listing")
		}
		controller = form.ForEdit(existing, s.countryCode)
	}

	d := &draft{id: uuid.New(), owner: caller.UserID, form: controller}

	s.mu.Lock()
	s.sweepLocked()
	d.expiresAt = s.now().Add(s.ttl)
	s.drafts[d.id] = d
	s.mu.Unlock()

	return d.view(), nil
}

func (s *DraftService) Get(caller *policy.Caller, id uuid.UUID) (*DraftView, error) {
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	return d.view(), nil
}

func (s *DraftService) Apply(caller *policy.Caller, id uuid.UUID, patch form.Patch) (*DraftView, error) {
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	d.form.Apply(patch)
	return d.view(), nil
}

func (s *DraftService) Next(caller *policy.Caller, id uuid.UUID) (*DraftView, error) {
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	if err := d.form.Next(); err != nil {
		return nil, err
	}
	return d.view(), nil
}

func (s *DraftService) Back(caller *policy.Caller, id uuid.UUID) (*DraftView, error) {
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	d.form.Back()
	return d.view(), nil
}

// AttachImage selects the upload variant; the file is stored on submit.
func (s *DraftService) AttachImage(caller *policy.Caller, id uuid.UUID, name string, data []byte) (*DraftView, error) {
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	d.form.SetUpload(name, data)
	return d.view(), nil
}

// Submit saves the listing and reports whether it was an edit. The draft
// is discarded on success and kept, unchanged, on failure.
func (s *DraftService) Submit(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*ListingView, bool, error) {
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, false, err
	}

	edited := d.form.State().ListingID != nil
	listing, err := d.form.Submit(ctx, caller, s.listings, s.photos)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()

	view := NewListingView(listing, caller)
	return &view, edited, nil
}

func (s *DraftService) Discard(caller *policy.Caller, id uuid.UUID) error {
	if _, err := s.lookup(caller, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live drafts.
func (s *DraftService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.drafts)
}

// lookup returns a live draft owned by caller and extends its lifetime.
// Drafts of other users are reported as missing.
func (s *DraftService) lookup(caller *policy.Caller, id uuid.UUID) (*draft, error) {
	if err := policy.Evaluate(policy.Select, caller, nil, nil); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	d, ok := s.drafts[id]
	if !ok || d.owner != caller.UserID {
		return nil, apperr.NotFound("draft not found or expired")
	}
	d.expiresAt = s.now().Add(s.ttl)
	return d, nil
}

func (s *DraftService) sweepLocked() {
	now := s.now()
	for id, d := range s.drafts {
		if !now.Before(d.expiresAt) {
			delete(s.drafts, id)
		}
	}
}

func (d *draft) view() *DraftView {
	return &DraftView{ID: d.id, ExpiresAt: d.expiresAt, State: d.form.State()}
}
