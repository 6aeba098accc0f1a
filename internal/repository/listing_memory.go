// internal/repository/listing_memory.go
package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/realtime"
	"github.com/javajoker/campus-market/internal/utils"
)

type memoryRow struct {
	listing *models.Listing
	seq     uint64
}

// MemoryListingRepository keeps listings in process memory and publishes
// a change event after every successful write, the way the PostgreSQL
// trigger does for GormListingRepository.
type MemoryListingRepository struct {
	mu     sync.RWMutex
	rows   map[uuid.UUID]*memoryRow
	seq    uint64
	events *realtime.Broadcaster
	now    func() time.Time
}

func NewMemoryListingRepository(events *realtime.Broadcaster) *MemoryListingRepository {
	return &MemoryListingRepository{
		rows:   make(map[uuid.UUID]*memoryRow),
		events: events,
		now:    time.Now,
	}
}

// Seed stores listing as-is, bypassing the policy. It exists for loading
// legacy rows (nil owner) and fixtures.
func (r *MemoryListingRepository) Seed(listing *models.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := listing.Clone()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = r.now()
	}
	r.seq++
	r.rows[l.ID] = &memoryRow{listing: l, seq: r.seq}
	listing.ID, listing.CreatedAt = l.ID, l.CreatedAt
}

func (r *MemoryListingRepository) List(ctx context.Context, caller *policy.Caller, filter ListingFilter) ([]models.Listing, int64, error) {
	if err := policy.Evaluate(policy.Select, caller, nil, nil); err != nil {
		return nil, 0, err
	}
	params := utils.NormalizePagination(filter.PaginationParams)
	search := strings.ToLower(params.Search)

	r.mu.RLock()
	matched := make([]*memoryRow, 0, len(r.rows))
	for _, row := range r.rows {
		l := row.listing
		if params.Category != "" && l.Category != params.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(l.Title), search) &&
			!strings.Contains(strings.ToLower(l.Description), search) {
			continue
		}
		if filter.OwnerID != nil && !l.OwnedBy(*filter.OwnerID) {
			continue
		}
		matched = append(matched, row)
	}
	r.mu.RUnlock()

	sortRows(matched, params.SortField(ListingSortFields), params.Order == "asc")

	total := int64(len(matched))
	start := params.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]models.Listing, 0, end-start)
	for _, row := range matched[start:end] {
		page = append(page, *row.listing.Clone())
	}
	return page, total, nil
}

func sortRows(rows []*memoryRow, field string, asc bool) {
	less := func(a, b *memoryRow) bool {
		switch field {
		case "price":
			if a.listing.Price != b.listing.Price {
				return a.listing.Price < b.listing.Price
			}
		case "title":
			if a.listing.Title != b.listing.Title {
				return a.listing.Title < b.listing.Title
			}
		default:
			if !a.listing.CreatedAt.Equal(b.listing.CreatedAt) {
				return a.listing.CreatedAt.Before(b.listing.CreatedAt)
			}
		}
		return a.seq < b.seq
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
}

func (r *MemoryListingRepository) Get(ctx context.Context, caller *policy.Caller, id uuid.UUID) (*models.Listing, error) {
	if err := policy.Evaluate(policy.Select, caller, nil, nil); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperr.NotFound("listing not found")
	}
	return row.listing.Clone(), nil
}

func (r *MemoryListingRepository) Insert(ctx context.Context, caller *policy.Caller, listing *models.Listing) error {
	if err := policy.Evaluate(policy.Insert, caller, nil, listing); err != nil {
		return err
	}
	if err := checkRow(listing); err != nil {
		return err
	}

	r.mu.Lock()
	l := listing.Clone()
	l.ID = uuid.New()
	l.CreatedAt = r.now()
	r.seq++
	r.rows[l.ID] = &memoryRow{listing: l, seq: r.seq}
	r.mu.Unlock()

	listing.ID, listing.CreatedAt = l.ID, l.CreatedAt
	r.publish("INSERT")
	return nil
}

func (r *MemoryListingRepository) Update(ctx context.Context, caller *policy.Caller, listing *models.Listing) error {
	if caller == nil || caller.UserID == uuid.Nil {
		return policy.Evaluate(policy.Update, caller, nil, listing)
	}
	if err := checkRow(listing); err != nil {
		return err
	}

	r.mu.Lock()
	row, ok := r.rows[listing.ID]
	if !ok {
		r.mu.Unlock()
		return apperr.NotFound("listing not found")
	}
	if err := policy.Evaluate(policy.Update, caller, row.listing, listing); err != nil {
		r.mu.Unlock()
		return err
	}
	l := listing.Clone()
	l.CreatedAt = row.listing.CreatedAt
	row.listing = l
	r.mu.Unlock()

	listing.CreatedAt = l.CreatedAt
	r.publish("UPDATE")
	return nil
}

func (r *MemoryListingRepository) Delete(ctx context.Context, caller *policy.Caller, id uuid.UUID) error {
	return policy.Evaluate(policy.Delete, caller, nil, nil)
}

func (r *MemoryListingRepository) publish(op string) {
	if r.events != nil {
		r.events.Publish(realtime.Event{Table: "listings", Operation: op})
	}
}

