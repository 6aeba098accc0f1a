// internal/feed/feed.go

// Package feed keeps the newest-first listing feed. It is re-read in full
// whenever a session starts and whenever the listings table changes; a
// refetch replaces the snapshot in one atomic swap.
package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/realtime"
	"github.com/javajoker/campus-market/internal/repository"
	"github.com/javajoker/campus-market/internal/session"
	"github.com/javajoker/campus-market/internal/utils"
)

const (
	DefaultSize    = 100
	refreshTimeout = 10 * time.Second
)

type ListingSource interface {
	List(ctx context.Context, caller *policy.Caller, filter repository.ListingFilter) ([]models.Listing, int64, error)
}

type SessionSource interface {
	Subscribe() *session.Subscription
}

// Snapshot is immutable once published.
type Snapshot struct {
	Listings  []models.Listing `json:"listings"`
	Total     int64            `json:"total"`
	Version   uint64           `json:"version"`
	Reason    string           `json:"reason"`
	FetchedAt time.Time        `json:"fetched_at"`

	// seq orders snapshots by when their read began.
	seq uint64
}

type activeSession struct {
	userID uuid.UUID
	seq    uint64
}

type Feed struct {
	listings ListingSource
	sessions SessionSource
	changes  realtime.Notifier
	size     int

	snap     atomic.Pointer[Snapshot]
	fetchSeq atomic.Uint64

	mu       sync.Mutex
	active   map[uuid.UUID]activeSession // by session id
	startSeq uint64

	log *logrus.Entry
}

func New(listings ListingSource, sessions SessionSource, changes realtime.Notifier, size int) *Feed {
	if size <= 0 {
		size = DefaultSize
	}
	return &Feed{
		listings: listings,
		sessions: sessions,
		changes:  changes,
		size:     size,
		active:   make(map[uuid.UUID]activeSession),
		log:      logrus.WithField("component", "feed"),
	}
}

// Snapshot returns the last successful refetch, or nil before the first.
func (f *Feed) Snapshot() *Snapshot {
	return f.snap.Load()
}

// Refresh re-reads the whole feed as caller. On failure the previous
// snapshot stays in place. A read that began before the current snapshot's
// never replaces it; the newer snapshot is returned instead.
func (f *Feed) Refresh(ctx context.Context, caller *policy.Caller, reason string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	seq := f.fetchSeq.Add(1)

	listings, total, err := f.listings.List(ctx, caller, repository.ListingFilter{
		PaginationParams: utils.PaginationParams{
			Page:  1,
			Limit: f.size,
			Sort:  "created_at",
			Order: "desc",
		},
	})
	if err != nil {
		return nil, err
	}

	for {
		prev := f.snap.Load()
		if prev != nil && prev.seq > seq {
			return prev, nil
		}
		next := &Snapshot{
			Listings:  listings,
			Total:     total,
			Reason:    reason,
			FetchedAt: time.Now(),
			Version:   1,
			seq:       seq,
		}
		if prev != nil {
			next.Version = prev.Version + 1
		}
		if f.snap.CompareAndSwap(prev, next) {
			return next, nil
		}
	}
}

// Run follows session and change events until ctx is done. Change events
// are refetched as the most recently started session still active; with
// no session there is nobody to read as and the event is skipped.
func (f *Feed) Run(ctx context.Context) {
	sessions := f.sessions.Subscribe()
	defer sessions.Cancel()

	var changeC <-chan realtime.Event
	if f.changes != nil {
		changes := f.changes.Subscribe()
		defer changes.Cancel()
		changeC = changes.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-sessions.C:
			if !ok {
				return
			}
			f.handleSession(ctx, ev)

		case ev, ok := <-changeC:
			if !ok {
				f.log.Warn("Change notifications closed, feed now follows sessions only")
				changeC = nil
				continue
			}
			if reader := f.currentReader(); reader != nil {
				f.refresh(ctx, reader, "change:"+ev.Operation)
			}
		}
	}
}

func (f *Feed) handleSession(ctx context.Context, ev session.Event) {
	switch ev.Type {
	case session.Started:
		f.mu.Lock()
		f.startSeq++
		f.active[ev.Session.ID] = activeSession{userID: ev.Session.UserID, seq: f.startSeq}
		f.mu.Unlock()
		f.refresh(ctx, &policy.Caller{UserID: ev.Session.UserID}, "session")

	case session.Ended:
		f.mu.Lock()
		delete(f.active, ev.Session.ID)
		f.mu.Unlock()
	}
}

func (f *Feed) currentReader() *policy.Caller {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *activeSession
	for _, s := range f.active {
		if latest == nil || s.seq > latest.seq {
			s := s
			latest = &s
		}
	}
	if latest == nil {
		return nil
	}
	return &policy.Caller{UserID: latest.userID}
}

func (f *Feed) refresh(ctx context.Context, caller *policy.Caller, reason string) {
	snap, err := f.Refresh(ctx, caller, reason)
	if err != nil {
		f.log.WithError(err).WithField("reason", reason).Warn("Feed refresh failed, keeping previous listings")
		return
	}
	f.log.WithFields(logrus.Fields{
		"reason":  reason,
		"version": snap.Version,
		"count":   len(snap.Listings),
	}).Debug("Feed refreshed")
}
