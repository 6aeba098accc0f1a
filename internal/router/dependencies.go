// internal/router/dependencies.go
package router

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/javajoker/campus-market/internal/config"
	"github.com/javajoker/campus-market/internal/feed"
	"github.com/javajoker/campus-market/internal/realtime"
	"github.com/javajoker/campus-market/internal/repository"
	"github.com/javajoker/campus-market/internal/services"
	"github.com/javajoker/campus-market/internal/session"
	"github.com/javajoker/campus-market/internal/storage"
)

// Dependencies are the long-lived collaborators the HTTP layer is built
// on. Goroutines (session sweeping, feed, change listener) are started by
// the caller.
type Dependencies struct {
	Config      *config.Config
	Listings    repository.ListingRepository
	Users       repository.UserRepository
	Preferences repository.PreferenceRepository
	Sessions    *session.Manager
	Changes     realtime.Notifier
	Feed        *feed.Feed
	Store       storage.Store
}

// NewDependencies wires the repositories for cfg.Database.Driver. For
// postgres, changes must be the broadcaster fed by the NOTIFY listener;
// for memory it may be nil and one is created.
func NewDependencies(cfg *config.Config, db *gorm.DB, changes *realtime.Broadcaster) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Sessions: session.NewManager(services.SessionTTL(cfg)),
	}

	switch cfg.Database.Driver {
	case "postgres":
		if db == nil || changes == nil {
			return nil, fmt.Errorf("postgres driver needs a database and a change listener")
		}
		deps.Listings = repository.NewGormListingRepository(db)
		deps.Users = repository.NewGormUserRepository(db)
		deps.Preferences = repository.NewGormPreferenceRepository(db)
	case "memory":
		if changes == nil {
			changes = realtime.NewBroadcaster()
		}
		deps.Listings = repository.NewMemoryListingRepository(changes)
		deps.Users = repository.NewMemoryUserRepository()
		deps.Preferences = repository.NewMemoryPreferenceRepository()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	deps.Changes = changes

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	deps.Store = store

	deps.Feed = feed.New(deps.Listings, deps.Sessions, deps.Changes, feed.DefaultSize)
	return deps, nil
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return storage.NewS3Store(cfg.AWS)
	case "local":
		if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		return storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
