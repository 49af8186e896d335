// Package catalog serves the menu: a local cache of the catalog held in the
// menu store, refreshed from the remote backend on demand or on a schedule.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/mealbox/storefront/internal/app/domain/menu"
	"github.com/mealbox/storefront/internal/app/metrics"
	"github.com/mealbox/storefront/internal/app/storage"
	"github.com/mealbox/storefront/pkg/logger"
)

// Service reads the cached menu and refreshes it through a Fetcher.
type Service struct {
	store   storage.MenuStore
	fetcher Fetcher
	log     *logger.Logger
}

// New constructs a catalog service. The fetcher may be nil, in which case
// Refresh reports the dependency as unavailable.
func New(store storage.MenuStore, fetcher Fetcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{store: store, fetcher: fetcher, log: log}
}

// List returns the cached menu.
func (s *Service) List(ctx context.Context) (menu.Snapshot, error) {
	return s.store.GetMenu(ctx)
}

// Get returns one cached menu item.
func (s *Service) Get(ctx context.Context, id string) (menu.Item, error) {
	return s.store.GetMenuItem(ctx, id)
}

// Refresh pulls the catalog from the remote backend and replaces the cache.
// The cache is left untouched when the pull fails.
func (s *Service) Refresh(ctx context.Context) (menu.Snapshot, error) {
	if s.fetcher == nil {
		return menu.Snapshot{}, fmt.Errorf("refresh menu: no fetcher configured")
	}

	items, err := s.fetcher.FetchMenu(ctx)
	if err != nil {
		metrics.RecordMenuRefresh(false)
		return menu.Snapshot{}, fmt.Errorf("refresh menu: %w", err)
	}

	snap := menu.Snapshot{Items: items, FetchedAt: time.Now().UTC()}
	if err := s.store.ReplaceMenu(ctx, snap); err != nil {
		metrics.RecordMenuRefresh(false)
		return menu.Snapshot{}, fmt.Errorf("cache menu: %w", err)
	}
	metrics.RecordMenuRefresh(true)
	s.log.Infof("menu refreshed, %d items", len(items))
	return snap, nil
}
