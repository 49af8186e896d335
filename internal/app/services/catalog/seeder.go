package catalog

import (
	"context"
	"fmt"

	"github.com/mealbox/storefront/internal/app/domain/menu"
	"github.com/mealbox/storefront/internal/remotedb"
	"github.com/mealbox/storefront/pkg/logger"
)

// Seeder pushes a static catalog into the remote backend. It is a
// development utility for bootstrapping an empty backend, not part of the
// request path.
type Seeder struct {
	client *remotedb.Client
	log    *logger.Logger
}

// NewSeeder constructs a seeder over the given client.
func NewSeeder(client *remotedb.Client, log *logger.Logger) (*Seeder, error) {
	if client == nil {
		return nil, fmt.Errorf("remote client required")
	}
	if log == nil {
		log = logger.NewDefault("catalog-seeder")
	}
	return &Seeder{client: client, log: log}, nil
}

// Seed pushes each item under the menu path and returns the assigned keys.
// It stops at the first failure so a partial seed is visible in the logs.
func (s *Seeder) Seed(ctx context.Context, items []menu.Item) ([]string, error) {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		key, err := s.client.Push(ctx, menuPath, item)
		if err != nil {
			return keys, fmt.Errorf("seed %q: %w", item.Name, err)
		}
		keys = append(keys, key)
	}
	s.log.Infof("seeded %d menu items", len(keys))
	return keys, nil
}
