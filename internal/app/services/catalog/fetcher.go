package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/mealbox/storefront/internal/app/domain/menu"
	"github.com/mealbox/storefront/internal/remotedb"
	"github.com/mealbox/storefront/pkg/logger"
)

// menuPath is the remote collection the catalog lives under.
const menuPath = "/menu"

// Fetcher retrieves the full catalog from wherever it is mastered.
type Fetcher interface {
	FetchMenu(ctx context.Context) ([]menu.Item, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]menu.Item, error)

func (f FetcherFunc) FetchMenu(ctx context.Context) ([]menu.Item, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx)
}

// RemoteFetcher reads the catalog from the remote document backend. Each
// document's key becomes the item ID; the body carries name, price and
// description.
type RemoteFetcher struct {
	client *remotedb.Client
	log    *logger.Logger
}

// NewRemoteFetcher constructs a fetcher over the given client.
func NewRemoteFetcher(client *remotedb.Client, log *logger.Logger) (*RemoteFetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("remote client required")
	}
	if log == nil {
		log = logger.NewDefault("catalog-fetcher")
	}
	return &RemoteFetcher{client: client, log: log}, nil
}

func (f *RemoteFetcher) FetchMenu(ctx context.Context) ([]menu.Item, error) {
	docs, err := f.client.GetMany(ctx, menuPath)
	if err != nil {
		// An empty remote menu is a valid catalog, not a failure.
		if errors.Is(err, remotedb.ErrNoData) {
			return []menu.Item{}, nil
		}
		return nil, err
	}

	items := make([]menu.Item, 0, len(docs))
	for _, doc := range docs {
		var item menu.Item
		if err := doc.Decode(&item); err != nil {
			f.log.WithError(err).Warnf("skip malformed menu document %s", doc.ID)
			continue
		}
		item.ID = doc.ID
		items = append(items, item)
	}
	return items, nil
}
