package storage

import (
	"context"
	"errors"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/domain/menu"
	"github.com/mealbox/storefront/internal/app/domain/order"
)

// ErrNotFound reports a lookup for a record that does not exist. All
// implementations wrap it so callers can branch with errors.Is.
var ErrNotFound = errors.New("not found")

// CartStore persists cart snapshots keyed by session. Save is write-through:
// the stored value must round-trip through Load exactly.
type CartStore interface {
	SaveCart(ctx context.Context, key string, state cart.State) error
	// LoadCart returns the stored state and whether a snapshot existed.
	LoadCart(ctx context.Context, key string) (cart.State, bool, error)
	DeleteCart(ctx context.Context, key string) error
}

// OrderStore journals placed orders locally.
type OrderStore interface {
	CreateOrder(ctx context.Context, ord order.Order) (order.Order, error)
	GetOrder(ctx context.Context, id string) (order.Order, error)
	ListOrders(ctx context.Context) ([]order.Order, error)
}

// MenuStore caches the catalog pulled from the remote backend.
type MenuStore interface {
	ReplaceMenu(ctx context.Context, snap menu.Snapshot) error
	GetMenu(ctx context.Context) (menu.Snapshot, error)
	GetMenuItem(ctx context.Context, id string) (menu.Item, error)
}
