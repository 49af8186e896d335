// Package memory is an in-memory implementation of the storage interfaces.
// It is safe for concurrent use and is primarily intended for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/domain/menu"
	"github.com/mealbox/storefront/internal/app/domain/order"
	"github.com/mealbox/storefront/internal/app/storage"
)

// Store holds everything behind one RWMutex; contention is irrelevant at the
// scale this backend is used for.
type Store struct {
	mu     sync.RWMutex
	carts  map[string]cart.State
	orders map[string]order.Order
	menu   menu.Snapshot
}

var _ storage.CartStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.MenuStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		carts:  make(map[string]cart.State),
		orders: make(map[string]order.Order),
		menu:   menu.Snapshot{Items: []menu.Item{}},
	}
}

// CartStore implementation ----------------------------------------------------

func (s *Store) SaveCart(_ context.Context, key string, state cart.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[key] = state.Clone()
	return nil
}

func (s *Store) LoadCart(_ context.Context, key string) (cart.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.carts[key]
	if !ok {
		return cart.State{}, false, nil
	}
	return state.Clone(), true, nil
}

func (s *Store) DeleteCart(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}

// OrderStore implementation ---------------------------------------------------

func (s *Store) CreateOrder(_ context.Context, ord order.Order) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ord.ID == "" {
		ord.ID = uuid.NewString()
	} else if _, exists := s.orders[ord.ID]; exists {
		return order.Order{}, fmt.Errorf("order %s already exists", ord.ID)
	}
	if ord.PlacedAt.IsZero() {
		ord.PlacedAt = time.Now().UTC()
	}
	ord.Items = append([]cart.Line(nil), ord.Items...)

	s.orders[ord.ID] = ord
	return cloneOrder(ord), nil
}

func (s *Store) GetOrder(_ context.Context, id string) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ord, ok := s.orders[id]
	if !ok {
		return order.Order{}, fmt.Errorf("order %s: %w", id, storage.ErrNotFound)
	}
	return cloneOrder(ord), nil
}

func (s *Store) ListOrders(_ context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]order.Order, 0, len(s.orders))
	for _, ord := range s.orders {
		result = append(result, cloneOrder(ord))
	}
	return result, nil
}

// MenuStore implementation ----------------------------------------------------

func (s *Store) ReplaceMenu(_ context.Context, snap menu.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Items = append([]menu.Item(nil), snap.Items...)
	s.menu = snap
	return nil
}

func (s *Store) GetMenu(_ context.Context) (menu.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.menu
	snap.Items = append([]menu.Item(nil), snap.Items...)
	return snap, nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (menu.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.menu.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return menu.Item{}, fmt.Errorf("menu item %s: %w", id, storage.ErrNotFound)
}

// Helpers ---------------------------------------------------------------------

func cloneOrder(ord order.Order) order.Order {
	ord.Items = append([]cart.Line(nil), ord.Items...)
	return ord
}
