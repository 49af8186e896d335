// Package testutil provides common testing utilities and mock
// implementations.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/storage"
)

// MockPoster is a test implementation of the checkout OrderPoster. It
// records every push and can be primed to fail.
type MockPoster struct {
	mu      sync.Mutex
	nextKey int
	err     error
	pushes  []PushedRecord
}

// PushedRecord is one captured push.
type PushedRecord struct {
	Path   string
	Record any
}

// NewMockPoster creates a poster that assigns sequential keys.
func NewMockPoster() *MockPoster {
	return &MockPoster{nextKey: 1}
}

// FailWith makes every subsequent Push return err. Pass nil to heal.
func (m *MockPoster) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Push records the call and returns the next key.
func (m *MockPoster) Push(_ context.Context, path string, record any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.pushes = append(m.pushes, PushedRecord{Path: path, Record: record})
	key := fmt.Sprintf("key-%d", m.nextKey)
	m.nextKey++
	return key, nil
}

// Pushes returns the captured pushes.
func (m *MockPoster) Pushes() []PushedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PushedRecord(nil), m.pushes...)
}

// FlakyCartStore wraps a CartStore and fails saves on demand, for exercising
// the fire-and-forget persistence contract.
type FlakyCartStore struct {
	Inner storage.CartStore

	mu      sync.Mutex
	failing bool
	saves   int
}

var _ storage.CartStore = (*FlakyCartStore)(nil)

// SetFailing toggles save failures.
func (f *FlakyCartStore) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

// Saves returns the number of successful saves.
func (f *FlakyCartStore) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *FlakyCartStore) SaveCart(ctx context.Context, key string, state cart.State) error {
	f.mu.Lock()
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return fmt.Errorf("save cart %s: store unavailable", key)
	}
	if err := f.Inner.SaveCart(ctx, key, state); err != nil {
		return err
	}
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return nil
}

func (f *FlakyCartStore) LoadCart(ctx context.Context, key string) (cart.State, bool, error) {
	return f.Inner.LoadCart(ctx, key)
}

func (f *FlakyCartStore) DeleteCart(ctx context.Context, key string) error {
	return f.Inner.DeleteCart(ctx, key)
}
