// Package redis implements the cart snapshot store on Redis. Carts are
// per-session key/value blobs, which maps directly onto a Redis string per
// session; orders and the menu cache stay in the relational or in-memory
// backend.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/storage"
)

// Store persists cart snapshots in Redis under a fixed key prefix.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ storage.CartStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL sets an expiry on stored snapshots. Zero (the default) keeps them
// until explicitly deleted.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New creates a Store on the given client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: "storefront:cart:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(key string) string { return s.prefix + key }

func (s *Store) SaveCart(ctx context.Context, key string, state cart.State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", key, err)
	}
	return nil
}

func (s *Store) LoadCart(ctx context.Context, key string) (cart.State, bool, error) {
	blob, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cart.State{}, false, nil
		}
		return cart.State{}, false, fmt.Errorf("load cart %s: %w", key, err)
	}

	var state cart.State
	if err := json.Unmarshal(blob, &state); err != nil {
		return cart.State{}, false, err
	}
	return state, true, nil
}

func (s *Store) DeleteCart(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete cart %s: %w", key, err)
	}
	return nil
}
