// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/domain/menu"
	"github.com/mealbox/storefront/internal/app/domain/order"
	"github.com/mealbox/storefront/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.CartStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.MenuStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS storefront_carts (
			key        TEXT PRIMARY KEY,
			state      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS storefront_orders (
			id               TEXT PRIMARY KEY,
			remote_key       TEXT NOT NULL DEFAULT '',
			customer         JSONB NOT NULL,
			items            JSONB NOT NULL,
			total_amount     DOUBLE PRECISION NOT NULL,
			total_item_count INTEGER NOT NULL,
			placed_at        TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS storefront_menu (
			id         INTEGER PRIMARY KEY,
			snapshot   JSONB NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// --- CartStore --------------------------------------------------------------

func (s *Store) SaveCart(ctx context.Context, key string, state cart.State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO storefront_carts (key, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET state = $2, updated_at = $3
	`, key, blob, time.Now().UTC())
	return err
}

func (s *Store) LoadCart(ctx context.Context, key string) (cart.State, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT state FROM storefront_carts WHERE key = $1
	`, key)

	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cart.State{}, false, nil
		}
		return cart.State{}, false, err
	}

	var state cart.State
	if err := json.Unmarshal(blob, &state); err != nil {
		return cart.State{}, false, err
	}
	return state, true, nil
}

func (s *Store) DeleteCart(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM storefront_carts WHERE key = $1`, key)
	return err
}

// --- OrderStore -------------------------------------------------------------

func (s *Store) CreateOrder(ctx context.Context, ord order.Order) (order.Order, error) {
	if ord.ID == "" {
		ord.ID = uuid.NewString()
	}
	if ord.PlacedAt.IsZero() {
		ord.PlacedAt = time.Now().UTC()
	}

	customerJSON, err := json.Marshal(ord.Customer)
	if err != nil {
		return order.Order{}, err
	}
	itemsJSON, err := json.Marshal(ord.Items)
	if err != nil {
		return order.Order{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO storefront_orders (id, remote_key, customer, items, total_amount, total_item_count, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ord.ID, ord.RemoteKey, customerJSON, itemsJSON, ord.TotalAmount, ord.TotalItemCount, ord.PlacedAt)
	if err != nil {
		return order.Order{}, err
	}
	return ord, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (order.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, remote_key, customer, items, total_amount, total_item_count, placed_at
		FROM storefront_orders
		WHERE id = $1
	`, id)

	ord, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Order{}, fmt.Errorf("order %s: %w", id, storage.ErrNotFound)
		}
		return order.Order{}, err
	}
	return ord, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, remote_key, customer, items, total_amount, total_item_count, placed_at
		FROM storefront_orders
		ORDER BY placed_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ord)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (order.Order, error) {
	var (
		ord         order.Order
		customerRaw []byte
		itemsRaw    []byte
	)
	if err := row.Scan(&ord.ID, &ord.RemoteKey, &customerRaw, &itemsRaw, &ord.TotalAmount, &ord.TotalItemCount, &ord.PlacedAt); err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(customerRaw, &ord.Customer); err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(itemsRaw, &ord.Items); err != nil {
		return order.Order{}, err
	}
	return ord, nil
}

// --- MenuStore --------------------------------------------------------------

func (s *Store) ReplaceMenu(ctx context.Context, snap menu.Snapshot) error {
	blob, err := json.Marshal(snap.Items)
	if err != nil {
		return err
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO storefront_menu (id, snapshot, fetched_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET snapshot = $1, fetched_at = $2
	`, blob, snap.FetchedAt)
	return err
}

func (s *Store) GetMenu(ctx context.Context) (menu.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT snapshot, fetched_at FROM storefront_menu WHERE id = 1`)

	var (
		blob []byte
		snap menu.Snapshot
	)
	if err := row.Scan(&blob, &snap.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return menu.Snapshot{Items: []menu.Item{}}, nil
		}
		return menu.Snapshot{}, err
	}
	if err := json.Unmarshal(blob, &snap.Items); err != nil {
		return menu.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (menu.Item, error) {
	snap, err := s.GetMenu(ctx)
	if err != nil {
		return menu.Item{}, err
	}
	for _, item := range snap.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return menu.Item{}, fmt.Errorf("menu item %s: %w", id, storage.ErrNotFound)
}
