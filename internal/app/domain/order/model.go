// Package order defines the order record composed at checkout.
package order

import (
	"time"

	"github.com/mealbox/storefront/internal/app/domain/cart"
)

// Customer carries the validated checkout form values.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Order is the payload sent to the remote backend and journaled locally: the
// customer details plus a snapshot of the cart at submission time.
type Order struct {
	ID             string      `json:"id"`
	RemoteKey      string      `json:"remote_key,omitempty"`
	Customer       Customer    `json:"customer"`
	Items          []cart.Line `json:"items"`
	TotalAmount    float64     `json:"total_amount"`
	TotalItemCount int         `json:"total_item_count"`
	PlacedAt       time.Time   `json:"placed_at"`
}
