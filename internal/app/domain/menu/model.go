// Package menu defines the catalog read model.
package menu

import "time"

// Item is one orderable product from the catalog.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Snapshot is the cached catalog together with the time it was last pulled
// from the remote backend.
type Snapshot struct {
	Items     []Item    `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}
