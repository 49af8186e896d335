// Package cart holds the canonical cart state and the pure transition
// function that drives the ordering lifecycle.
package cart

// Line is one product entry in the cart with its quantity.
type Line struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// State is the full cart snapshot. Items keeps insertion order; the two
// totals are maintained incrementally by the reducer and must always equal
// the sums over Items.
type State struct {
	Items          []Line  `json:"items"`
	TotalAmount    float64 `json:"total_amount"`
	TotalItemCount int     `json:"total_item_count"`
	CartOpen       bool    `json:"cart_open"`
	CheckoutOpen   bool    `json:"checkout_open"`
	OrderPlaced    bool    `json:"order_placed"`
}

// Initial returns the default empty cart.
func Initial() State {
	return State{Items: []Line{}}
}

// DemoState returns a cart pre-seeded with one demo line. It mirrors the
// seeded build variant and is only used by development tooling.
func DemoState() State {
	return State{
		Items: []Line{{
			ID:        "1",
			Name:      "Sushi and Veggies",
			UnitPrice: 16.99,
			Quantity:  1,
		}},
		TotalAmount:    16.99,
		TotalItemCount: 1,
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	s.Items = append([]Line(nil), s.Items...)
	return s
}

// SumAmount recomputes the monetary total from Items. The reducer maintains
// TotalAmount incrementally; this is the ground truth the invariant is
// checked against.
func (s State) SumAmount() float64 {
	var total float64
	for _, line := range s.Items {
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total
}

// SumItemCount recomputes the unit count from Items.
func (s State) SumItemCount() int {
	var count int
	for _, line := range s.Items {
		count += line.Quantity
	}
	return count
}
