package cart

import "errors"

// ActionType identifies a cart transition.
type ActionType string

const (
	AddItem        ActionType = "ADD_ITEM"
	RemoveItem     ActionType = "REMOVE_ITEM"
	OpenCart       ActionType = "OPEN_CART"
	CloseCart      ActionType = "CLOSE_CART"
	ToggleCheckout ActionType = "TOGGLE_CHECKOUT"
	OrderPlaced    ActionType = "ORDER_PLACED"
)

// Action is one dispatch payload. Only AddItem and RemoveItem read the
// payload fields; the lifecycle actions carry just the type.
type Action struct {
	Type        ActionType `json:"type"`
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	UnitPrice   float64    `json:"unit_price,omitempty"`
	Quantity    int        `json:"quantity,omitempty"`
	IsIncrement bool       `json:"is_increment,omitempty"`
}

// ErrLineNotFound reports a RemoveItem for an id that is not in the cart.
// The returned state is unchanged; callers log and carry on.
var ErrLineNotFound = errors.New("cart line not found")

// ErrUnknownAction reports a dispatch with an unrecognized action type. The
// returned state has Items cleared but keeps the open/checkout flags; this
// safe-reset fallback is long-standing observable behavior that callers
// depend on, so it is kept rather than turned into a no-op.
var ErrUnknownAction = errors.New("unknown cart action")

// Apply is the pure transition function: it maps the current state and an
// action to the next state. It never mutates its input and never panics; the
// error return is advisory (ErrLineNotFound, ErrUnknownAction) and always
// accompanies a well-formed state.
func Apply(state State, action Action) (State, error) {
	switch action.Type {
	case AddItem:
		next := state.Clone()

		// An increment always adds exactly one unit, whatever quantity
		// the payload carries. A plain add uses the payload quantity.
		qty := action.Quantity
		if action.IsIncrement || qty < 1 {
			qty = 1
		}

		// Merging into an existing line charges the line's stored unit
		// price; increments in particular carry no price on the payload.
		// The payload price only prices brand-new lines.
		unitPrice := action.UnitPrice
		found := false
		for i := range next.Items {
			if next.Items[i].ID == action.ID {
				next.Items[i].Quantity += qty
				unitPrice = next.Items[i].UnitPrice
				found = true
				break
			}
		}
		if !found {
			next.Items = append(next.Items, Line{
				ID:        action.ID,
				Name:      action.Name,
				UnitPrice: action.UnitPrice,
				Quantity:  qty,
			})
		}

		next.TotalAmount += unitPrice * float64(qty)
		next.TotalItemCount += qty
		return next, nil

	case RemoveItem:
		idx := -1
		for i := range state.Items {
			if state.Items[i].ID == action.ID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return state, ErrLineNotFound
		}

		next := state.Clone()
		line := next.Items[idx]

		// Removal is always by exactly one unit, never batched. A line at
		// quantity 1 is deleted outright; quantity 0 lines must not exist.
		if line.Quantity > 1 {
			next.Items[idx].Quantity--
		} else {
			next.Items = append(next.Items[:idx], next.Items[idx+1:]...)
		}
		next.TotalAmount -= line.UnitPrice
		next.TotalItemCount--
		return next, nil

	case OpenCart:
		next := state.Clone()
		next.CartOpen = true
		return next, nil

	case CloseCart:
		next := state.Clone()
		next.CartOpen = false
		next.OrderPlaced = false
		return next, nil

	case ToggleCheckout:
		// Entering or leaving checkout always cancels a stale
		// order-placed display.
		next := state.Clone()
		next.CheckoutOpen = !next.CheckoutOpen
		next.OrderPlaced = false
		return next, nil

	case OrderPlaced:
		return State{
			Items:        []Line{},
			CartOpen:     true,
			CheckoutOpen: false,
			OrderPlaced:  true,
		}, nil
	}

	next := state.Clone()
	next.Items = []Line{}
	next.TotalAmount = 0
	next.TotalItemCount = 0
	return next, ErrUnknownAction
}
