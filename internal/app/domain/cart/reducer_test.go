package cart

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// checkTotals verifies the derived fields against a recompute over Items.
func checkTotals(t *testing.T, state State) {
	t.Helper()
	if !approx(state.TotalAmount, state.SumAmount()) {
		t.Fatalf("total amount %v out of sync with items (want %v)", state.TotalAmount, state.SumAmount())
	}
	if state.TotalItemCount != state.SumItemCount() {
		t.Fatalf("total item count %d out of sync with items (want %d)", state.TotalItemCount, state.SumItemCount())
	}
	for _, line := range state.Items {
		if line.Quantity < 1 {
			t.Fatalf("line %s has quantity %d", line.ID, line.Quantity)
		}
	}
}

func mustApply(t *testing.T, state State, action Action) State {
	t.Helper()
	next, err := Apply(state, action)
	if err != nil {
		t.Fatalf("apply %s: %v", action.Type, err)
	}
	checkTotals(t, next)
	return next
}

func TestApplyAddRemoveLifecycle(t *testing.T) {
	state := Initial()

	state = mustApply(t, state, Action{Type: AddItem, ID: "1", Name: "Sushi", UnitPrice: 16.99, Quantity: 1})
	if len(state.Items) != 1 || !approx(state.TotalAmount, 16.99) || state.TotalItemCount != 1 {
		t.Fatalf("unexpected state after first add: %#v", state)
	}

	state = mustApply(t, state, Action{Type: AddItem, ID: "1", UnitPrice: 16.99, IsIncrement: true})
	if state.Items[0].Quantity != 2 || !approx(state.TotalAmount, 33.98) {
		t.Fatalf("unexpected state after increment: %#v", state)
	}

	state = mustApply(t, state, Action{Type: RemoveItem, ID: "1"})
	if state.Items[0].Quantity != 1 || !approx(state.TotalAmount, 16.99) {
		t.Fatalf("unexpected state after first remove: %#v", state)
	}

	state = mustApply(t, state, Action{Type: RemoveItem, ID: "1"})
	if len(state.Items) != 0 || !approx(state.TotalAmount, 0) || state.TotalItemCount != 0 {
		t.Fatalf("unexpected state after final remove: %#v", state)
	}
}

func TestApplyAddBatchQuantity(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "7", Name: "Ramen", UnitPrice: 12.50, Quantity: 3})
	if state.Items[0].Quantity != 3 || state.TotalItemCount != 3 {
		t.Fatalf("batch add not applied: %#v", state)
	}

	// Adding the same id again merges into the existing line.
	state = mustApply(t, state, Action{Type: AddItem, ID: "7", UnitPrice: 12.50, Quantity: 2})
	if len(state.Items) != 1 || state.Items[0].Quantity != 5 {
		t.Fatalf("repeat add did not merge: %#v", state)
	}
}

func TestApplyIncrementIgnoresQuantity(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 5, Quantity: 2})

	// An increment adds exactly one unit even when the payload carries a
	// larger quantity.
	state = mustApply(t, state, Action{Type: AddItem, ID: "1", UnitPrice: 5, Quantity: 99, IsIncrement: true})
	if state.Items[0].Quantity != 3 || state.TotalItemCount != 3 {
		t.Fatalf("increment was not exactly one unit: %#v", state)
	}
}

// TestApplyIncrementWithoutPayloadPrice covers the usual increment dispatch,
// which carries only the id. The merged line's stored price must drive the
// total; a payload without a price must not freeze or corrupt it.
func TestApplyIncrementWithoutPayloadPrice(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", Name: "Sushi", UnitPrice: 16.99, Quantity: 1})

	state = mustApply(t, state, Action{Type: AddItem, ID: "1", IsIncrement: true})
	if state.Items[0].Quantity != 2 {
		t.Fatalf("increment did not merge: %#v", state)
	}
	if !approx(state.TotalAmount, 33.98) {
		t.Fatalf("total should follow the stored line price, got %v", state.TotalAmount)
	}

	// A mismatched payload price on a merge is ignored the same way.
	state = mustApply(t, state, Action{Type: AddItem, ID: "1", UnitPrice: 99, Quantity: 1})
	if !approx(state.TotalAmount, 50.97) {
		t.Fatalf("merge should charge the stored price, got %v", state.TotalAmount)
	}
}

func TestApplyAddDefaultsQuantityToOne(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 2})
	if state.Items[0].Quantity != 1 {
		t.Fatalf("missing quantity should default to 1: %#v", state)
	}
}

func TestApplyRemoveIsAlwaysOneUnit(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 4, Quantity: 5})

	// Removal never batches, in deliberate asymmetry with AddItem.
	state = mustApply(t, state, Action{Type: RemoveItem, ID: "1"})
	if state.Items[0].Quantity != 4 {
		t.Fatalf("remove should decrement by exactly one: %#v", state)
	}
}

func TestApplyRemoveMissingLine(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 4})

	next, err := Apply(state, Action{Type: RemoveItem, ID: "nope"})
	if !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
	if len(next.Items) != 1 || !approx(next.TotalAmount, state.TotalAmount) {
		t.Fatalf("state changed on missing removal: %#v", next)
	}
}

func TestApplyLifecycleFlags(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: OpenCart})
	if !state.CartOpen {
		t.Fatalf("open cart did not set flag")
	}

	state.OrderPlaced = true
	state = mustApply(t, state, Action{Type: CloseCart})
	if state.CartOpen || state.OrderPlaced {
		t.Fatalf("close cart should clear both flags: %#v", state)
	}

	state = mustApply(t, state, Action{Type: ToggleCheckout})
	if !state.CheckoutOpen {
		t.Fatalf("toggle checkout did not open")
	}
	state.OrderPlaced = true
	state = mustApply(t, state, Action{Type: ToggleCheckout})
	if state.CheckoutOpen || state.OrderPlaced {
		t.Fatalf("toggle checkout should close and clear order flag: %#v", state)
	}
}

func TestApplyCloseCartKeepsItems(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 3})
	state = mustApply(t, state, Action{Type: OpenCart})
	state = mustApply(t, state, Action{Type: CloseCart})
	if len(state.Items) != 1 {
		t.Fatalf("close cart must not clear items: %#v", state)
	}
}

func TestApplyOrderPlaced(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 9.5, Quantity: 4})
	state.CheckoutOpen = true

	state = mustApply(t, state, Action{Type: OrderPlaced})
	if len(state.Items) != 0 || state.TotalAmount != 0 || state.TotalItemCount != 0 {
		t.Fatalf("order placed should empty the cart: %#v", state)
	}
	if !state.CartOpen || state.CheckoutOpen || !state.OrderPlaced {
		t.Fatalf("order placed flags wrong: %#v", state)
	}
}

// TestApplyUnknownActionFallback documents a long-standing quirk: an
// unrecognized action type clears the cart contents while preserving the
// open/checkout flags, instead of being a no-op. Callers rely on this
// safe-reset behavior, so it is pinned here rather than fixed.
func TestApplyUnknownActionFallback(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 2, Quantity: 2})
	state = mustApply(t, state, Action{Type: OpenCart})

	next, err := Apply(state, Action{Type: "NOT_AN_ACTION"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if len(next.Items) != 0 || next.TotalAmount != 0 || next.TotalItemCount != 0 {
		t.Fatalf("fallback should clear items and totals: %#v", next)
	}
	if !next.CartOpen {
		t.Fatalf("fallback should preserve the open flag: %#v", next)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	state := mustApply(t, Initial(), Action{Type: AddItem, ID: "1", UnitPrice: 2, Quantity: 2})

	before := state.Clone()
	if _, err := Apply(state, Action{Type: AddItem, ID: "1", UnitPrice: 2, IsIncrement: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if state.Items[0].Quantity != before.Items[0].Quantity || !approx(state.TotalAmount, before.TotalAmount) {
		t.Fatalf("input state mutated: %#v", state)
	}
}

func TestTotalsStayConsistentAcrossSequences(t *testing.T) {
	actions := []Action{
		{Type: AddItem, ID: "a", UnitPrice: 1.25, Quantity: 2},
		{Type: AddItem, ID: "b", UnitPrice: 3.10},
		{Type: AddItem, ID: "a", UnitPrice: 1.25, IsIncrement: true},
		{Type: RemoveItem, ID: "b"},
		{Type: AddItem, ID: "c", UnitPrice: 0.99, Quantity: 4},
		{Type: RemoveItem, ID: "a"},
		{Type: RemoveItem, ID: "a"},
		{Type: RemoveItem, ID: "a"},
		{Type: AddItem, ID: "b", UnitPrice: 3.10, Quantity: 1},
	}

	state := Initial()
	for i, action := range actions {
		var err error
		state, err = Apply(state, action)
		if err != nil {
			t.Fatalf("step %d (%s): %v", i, action.Type, err)
		}
		checkTotals(t, state)
	}
}
