package carts

import (
	"context"
	"testing"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/storage"
	"github.com/mealbox/storefront/internal/app/storage/memory"
	"github.com/mealbox/storefront/pkg/testutil"
)

// gatedStore stalls the restore of one session until its gate is released,
// signalling on entered when the stalled load begins.
type gatedStore struct {
	inner   storage.CartStore
	session string
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) SaveCart(ctx context.Context, key string, state cart.State) error {
	return g.inner.SaveCart(ctx, key, state)
}

func (g *gatedStore) LoadCart(ctx context.Context, key string) (cart.State, bool, error) {
	if key == g.session {
		close(g.entered)
		<-g.gate
	}
	return g.inner.LoadCart(ctx, key)
}

func (g *gatedStore) DeleteCart(ctx context.Context, key string) error {
	return g.inner.DeleteCart(ctx, key)
}

func TestDispatchWritesThrough(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	state := svc.Dispatch(ctx, "sess", cart.Action{Type: cart.AddItem, ID: "1", Name: "Sushi", UnitPrice: 16.99})
	if len(state.Items) != 1 {
		t.Fatalf("dispatch did not apply: %#v", state)
	}

	// Every transition is persisted before the next dispatch.
	persisted, found, err := store.LoadCart(ctx, "sess")
	if err != nil || !found {
		t.Fatalf("load persisted cart: found=%v err=%v", found, err)
	}
	if persisted.TotalItemCount != 1 || persisted.TotalAmount != state.TotalAmount {
		t.Fatalf("persisted cart lags in-memory state: %#v", persisted)
	}

	svc.Dispatch(ctx, "sess", cart.Action{Type: cart.AddItem, ID: "1", UnitPrice: 16.99, IsIncrement: true})
	persisted, _, _ = store.LoadCart(ctx, "sess")
	if persisted.TotalItemCount != 2 {
		t.Fatalf("second transition not persisted: %#v", persisted)
	}
}

func TestRestoreOnFirstTouch(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	prior := cart.State{
		Items:          []cart.Line{{ID: "9", Name: "Udon", UnitPrice: 11, Quantity: 2}},
		TotalAmount:    22,
		TotalItemCount: 2,
	}
	if err := store.SaveCart(ctx, "sess", prior); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	svc := New(store, nil)
	state := svc.Current(ctx, "sess")
	if len(state.Items) != 1 || state.Items[0].ID != "9" || state.TotalItemCount != 2 {
		t.Fatalf("prior snapshot not restored: %#v", state)
	}

	// The restored state is the base for further transitions.
	state = svc.Dispatch(ctx, "sess", cart.Action{Type: cart.RemoveItem, ID: "9"})
	if state.Items[0].Quantity != 1 || state.TotalAmount != 11 {
		t.Fatalf("transition from restored state wrong: %#v", state)
	}
}

func TestFreshSessionStartsEmpty(t *testing.T) {
	svc := New(memory.New(), nil)
	state := svc.Current(context.Background(), "new")
	if len(state.Items) != 0 || state.TotalAmount != 0 || state.CartOpen {
		t.Fatalf("fresh session should be the initial state: %#v", state)
	}
}

func TestPersistFailureDoesNotBlockTransitions(t *testing.T) {
	flaky := &testutil.FlakyCartStore{Inner: memory.New()}
	svc := New(flaky, nil)
	ctx := context.Background()

	flaky.SetFailing(true)
	state := svc.Dispatch(ctx, "sess", cart.Action{Type: cart.AddItem, ID: "1", UnitPrice: 5})
	if len(state.Items) != 1 {
		t.Fatalf("store failure must not fail the transition: %#v", state)
	}

	// The in-memory state keeps evolving, and once the store heals the
	// next write-through carries the current state.
	flaky.SetFailing(false)
	state = svc.Dispatch(ctx, "sess", cart.Action{Type: cart.AddItem, ID: "1", UnitPrice: 5, IsIncrement: true})
	if state.TotalItemCount != 2 {
		t.Fatalf("in-memory state lost after store failure: %#v", state)
	}

	persisted, found, _ := flaky.Inner.LoadCart(ctx, "sess")
	if !found || persisted.TotalItemCount != 2 {
		t.Fatalf("healed store missing final state: %#v", persisted)
	}
}

func TestSlowRestoreDoesNotBlockOtherSessions(t *testing.T) {
	store := &gatedStore{
		inner:   memory.New(),
		session: "slow",
		entered: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	svc := New(store, nil)
	ctx := context.Background()

	done := make(chan cart.State, 1)
	go func() {
		done <- svc.Dispatch(ctx, "slow", cart.Action{Type: cart.AddItem, ID: "1", UnitPrice: 5})
	}()

	// Wait until the slow session is parked inside its restore, then make
	// sure another session can still dispatch.
	<-store.entered
	state := svc.Dispatch(ctx, "fast", cart.Action{Type: cart.AddItem, ID: "2", UnitPrice: 3})
	if state.TotalItemCount != 1 {
		t.Fatalf("dispatch stalled behind another session's restore: %#v", state)
	}

	close(store.gate)
	slow := <-done
	if slow.TotalItemCount != 1 {
		t.Fatalf("slow session lost its dispatch: %#v", slow)
	}
}

func TestRemoveMissingLineLeavesStateUnchanged(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	before := svc.Dispatch(ctx, "sess", cart.Action{Type: cart.AddItem, ID: "1", UnitPrice: 5})
	after := svc.Dispatch(ctx, "sess", cart.Action{Type: cart.RemoveItem, ID: "ghost"})
	if after.TotalItemCount != before.TotalItemCount || len(after.Items) != len(before.Items) {
		t.Fatalf("missing removal changed state: %#v", after)
	}
}

func TestUnknownActionClearsItems(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	svc.Dispatch(ctx, "sess", cart.Action{Type: cart.AddItem, ID: "1", UnitPrice: 5})
	svc.Dispatch(ctx, "sess", cart.Action{Type: cart.OpenCart})

	state := svc.Dispatch(ctx, "sess", cart.Action{Type: "BOGUS"})
	if len(state.Items) != 0 || !state.CartOpen {
		t.Fatalf("unknown action fallback wrong: %#v", state)
	}
}

func TestReset(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	svc.Dispatch(ctx, "sess", cart.Action{Type: cart.AddItem, ID: "1", UnitPrice: 5})
	svc.Reset(ctx, "sess")

	state := svc.Current(ctx, "sess")
	if len(state.Items) != 0 {
		t.Fatalf("reset did not clear the cart: %#v", state)
	}
	persisted, _, _ := store.LoadCart(ctx, "sess")
	if len(persisted.Items) != 0 {
		t.Fatalf("reset not written through: %#v", persisted)
	}
}
