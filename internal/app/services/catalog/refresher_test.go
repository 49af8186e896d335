package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mealbox/storefront/internal/app/domain/menu"
	"github.com/mealbox/storefront/internal/app/storage/memory"
)

func TestRefresherTicks(t *testing.T) {
	store := memory.New()
	var calls int32
	fetcher := FetcherFunc(func(ctx context.Context) ([]menu.Item, error) {
		atomic.AddInt32(&calls, 1)
		return []menu.Item{{ID: "m1", Name: "Sushi", Price: 16.99}}, nil
	})
	svc := New(store, fetcher, nil)

	refresher := NewRefresher(svc, time.Hour, nil)
	refresher.interval = 5 * time.Millisecond

	ctx := context.Background()
	if err := refresher.Start(ctx); err != nil {
		t.Fatalf("start refresher: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("refresher never ticked")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := refresher.Stop(ctx); err != nil {
		t.Fatalf("stop refresher: %v", err)
	}

	snap, err := svc.List(ctx)
	if err != nil || len(snap.Items) != 1 {
		t.Fatalf("tick did not refresh the cache: %v (%d items)", err, len(snap.Items))
	}

	// Stop is idempotent and no ticks land afterwards.
	if err := refresher.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	settled := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&calls) != settled {
		t.Fatalf("refresher ticked after stop")
	}
}
