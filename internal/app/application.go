// Package app wires the storefront services together and manages their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mealbox/storefront/internal/app/services/carts"
	"github.com/mealbox/storefront/internal/app/services/catalog"
	checkoutsvc "github.com/mealbox/storefront/internal/app/services/checkout"
	"github.com/mealbox/storefront/internal/app/storage"
	"github.com/mealbox/storefront/internal/app/storage/memory"
	"github.com/mealbox/storefront/internal/app/system"
	"github.com/mealbox/storefront/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Carts  storage.CartStore
	Orders storage.OrderStore
	Menu   storage.MenuStore
}

// Options carries the external collaborators and tunables.
type Options struct {
	// Remote posts orders upstream. Nil disables checkout submission.
	Remote checkoutsvc.OrderPoster
	// MenuFetcher pulls the catalog. Nil disables refresh.
	MenuFetcher catalog.Fetcher
	// MenuRefreshInterval enables the background refresher when positive.
	MenuRefreshInterval time.Duration
}

// Application ties the storefront services together.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Carts    *carts.Service
	Checkout *checkoutsvc.Service
	Catalog  *catalog.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Carts == nil {
		stores.Carts = mem
	}
	if stores.Orders == nil {
		stores.Orders = mem
	}
	if stores.Menu == nil {
		stores.Menu = mem
	}

	manager := system.NewManager()

	cartService := carts.New(stores.Carts, log.Named("carts"))
	catalogService := catalog.New(stores.Menu, opts.MenuFetcher, log.Named("catalog"))
	checkoutService := checkoutsvc.New(cartService, stores.Orders, opts.Remote, log.Named("checkout"))

	for _, name := range []string{"carts", "checkout", "catalog"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	if opts.MenuRefreshInterval > 0 && opts.MenuFetcher != nil {
		refresher := catalog.NewRefresher(catalogService, opts.MenuRefreshInterval, log.Named("catalog-runner"))
		if err := manager.Register(refresher); err != nil {
			return nil, fmt.Errorf("register %s: %w", refresher.Name(), err)
		}
	}

	return &Application{
		manager:  manager,
		log:      log,
		Carts:    cartService,
		Checkout: checkoutService,
		Catalog:  catalogService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
