// Package checkout orchestrates order submission: it owns one checkout form
// per session and turns a valid form plus the current cart into an order
// pushed to the remote backend.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	checkoutdom "github.com/mealbox/storefront/internal/app/domain/checkout"
	"github.com/mealbox/storefront/internal/app/domain/order"
	"github.com/mealbox/storefront/internal/app/metrics"
	"github.com/mealbox/storefront/internal/app/services/carts"
	"github.com/mealbox/storefront/internal/app/storage"
	"github.com/mealbox/storefront/pkg/logger"
)

// ordersPath is the remote collection orders are pushed to.
const ordersPath = "/orders"

// ErrFormIncomplete reports a submission attempt before every field is
// filled and error-free. No remote call is made.
var ErrFormIncomplete = errors.New("form incomplete or invalid")

// ErrSubmitInFlight reports a second submission while one is pending for the
// same session.
var ErrSubmitInFlight = errors.New("submission already in flight")

// OrderPoster pushes an order record to the remote backend and returns the
// key it was stored under.
type OrderPoster interface {
	Push(ctx context.Context, path string, record any) (string, error)
}

// FormSnapshot is a read-only view of a session's form state.
type FormSnapshot struct {
	Values  map[string]string `json:"values"`
	Errors  map[string]string `json:"errors"`
	Touched map[string]bool   `json:"touched"`
}

// Service manages per-session checkout forms and submission.
type Service struct {
	carts  *carts.Service
	orders storage.OrderStore
	remote OrderPoster
	log    *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*formSession
}

type formSession struct {
	mu       sync.Mutex
	form     *checkoutdom.Form
	inFlight bool
}

// New constructs a checkout service.
func New(cartSvc *carts.Service, orders storage.OrderStore, remote OrderPoster, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("checkout")
	}
	return &Service{
		carts:    cartSvc,
		orders:   orders,
		remote:   remote,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*formSession),
	}
}

func (s *Service) lookup(sessionID string) *formSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &formSession{form: checkoutdom.NewForm()}
		s.sessions[sessionID] = sess
	}
	return sess
}

// SetField records a field change, running the light validation pass.
func (s *Service) SetField(sessionID, field, value string) FormSnapshot {
	sess := s.lookup(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.form.SetValue(field, value)
	return snapshot(sess.form)
}

// TouchField records a blur, running the strict validation pass.
func (s *Service) TouchField(sessionID, field string) FormSnapshot {
	sess := s.lookup(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.form.Touch(field)
	return snapshot(sess.form)
}

// Form returns the session's current form state.
func (s *Service) Form(sessionID string) FormSnapshot {
	sess := s.lookup(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshot(sess.form)
}

// Submit places an order from the session's form and cart. On success the
// cart transitions to order-placed and the form resets; on any failure both
// are left exactly as they were so the user can retry without re-entering
// anything.
func (s *Service) Submit(ctx context.Context, sessionID string) (order.Order, error) {
	if s.remote == nil {
		return order.Order{}, fmt.Errorf("submit order: no remote backend configured")
	}

	sess := s.lookup(sessionID)

	sess.mu.Lock()
	if sess.inFlight {
		sess.mu.Unlock()
		metrics.RecordOrderSubmission("rejected", 0)
		return order.Order{}, ErrSubmitInFlight
	}
	if !sess.form.Complete() {
		sess.mu.Unlock()
		metrics.RecordOrderSubmission("rejected", 0)
		return order.Order{}, ErrFormIncomplete
	}

	values := sess.form.Values()
	sess.inFlight = true
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.inFlight = false
		sess.mu.Unlock()
	}()

	state := s.carts.Current(ctx, sessionID)
	ord := order.Order{
		Customer: order.Customer{
			Name:    values[checkoutdom.FieldName],
			Email:   values[checkoutdom.FieldEmail],
			Address: values[checkoutdom.FieldAddress],
			Phone:   values[checkoutdom.FieldPhone],
		},
		Items:          append([]cart.Line(nil), state.Items...),
		TotalAmount:    state.TotalAmount,
		TotalItemCount: state.TotalItemCount,
		PlacedAt:       s.now(),
	}

	start := time.Now()
	key, err := s.remote.Push(ctx, ordersPath, ord)
	if err != nil {
		metrics.RecordOrderSubmission("failed", time.Since(start))
		s.log.WithError(err).Warnf("submit order for session %s failed", sessionID)
		return order.Order{}, fmt.Errorf("place order: %w", err)
	}
	metrics.RecordOrderSubmission("placed", time.Since(start))
	ord.RemoteKey = key

	if s.orders != nil {
		journaled, err := s.orders.CreateOrder(ctx, ord)
		if err != nil {
			// The order is already placed upstream; a journal failure
			// must not report the submission as failed.
			s.log.WithError(err).Warnf("journal order for session %s failed", sessionID)
		} else {
			ord = journaled
		}
	}

	s.carts.Dispatch(ctx, sessionID, cart.Action{Type: cart.OrderPlaced})

	sess.mu.Lock()
	sess.form.Reset()
	sess.mu.Unlock()

	s.log.Infof("order %s placed for session %s (%d items)", ord.RemoteKey, sessionID, ord.TotalItemCount)
	return ord, nil
}

// Orders lists the locally journaled orders.
func (s *Service) Orders(ctx context.Context) ([]order.Order, error) {
	if s.orders == nil {
		return []order.Order{}, nil
	}
	return s.orders.ListOrders(ctx)
}

// Order returns one journaled order.
func (s *Service) Order(ctx context.Context, id string) (order.Order, error) {
	if s.orders == nil {
		return order.Order{}, fmt.Errorf("order %s: %w", id, storage.ErrNotFound)
	}
	return s.orders.GetOrder(ctx, id)
}

func snapshot(f *checkoutdom.Form) FormSnapshot {
	return FormSnapshot{
		Values:  f.Values(),
		Errors:  f.Errors(),
		Touched: f.TouchedFields(),
	}
}
