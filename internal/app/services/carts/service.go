// Package carts hosts the cart state machine: one canonical cart state per
// session, mutated only through Dispatch and written through to the cart
// store after every transition.
package carts

import (
	"context"
	"errors"
	"sync"

	"github.com/mealbox/storefront/internal/app/domain/cart"
	"github.com/mealbox/storefront/internal/app/metrics"
	"github.com/mealbox/storefront/internal/app/storage"
	"github.com/mealbox/storefront/pkg/logger"
)

// Service owns the live cart states. All mutation for a session is
// serialized through its lock, so transitions observe one another in
// dispatch order.
type Service struct {
	store storage.CartStore
	log   *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu       sync.Mutex
	restored bool
	state    cart.State
}

// New constructs a cart service over the given store.
func New(store storage.CartStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("carts")
	}
	return &Service{
		store:    store,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// lookup returns the live session, restoring it from the store on first
// touch. The service lock covers only the map insert; the store round trip
// runs under the session's own lock, so a slow restore stalls that session
// alone. A restore failure is logged and the session starts fresh; the store
// must never block the in-memory lifecycle.
func (s *Service) lookup(ctx context.Context, sessionID string) *session {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{state: cart.Initial()}
		s.sessions[sessionID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	if !sess.restored {
		sess.restored = true
		if s.store != nil {
			restored, found, err := s.store.LoadCart(ctx, sessionID)
			switch {
			case err != nil:
				s.log.WithError(err).Warnf("restore cart %s failed, starting fresh", sessionID)
			case found:
				sess.state = restored
			}
		}
	}
	sess.mu.Unlock()
	return sess
}

// Dispatch applies one action to the session's cart and returns the
// resulting state. It never fails the transition: a missing line on removal
// and an unrecognized action type are logged and reflected in the returned
// state per the reducer's contract, and a persistence failure is logged
// without affecting the in-memory state.
func (s *Service) Dispatch(ctx context.Context, sessionID string, action cart.Action) cart.State {
	sess := s.lookup(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, err := cart.Apply(sess.state, action)
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		s.log.Warnf("remove %s: line not in cart %s", action.ID, sessionID)
	case errors.Is(err, cart.ErrUnknownAction):
		s.log.Warnf("unknown action %q for cart %s, items cleared", action.Type, sessionID)
	}
	metrics.RecordCartAction(string(action.Type), err == nil)
	sess.state = next

	s.persist(ctx, sessionID, next)
	return next.Clone()
}

// Current returns the session's cart, restoring it from the store if this is
// the first touch.
func (s *Service) Current(ctx context.Context, sessionID string) cart.State {
	sess := s.lookup(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Clone()
}

// Reset discards the session's cart in memory and in the store.
func (s *Service) Reset(ctx context.Context, sessionID string) {
	sess := s.lookup(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state = cart.Initial()
	s.persist(ctx, sessionID, sess.state)
}

func (s *Service) persist(ctx context.Context, sessionID string, state cart.State) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveCart(ctx, sessionID, state); err != nil {
		s.log.WithError(err).Warnf("persist cart %s failed", sessionID)
	}
}
