package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/repositories"
)

// CartStore keeps per-session carts in process memory. Carts live for the
// duration of the process; there is no persistence or TTL.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
	clock func() time.Time
}

var _ repositories.CartStore = (*CartStore)(nil)

// CartStoreOption customises the in-memory cart store.
type CartStoreOption func(*CartStore)

// WithCartClock injects a custom clock primarily for tests.
func WithCartClock(clock func() time.Time) CartStoreOption {
	return func(s *CartStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewCartStore constructs an empty in-memory cart store.
func NewCartStore(opts ...CartStoreOption) *CartStore {
	store := &CartStore{
		carts: make(map[string]domain.Cart),
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

// Get returns a defensive copy of the session's cart.
func (s *CartStore) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.Cart{}, repositories.NewNotFoundError("cart store: get", "session id is empty")
	}

	s.mu.RLock()
	cart, ok := s.carts[sessionID]
	s.mu.RUnlock()
	if !ok {
		return domain.Cart{}, repositories.NewNotFoundError("cart store: get", "cart not found")
	}
	return cloneCart(cart), nil
}

// Save stores a defensive copy of the cart keyed by its session ID.
func (s *CartStore) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}
	sessionID := strings.TrimSpace(cart.SessionID)
	if sessionID == "" {
		return domain.Cart{}, repositories.NewConflictError("cart store: save", "session id is empty")
	}

	now := s.clock().UTC()
	cart.SessionID = sessionID
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	stored := cloneCart(cart)
	s.mu.Lock()
	s.carts[sessionID] = stored
	s.mu.Unlock()
	return cloneCart(stored), nil
}

// Delete removes the session's cart. Missing carts are a no-op.
func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports how many session carts are held. Used by readiness probes.
func (s *CartStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}

func cloneCart(cart domain.Cart) domain.Cart {
	dup := cart
	dup.Lines = make([]domain.CartLine, len(cart.Lines))
	copy(dup.Lines, cart.Lines)
	for i := range dup.Lines {
		if len(cart.Lines[i].Flavors) > 0 {
			flavors := make([]domain.CartFlavor, len(cart.Lines[i].Flavors))
			copy(flavors, cart.Lines[i].Flavors)
			dup.Lines[i].Flavors = flavors
		}
	}
	return dup
}
