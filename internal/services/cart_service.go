package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/repositories"
)

var (
	errCartStoreRequired = errors.New("cart service: store is required")
	errCartClockRequired = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to missing dependencies or backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartCapacityExceeded indicates a flavor selection that does not fit the chosen size.
var ErrCartCapacityExceeded = errors.New("cart service: flavor capacity exceeded")

// CartServiceDeps wires the store, resolver, and catalog dependencies for cart operations.
type CartServiceDeps struct {
	Store       repositories.CartStore
	Resolver    PricingResolver
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type cartService struct {
	store    repositories.CartStore
	resolver PricingResolver
	catalog  repositories.CatalogRepository
	newID    func() string
	now      func() time.Time
	logger   func(context.Context, string, map[string]any)

	subMu       sync.RWMutex
	subscribers []func(CartEvent)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, errCartStoreRequired
	}
	if deps.Resolver == nil {
		return nil, errors.New("cart service: pricing resolver is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("cart service: catalog repository is required")
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &cartService{
		store:    deps.Store,
		resolver: deps.Resolver,
		catalog:  deps.Catalog,
		newID:    idGen,
		now:      func() time.Time { return deps.Clock().UTC() },
		logger:   logger,
	}, nil
}

// Subscribe registers a synchronous cart change listener. Listeners run on the
// mutating goroutine after the store write and before the operation returns.
func (s *cartService) Subscribe(fn func(CartEvent)) {
	if s == nil || fn == nil {
		return
	}
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

func (s *cartService) publish(event CartEvent) {
	s.subMu.RLock()
	listeners := make([]func(CartEvent), len(s.subscribers))
	copy(listeners, s.subscribers)
	s.subMu.RUnlock()
	for _, fn := range listeners {
		fn(event)
	}
}

// GetCart loads the session's cart, creating an empty one when absent.
func (s *cartService) GetCart(ctx context.Context, sessionID string) (Cart, error) {
	if s == nil || s.store == nil {
		return Cart{}, ErrCartUnavailable
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			saved, err := s.store.Save(ctx, s.newCart(sessionID))
			if err != nil {
				return Cart{}, s.translateStoreError(err)
			}
			return saved, nil
		}
		return Cart{}, s.translateStoreError(err)
	}
	return cart, nil
}

// AddLine resolves the unit price at call time and appends a new line. Lines
// are never merged; adding the same configuration twice yields two lines.
func (s *cartService) AddLine(ctx context.Context, cmd AddLineCommand) (Cart, error) {
	if s == nil || s.store == nil {
		return Cart{}, ErrCartUnavailable
	}

	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return Cart{}, ErrCartInvalidInput
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Cart{}, fmt.Errorf("%w: product_id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return Cart{}, fmt.Errorf("%w: quantity must be greater than zero", ErrCartInvalidInput)
	}

	quote, err := s.resolver.Resolve(ctx, ResolvePriceCommand{
		ProductID: productID,
		Size:      strings.TrimSpace(cmd.Size),
		FlavorIDs: cmd.FlavorIDs,
	})
	if err != nil {
		return Cart{}, translateResolverError(err)
	}

	product, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		if isRepoNotFound(err) {
			return Cart{}, fmt.Errorf("%w: product not found", ErrCartInvalidInput)
		}
		return Cart{}, ErrCartUnavailable
	}

	flavors, err := s.loadFlavors(ctx, cmd.FlavorIDs)
	if err != nil {
		return Cart{}, err
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	now := s.now()
	line := domain.CartLine{
		ID:         s.newID(),
		ProductID:  product.ID,
		Name:       product.Name,
		Size:       strings.TrimSpace(cmd.Size),
		Flavors:    flavors,
		Note:       cmd.Note,
		Quantity:   cmd.Quantity,
		UnitPrice:  quote.UnitPrice,
		TotalPrice: quote.UnitPrice * int64(cmd.Quantity),
		PricedBy:   quote.PricedBy,
		AddedAt:    now,
	}
	cart.Lines = append(cart.Lines, line)

	saved, err := s.store.Save(ctx, cart)
	if err != nil {
		return Cart{}, s.translateStoreError(err)
	}

	s.logger(ctx, "cart.line_added", map[string]any{
		"sessionID": sessionID,
		"lineID":    line.ID,
		"productID": product.ID,
		"quantity":  cmd.Quantity,
		"unitPrice": quote.UnitPrice,
	})
	s.publish(CartEvent{
		Type:       domain.CartEventLineAdded,
		SessionID:  sessionID,
		LineID:     line.ID,
		Totals:     totalsOf(saved),
		OccurredAt: now,
	})
	return saved, nil
}

// RemoveLine deletes one line. A missing line is a silent no-op: the cart is
// returned unchanged and no event fires.
func (s *cartService) RemoveLine(ctx context.Context, cmd RemoveLineCommand) (Cart, error) {
	if s == nil || s.store == nil {
		return Cart{}, ErrCartUnavailable
	}

	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return Cart{}, ErrCartInvalidInput
	}
	lineID := strings.TrimSpace(cmd.LineID)
	if lineID == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	idx := indexOfLine(cart.Lines, lineID)
	if idx < 0 {
		return cart, nil
	}

	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	saved, err := s.store.Save(ctx, cart)
	if err != nil {
		return Cart{}, s.translateStoreError(err)
	}

	s.logger(ctx, "cart.line_removed", map[string]any{
		"sessionID": sessionID,
		"lineID":    lineID,
	})
	s.publish(CartEvent{
		Type:       domain.CartEventLineRemoved,
		SessionID:  sessionID,
		LineID:     lineID,
		Totals:     totalsOf(saved),
		OccurredAt: s.now(),
	})
	return saved, nil
}

// SetQuantity rescales one line's stored total by dividing out the old
// quantity and multiplying by the new one, preserving the unit price baked in
// at add time. Non-positive quantities remove the line.
func (s *cartService) SetQuantity(ctx context.Context, cmd SetQuantityCommand) (Cart, error) {
	if s == nil || s.store == nil {
		return Cart{}, ErrCartUnavailable
	}

	if cmd.Quantity <= 0 {
		return s.RemoveLine(ctx, RemoveLineCommand{SessionID: cmd.SessionID, LineID: cmd.LineID})
	}

	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return Cart{}, ErrCartInvalidInput
	}
	lineID := strings.TrimSpace(cmd.LineID)
	if lineID == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	idx := indexOfLine(cart.Lines, lineID)
	if idx < 0 {
		return cart, nil
	}

	line := &cart.Lines[idx]
	oldQuantity := line.Quantity
	if oldQuantity > 0 {
		line.TotalPrice = line.TotalPrice / int64(oldQuantity) * int64(cmd.Quantity)
	} else {
		line.TotalPrice = line.UnitPrice * int64(cmd.Quantity)
	}
	line.Quantity = cmd.Quantity

	saved, err := s.store.Save(ctx, cart)
	if err != nil {
		return Cart{}, s.translateStoreError(err)
	}

	s.logger(ctx, "cart.quantity_changed", map[string]any{
		"sessionID": sessionID,
		"lineID":    lineID,
		"quantity":  cmd.Quantity,
	})
	s.publish(CartEvent{
		Type:       domain.CartEventLineUpdated,
		SessionID:  sessionID,
		LineID:     lineID,
		Totals:     totalsOf(saved),
		OccurredAt: s.now(),
	})
	return saved, nil
}

// SetNote replaces one line's note verbatim. The engine applies no validation
// or length limit; sanitisation happens at the outbound boundary.
func (s *cartService) SetNote(ctx context.Context, cmd SetNoteCommand) (Cart, error) {
	if s == nil || s.store == nil {
		return Cart{}, ErrCartUnavailable
	}

	sessionID := strings.TrimSpace(cmd.SessionID)
	if sessionID == "" {
		return Cart{}, ErrCartInvalidInput
	}
	lineID := strings.TrimSpace(cmd.LineID)
	if lineID == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	idx := indexOfLine(cart.Lines, lineID)
	if idx < 0 {
		return cart, nil
	}

	cart.Lines[idx].Note = cmd.Note

	saved, err := s.store.Save(ctx, cart)
	if err != nil {
		return Cart{}, s.translateStoreError(err)
	}

	s.publish(CartEvent{
		Type:       domain.CartEventLineUpdated,
		SessionID:  sessionID,
		LineID:     lineID,
		Totals:     totalsOf(saved),
		OccurredAt: s.now(),
	})
	return saved, nil
}

// Clear empties the session's line sequence.
func (s *cartService) Clear(ctx context.Context, sessionID string) (Cart, error) {
	if s == nil || s.store == nil {
		return Cart{}, ErrCartUnavailable
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Cart{}, ErrCartInvalidInput
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}
	cart.Lines = []domain.CartLine{}

	saved, err := s.store.Save(ctx, cart)
	if err != nil {
		return Cart{}, s.translateStoreError(err)
	}

	s.logger(ctx, "cart.cleared", map[string]any{"sessionID": sessionID})
	s.publish(CartEvent{
		Type:       domain.CartEventCleared,
		SessionID:  sessionID,
		Totals:     CartTotals{},
		OccurredAt: s.now(),
	})
	return saved, nil
}

// Totals recomputes the aggregate from current state on every call.
func (s *cartService) Totals(ctx context.Context, sessionID string) (CartTotals, error) {
	if s == nil || s.store == nil {
		return CartTotals{}, ErrCartUnavailable
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return CartTotals{}, ErrCartInvalidInput
	}

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if isRepoNotFound(err) {
			return CartTotals{}, nil
		}
		return CartTotals{}, s.translateStoreError(err)
	}
	return totalsOf(cart), nil
}

func (s *cartService) newCart(sessionID string) domain.Cart {
	now := s.now()
	return domain.Cart{
		SessionID: sessionID,
		Lines:     []domain.CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *cartService) loadFlavors(ctx context.Context, flavorIDs []string) ([]domain.CartFlavor, error) {
	ids := normaliseFlavorIDs(flavorIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	flavors := make([]domain.CartFlavor, 0, len(ids))
	for _, id := range ids {
		flavor, err := s.catalog.ProductByID(ctx, id)
		if err != nil {
			if isRepoNotFound(err) {
				return nil, fmt.Errorf("%w: flavor %s not found", ErrCartInvalidInput, id)
			}
			return nil, ErrCartUnavailable
		}
		flavors = append(flavors, domain.CartFlavor{ProductID: flavor.ID, Name: flavor.Name})
	}
	return flavors, nil
}

func (s *cartService) translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		if repoErr.IsNotFound() {
			return ErrCartInvalidInput
		}
		return ErrCartUnavailable
	}
	return ErrCartUnavailable
}

func translateResolverError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrFlavorCapacityExceeded):
		return fmt.Errorf("%w: %v", ErrCartCapacityExceeded, err)
	case errors.Is(err, ErrPricingProductNotFound):
		return fmt.Errorf("%w: product not found", ErrCartInvalidInput)
	case errors.Is(err, ErrPricingInvalidInput):
		return fmt.Errorf("%w: %v", ErrCartInvalidInput, err)
	default:
		return ErrCartUnavailable
	}
}

func totalsOf(cart domain.Cart) CartTotals {
	totals := CartTotals{}
	for _, line := range cart.Lines {
		totals.Items += line.Quantity
		totals.Price += line.TotalPrice
	}
	return totals
}

func indexOfLine(lines []domain.CartLine, lineID string) int {
	target := strings.TrimSpace(lineID)
	if target == "" {
		return -1
	}
	for i, line := range lines {
		if line.ID == target {
			return i
		}
	}
	return -1
}
