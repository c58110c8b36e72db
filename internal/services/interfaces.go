package services

import (
	"context"
	"time"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product       = domain.Product
	SizeOption    = domain.SizeOption
	Category      = domain.Category
	Menu          = domain.Menu
	DayHours      = domain.DayHours
	ContactInfo   = domain.ContactInfo
	StoreStatus   = domain.StoreStatus
	Cart          = domain.Cart
	CartLine      = domain.CartLine
	CartFlavor    = domain.CartFlavor
	CartTotals    = domain.CartTotals
	CartEvent     = domain.CartEvent
	PriceQuote    = domain.PriceQuote
	OrderDraft    = domain.OrderDraft
	OrderSummary  = domain.OrderSummary
	CustomerInfo  = domain.CustomerInfo
	DeliveryMode  = domain.DeliveryMode
	PaymentMethod = domain.PaymentMethod

	SystemHealthReport = domain.SystemHealthReport
)

// SystemService surfaces readiness reports for the health endpoints.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// CatalogService exposes the read-only storefront catalog: listings, lookup,
// accent-insensitive search, flavor eligibility, and opening-hours status.
type CatalogService interface {
	GetMenu(ctx context.Context) (Menu, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
	PizzaFlavors(ctx context.Context, baseProductID string) ([]Product, error)
	StoreStatus(ctx context.Context) (StoreStatus, error)
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID string
}

// PricingResolver computes the price a customer pays for one configured unit
// and owns the flavor capacity rule.
type PricingResolver interface {
	Resolve(ctx context.Context, cmd ResolvePriceCommand) (PriceQuote, error)
	CheckFlavorCapacity(ctx context.Context, cmd FlavorCapacityCommand) error
}

// ResolvePriceCommand identifies the configured unit to price. Now overrides
// the resolver clock when non-zero, primarily for tests.
type ResolvePriceCommand struct {
	ProductID string
	Size      string
	FlavorIDs []string
	Now       time.Time
}

// FlavorCapacityCommand asks whether a selection of additional flavors fits
// the chosen size. SelectedFlavors excludes the base product.
type FlavorCapacityCommand struct {
	ProductID       string
	Size            string
	SelectedFlavors int
}

// CartService manages the per-session line aggregate. All mutations are
// synchronous and notify subscribers before returning.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (Cart, error)
	AddLine(ctx context.Context, cmd AddLineCommand) (Cart, error)
	RemoveLine(ctx context.Context, cmd RemoveLineCommand) (Cart, error)
	SetQuantity(ctx context.Context, cmd SetQuantityCommand) (Cart, error)
	SetNote(ctx context.Context, cmd SetNoteCommand) (Cart, error)
	Clear(ctx context.Context, sessionID string) (Cart, error)
	Totals(ctx context.Context, sessionID string) (CartTotals, error)
	Subscribe(fn func(CartEvent))
}

// AddLineCommand creates a new cart line; the unit price is resolved at call
// time and baked into the line.
type AddLineCommand struct {
	SessionID string
	ProductID string
	Quantity  int
	Size      string
	FlavorIDs []string
	Note      string
}

// RemoveLineCommand deletes one line. Missing lines are a silent no-op.
type RemoveLineCommand struct {
	SessionID string
	LineID    string
}

// SetQuantityCommand rescales one line's stored total without re-resolving
// catalog prices. Non-positive quantities remove the line.
type SetQuantityCommand struct {
	SessionID string
	LineID    string
	Quantity  int
}

// SetNoteCommand replaces one line's free-text note verbatim.
type SetNoteCommand struct {
	SessionID string
	LineID    string
	Note      string
}

// CheckoutService turns a session's cart plus delivery and payment choices
// into the outbound order message and messaging deep link.
type CheckoutService interface {
	SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (OrderSummary, error)
}

// SubmitOrderCommand carries the checkout submission.
type SubmitOrderCommand struct {
	Draft OrderDraft
}
