package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/repositories"
)

var (
	// ErrPricingInvalidInput indicates the caller supplied invalid input.
	ErrPricingInvalidInput = errors.New("pricing resolver: invalid input")
	// ErrPricingProductNotFound indicates the base product or a flavor does not exist.
	ErrPricingProductNotFound = errors.New("pricing resolver: product not found")
	// ErrFlavorCapacityExceeded indicates the flavor selection does not fit the chosen size.
	ErrFlavorCapacityExceeded = errors.New("pricing resolver: flavor capacity exceeded")
	// ErrPricingUnavailable indicates the resolver cannot reach the catalog.
	ErrPricingUnavailable = errors.New("pricing resolver: unavailable")
)

// Sizes that omit a flavor cap accept one additional flavor beyond the base.
const defaultMaxFlavors = 2

// PricingResolverDeps wires catalog access and the promotion clock.
type PricingResolverDeps struct {
	Catalog         repositories.CatalogRepository
	Clock           func() time.Time
	DiscountWeekday *time.Weekday
	Logger          func(context.Context, string, map[string]any)
}

type pricingResolver struct {
	catalog     repositories.CatalogRepository
	now         func() time.Time
	discountDay time.Weekday
	logger      func(context.Context, string, map[string]any)
}

// NewPricingResolver constructs the resolver enforcing dependency validation.
// The weekly discount day defaults to Monday.
func NewPricingResolver(deps PricingResolverDeps) (PricingResolver, error) {
	if deps.Catalog == nil {
		return nil, errors.New("pricing resolver: catalog repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	discountDay := time.Monday
	if deps.DiscountWeekday != nil {
		discountDay = *deps.DiscountWeekday
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &pricingResolver{
		catalog:     deps.Catalog,
		now:         clock,
		discountDay: discountDay,
		logger:      logger,
	}, nil
}

// Resolve computes the unit price for one configured product.
//
// Pizza products with a size table are priced at the maximum price among the
// base and every selected flavor at the chosen size, each falling back to its
// flat base price when it lacks an entry for that size. Everything else is
// priced flat, with the promotional price taking over on the weekly discount
// day. Flavor selections that exceed the size's capacity are rejected here;
// the cart engine never re-checks.
func (r *pricingResolver) Resolve(ctx context.Context, cmd ResolvePriceCommand) (PriceQuote, error) {
	if r == nil || r.catalog == nil {
		return PriceQuote{}, ErrPricingUnavailable
	}

	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return PriceQuote{}, fmt.Errorf("%w: product id is required", ErrPricingInvalidInput)
	}

	product, err := r.catalog.ProductByID(ctx, productID)
	if err != nil {
		return PriceQuote{}, r.translateCatalogError(err)
	}

	flavorIDs := normaliseFlavorIDs(cmd.FlavorIDs)
	if len(flavorIDs) > 0 && !product.IsPizza {
		return PriceQuote{}, fmt.Errorf("%w: product %s does not combine flavors", ErrPricingInvalidInput, product.ID)
	}

	size := strings.TrimSpace(cmd.Size)
	if err := r.checkCapacity(product, size, len(flavorIDs)); err != nil {
		return PriceQuote{}, err
	}

	if product.IsPizza && len(product.Sizes) > 0 && size != "" {
		return r.resolveSized(ctx, product, size, flavorIDs)
	}
	return PriceQuote{UnitPrice: r.flatPrice(product, cmd.Now)}, nil
}

// CheckFlavorCapacity reports whether a selection of additional flavors fits
// the chosen size. The base product counts as the first flavor. Removing a
// flavor is always allowed, so only growth needs to pass through here.
func (r *pricingResolver) CheckFlavorCapacity(ctx context.Context, cmd FlavorCapacityCommand) error {
	if r == nil || r.catalog == nil {
		return ErrPricingUnavailable
	}

	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrPricingInvalidInput)
	}
	if cmd.SelectedFlavors < 0 {
		return fmt.Errorf("%w: selected flavor count must be non-negative", ErrPricingInvalidInput)
	}

	product, err := r.catalog.ProductByID(ctx, productID)
	if err != nil {
		return r.translateCatalogError(err)
	}
	if cmd.SelectedFlavors > 0 && !product.IsPizza {
		return fmt.Errorf("%w: product %s does not combine flavors", ErrPricingInvalidInput, product.ID)
	}
	return r.checkCapacity(product, strings.TrimSpace(cmd.Size), cmd.SelectedFlavors)
}

func (r *pricingResolver) checkCapacity(product domain.Product, size string, selected int) error {
	if selected == 0 {
		return nil
	}

	maxFlavors := defaultMaxFlavors
	if entry, ok := product.SizeByLabel(size); ok && entry.MaxFlavors > 0 {
		maxFlavors = entry.MaxFlavors
	}
	if selected+1 > maxFlavors {
		return fmt.Errorf("%w: size %s accepts at most %d flavors", ErrFlavorCapacityExceeded, size, maxFlavors)
	}
	return nil
}

func (r *pricingResolver) resolveSized(ctx context.Context, product domain.Product, size string, flavorIDs []string) (PriceQuote, error) {
	entry, ok := product.SizeByLabel(size)
	if !ok {
		// The base has no entry for this size; the whole line falls back to
		// its flat price and flavor pricing does not apply.
		return PriceQuote{UnitPrice: product.BasePrice}, nil
	}

	maxPrice := entry.Price
	pricedBy := product.Name

	for _, flavorID := range flavorIDs {
		flavor, err := r.catalog.ProductByID(ctx, flavorID)
		if err != nil {
			return PriceQuote{}, r.translateCatalogError(err)
		}
		if !flavor.IsPizza {
			return PriceQuote{}, fmt.Errorf("%w: %s is not a combinable flavor", ErrPricingInvalidInput, flavor.ID)
		}

		price := flavor.BasePrice
		if flavorEntry, ok := flavor.SizeByLabel(size); ok {
			price = flavorEntry.Price
		}
		if price > maxPrice {
			maxPrice = price
			pricedBy = flavor.Name
		}
	}

	quote := PriceQuote{UnitPrice: maxPrice}
	if len(flavorIDs) > 0 {
		quote.PricedBy = pricedBy
	}
	return quote, nil
}

func (r *pricingResolver) flatPrice(product domain.Product, at time.Time) int64 {
	if at.IsZero() {
		at = r.now()
	}
	if product.IsPromo && product.PromoPrice > 0 && at.Weekday() == r.discountDay {
		return product.PromoPrice
	}
	return product.BasePrice
}

func (r *pricingResolver) translateCatalogError(err error) error {
	if err == nil {
		return nil
	}
	if isRepoNotFound(err) {
		return ErrPricingProductNotFound
	}
	return ErrPricingUnavailable
}

func normaliseFlavorIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
