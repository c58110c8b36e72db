package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/repositories"
)

// fakeCatalog implements repositories.CatalogRepository over an in-memory
// product slice. Shared by the service tests in this package.
type fakeCatalog struct {
	menu domain.Menu
	err  error
}

func (f *fakeCatalog) Menu(ctx context.Context) (domain.Menu, error) {
	if f.err != nil {
		return domain.Menu{}, f.err
	}
	return f.menu, nil
}

func (f *fakeCatalog) Categories(ctx context.Context) ([]domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.menu.Categories, nil
}

func (f *fakeCatalog) Products(ctx context.Context) ([]domain.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.menu.Products, nil
}

func (f *fakeCatalog) ProductByID(ctx context.Context, productID string) (domain.Product, error) {
	if f.err != nil {
		return domain.Product{}, f.err
	}
	for _, product := range f.menu.Products {
		if product.ID == productID {
			return product, nil
		}
	}
	return domain.Product{}, repositories.NewNotFoundError("fake catalog", "product not found")
}

func (f *fakeCatalog) Hours(ctx context.Context) ([]domain.DayHours, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.menu.Hours, nil
}

func (f *fakeCatalog) Contact(ctx context.Context) (domain.ContactInfo, error) {
	if f.err != nil {
		return domain.ContactInfo{}, f.err
	}
	return f.menu.Contact, nil
}

func pizzaSizes() []domain.SizeOption {
	return []domain.SizeOption{
		{Label: "Média", Price: 3500, Slices: 6, MaxFlavors: 2},
		{Label: "Grande", Price: 4000, Slices: 8, MaxFlavors: 3},
	}
}

func testMenu() domain.Menu {
	return domain.Menu{
		StoreName: "Pizzaria do Léo",
		Contact:   domain.ContactInfo{WhatsApp: "5511999998888"},
		Categories: []domain.Category{
			{ID: "pizzas-salgadas", Name: "Pizzas Salgadas", Order: 1},
			{ID: "burgers", Name: "Burgers", Order: 2},
		},
		Products: []domain.Product{
			{
				ID: "pizza-queijo", CategoryID: "pizzas-salgadas", Name: "Queijo",
				Description: "Mussarela e orégano", BasePrice: 4000, IsPizza: true,
				Sizes: pizzaSizes(),
			},
			{
				ID: "pizza-pepperoni", CategoryID: "pizzas-salgadas", Name: "Pepperoni",
				Description: "Pepperoni importado", BasePrice: 4500, IsPizza: true,
				Sizes: []domain.SizeOption{
					{Label: "Média", Price: 4000, Slices: 6, MaxFlavors: 2},
					{Label: "Grande", Price: 4500, Slices: 8, MaxFlavors: 3},
				},
			},
			{
				ID: "pizza-frango", CategoryID: "pizzas-salgadas", Name: "Frango",
				Description: "Frango com catupiry", BasePrice: 3800, IsPizza: true,
				// No size table: priced at the flat base price for any size.
			},
			{
				ID: "burger-promo", CategoryID: "burgers", Name: "Burger da Casa",
				Description: "Pão e blend 160g", BasePrice: 1500, PromoPrice: 1000, IsPromo: true,
			},
			{
				ID: "burger-simples", CategoryID: "burgers", Name: "Burger Simples",
				Description: "Sem promoção", BasePrice: 1200,
			},
		},
	}
}

func newTestResolver(t *testing.T, now time.Time) PricingResolver {
	t.Helper()
	resolver, err := NewPricingResolver(PricingResolverDeps{
		Catalog: &fakeCatalog{menu: testMenu()},
		Clock:   func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewPricingResolver: %v", err)
	}
	return resolver
}

// A Monday and a Tuesday, for promo activation tests.
var (
	monday  = time.Date(2025, time.June, 2, 19, 0, 0, 0, time.UTC)
	tuesday = time.Date(2025, time.June, 3, 19, 0, 0, 0, time.UTC)
)

func TestResolveSizePriceWithoutFlavors(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	quote, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "pizza-queijo",
		Size:      "Grande",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.UnitPrice != 4000 {
		t.Fatalf("expected listed size price 4000, got %d", quote.UnitPrice)
	}
	if quote.PricedBy != "" {
		t.Fatalf("expected no pricedBy without flavors, got %q", quote.PricedBy)
	}
}

func TestResolveMaxFlavorPrice(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	quote, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "pizza-queijo",
		Size:      "Grande",
		FlavorIDs: []string{"pizza-pepperoni"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.UnitPrice != 4500 {
		t.Fatalf("expected max flavor price 4500, got %d", quote.UnitPrice)
	}
	if quote.PricedBy != "Pepperoni" {
		t.Fatalf("expected pricedBy Pepperoni, got %q", quote.PricedBy)
	}
}

func TestResolveMaxIsOrderIndependent(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	a, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "pizza-pepperoni",
		Size:      "Grande",
		FlavorIDs: []string{"pizza-queijo", "pizza-frango"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "pizza-pepperoni",
		Size:      "Grande",
		FlavorIDs: []string{"pizza-frango", "pizza-queijo"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.UnitPrice != b.UnitPrice {
		t.Fatalf("selection order changed the price: %d vs %d", a.UnitPrice, b.UnitPrice)
	}
	if a.UnitPrice != 4500 {
		t.Fatalf("expected 4500, got %d", a.UnitPrice)
	}
}

func TestResolveFlavorFlatPriceFallback(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	// pizza-frango has no size table, so it participates at its flat 3800
	// and does not out-price the Grande base.
	quote, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "pizza-queijo",
		Size:      "Grande",
		FlavorIDs: []string{"pizza-frango"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.UnitPrice != 4000 {
		t.Fatalf("expected base 4000 to win over flat 3800, got %d", quote.UnitPrice)
	}
	if quote.PricedBy != "Queijo" {
		t.Fatalf("expected pricedBy Queijo, got %q", quote.PricedBy)
	}
}

func TestResolveMissingBaseSizeFallsBackToFlatPrice(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	quote, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "pizza-queijo",
		Size:      "Gigante",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.UnitPrice != 4000 {
		t.Fatalf("expected flat base price 4000, got %d", quote.UnitPrice)
	}
}

func TestResolveRejectsFlavorsOnNonPizza(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	_, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "burger-simples",
		FlavorIDs: []string{"pizza-queijo"},
	})
	if !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestResolvePromoOnlyOnDiscountDay(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	offDay, err := resolver.Resolve(context.Background(), ResolvePriceCommand{ProductID: "burger-promo"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if offDay.UnitPrice != 1500 {
		t.Fatalf("expected base price 1500 off the discount day, got %d", offDay.UnitPrice)
	}

	onDay, err := resolver.Resolve(context.Background(), ResolvePriceCommand{ProductID: "burger-promo", Now: monday})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if onDay.UnitPrice != 1000 {
		t.Fatalf("expected promo price 1000 on the discount day, got %d", onDay.UnitPrice)
	}
}

func TestResolveCustomDiscountWeekday(t *testing.T) {
	day := time.Wednesday
	resolver, err := NewPricingResolver(PricingResolverDeps{
		Catalog:         &fakeCatalog{menu: testMenu()},
		Clock:           func() time.Time { return tuesday },
		DiscountWeekday: &day,
	})
	if err != nil {
		t.Fatalf("NewPricingResolver: %v", err)
	}

	wednesday := time.Date(2025, time.June, 4, 19, 0, 0, 0, time.UTC)
	quote, err := resolver.Resolve(context.Background(), ResolvePriceCommand{ProductID: "burger-promo", Now: wednesday})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if quote.UnitPrice != 1000 {
		t.Fatalf("expected promo price on configured weekday, got %d", quote.UnitPrice)
	}
}

func TestCheckFlavorCapacity(t *testing.T) {
	resolver := newTestResolver(t, tuesday)
	ctx := context.Background()

	// Média caps at 2 flavors; the base counts as the first.
	if err := resolver.CheckFlavorCapacity(ctx, FlavorCapacityCommand{
		ProductID: "pizza-queijo", Size: "Média", SelectedFlavors: 1,
	}); err != nil {
		t.Fatalf("expected 1 extra flavor to fit Média, got %v", err)
	}
	err := resolver.CheckFlavorCapacity(ctx, FlavorCapacityCommand{
		ProductID: "pizza-queijo", Size: "Média", SelectedFlavors: 2,
	})
	if !errors.Is(err, ErrFlavorCapacityExceeded) {
		t.Fatalf("expected capacity error for 2 extra flavors on Média, got %v", err)
	}

	// Grande allows 3 total.
	if err := resolver.CheckFlavorCapacity(ctx, FlavorCapacityCommand{
		ProductID: "pizza-queijo", Size: "Grande", SelectedFlavors: 2,
	}); err != nil {
		t.Fatalf("expected 2 extra flavors to fit Grande, got %v", err)
	}
}

func TestCheckFlavorCapacityDefaultsToTwo(t *testing.T) {
	resolver := newTestResolver(t, tuesday)
	ctx := context.Background()

	// pizza-frango has no size table, so the default cap of 2 applies.
	if err := resolver.CheckFlavorCapacity(ctx, FlavorCapacityCommand{
		ProductID: "pizza-frango", Size: "Grande", SelectedFlavors: 1,
	}); err != nil {
		t.Fatalf("expected default cap to allow 1 extra flavor, got %v", err)
	}
	err := resolver.CheckFlavorCapacity(ctx, FlavorCapacityCommand{
		ProductID: "pizza-frango", Size: "Grande", SelectedFlavors: 2,
	})
	if !errors.Is(err, ErrFlavorCapacityExceeded) {
		t.Fatalf("expected default cap of 2 to reject, got %v", err)
	}
}

func TestResolveCapacityEnforcedOnResolve(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	_, err := resolver.Resolve(context.Background(), ResolvePriceCommand{
		ProductID: "pizza-queijo",
		Size:      "Média",
		FlavorIDs: []string{"pizza-pepperoni", "pizza-frango"},
	})
	if !errors.Is(err, ErrFlavorCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestResolveUnknownProduct(t *testing.T) {
	resolver := newTestResolver(t, tuesday)

	_, err := resolver.Resolve(context.Background(), ResolvePriceCommand{ProductID: "nope"})
	if !errors.Is(err, ErrPricingProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}
