package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
)

func newTestCatalogService(t *testing.T, menu domain.Menu, now time.Time) CatalogService {
	t.Helper()
	service, err := NewCatalogService(CatalogServiceDeps{
		Catalog: &fakeCatalog{menu: menu},
		Clock:   func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return service
}

func TestListProductsByCategory(t *testing.T) {
	service := newTestCatalogService(t, testMenu(), tuesday)

	products, err := service.ListProducts(context.Background(), ProductFilter{CategoryID: "burgers"})
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 burgers, got %d", len(products))
	}
	for _, product := range products {
		if product.CategoryID != "burgers" {
			t.Fatalf("unexpected category %q", product.CategoryID)
		}
	}
	// Collated order is case-insensitive: "da Casa" sorts before "Simples".
	if products[0].Name != "Burger da Casa" || products[1].Name != "Burger Simples" {
		t.Fatalf("expected collated listing, got %q before %q", products[0].Name, products[1].Name)
	}
}

func TestSearchIsAccentAndCaseInsensitive(t *testing.T) {
	menu := testMenu()
	menu.Products = append(menu.Products, domain.Product{
		ID: "pao-de-alho", CategoryID: "burgers", Name: "Pão de Alho",
		Description: "Acompanhamento", BasePrice: 800,
	})
	service := newTestCatalogService(t, menu, tuesday)

	cases := []struct {
		query string
		want  string
	}{
		{"pao de alho", "pao-de-alho"},
		{"PÃO", "pao-de-alho"},
		{"pepperoni", "pizza-pepperoni"},
		{"catupiry", "pizza-frango"},
	}
	for _, tc := range cases {
		results, err := service.Search(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("Search(%q): %v", tc.query, err)
		}
		found := false
		for _, product := range results {
			if product.ID == tc.want {
				found = true
			}
		}
		if !found {
			t.Fatalf("Search(%q): expected %s in results %+v", tc.query, tc.want, results)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	service := newTestCatalogService(t, testMenu(), tuesday)

	results, err := service.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for blank query, got %d", len(results))
	}
}

func TestPizzaFlavors(t *testing.T) {
	menu := testMenu()
	menu.Products = append(menu.Products, domain.Product{
		ID: "pizza-chocolate", CategoryID: "pizzas-doces", Name: "Chocolate",
		BasePrice: 3500, IsPizza: true, IsSweet: true,
	})
	service := newTestCatalogService(t, menu, tuesday)

	flavors, err := service.PizzaFlavors(context.Background(), "pizza-queijo")
	if err != nil {
		t.Fatalf("PizzaFlavors: %v", err)
	}
	sweet := false
	for _, flavor := range flavors {
		if flavor.ID == "pizza-queijo" {
			t.Fatal("expected base product excluded from flavors")
		}
		if !flavor.IsPizza {
			t.Fatalf("expected only pizzas, got %s", flavor.ID)
		}
		if flavor.IsSweet {
			sweet = true
		}
	}
	if !sweet {
		t.Fatalf("expected the sweet pizza offered for a salty base, got %+v", flavors)
	}
	if len(flavors) != 3 {
		t.Fatalf("expected pepperoni, frango, and chocolate, got %d flavors", len(flavors))
	}

	if _, err := service.PizzaFlavors(context.Background(), "burger-simples"); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected invalid input for non-pizza base, got %v", err)
	}
}

func TestGetProductNotFound(t *testing.T) {
	service := newTestCatalogService(t, testMenu(), tuesday)

	if _, err := service.GetProduct(context.Background(), "nope"); !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreStatus(t *testing.T) {
	menu := testMenu()
	menu.Hours = []domain.DayHours{
		{Weekday: time.Tuesday, OpenMinute: 18 * 60, CloseMinute: 23 * 60},
		{Weekday: time.Friday, OpenMinute: 18 * 60, CloseMinute: 0},
		{Weekday: time.Monday, Closed: true},
	}

	cases := []struct {
		name     string
		now      time.Time
		wantOpen bool
	}{
		{
			name:     "open during service hours",
			now:      time.Date(2025, time.June, 3, 19, 30, 0, 0, time.UTC),
			wantOpen: true,
		},
		{
			name:     "closed before opening",
			now:      time.Date(2025, time.June, 3, 12, 0, 0, 0, time.UTC),
			wantOpen: false,
		},
		{
			name:     "closed after closing",
			now:      time.Date(2025, time.June, 3, 23, 30, 0, 0, time.UTC),
			wantOpen: false,
		},
		{
			name: "midnight close keeps the store open late",
			// Friday 23:59 with close minute 0 (end of day).
			now:      time.Date(2025, time.June, 6, 23, 59, 0, 0, time.UTC),
			wantOpen: true,
		},
		{
			name:     "closed weekday",
			now:      time.Date(2025, time.June, 2, 19, 0, 0, 0, time.UTC),
			wantOpen: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := newTestCatalogService(t, menu, tc.now)
			status, err := service.StoreStatus(context.Background())
			if err != nil {
				t.Fatalf("StoreStatus: %v", err)
			}
			if status.Open != tc.wantOpen {
				t.Fatalf("expected open=%v, got %+v", tc.wantOpen, status)
			}
			if status.Message == "" {
				t.Fatal("expected a status message")
			}
		})
	}
}
