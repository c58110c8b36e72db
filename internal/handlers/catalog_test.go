package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/services"
)

type stubCatalogService struct {
	menu     services.Menu
	status   services.StoreStatus
	err      error
	lastArgs map[string]string
}

func (s *stubCatalogService) GetMenu(context.Context) (services.Menu, error) {
	return s.menu, s.err
}

func (s *stubCatalogService) ListCategories(context.Context) ([]services.Category, error) {
	return s.menu.Categories, s.err
}

func (s *stubCatalogService) ListProducts(_ context.Context, filter services.ProductFilter) ([]services.Product, error) {
	s.record("category", filter.CategoryID)
	if s.err != nil {
		return nil, s.err
	}
	if filter.CategoryID == "" {
		return s.menu.Products, nil
	}
	var out []services.Product
	for _, product := range s.menu.Products {
		if product.CategoryID == filter.CategoryID {
			out = append(out, product)
		}
	}
	return out, nil
}

func (s *stubCatalogService) GetProduct(_ context.Context, productID string) (services.Product, error) {
	if s.err != nil {
		return services.Product{}, s.err
	}
	for _, product := range s.menu.Products {
		if product.ID == productID {
			return product, nil
		}
	}
	return services.Product{}, fmt.Errorf("%w: %s", services.ErrCatalogProductNotFound, productID)
}

func (s *stubCatalogService) Search(_ context.Context, query string) ([]services.Product, error) {
	s.record("q", query)
	return s.menu.Products, s.err
}

func (s *stubCatalogService) PizzaFlavors(_ context.Context, baseProductID string) ([]services.Product, error) {
	s.record("base", baseProductID)
	return s.menu.Products, s.err
}

func (s *stubCatalogService) StoreStatus(context.Context) (services.StoreStatus, error) {
	return s.status, s.err
}

func (s *stubCatalogService) record(key, value string) {
	if s.lastArgs == nil {
		s.lastArgs = make(map[string]string)
	}
	s.lastArgs[key] = value
}

func catalogTestMenu() services.Menu {
	return services.Menu{
		StoreName: "Pizzaria do Léo",
		Categories: []services.Category{
			{ID: "pizzas-salgadas", Name: "Pizzas Salgadas", Order: 1},
			{ID: "bebidas", Name: "Bebidas", Order: 2},
		},
		Products: []services.Product{
			{
				ID:         "pizza-queijo",
				CategoryID: "pizzas-salgadas",
				Name:       "Queijo",
				BasePrice:  3500,
				IsPizza:    true,
				Sizes: []services.SizeOption{
					{Label: "Média", Price: 3500, Slices: 6, MaxFlavors: 2},
					{Label: "Grande", Price: 4000, Slices: 8, MaxFlavors: 3},
				},
			},
			{ID: "refrigerante-lata", CategoryID: "bebidas", Name: "Refrigerante Lata", BasePrice: 600},
		},
		Contact: domain.ContactInfo{WhatsApp: "5511999998888"},
	}
}

func newCatalogTestRouter(svc services.CatalogService) chi.Router {
	handlers := NewCatalogHandlers(svc)
	r := chi.NewRouter()
	r.Route("/catalog", handlers.Routes)
	return r
}

func TestCatalogListProducts(t *testing.T) {
	svc := &stubCatalogService{menu: catalogTestMenu()}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/catalog/products?category=bebidas", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := svc.lastArgs["category"]; got != "bebidas" {
		t.Fatalf("expected category filter bebidas, got %q", got)
	}

	var body struct {
		Products []productPayload `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(body.Products))
	}
	if body.Products[0].ID != "refrigerante-lata" {
		t.Fatalf("unexpected product %q", body.Products[0].ID)
	}
}

func TestCatalogGetProductIncludesSizes(t *testing.T) {
	router := newCatalogTestRouter(&stubCatalogService{menu: catalogTestMenu()})

	req := httptest.NewRequest(http.MethodGet, "/catalog/products/pizza-queijo", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Product productPayload `json:"product"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !body.Product.IsPizza {
		t.Fatal("expected is_pizza true")
	}
	if len(body.Product.Sizes) != 2 {
		t.Fatalf("expected 2 sizes, got %d", len(body.Product.Sizes))
	}
	if body.Product.Sizes[1].MaxFlavors != 3 {
		t.Fatalf("expected Grande max flavors 3, got %d", body.Product.Sizes[1].MaxFlavors)
	}
}

func TestCatalogGetProductNotFound(t *testing.T) {
	router := newCatalogTestRouter(&stubCatalogService{menu: catalogTestMenu()})

	req := httptest.NewRequest(http.MethodGet, "/catalog/products/pizza-inexistente", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "product_not_found" {
		t.Fatalf("unexpected error code %v", body["error"])
	}
}

func TestCatalogSearchForwardsQuery(t *testing.T) {
	svc := &stubCatalogService{menu: catalogTestMenu()}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/catalog/search?q=queijo", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := svc.lastArgs["q"]; got != "queijo" {
		t.Fatalf("expected search query forwarded, got %q", got)
	}
}

func TestCatalogStoreStatus(t *testing.T) {
	svc := &stubCatalogService{
		status: services.StoreStatus{
			Open:     true,
			ClosesAt: "23:00",
			Message:  "Aberto agora · fecha às 23:00",
		},
	}
	router := newCatalogTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/catalog/status", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body storeStatusPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !body.Open {
		t.Fatal("expected store open")
	}
	if body.ClosesAt != "23:00" {
		t.Fatalf("unexpected closes_at %q", body.ClosesAt)
	}
}
