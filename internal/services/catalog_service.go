package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied invalid input.
	ErrCatalogInvalidInput = errors.New("catalog service: invalid input")
	// ErrCatalogProductNotFound indicates the requested product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog service: product not found")
	// ErrCatalogUnavailable indicates the catalog dataset cannot be served.
	ErrCatalogUnavailable = errors.New("catalog service: unavailable")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Clock   func() time.Time
}

type catalogService struct {
	repo     repositories.CatalogRepository
	now      func() time.Time
	collator *collate.Collator
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog service: catalog repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &catalogService{
		repo:     deps.Catalog,
		now:      clock,
		collator: collate.New(language.BrazilianPortuguese, collate.IgnoreCase),
	}, nil
}

// GetMenu returns the full dataset.
func (s *catalogService) GetMenu(ctx context.Context) (Menu, error) {
	menu, err := s.repo.Menu(ctx)
	if err != nil {
		return Menu{}, s.translateError(err)
	}
	return menu, nil
}

// ListCategories returns categories in display order.
func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}
	return categories, nil
}

// ListProducts returns products, optionally narrowed to one category, sorted
// by name under pt-BR collation.
func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}

	categoryID := strings.TrimSpace(filter.CategoryID)
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if categoryID != "" && product.CategoryID != categoryID {
			continue
		}
		out = append(out, product)
	}
	s.sortByName(out)
	return out, nil
}

// GetProduct looks up one product.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.repo.ProductByID(ctx, productID)
	if err != nil {
		return Product{}, s.translateError(err)
	}
	return product, nil
}

// Search matches the query as a case- and accent-insensitive substring of
// product names and descriptions. An empty query yields no results.
func (s *catalogService) Search(ctx context.Context, query string) ([]Product, error) {
	needle := foldForSearch(query)
	if needle == "" {
		return []Product{}, nil
	}

	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}

	out := make([]Product, 0)
	for _, product := range products {
		if strings.Contains(foldForSearch(product.Name), needle) ||
			strings.Contains(foldForSearch(product.Description), needle) {
			out = append(out, product)
		}
	}
	s.sortByName(out)
	return out, nil
}

// PizzaFlavors returns the flavors combinable with the base pizza: every
// other pizza product, sweet and salty alike.
func (s *catalogService) PizzaFlavors(ctx context.Context, baseProductID string) ([]Product, error) {
	baseProductID = strings.TrimSpace(baseProductID)
	if baseProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	base, err := s.repo.ProductByID(ctx, baseProductID)
	if err != nil {
		return nil, s.translateError(err)
	}
	if !base.IsPizza {
		return nil, fmt.Errorf("%w: product %s does not combine flavors", ErrCatalogInvalidInput, base.ID)
	}

	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}

	out := make([]Product, 0)
	for _, product := range products {
		if !product.IsPizza || product.ID == base.ID {
			continue
		}
		out = append(out, product)
	}
	s.sortByName(out)
	return out, nil
}

// StoreStatus reports whether the store is open at the current time based on
// the weekday's opening hours. A close minute of zero means end of day.
func (s *catalogService) StoreStatus(ctx context.Context) (StoreStatus, error) {
	hours, err := s.repo.Hours(ctx)
	if err != nil {
		return StoreStatus{}, s.translateError(err)
	}

	now := s.now()
	var today *domain.DayHours
	for i := range hours {
		if hours[i].Weekday == now.Weekday() {
			today = &hours[i]
			break
		}
	}
	if today == nil || today.Closed {
		return StoreStatus{Open: false, Message: "Fechado hoje"}, nil
	}

	openMinute := today.OpenMinute
	closeMinute := today.CloseMinute
	if closeMinute == 0 {
		closeMinute = 24 * 60
	}

	opensAt := formatClockMinute(openMinute)
	closesAt := formatClockMinute(today.CloseMinute)

	minuteOfDay := now.Hour()*60 + now.Minute()
	if minuteOfDay >= openMinute && minuteOfDay < closeMinute {
		return StoreStatus{
			Open:     true,
			OpensAt:  opensAt,
			ClosesAt: closesAt,
			Message:  fmt.Sprintf("Aberto agora · fecha às %s", closesAt),
		}, nil
	}
	return StoreStatus{
		Open:     false,
		OpensAt:  opensAt,
		ClosesAt: closesAt,
		Message:  fmt.Sprintf("Fechado · abre às %s", opensAt),
	}, nil
}

func (s *catalogService) sortByName(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return s.collator.CompareString(products[i].Name, products[j].Name) < 0
	})
}

func (s *catalogService) translateError(err error) error {
	if err == nil {
		return nil
	}
	if isRepoNotFound(err) {
		return ErrCatalogProductNotFound
	}
	return ErrCatalogUnavailable
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldForSearch lowercases and strips combining marks so "calabresa" matches
// "Calabrêsa" and vice versa.
func foldForSearch(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	folded, _, err := transform.String(accentStripper, value)
	if err != nil {
		return value
	}
	return folded
}

func formatClockMinute(minute int) string {
	minute = ((minute % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
