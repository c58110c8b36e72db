// Package static serves the read-only menu dataset the storefront is seeded
// with. The catalog is parsed once at construction and never mutated; an
// embedded default menu ships with the binary and can be replaced by a JSON
// file at startup.
package static

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/repositories"
)

//go:embed menu.json
var embeddedMenu []byte

// Catalog implements repositories.CatalogRepository over an immutable dataset.
type Catalog struct {
	menu domain.Menu
	byID map[string]domain.Product
}

var _ repositories.CatalogRepository = (*Catalog)(nil)

// CatalogOption customises catalog construction.
type CatalogOption func(*catalogConfig)

type catalogConfig struct {
	raw []byte
}

// WithMenuFile loads the menu dataset from a JSON file instead of the
// embedded default.
func WithMenuFile(path string) CatalogOption {
	return func(cfg *catalogConfig) {
		if strings.TrimSpace(path) == "" {
			return
		}
		data, err := os.ReadFile(path)
		if err == nil {
			cfg.raw = data
		}
	}
}

// WithMenuJSON supplies the menu dataset directly. Primarily for tests.
func WithMenuJSON(raw []byte) CatalogOption {
	return func(cfg *catalogConfig) {
		if len(raw) > 0 {
			cfg.raw = raw
		}
	}
}

// NewCatalog parses and validates the menu dataset.
func NewCatalog(opts ...CatalogOption) (*Catalog, error) {
	cfg := catalogConfig{raw: embeddedMenu}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var doc menuDocument
	if err := json.Unmarshal(cfg.raw, &doc); err != nil {
		return nil, fmt.Errorf("static catalog: parse menu: %w", err)
	}

	menu, err := doc.toDomain()
	if err != nil {
		return nil, fmt.Errorf("static catalog: %w", err)
	}

	byID := make(map[string]domain.Product, len(menu.Products))
	for _, product := range menu.Products {
		if _, exists := byID[product.ID]; exists {
			return nil, fmt.Errorf("static catalog: duplicate product id %q", product.ID)
		}
		byID[product.ID] = product
	}

	return &Catalog{menu: menu, byID: byID}, nil
}

// Menu returns the full dataset.
func (c *Catalog) Menu(ctx context.Context) (domain.Menu, error) {
	if err := ctx.Err(); err != nil {
		return domain.Menu{}, err
	}
	return cloneMenu(c.menu), nil
}

// Categories returns all categories in display order.
func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Category, len(c.menu.Categories))
	copy(out, c.menu.Categories)
	return out, nil
}

// Products returns every product in catalog order.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(c.menu.Products))
	copy(out, c.menu.Products)
	for i := range out {
		out[i].Sizes = cloneSizes(out[i].Sizes)
	}
	return out, nil
}

// ProductByID looks up one product.
func (c *Catalog) ProductByID(ctx context.Context, productID string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	product, ok := c.byID[strings.TrimSpace(productID)]
	if !ok {
		return domain.Product{}, repositories.NewNotFoundError("static catalog: product", "product not found")
	}
	product.Sizes = cloneSizes(product.Sizes)
	return product, nil
}

// Hours returns opening hours for every weekday.
func (c *Catalog) Hours(ctx context.Context) ([]domain.DayHours, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.DayHours, len(c.menu.Hours))
	copy(out, c.menu.Hours)
	return out, nil
}

// Contact returns the storefront contact endpoints.
func (c *Catalog) Contact(ctx context.Context) (domain.ContactInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.ContactInfo{}, err
	}
	return c.menu.Contact, nil
}

type menuDocument struct {
	StoreName  string             `json:"storeName"`
	Contact    contactDocument    `json:"contact"`
	Hours      []hoursDocument    `json:"hours"`
	Categories []categoryDocument `json:"categories"`
	Products   []productDocument  `json:"products"`
}

type contactDocument struct {
	WhatsApp string `json:"whatsapp"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type hoursDocument struct {
	Weekday int    `json:"weekday"`
	Closed  bool   `json:"closed"`
	Opens   string `json:"opens"`
	Closes  string `json:"closes"`
}

type categoryDocument struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Order int    `json:"order"`
}

type sizeDocument struct {
	Label      string `json:"label"`
	Price      int64  `json:"price"`
	Slices     int    `json:"slices"`
	MaxFlavors int    `json:"maxFlavors"`
}

type productDocument struct {
	ID          string         `json:"id"`
	CategoryID  string         `json:"categoryId"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	BasePrice   int64          `json:"basePrice"`
	PromoPrice  int64          `json:"promoPrice"`
	Sizes       []sizeDocument `json:"sizes"`
	IsPizza     bool           `json:"isPizza"`
	IsSweet     bool           `json:"isSweet"`
	IsPromo     bool           `json:"isPromo"`
}

func (doc menuDocument) toDomain() (domain.Menu, error) {
	menu := domain.Menu{
		StoreName: strings.TrimSpace(doc.StoreName),
		Contact: domain.ContactInfo{
			WhatsApp: strings.TrimSpace(doc.Contact.WhatsApp),
			Phone:    strings.TrimSpace(doc.Contact.Phone),
			Address:  strings.TrimSpace(doc.Contact.Address),
		},
	}
	if menu.StoreName == "" {
		return domain.Menu{}, fmt.Errorf("store name is required")
	}
	if menu.Contact.WhatsApp == "" {
		return domain.Menu{}, fmt.Errorf("contact whatsapp number is required")
	}

	categoryIDs := make(map[string]struct{}, len(doc.Categories))
	for _, cat := range doc.Categories {
		id := strings.TrimSpace(cat.ID)
		if id == "" {
			return domain.Menu{}, fmt.Errorf("category with empty id")
		}
		if _, dup := categoryIDs[id]; dup {
			return domain.Menu{}, fmt.Errorf("duplicate category id %q", id)
		}
		categoryIDs[id] = struct{}{}
		menu.Categories = append(menu.Categories, domain.Category{
			ID:    id,
			Name:  strings.TrimSpace(cat.Name),
			Icon:  cat.Icon,
			Order: cat.Order,
		})
	}
	sort.SliceStable(menu.Categories, func(i, j int) bool {
		return menu.Categories[i].Order < menu.Categories[j].Order
	})

	for _, hours := range doc.Hours {
		if hours.Weekday < 0 || hours.Weekday > 6 {
			return domain.Menu{}, fmt.Errorf("hours weekday %d out of range", hours.Weekday)
		}
		day := domain.DayHours{
			Weekday: time.Weekday(hours.Weekday),
			Closed:  hours.Closed,
		}
		if !hours.Closed {
			open, err := parseClockMinute(hours.Opens)
			if err != nil {
				return domain.Menu{}, fmt.Errorf("hours weekday %d opens: %w", hours.Weekday, err)
			}
			closeMinute, err := parseClockMinute(hours.Closes)
			if err != nil {
				return domain.Menu{}, fmt.Errorf("hours weekday %d closes: %w", hours.Weekday, err)
			}
			day.OpenMinute = open
			day.CloseMinute = closeMinute
		}
		menu.Hours = append(menu.Hours, day)
	}

	for _, product := range doc.Products {
		id := strings.TrimSpace(product.ID)
		if id == "" {
			return domain.Menu{}, fmt.Errorf("product with empty id")
		}
		if product.BasePrice < 0 || product.PromoPrice < 0 {
			return domain.Menu{}, fmt.Errorf("product %q has negative price", id)
		}
		categoryID := strings.TrimSpace(product.CategoryID)
		if _, known := categoryIDs[categoryID]; !known {
			return domain.Menu{}, fmt.Errorf("product %q references unknown category %q", id, categoryID)
		}

		converted := domain.Product{
			ID:          id,
			CategoryID:  categoryID,
			Name:        strings.TrimSpace(product.Name),
			Description: strings.TrimSpace(product.Description),
			Image:       strings.TrimSpace(product.Image),
			BasePrice:   product.BasePrice,
			PromoPrice:  product.PromoPrice,
			IsPizza:     product.IsPizza,
			IsSweet:     product.IsSweet,
			IsPromo:     product.IsPromo,
		}
		for _, size := range product.Sizes {
			label := strings.TrimSpace(size.Label)
			if label == "" {
				return domain.Menu{}, fmt.Errorf("product %q has size with empty label", id)
			}
			if size.Price < 0 {
				return domain.Menu{}, fmt.Errorf("product %q size %q has negative price", id, label)
			}
			converted.Sizes = append(converted.Sizes, domain.SizeOption{
				Label:      label,
				Price:      size.Price,
				Slices:     size.Slices,
				MaxFlavors: size.MaxFlavors,
			})
		}
		menu.Products = append(menu.Products, converted)
	}

	return menu, nil
}

// parseClockMinute converts "HH:MM" to minutes after midnight.
func parseClockMinute(value string) (int, error) {
	value = strings.TrimSpace(value)
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func cloneMenu(menu domain.Menu) domain.Menu {
	dup := menu
	dup.Categories = make([]domain.Category, len(menu.Categories))
	copy(dup.Categories, menu.Categories)
	dup.Hours = make([]domain.DayHours, len(menu.Hours))
	copy(dup.Hours, menu.Hours)
	dup.Products = make([]domain.Product, len(menu.Products))
	copy(dup.Products, menu.Products)
	for i := range dup.Products {
		dup.Products[i].Sizes = cloneSizes(dup.Products[i].Sizes)
	}
	return dup
}

func cloneSizes(sizes []domain.SizeOption) []domain.SizeOption {
	if len(sizes) == 0 {
		return nil
	}
	dup := make([]domain.SizeOption, len(sizes))
	copy(dup, sizes)
	return dup
}
