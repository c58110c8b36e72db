package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pizzaria-do-leo/api/internal/platform/httpx"
	"github.com/pizzaria-do-leo/api/internal/services"
)

// CatalogHandlers exposes the public storefront catalog endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs handlers backed by the catalog service.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/menu", h.getMenu)
	r.Get("/categories", h.listCategories)
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/products/{productID}/flavors", h.listFlavors)
	r.Get("/search", h.search)
	r.Get("/status", h.storeStatus)
}

func (h *CatalogHandlers) getMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	menu, err := h.catalog.GetMenu(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, menuResponse{Menu: buildMenuPayload(menu)})
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, categoriesResponse{Categories: buildCategoryPayloads(categories)})
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	filter := services.ProductFilter{
		CategoryID: strings.TrimSpace(r.URL.Query().Get("category")),
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productsResponse{Products: buildProductPayloads(products)})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *CatalogHandlers) listFlavors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	flavors, err := h.catalog.PizzaFlavors(ctx, productID)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productsResponse{Products: buildProductPayloads(flavors)})
}

func (h *CatalogHandlers) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query().Get("q")
	products, err := h.catalog.Search(ctx, query)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productsResponse{Products: buildProductPayloads(products)})
}

func (h *CatalogHandlers) storeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	status, err := h.catalog.StoreStatus(ctx)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := storeStatusPayload{
		Open:    status.Open,
		Message: status.Message,
	}
	if status.OpensAt != "" {
		payload.OpensAt = status.OpensAt
	}
	if status.ClosesAt != "" {
		payload.ClosesAt = status.ClosesAt
	}

	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to read catalog", http.StatusInternalServerError))
	}
}

func buildMenuPayload(menu services.Menu) menuPayload {
	payload := menuPayload{
		StoreName:  menu.StoreName,
		Categories: buildCategoryPayloads(menu.Categories),
		Products:   buildProductPayloads(menu.Products),
		Hours:      buildHoursPayloads(menu.Hours),
		Contact: contactPayload{
			WhatsApp: menu.Contact.WhatsApp,
			Phone:    menu.Contact.Phone,
			Address:  menu.Contact.Address,
		},
	}
	return payload
}

func buildCategoryPayloads(categories []services.Category) []categoryPayload {
	out := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		out = append(out, categoryPayload{
			ID:    category.ID,
			Name:  category.Name,
			Icon:  category.Icon,
			Order: category.Order,
		})
	}
	return out
}

func buildProductPayloads(products []services.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, product := range products {
		out = append(out, buildProductPayload(product))
	}
	return out
}

func buildProductPayload(product services.Product) productPayload {
	payload := productPayload{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		Image:       product.Image,
		BasePrice:   product.BasePrice,
		IsPizza:     product.IsPizza,
		IsSweet:     product.IsSweet,
		IsPromo:     product.IsPromo,
	}
	if product.PromoPrice > 0 {
		payload.PromoPrice = &product.PromoPrice
	}
	if len(product.Sizes) > 0 {
		sizes := make([]sizePayload, 0, len(product.Sizes))
		for _, size := range product.Sizes {
			sizes = append(sizes, sizePayload{
				Label:      size.Label,
				Price:      size.Price,
				Slices:     size.Slices,
				MaxFlavors: size.MaxFlavors,
			})
		}
		payload.Sizes = sizes
	}
	return payload
}

func buildHoursPayloads(hours []services.DayHours) []dayHoursPayload {
	out := make([]dayHoursPayload, 0, len(hours))
	for _, day := range hours {
		out = append(out, dayHoursPayload{
			Weekday:     int(day.Weekday),
			Closed:      day.Closed,
			OpenMinute:  day.OpenMinute,
			CloseMinute: day.CloseMinute,
		})
	}
	return out
}

type menuResponse struct {
	Menu menuPayload `json:"menu"`
}

type menuPayload struct {
	StoreName  string            `json:"store_name"`
	Categories []categoryPayload `json:"categories"`
	Products   []productPayload  `json:"products"`
	Hours      []dayHoursPayload `json:"hours"`
	Contact    contactPayload    `json:"contact"`
}

type categoriesResponse struct {
	Categories []categoryPayload `json:"categories"`
}

type categoryPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Order int    `json:"order"`
}

type productsResponse struct {
	Products []productPayload `json:"products"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ID          string        `json:"id"`
	CategoryID  string        `json:"category_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Image       string        `json:"image,omitempty"`
	BasePrice   int64         `json:"base_price"`
	PromoPrice  *int64        `json:"promo_price,omitempty"`
	Sizes       []sizePayload `json:"sizes,omitempty"`
	IsPizza     bool          `json:"is_pizza"`
	IsSweet     bool          `json:"is_sweet"`
	IsPromo     bool          `json:"is_promo"`
}

type sizePayload struct {
	Label      string `json:"label"`
	Price      int64  `json:"price"`
	Slices     int    `json:"slices,omitempty"`
	MaxFlavors int    `json:"max_flavors,omitempty"`
}

type dayHoursPayload struct {
	Weekday     int  `json:"weekday"`
	Closed      bool `json:"closed"`
	OpenMinute  int  `json:"open_minute"`
	CloseMinute int  `json:"close_minute"`
}

type contactPayload struct {
	WhatsApp string `json:"whatsapp"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

type storeStatusPayload struct {
	Open     bool   `json:"open"`
	OpensAt  string `json:"opens_at,omitempty"`
	ClosesAt string `json:"closes_at,omitempty"`
	Message  string `json:"message"`
}
