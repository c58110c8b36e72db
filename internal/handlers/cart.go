package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/pizzaria-do-leo/api/internal/platform/httpx"
	"github.com/pizzaria-do-leo/api/internal/platform/requestctx"
	"github.com/pizzaria-do-leo/api/internal/services"
)

const (
	sessionHeader   = "X-Session-ID"
	maxCartBodySize = 16 * 1024
	maxSessionIDLen = 64
)

// CartHandlers exposes the session-scoped cart endpoints.
type CartHandlers struct {
	carts services.CartService
	ids   func() string
}

// CartOption customises the cart handlers.
type CartOption func(*CartHandlers)

// WithCartIDGenerator overrides the generator used to mint session identifiers.
func WithCartIDGenerator(fn func() string) CartOption {
	return func(h *CartHandlers) {
		if fn != nil {
			h.ids = fn
		}
	}
}

// NewCartHandlers constructs handlers bound to the cart service. Sessions are
// anonymous: clients present an X-Session-ID header and receive a fresh one
// when they do not.
func NewCartHandlers(carts services.CartService, opts ...CartOption) *CartHandlers {
	h := &CartHandlers{
		carts: carts,
		ids:   func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Use(h.SessionMiddleware())
	r.Get("/", h.getCart)
	r.Get("/totals", h.getTotals)
	r.Post("/items", h.addItem)
	r.Patch("/items/{lineID}", h.updateItem)
	r.Delete("/items/{lineID}", h.removeItem)
	r.Delete("/", h.clearCart)
}

// SessionMiddleware resolves the cart session header, minting a new session
// identifier when the client has none, and echoes it on the response.
func (h *CartHandlers) SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
			if len(sessionID) > maxSessionIDLen {
				httpx.WriteError(r.Context(), w, httpx.NewError("invalid_session", "session identifier too long", http.StatusBadRequest))
				return
			}
			if sessionID == "" {
				sessionID = h.ids()
			}
			w.Header().Set(sessionHeader, sessionID)
			ctx := requestctx.WithSessionID(r.Context(), sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cart, err := h.carts.GetCart(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) getTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	totals, err := h.carts.Totals(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartTotalsPayload{Items: totals.Items, Price: totals.Price})
}

type addItemRequest struct {
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Size      string   `json:"size"`
	FlavorIDs []string `json:"flavor_ids"`
	Note      string   `json:"note"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}

	var req addItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.carts.AddLine(ctx, services.AddLineCommand{
		SessionID: requestctx.SessionID(ctx),
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		FlavorIDs: req.FlavorIDs,
		Note:      req.Note,
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, cartResponse{Cart: buildCartPayload(cart)})
}

type updateItemRequest struct {
	quantity    *int
	quantitySet bool
	note        *string
	noteSet     bool
}

func parseUpdateItemRequest(body []byte) (updateItemRequest, error) {
	var req updateItemRequest

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return req, errors.New("invalid JSON payload")
	}

	for key, value := range raw {
		switch key {
		case "quantity":
			if isJSONNull(value) {
				return req, errors.New("quantity must be an integer")
			}
			var quantity int
			if err := json.Unmarshal(value, &quantity); err != nil {
				return req, errors.New("quantity must be an integer")
			}
			req.quantitySet = true
			req.quantity = &quantity
		case "note":
			req.noteSet = true
			if isJSONNull(value) {
				empty := ""
				req.note = &empty
				continue
			}
			var note string
			if err := json.Unmarshal(value, &note); err != nil {
				return req, errors.New("note must be a string or null")
			}
			req.note = &note
		default:
			return req, fmt.Errorf("field %q is not editable", key)
		}
	}

	if !req.quantitySet && !req.noteSet {
		return req, errors.New("no editable fields provided")
	}

	return req, nil
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}

	req, err := parseUpdateItemRequest(body)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	sessionID := requestctx.SessionID(ctx)
	lineID := strings.TrimSpace(chi.URLParam(r, "lineID"))

	var cart services.Cart
	if req.quantitySet {
		cart, err = h.carts.SetQuantity(ctx, services.SetQuantityCommand{
			SessionID: sessionID,
			LineID:    lineID,
			Quantity:  *req.quantity,
		})
		if err != nil {
			h.writeCartError(ctx, w, err)
			return
		}
	}
	if req.noteSet {
		cart, err = h.carts.SetNote(ctx, services.SetNoteCommand{
			SessionID: sessionID,
			LineID:    lineID,
			Note:      *req.note,
		})
		if err != nil {
			h.writeCartError(ctx, w, err)
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cart, err := h.carts.RemoveLine(ctx, services.RemoveLineCommand{
		SessionID: requestctx.SessionID(ctx),
		LineID:    strings.TrimSpace(chi.URLParam(r, "lineID")),
	})
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cart, err := h.carts.Clear(ctx, requestctx.SessionID(ctx))
	if err != nil {
		h.writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *CartHandlers) writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartCapacityExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("flavor_capacity_exceeded", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("cart_error", "failed to update cart", http.StatusInternalServerError))
	}
}

func buildCartPayload(cart services.Cart) cartPayload {
	payload := cartPayload{
		SessionID: cart.SessionID,
		Lines:     buildCartLines(cart.Lines),
	}
	for _, line := range cart.Lines {
		payload.Totals.Items += line.Quantity
		payload.Totals.Price += line.TotalPrice
	}
	if !cart.CreatedAt.IsZero() {
		payload.CreatedAt = formatTime(cart.CreatedAt)
	}
	if !cart.UpdatedAt.IsZero() {
		payload.UpdatedAt = formatTime(cart.UpdatedAt)
	}
	return payload
}

func buildCartLines(lines []services.CartLine) []cartLinePayload {
	if len(lines) == 0 {
		return []cartLinePayload{}
	}

	payload := make([]cartLinePayload, 0, len(lines))
	for _, line := range lines {
		entry := cartLinePayload{
			ID:         line.ID,
			ProductID:  line.ProductID,
			Name:       line.Name,
			Size:       line.Size,
			Note:       line.Note,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
			PricedBy:   line.PricedBy,
		}
		if len(line.Flavors) > 0 {
			flavors := make([]cartFlavorPayload, 0, len(line.Flavors))
			for _, flavor := range line.Flavors {
				flavors = append(flavors, cartFlavorPayload{
					ProductID: flavor.ProductID,
					Name:      flavor.Name,
				})
			}
			entry.Flavors = flavors
		}
		if !line.AddedAt.IsZero() {
			entry.AddedAt = formatTime(line.AddedAt)
		}
		payload = append(payload, entry)
	}
	return payload
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

type cartPayload struct {
	SessionID string            `json:"session_id"`
	Lines     []cartLinePayload `json:"lines"`
	Totals    cartTotalsPayload `json:"totals"`
	CreatedAt string            `json:"created_at,omitempty"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

type cartTotalsPayload struct {
	Items int   `json:"items"`
	Price int64 `json:"price"`
}

type cartLinePayload struct {
	ID         string              `json:"id"`
	ProductID  string              `json:"product_id"`
	Name       string              `json:"name"`
	Size       string              `json:"size,omitempty"`
	Flavors    []cartFlavorPayload `json:"flavors,omitempty"`
	Note       string              `json:"note,omitempty"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  int64               `json:"unit_price"`
	TotalPrice int64               `json:"total_price"`
	PricedBy   string              `json:"priced_by,omitempty"`
	AddedAt    string              `json:"added_at,omitempty"`
}

type cartFlavorPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
}
