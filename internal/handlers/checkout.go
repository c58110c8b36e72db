package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/platform/httpx"
	"github.com/pizzaria-do-leo/api/internal/services"
)

const (
	maxCheckoutRequestBody = 8 * 1024
	defaultCheckoutLimit   = 10
	checkoutLimitWindow    = time.Minute
)

// CheckoutHandlers exposes the order submission endpoint.
type CheckoutHandlers struct {
	checkout services.CheckoutService
	limiter  rateLimiter
}

// CheckoutOption customises the checkout handlers.
type CheckoutOption func(*CheckoutHandlers)

// WithCheckoutRateLimit throttles submissions per client IP.
func WithCheckoutRateLimit(perMinute int) CheckoutOption {
	return func(h *CheckoutHandlers) {
		h.limiter = newSubmitThrottle(perMinute, checkoutLimitWindow, nil)
	}
}

// WithCheckoutRateLimiter injects a custom limiter, primarily for tests.
func WithCheckoutRateLimiter(limiter rateLimiter) CheckoutOption {
	return func(h *CheckoutHandlers) {
		h.limiter = limiter
	}
}

// NewCheckoutHandlers constructs checkout handlers with a per-IP rate limit.
func NewCheckoutHandlers(checkout services.CheckoutService, opts ...CheckoutOption) *CheckoutHandlers {
	h := &CheckoutHandlers{
		checkout: checkout,
		limiter:  newSubmitThrottle(defaultCheckoutLimit, checkoutLimitWindow, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /checkout endpoint onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitOrder)
}

type submitOrderRequest struct {
	Mode      string               `json:"mode"`
	Payment   string               `json:"payment"`
	ChangeFor int64                `json:"change_for"`
	Customer  orderCustomerRequest `json:"customer"`
}

type orderCustomerRequest struct {
	Name         string `json:"name"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Reference    string `json:"reference"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	Reference   string `json:"reference"`
	Message     string `json:"message"`
	Link        string `json:"link"`
	Subtotal    int64  `json:"subtotal"`
	DeliveryFee int64  `json:"delivery_fee"`
	Total       int64  `json:"total"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (h *CheckoutHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many checkout attempts; try again shortly", http.StatusTooManyRequests))
		return
	}

	sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "X-Session-ID header is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req submitOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	summary, err := h.checkout.SubmitOrder(ctx, services.SubmitOrderCommand{
		Draft: services.OrderDraft{
			SessionID: sessionID,
			Mode:      domain.DeliveryMode(strings.TrimSpace(req.Mode)),
			Payment:   domain.PaymentMethod(strings.TrimSpace(req.Payment)),
			ChangeFor: req.ChangeFor,
			Customer: services.CustomerInfo{
				Name:         req.Customer.Name,
				Street:       req.Customer.Street,
				Number:       req.Customer.Number,
				Neighborhood: req.Customer.Neighborhood,
				Reference:    req.Customer.Reference,
			},
		},
	})
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	payload := orderPayload{
		Reference:   summary.Reference,
		Message:     summary.Message,
		Link:        summary.Link,
		Subtotal:    summary.Subtotal,
		DeliveryFee: summary.DeliveryFee,
		Total:       summary.Total,
	}
	if !summary.CreatedAt.IsZero() {
		payload.CreatedAt = formatTime(summary.CreatedAt)
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: payload})
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var validation *services.CheckoutValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteError(ctx, w, httpx.NewError("order_validation_failed", "order failed validation", http.StatusUnprocessableEntity).
			WithDetails(map[string]any{"problems": validation.Problems}))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart has no items to order", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to submit order", http.StatusInternalServerError))
	}
}

func clientKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
