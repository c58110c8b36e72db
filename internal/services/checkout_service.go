package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
	"github.com/pizzaria-do-leo/api/internal/repositories"
)

// Default delivery surcharge in centavos, applied only in delivery mode.
const defaultDeliveryFee = 200

// ErrCheckoutInvalidInput indicates the caller supplied invalid input.
var ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")

// ErrCheckoutValidation indicates required customer fields are missing or
// inconsistent. Surfaced as a user-facing message, never fatal.
var ErrCheckoutValidation = errors.New("checkout service: validation failed")

// ErrCheckoutEmptyCart indicates the session has nothing to order.
var ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")

// ErrCheckoutUnavailable indicates the checkout service cannot fulfil the request.
var ErrCheckoutUnavailable = errors.New("checkout service: unavailable")

// CheckoutValidationError lists the user-facing problems found in a submission.
type CheckoutValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *CheckoutValidationError) Error() string {
	return fmt.Sprintf("checkout service: validation failed: %s", strings.Join(e.Problems, "; "))
}

// Unwrap lets callers match with errors.Is(err, ErrCheckoutValidation).
func (e *CheckoutValidationError) Unwrap() error {
	return ErrCheckoutValidation
}

// CheckoutServiceDeps wires the cart, catalog, and formatting dependencies.
type CheckoutServiceDeps struct {
	Carts       CartService
	Catalog     repositories.CatalogRepository
	DeliveryFee *int64
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type checkoutService struct {
	carts       CartService
	catalog     repositories.CatalogRepository
	deliveryFee int64
	now         func() time.Time
	newID       func() string
	logger      func(context.Context, string, map[string]any)
	sanitizer   *bluemonday.Policy
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart service is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("checkout service: catalog repository is required")
	}

	fee := int64(defaultDeliveryFee)
	if deps.DeliveryFee != nil {
		if *deps.DeliveryFee < 0 {
			return nil, errors.New("checkout service: delivery fee must be non-negative")
		}
		fee = *deps.DeliveryFee
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		carts:       deps.Carts,
		catalog:     deps.Catalog,
		deliveryFee: fee,
		now:         func() time.Time { return clock().UTC() },
		newID:       idGen,
		logger:      logger,
		sanitizer:   bluemonday.StrictPolicy(),
	}, nil
}

// SubmitOrder validates the submission, renders the order message, builds the
// messaging deep link, and clears the session cart. Nothing is persisted; the
// order reference exists only for the hand-off.
func (s *checkoutService) SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) (OrderSummary, error) {
	if s == nil || s.carts == nil {
		return OrderSummary{}, ErrCheckoutUnavailable
	}

	draft := cmd.Draft
	sessionID := strings.TrimSpace(draft.SessionID)
	if sessionID == "" {
		return OrderSummary{}, fmt.Errorf("%w: session id is required", ErrCheckoutInvalidInput)
	}

	switch draft.Mode {
	case domain.DeliveryModeDelivery, domain.DeliveryModePickup:
	default:
		return OrderSummary{}, fmt.Errorf("%w: unknown delivery mode %q", ErrCheckoutInvalidInput, draft.Mode)
	}
	switch draft.Payment {
	case domain.PaymentPix, domain.PaymentCard, domain.PaymentCash:
	default:
		return OrderSummary{}, fmt.Errorf("%w: unknown payment method %q", ErrCheckoutInvalidInput, draft.Payment)
	}

	customer := s.sanitizeCustomer(draft.Customer)

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return OrderSummary{}, translateCartError(err)
	}
	if len(cart.Lines) == 0 {
		return OrderSummary{}, ErrCheckoutEmptyCart
	}

	totals := totalsOf(cart)
	fee := int64(0)
	if draft.Mode == domain.DeliveryModeDelivery {
		fee = s.deliveryFee
	}
	total := totals.Price + fee

	if problems := s.validateDraft(draft, customer, total); len(problems) > 0 {
		return OrderSummary{}, &CheckoutValidationError{Problems: problems}
	}

	contact, err := s.catalog.Contact(ctx)
	if err != nil {
		return OrderSummary{}, ErrCheckoutUnavailable
	}
	menu, err := s.catalog.Menu(ctx)
	if err != nil {
		return OrderSummary{}, ErrCheckoutUnavailable
	}

	message := s.renderMessage(menu.StoreName, cart, draft, customer, totals.Price, fee, total)
	link := buildWhatsAppLink(contact.WhatsApp, message)

	if _, err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"sessionID": sessionID,
			"error":     err.Error(),
		})
	}

	now := s.now()
	reference := s.newID()
	s.logger(ctx, "checkout.order_submitted", map[string]any{
		"sessionID": sessionID,
		"reference": reference,
		"mode":      string(draft.Mode),
		"payment":   string(draft.Payment),
		"total":     total,
	})

	return OrderSummary{
		Reference:   reference,
		Message:     message,
		Link:        link,
		Subtotal:    totals.Price,
		DeliveryFee: fee,
		Total:       total,
		CreatedAt:   now,
	}, nil
}

func (s *checkoutService) validateDraft(draft OrderDraft, customer CustomerInfo, total int64) []string {
	var problems []string
	if customer.Name == "" {
		problems = append(problems, "informe o nome do cliente")
	}
	if draft.Mode == domain.DeliveryModeDelivery {
		if customer.Street == "" {
			problems = append(problems, "informe a rua para entrega")
		}
		if customer.Neighborhood == "" {
			problems = append(problems, "informe o bairro para entrega")
		}
	}
	if draft.ChangeFor > 0 {
		if draft.Payment != domain.PaymentCash {
			problems = append(problems, "troco disponível apenas para pagamento em dinheiro")
		} else if draft.ChangeFor < total {
			problems = append(problems, "valor para troco menor que o total do pedido")
		}
	}
	return problems
}

func (s *checkoutService) sanitizeCustomer(customer CustomerInfo) CustomerInfo {
	return CustomerInfo{
		Name:         s.sanitizeText(customer.Name),
		Street:       s.sanitizeText(customer.Street),
		Number:       s.sanitizeText(customer.Number),
		Neighborhood: s.sanitizeText(customer.Neighborhood),
		Reference:    s.sanitizeText(customer.Reference),
	}
}

// sanitizeText strips markup before free text is embedded into the outbound
// message. The strict policy escapes entities, so unescape afterwards to keep
// plain punctuation readable.
func (s *checkoutService) sanitizeText(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func (s *checkoutService) renderMessage(storeName string, cart Cart, draft OrderDraft, customer CustomerInfo, subtotal, fee, total int64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🍕 *Pedido - %s*\n\n", storeName)

	for _, line := range cart.Lines {
		if line.Size != "" {
			fmt.Fprintf(&b, "• %dx %s (%s)\n", line.Quantity, line.Name, line.Size)
		} else {
			fmt.Fprintf(&b, "• %dx %s\n", line.Quantity, line.Name)
		}
		if len(line.Flavors) > 0 {
			names := make([]string, 0, len(line.Flavors)+1)
			names = append(names, line.Name)
			for _, flavor := range line.Flavors {
				names = append(names, flavor.Name)
			}
			fmt.Fprintf(&b, "  Sabores: %s\n", strings.Join(names, ", "))
		}
		if note := s.sanitizeText(line.Note); note != "" {
			fmt.Fprintf(&b, "  Obs: %s\n", note)
		}
		fmt.Fprintf(&b, "  %s\n", formatMoney(line.TotalPrice))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", formatMoney(subtotal))
	if draft.Mode == domain.DeliveryModeDelivery {
		fmt.Fprintf(&b, "Taxa de entrega: %s\n", formatMoney(fee))
	}
	fmt.Fprintf(&b, "*Total: %s*\n\n", formatMoney(total))

	if draft.Mode == domain.DeliveryModeDelivery {
		b.WriteString("📦 Entrega\n")
		address := customer.Street
		if customer.Number != "" {
			address += ", " + customer.Number
		}
		address += " - " + customer.Neighborhood
		fmt.Fprintf(&b, "Endereço: %s\n", address)
		if customer.Reference != "" {
			fmt.Fprintf(&b, "Referência: %s\n", customer.Reference)
		}
	} else {
		b.WriteString("🏪 Retirada no balcão\n")
	}

	fmt.Fprintf(&b, "💳 Pagamento: %s\n", paymentLabel(draft.Payment))
	if draft.Payment == domain.PaymentCash && draft.ChangeFor > 0 {
		fmt.Fprintf(&b, "Troco para: %s\n", formatMoney(draft.ChangeFor))
	}

	fmt.Fprintf(&b, "\nCliente: %s", customer.Name)
	return b.String()
}

func paymentLabel(method PaymentMethod) string {
	switch method {
	case domain.PaymentPix:
		return "PIX"
	case domain.PaymentCard:
		return "Cartão"
	case domain.PaymentCash:
		return "Dinheiro"
	default:
		return string(method)
	}
}

func buildWhatsAppLink(number string, message string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", string(digits), url.QueryEscape(message))
}

// formatMoney renders centavos as pt-BR currency, e.g. 123456 → "R$ 1.234,56".
func formatMoney(centavos int64) string {
	negative := centavos < 0
	if negative {
		centavos = -centavos
	}

	reais := centavos / 100
	cents := centavos % 100

	digits := fmt.Sprintf("%d", reais)
	var grouped strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), cents)
}

func translateCartError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCartInvalidInput):
		return fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err)
	default:
		return ErrCheckoutUnavailable
	}
}
