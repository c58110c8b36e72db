package domain

import (
	"time"
)

// Money values are stored as int64 amounts in centavos (hundredths of a real).

// Category groups products for storefront listings.
type Category struct {
	ID    string
	Name  string
	Icon  string
	Order int
}

// SizeOption is one entry in a product's size table.
type SizeOption struct {
	Label      string
	Price      int64
	Slices     int
	MaxFlavors int
}

// Product describes one sellable catalog item. Pizza products carry a size
// table and may be combined with additional flavors; everything else is priced
// flat, optionally with a promotional price that activates on the weekly
// discount day.
type Product struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	Image       string
	BasePrice   int64
	PromoPrice  int64
	Sizes       []SizeOption
	IsPizza     bool
	IsSweet     bool
	IsPromo     bool
}

// SizeByLabel returns the size table entry matching label, if any.
func (p Product) SizeByLabel(label string) (SizeOption, bool) {
	for _, size := range p.Sizes {
		if size.Label == label {
			return size, true
		}
	}
	return SizeOption{}, false
}

// DayHours holds opening hours for one weekday. Minutes are measured from
// midnight; a CloseMinute of zero means the store closes at end of day.
type DayHours struct {
	Weekday     time.Weekday
	Closed      bool
	OpenMinute  int
	CloseMinute int
}

// ContactInfo carries the storefront's outbound contact endpoints.
type ContactInfo struct {
	WhatsApp string
	Phone    string
	Address  string
}

// Menu is the full static catalog dataset supplied at process start.
type Menu struct {
	StoreName  string
	Categories []Category
	Products   []Product
	Hours      []DayHours
	Contact    ContactInfo
}

// StoreStatus reports whether the store is currently taking orders.
type StoreStatus struct {
	Open     bool
	OpensAt  string
	ClosesAt string
	Message  string
}

// CartFlavor references one additional flavor combined into a pizza line.
type CartFlavor struct {
	ProductID string
	Name      string
}

// CartLine is one configured purchase intent inside a cart. TotalPrice is
// denormalized as unit price times quantity at the last price-affecting
// mutation; quantity changes scale it without re-resolving catalog prices.
type CartLine struct {
	ID         string
	ProductID  string
	Name       string
	Size       string
	Flavors    []CartFlavor
	Note       string
	Quantity   int
	UnitPrice  int64
	TotalPrice int64
	PricedBy   string
	AddedAt    time.Time
}

// Cart is the per-session ordered line aggregate. Lines are never merged;
// every add appends.
type Cart struct {
	SessionID string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartTotals aggregates the cart: sum of quantities and sum of line totals.
type CartTotals struct {
	Items int
	Price int64
}

// CartEventType enumerates cart change notifications.
type CartEventType string

const (
	// CartEventLineAdded fires after a new line is appended.
	CartEventLineAdded CartEventType = "line_added"
	// CartEventLineUpdated fires after a quantity or note mutation.
	CartEventLineUpdated CartEventType = "line_updated"
	// CartEventLineRemoved fires after a line is deleted.
	CartEventLineRemoved CartEventType = "line_removed"
	// CartEventCleared fires after the cart is emptied.
	CartEventCleared CartEventType = "cleared"
)

// CartEvent is delivered synchronously to subscribers after each mutation.
type CartEvent struct {
	Type       CartEventType
	SessionID  string
	LineID     string
	Totals     CartTotals
	OccurredAt time.Time
}

// PriceQuote is the pricing resolver's answer for one configured unit.
// PricedBy names the flavor that set the price and is populated only when
// additional flavors were part of the resolution.
type PriceQuote struct {
	UnitPrice int64
	PricedBy  string
}

// DeliveryMode selects how the order reaches the customer.
type DeliveryMode string

const (
	// DeliveryModeDelivery ships the order and adds the delivery fee.
	DeliveryModeDelivery DeliveryMode = "delivery"
	// DeliveryModePickup has the customer collect the order at the store.
	DeliveryModePickup DeliveryMode = "pickup"
)

// PaymentMethod selects how the customer pays on hand-off.
type PaymentMethod string

const (
	// PaymentPix is an instant bank transfer.
	PaymentPix PaymentMethod = "pix"
	// PaymentCard is a card payment on delivery or at the counter.
	PaymentCard PaymentMethod = "card"
	// PaymentCash is cash, optionally with change requested.
	PaymentCash PaymentMethod = "cash"
)

// CustomerInfo carries the free-text customer and address fields collected at
// checkout.
type CustomerInfo struct {
	Name         string
	Street       string
	Number       string
	Neighborhood string
	Reference    string
}

// OrderDraft is the checkout submission for one session's cart.
type OrderDraft struct {
	SessionID string
	Mode      DeliveryMode
	Payment   PaymentMethod
	ChangeFor int64
	Customer  CustomerInfo
}

// OrderSummary is the result of a successful checkout: the formatted message,
// the messaging deep link, and the computed totals. Nothing is persisted.
type OrderSummary struct {
	Reference   string
	Message     string
	Link        string
	Subtotal    int64
	DeliveryFee int64
	Total       int64
	CreatedAt   time.Time
}
