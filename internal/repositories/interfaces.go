package repositories

import (
	"context"

	domain "github.com/pizzaria-do-leo/api/internal/domain"
)

// RepositoryError wraps low-level store failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartStore persists per-session cart aggregates for the lifetime of the
// process. One cart per session; no cross-session sharing.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Delete(ctx context.Context, sessionID string) error
}

// CatalogRepository serves the read-only menu dataset supplied at process start.
type CatalogRepository interface {
	Menu(ctx context.Context) (domain.Menu, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Products(ctx context.Context) ([]domain.Product, error)
	ProductByID(ctx context.Context, productID string) (domain.Product, error)
	Hours(ctx context.Context) ([]domain.DayHours, error)
	Contact(ctx context.Context) (domain.ContactInfo, error)
}

// HealthRepository aggregates dependency probe results for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
