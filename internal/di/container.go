package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pizzaria-do-leo/api/internal/platform/config"
	"github.com/pizzaria-do-leo/api/internal/platform/requestctx"
	"github.com/pizzaria-do-leo/api/internal/repositories"
	"github.com/pizzaria-do-leo/api/internal/repositories/memory"
	"github.com/pizzaria-do-leo/api/internal/repositories/static"
	"github.com/pizzaria-do-leo/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog  services.CatalogService
	Pricing  services.PricingResolver
	Cart     services.CartService
	Checkout services.CheckoutService
	System   services.SystemService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config    config.Config
	Catalog   *static.Catalog
	CartStore *memory.CartStore
	Services  Services
}

// NewContainer constructs the runtime dependencies from configuration: the
// embedded (or file-backed) catalog, the in-memory cart store, and the
// services on top of them.
func NewContainer(cfg config.Config, build services.BuildInfo) (*Container, error) {
	var catalogOpts []static.CatalogOption
	if cfg.Catalog.MenuFile != "" {
		catalogOpts = append(catalogOpts, static.WithMenuFile(cfg.Catalog.MenuFile))
	}
	catalog, err := static.NewCatalog(catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	cartStore := memory.NewCartStore()

	svc, err := buildServices(cfg, catalog, cartStore, build)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:    cfg,
		Catalog:   catalog,
		CartStore: cartStore,
		Services:  svc,
	}, nil
}

// Close releases held resources. The in-memory wiring has nothing to tear
// down but the hook keeps shutdown symmetric with construction.
func (c *Container) Close(context.Context) error {
	return nil
}

func buildServices(cfg config.Config, catalog *static.Catalog, cartStore *memory.CartStore, build services.BuildInfo) (Services, error) {
	var svc Services
	logger := serviceLogger()

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: catalog,
		Clock:   time.Now,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	discountDay := cfg.Store.DiscountWeekday
	resolver, err := services.NewPricingResolver(services.PricingResolverDeps{
		Catalog:         catalog,
		Clock:           time.Now,
		DiscountWeekday: &discountDay,
		Logger:          logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing resolver: %w", err)
	}
	svc.Pricing = resolver

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Store:    cartStore,
		Resolver: resolver,
		Catalog:  catalog,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	deliveryFee := cfg.Store.DeliveryFee
	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:       cartSvc,
		Catalog:     catalog,
		DeliveryFee: &deliveryFee,
		Clock:       time.Now,
		Logger:      logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	healthRepo, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{
			Name: "catalog",
			Check: func(ctx context.Context) error {
				_, err := catalog.Menu(ctx)
				return err
			},
		},
		{
			Name: "cart_store",
			Check: func(ctx context.Context) error {
				cartStore.Len()
				return nil
			},
		},
	})
	if err != nil {
		return Services{}, fmt.Errorf("build health repository: %w", err)
	}

	systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: healthRepo,
		Clock:            time.Now,
		Build:            build,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build system service: %w", err)
	}
	svc.System = systemSvc

	return svc, nil
}

// serviceLogger adapts the request-scoped zap logger to the map-based logging
// hook the services accept.
func serviceLogger() func(context.Context, string, map[string]any) {
	return func(ctx context.Context, msg string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(msg, zapFields...)
	}
}
