package cli

import (
	"fmt"
	"log"

	"github.com/ssqa/storefront/internal/config"
	"github.com/ssqa/storefront/internal/database"
	"github.com/ssqa/storefront/internal/handlers"
	"github.com/ssqa/storefront/internal/repository"
	"github.com/ssqa/storefront/internal/services"
)

// BuildServerDependencies opens and migrates the order store, loads the seed
// catalog and wires every storefront handler. The caller owns deps.DB.
func BuildServerDependencies(cfg config.ServerConfig) (ServerDependencies, error) {
	deps := ServerDependencies{ServerConfig: cfg}

	db, err := database.Open(cfg.Database())
	if err != nil {
		return deps, fmt.Errorf("failed to open order store: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return deps, err
	}

	catalog, err := repository.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		db.Close()
		return deps, err
	}

	orderService := services.NewOrderService(repository.NewOrderRepository(db), catalog)
	if err := orderService.SeedOrders(catalog.SeedOrders()); err != nil {
		db.Close()
		return deps, fmt.Errorf("failed to seed orders: %w", err)
	}

	renderer, err := handlers.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		db.Close()
		return deps, fmt.Errorf("failed to load templates: %w", err)
	}

	reviewService := services.NewReviewService(catalog, services.DefaultFloodInterval)
	customerService := services.NewCustomerService(catalog)
	shop := &handlers.Shop{
		Renderer:  renderer,
		Sessions:  handlers.NewSessions([]byte(cfg.CookieHashKey)),
		Catalog:   catalog,
		Carts:     services.NewCartService(catalog),
		Customers: customerService,
	}
	if cfg.CookieHashKey == "" {
		log.Println("STOREFRONT_COOKIE_KEY is not set: sign ins will not survive a restart")
	}

	deps.DB = db
	deps.HomeHandler = handlers.NewHomeHandler(shop)
	deps.ProductHandler = handlers.NewProductHandler(shop, reviewService)
	deps.ReviewHandler = handlers.NewReviewHandler(shop, reviewService)
	deps.CartHandler = handlers.NewCartHandler(shop)
	deps.CheckoutHandler = handlers.NewCheckoutHandler(shop, orderService, cfg.FlakyCheckout)
	deps.OrderReceivedHandler = handlers.NewOrderReceivedHandler(shop, orderService)
	deps.LoginHandler = handlers.NewLoginHandler(shop)
	deps.AccountHandler = handlers.NewAccountHandler(shop, orderService)
	deps.UploadsHandler = handlers.NewUploadsHandler()
	deps.RESTHandler = handlers.NewRESTHandler(catalog, orderService, customerService, reviewService, cfg.API)
	deps.SamplePageHandler = handlers.NewSamplePageHandler(shop)
	deps.NotFoundHandler = handlers.NewNotFoundHandler(shop)

	return deps, nil
}
