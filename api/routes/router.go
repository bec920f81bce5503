package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tubeshop-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/tubeshop-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/tubeshop-backend/api/controllers/orders"
	"github.com/angelmondragon/tubeshop-backend/api/middleware"
	"github.com/angelmondragon/tubeshop-backend/internal/bot"
	"github.com/angelmondragon/tubeshop-backend/internal/cart"
	"github.com/angelmondragon/tubeshop-backend/internal/datasync"
	"github.com/angelmondragon/tubeshop-backend/internal/discounts"
	"github.com/angelmondragon/tubeshop-backend/internal/orders"
	products "github.com/angelmondragon/tubeshop-backend/internal/products"
	"github.com/angelmondragon/tubeshop-backend/pkg/config"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/redis"
)

// Deps carries everything the router mounts. Redis and Gatherer are optional.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	Products  products.Service
	Discounts discounts.Service
	Cart      cart.Service
	Orders    orders.Service
	Sync      datasync.Service
	Bot       *bot.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	// A nil *redis.Client must not reach the interface-typed middleware args.
	var (
		redisPinger controllers.Pinger
		limiter     redis.RateLimiter
		idemStore   redis.IdempotencyStore
	)
	if d.Redis != nil {
		redisPinger, limiter, idemStore = d.Redis, d.Redis, d.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, redisPinger))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, logg))
		r.Use(middleware.TelegramAuth(cfg.Telegram.BotToken, logg))
		r.Use(middleware.Recoverer(logg))

		r.Get("/health", controllers.HealthCheck(cfg))
		r.Get("/healthz", controllers.HealthCheck(cfg))
		r.Get("/healthcheck", controllers.HealthCheck(cfg))
		r.Post("/telegram/webhook", controllers.TelegramWebhook(d.Bot, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(d.Products, logg))
				r.Get("/warehouses", controllers.ProductValues(d.Products, logg, "warehouses"))
				r.Get("/types", controllers.ProductValues(d.Products, logg, "types"))
				r.Get("/gosts", controllers.ProductValues(d.Products, logg, "gosts"))
				r.Get("/steel-grades", controllers.ProductValues(d.Products, logg, "steel-grades"))
				r.Get("/filter-options", controllers.ProductFilterOptions(d.Products, logg))
				r.Get("/{id}", controllers.ProductGet(d.Products, logg))
			})

			r.Get("/discounts", controllers.DiscountList(d.Discounts, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Post("/add", cartcontrollers.CartAddItem(d.Cart, logg))
				r.Put("/item/{itemId}", cartcontrollers.CartUpdateItem(d.Cart, logg))
				r.Delete("/item/{itemId}", cartcontrollers.CartRemoveItem(d.Cart, logg))
				r.Get("/{userId}", cartcontrollers.CartFetch(d.Cart, logg))
				r.Delete("/{userId}", cartcontrollers.CartClear(d.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Create(d.Orders, logg))
				r.Get("/number/{number}", ordercontrollers.DetailByNumber(d.Orders, logg))
				r.Get("/user/{userId}", ordercontrollers.ListByUser(d.Orders, logg))
				r.Get("/user/{userId}/profile", ordercontrollers.Profile(d.Orders, logg))
				r.Get("/{id}", ordercontrollers.Detail(d.Orders, logg))
				r.Put("/{id}/status", ordercontrollers.UpdateStatus(d.Orders, logg))
			})

			r.Route("/sync", func(r chi.Router) {
				r.Post("/prices", controllers.SyncPrices(d.Sync, logg))
				r.Post("/stocks", controllers.SyncStocks(d.Sync, logg))
				r.Post("/price", controllers.SyncPrice(d.Sync, logg))
				r.Post("/stock", controllers.SyncStock(d.Sync, logg))
				r.Post("/process-updates", controllers.SyncProcessUpdates(d.Sync, logg))
			})
		})
	})

	return r
}
