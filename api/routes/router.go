package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/larder-backend/api/controllers"
	"github.com/angelmondragon/larder-backend/api/middleware"
	"github.com/angelmondragon/larder-backend/internal/menuplans"
	"github.com/angelmondragon/larder-backend/internal/pantry"
	"github.com/angelmondragon/larder-backend/internal/recipes"
	"github.com/angelmondragon/larder-backend/internal/sharing"
	"github.com/angelmondragon/larder-backend/internal/shoppinglists"
	"github.com/angelmondragon/larder-backend/pkg/config"
	"github.com/angelmondragon/larder-backend/pkg/logger"
	"github.com/angelmondragon/larder-backend/pkg/pagination"
	"github.com/angelmondragon/larder-backend/pkg/redis"
)

// Cache is the redis surface the HTTP layer depends on.
type Cache interface {
	redis.IdempotencyStore
	redis.RateLimiter
	redis.Pinger
}

// Services groups the domain services mounted under /api/v1.
type Services struct {
	Lists     shoppinglists.Service
	Sharing   sharing.Service
	MenuPlans menuplans.Service
	Recipes   recipes.Service
	Pantry    pantry.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	cache Cache,
	gatherer prometheus.Gatherer,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	readiness := []controllers.Dependency{{Name: "database", Pinger: dbP}}
	var idempotencyStore redis.IdempotencyStore
	var limiter redis.RateLimiter
	if cache != nil {
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: cache})
		idempotencyStore = cache
		limiter = cache
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	limits := pagination.Limits{Default: cfg.Shopping.DefaultPageSize, Max: cfg.Shopping.MaxPageSize}
	sharePolicy := middleware.NewShareRateLimitPolicy(cfg.ShareRateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg))

		r.Route("/lists", func(r chi.Router) {
			r.Post("/", controllers.ListCreate(svcs.Lists, logg))
			r.Get("/", controllers.ListIndex(svcs.Lists, limits, logg))
			r.Get("/shared", controllers.ListSharedWithMe(svcs.Sharing, logg))

			r.Route("/{listID}", func(r chi.Router) {
				r.Get("/", controllers.ListGet(svcs.Lists, logg))
				r.Patch("/", controllers.ListUpdate(svcs.Lists, logg))
				r.Delete("/", controllers.ListDelete(svcs.Lists, logg))
				r.Get("/categories", controllers.ListCategories(svcs.Lists, logg))
				r.Post("/complete", controllers.ListComplete(svcs.Lists, logg))
				r.Post("/items", controllers.ItemAdd(svcs.Lists, logg))
				r.Get("/shares", controllers.ShareIndex(svcs.Sharing, logg))
				r.With(middleware.ShareRateLimit(sharePolicy, limiter, logg)).
					Post("/share", controllers.ShareCreate(svcs.Sharing, logg))
			})
		})

		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Put("/", controllers.ItemUpdate(svcs.Lists, logg))
			r.Delete("/", controllers.ItemDelete(svcs.Lists, logg))
		})

		r.Route("/shares", func(r chi.Router) {
			r.Get("/pending", controllers.SharePending(svcs.Sharing, logg))
			r.Post("/{shareID}/accept", controllers.ShareAccept(svcs.Sharing, logg))
			r.Delete("/{shareID}", controllers.ShareRemove(svcs.Sharing, logg))
		})

		r.Route("/menu-plans", func(r chi.Router) {
			r.Post("/", controllers.MenuPlanCreate(svcs.MenuPlans, logg))
			r.Get("/", controllers.MenuPlanIndex(svcs.MenuPlans, logg))
			r.Get("/active", controllers.MenuPlanActive(svcs.MenuPlans, logg))
			r.Get("/{planID}", controllers.MenuPlanGet(svcs.MenuPlans, logg))
			r.Put("/{planID}", controllers.MenuPlanUpdate(svcs.MenuPlans, logg))
			r.Delete("/{planID}", controllers.MenuPlanDelete(svcs.MenuPlans, logg))
			r.Post("/{planID}/entries", controllers.MenuEntryAdd(svcs.MenuPlans, logg))
			r.Get("/{planID}/shopping-list", controllers.MenuPlanShoppingList(svcs.MenuPlans, logg))
		})
		r.Route("/menu-entries/{entryID}", func(r chi.Router) {
			r.Put("/", controllers.MenuEntryUpdate(svcs.MenuPlans, logg))
			r.Patch("/complete", controllers.MenuEntryComplete(svcs.MenuPlans, logg))
			r.Delete("/", controllers.MenuEntryDelete(svcs.MenuPlans, logg))
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Post("/", controllers.RecipeCreate(svcs.Recipes, logg))
			r.Get("/", controllers.RecipeIndex(svcs.Recipes, logg))
			r.Get("/{recipeID}", controllers.RecipeGet(svcs.Recipes, logg))
			r.Delete("/{recipeID}", controllers.RecipeDelete(svcs.Recipes, logg))
		})

		r.Route("/pantry", func(r chi.Router) {
			r.Get("/", controllers.PantryIndex(svcs.Pantry, logg))
			r.Put("/", controllers.PantryUpsert(svcs.Pantry, logg))
			r.Delete("/{itemID}", controllers.PantryDelete(svcs.Pantry, logg))
		})
	})

	return r
}
