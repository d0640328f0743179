package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/ecommerce-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/ecommerce-backend/api/controllers/cart"
	"github.com/angelmondragon/ecommerce-backend/api/middleware"
	"github.com/angelmondragon/ecommerce-backend/internal/auth"
	"github.com/angelmondragon/ecommerce-backend/internal/cart"
	"github.com/angelmondragon/ecommerce-backend/internal/categories"
	products "github.com/angelmondragon/ecommerce-backend/internal/products"
	"github.com/angelmondragon/ecommerce-backend/internal/roles"
	"github.com/angelmondragon/ecommerce-backend/internal/users"
	"github.com/angelmondragon/ecommerce-backend/pkg/auth/session"
	"github.com/angelmondragon/ecommerce-backend/pkg/config"
	"github.com/angelmondragon/ecommerce-backend/pkg/db"
	"github.com/angelmondragon/ecommerce-backend/pkg/enums"
	"github.com/angelmondragon/ecommerce-backend/pkg/logger"
	"github.com/angelmondragon/ecommerce-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/ecommerce-backend/pkg/redis"
)

type rateLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Cache is the redis surface used by readiness, auth rate limits and
// idempotency records.
type Cache interface {
	pkgredis.IdempotencyStore
	rateLimiter
	Ping(ctx context.Context) error
}

// Services groups the domain services mounted by the router.
type Services struct {
	Auth       auth.Service
	Register   auth.RegisterService
	Cart       cart.Service
	Products   products.Service
	Categories categories.Service
	Roles      roles.Service
	Users      users.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	dbP db.Pinger,
	cache Cache,
	sessions session.AccessSessionChecker,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		limiter     rateLimiter
		idempotency pkgredis.IdempotencyStore
		readyDeps   = map[string]controllers.Pinger{}
	)
	if dbP != nil {
		readyDeps["postgres"] = dbP
	}
	if cache != nil {
		limiter = cache
		idempotency = cache
		readyDeps["redis"] = cache
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		"username",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		"email",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	authenticate := middleware.Auth(cfg.JWT, sessions, logg)
	replay := middleware.Idempotency(idempotency, cfg.Idempotency.TTL, logg)
	managerOnly := middleware.RequireRole(logg, enums.RoleManager)
	catalogWriters := middleware.RequireRole(logg, enums.RoleSeller, enums.RoleManager)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyDeps))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg), replay).Post("/register", controllers.AuthRegister(svc.Register, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, cfg.JWT, logg))
			r.With(authenticate).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		})

		r.Get("/products", controllers.ListProducts(svc.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svc.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticate, replay)
			r.Get("/ping", controllers.PrivatePing())

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(svc.Cart, logg))
				r.Put("/items/{itemId}", cartcontrollers.CartSetItemQuantity(svc.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))

				r.With(managerOnly).Get("/headers", cartcontrollers.AdminCartListHeaders(svc.Cart, cfg.Cart.MaxHeadersTake, logg))
				r.With(managerOnly).Get("/users/{userId}", cartcontrollers.AdminCartFetchUser(svc.Cart, logg))
				r.With(managerOnly).Get("/users/{userId}/header", cartcontrollers.AdminCartFetchUserHeader(svc.Cart, logg))
				r.With(managerOnly).Delete("/{cartHeaderId}", cartcontrollers.AdminCartClearHeader(svc.Cart, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(catalogWriters)
				r.Post("/products", controllers.CreateProduct(svc.Products, logg))
				r.Put("/products/{productId}", controllers.UpdateProduct(svc.Products, logg))
				r.Patch("/products/{productId}", controllers.PatchProduct(svc.Products, logg))
				r.Delete("/products/{productId}", controllers.DeleteProduct(svc.Products, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(svc.Categories, logg))
				r.Get("/{categoryId}", controllers.GetCategory(svc.Categories, logg))
				r.Group(func(r chi.Router) {
					r.Use(managerOnly)
					r.Post("/", controllers.CreateCategory(svc.Categories, logg))
					r.Put("/{categoryId}", controllers.UpdateCategory(svc.Categories, logg))
					r.Patch("/{categoryId}", controllers.PatchCategory(svc.Categories, logg))
					r.Delete("/{categoryId}", controllers.DeleteCategory(svc.Categories, logg))
				})
			})

			r.Route("/roles", func(r chi.Router) {
				r.Use(managerOnly)
				r.Get("/", controllers.ListRoles(svc.Roles, logg))
				r.Post("/", controllers.CreateRole(svc.Roles, logg))
				r.Get("/{roleId}", controllers.GetRole(svc.Roles, logg))
				r.Put("/{roleId}", controllers.UpdateRole(svc.Roles, logg))
				r.Patch("/{roleId}", controllers.PatchRole(svc.Roles, logg))
				r.Delete("/{roleId}", controllers.DeleteRole(svc.Roles, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", controllers.GetMe(svc.Users, logg))
				r.Group(func(r chi.Router) {
					r.Use(managerOnly)
					r.Get("/", controllers.ListUsers(svc.Users, logg))
					r.Get("/{userId}", controllers.GetUser(svc.Users, logg))
					r.Put("/{userId}", controllers.UpdateUser(svc.Users, logg))
					r.Patch("/{userId}", controllers.PatchUser(svc.Users, logg))
					r.Delete("/{userId}", controllers.DeleteUser(svc.Users, logg))
				})
			})
		})
	})

	return r
}
