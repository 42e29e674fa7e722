package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/farmconnect-backend/api/controllers"
	"github.com/angelmondragon/farmconnect-backend/api/middleware"
	"github.com/angelmondragon/farmconnect-backend/internal/auth"
	"github.com/angelmondragon/farmconnect-backend/internal/cart"
	"github.com/angelmondragon/farmconnect-backend/internal/checkout"
	"github.com/angelmondragon/farmconnect-backend/internal/notifications"
	"github.com/angelmondragon/farmconnect-backend/internal/orders"
	"github.com/angelmondragon/farmconnect-backend/internal/products"
	"github.com/angelmondragon/farmconnect-backend/internal/reviews"
	"github.com/angelmondragon/farmconnect-backend/internal/subscriptions"
	"github.com/angelmondragon/farmconnect-backend/internal/users"
	"github.com/angelmondragon/farmconnect-backend/pkg/auth/session"
	"github.com/angelmondragon/farmconnect-backend/pkg/config"
	"github.com/angelmondragon/farmconnect-backend/pkg/enums"
	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

// Services are the domain services the API exposes.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Subscriptions subscriptions.Service
	Products      products.Service
	Cart          cart.Service
	Checkout      checkout.Service
	Orders        orders.Service
	Reviews       reviews.Service
	Notifications notifications.Service
}

// Infra are the shared clients routes and probes depend on.
type Infra struct {
	Store    controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)

	ready := map[string]controllers.Pinger{"store": infra.Store}
	if infra.Redis != nil {
		ready["redis"] = infra.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, ready, logg))
	})
	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, infra.Redis, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
			r.With(
				middleware.AuthRateLimit(registerPolicy, infra.Redis, logg),
				middleware.Idempotency(infra.Redis, logg),
			).Post("/register", controllers.AuthRegister(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, infra.Sessions, logg)).Get("/me", controllers.AuthMe(svc.Auth, logg))
		})

		r.Get("/products", controllers.ListProducts(svc.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svc.Products, logg))
		r.Get("/reviews", controllers.ListReviews(svc.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, infra.Sessions, logg))
			r.Use(middleware.Idempotency(infra.Redis, logg))

			r.Patch("/users/me", controllers.UpdateProfile(svc.Users, logg))
			r.With(middleware.RequireRole(enums.UserRoleFarmer, logg)).Put("/users/me/subscription", controllers.UpdateSubscription(svc.Subscriptions, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleFarmer, logg))
				r.Post("/products", controllers.CreateProduct(svc.Products, logg))
				r.Patch("/products/{productId}", controllers.UpdateProduct(svc.Products, logg))
				r.Delete("/products/{productId}", controllers.DeleteProduct(svc.Products, logg))
			})

			r.Route("/cart/{userId}/items", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleConsumer, logg))
				r.Get("/", controllers.CartFetch(svc.Cart, logg))
				r.Post("/", controllers.CartAddItem(svc.Cart, logg))
				r.Delete("/", controllers.CartClear(svc.Cart, logg))
				r.Patch("/{itemId}", controllers.CartUpdateItem(svc.Cart, logg))
				r.Delete("/{itemId}", controllers.CartRemoveItem(svc.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.RequireRole(enums.UserRoleConsumer, logg)).Post("/", controllers.Checkout(svc.Checkout, logg))
				r.Get("/", controllers.ListOrders(svc.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(svc.Orders, logg))
				r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(svc.Orders, logg))
			})

			r.With(middleware.RequireRole(enums.UserRoleConsumer, logg)).Post("/reviews", controllers.CreateReview(svc.Reviews, logg))
			r.Post("/reviews/{reviewId}/helpful", controllers.MarkReviewHelpful(svc.Reviews, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
				r.Get("/unread-count", controllers.UnreadNotificationCount(svc.Notifications, logg))
				r.Patch("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
			})
		})
	})

	return r
}
