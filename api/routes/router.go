package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/impresiones-magicas/storefront/api/controllers"
	"github.com/impresiones-magicas/storefront/api/middleware"
	"github.com/impresiones-magicas/storefront/internal/admin"
	"github.com/impresiones-magicas/storefront/internal/cart"
	"github.com/impresiones-magicas/storefront/internal/catalog"
	"github.com/impresiones-magicas/storefront/internal/customize"
	"github.com/impresiones-magicas/storefront/internal/reviews"
	"github.com/impresiones-magicas/storefront/internal/session"
	"github.com/impresiones-magicas/storefront/pkg/config"
	"github.com/impresiones-magicas/storefront/pkg/logger"
	"github.com/impresiones-magicas/storefront/pkg/metrics"
	redisclient "github.com/impresiones-magicas/storefront/pkg/redis"
)

// Deps carries everything the router wires into controllers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       redisclient.Pinger
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry

	Sessions session.Service
	Catalog  catalog.Service
	Cart     cart.Service
	Reviews  reviews.Service
	Admin    admin.Service
	Uploader *customize.Uploader
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		middleware.BrowserSession(logg, cfg.App.IsProd()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/session", controllers.SessionRestore(deps.Sessions, logg))
			r.Post("/login", controllers.AuthLogin(deps.Sessions, logg))
			r.Post("/register", controllers.AuthRegister(deps.Sessions, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Sessions, logg))
			r.Post("/forgot-password", controllers.AuthForgotPassword(deps.Sessions, logg))
			r.Post("/reset-password", controllers.AuthResetPassword(deps.Sessions, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Catalog, logg))
			r.Get("/{productId}/reviews", controllers.ReviewsForProduct(deps.Reviews, logg))
			r.Get("/{productId}/reviews/stats", controllers.ReviewStats(deps.Reviews, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(deps.Catalog, logg))
			r.Get("/{categoryId}", controllers.CategoryDetail(deps.Catalog, logg))
			r.Get("/{categoryId}/products", controllers.CategoryProducts(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Post("/items/{itemId}/decrease", controllers.CartDecreaseItem(deps.Cart, logg))
		})

		r.Route("/customize", func(r chi.Router) {
			r.Post("/upload", controllers.CustomizeUpload(deps.Uploader, cfg.Upload.MaxBytes, logg))
			r.Post("/validate", controllers.CustomizeValidate(logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/", controllers.ReviewCreate(deps.Reviews, logg))
			r.Patch("/{reviewId}", controllers.ReviewUpdate(deps.Reviews, logg))
			r.Delete("/{reviewId}", controllers.ReviewDelete(deps.Reviews, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Get("/stats/dashboard", controllers.AdminDashboardStats(deps.Admin, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(deps.Admin, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(deps.Admin, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(deps.Admin, logg))
			r.Post("/{categoryId}/image", controllers.AdminCategoryImage(deps.Admin, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(deps.Admin, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.Admin, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Admin, logg))
			r.Post("/{productId}/images", controllers.AdminProductImages(deps.Admin, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(deps.Admin, logg))
			r.Patch("/{userId}", controllers.AdminUserUpdate(deps.Admin, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(deps.Admin, logg))
		})
	})

	return r
}
