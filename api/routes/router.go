package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/zm-marketplace-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/zm-marketplace-backend/api/controllers/orders"
	"github.com/angelmondragon/zm-marketplace-backend/api/middleware"
	"github.com/angelmondragon/zm-marketplace-backend/internal/approvals"
	"github.com/angelmondragon/zm-marketplace-backend/internal/artisans"
	"github.com/angelmondragon/zm-marketplace-backend/internal/auth"
	"github.com/angelmondragon/zm-marketplace-backend/internal/blog"
	"github.com/angelmondragon/zm-marketplace-backend/internal/orders"
	product "github.com/angelmondragon/zm-marketplace-backend/internal/products"
	"github.com/angelmondragon/zm-marketplace-backend/internal/reviews"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/auth/session"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/config"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/zm-marketplace-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// redisStore is the Redis surface the HTTP layer needs: rate limiting,
// idempotency replay and the readiness ping.
type redisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth      auth.Service
	Register  auth.RegisterService
	Orders    orders.Service
	Artisans  artisans.Service
	Products  product.Service
	Reviews   reviews.Service
	Blog      blog.Service
	Approvals approvals.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	store redisStore,
	sessionManager sessionManager,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	readiness := map[string]db.Pinger{"postgres": dbP}
	if store != nil {
		readiness["redis"] = store
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, store, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, store, logg)).Post("/register", controllers.AuthRegister(svc.Register, svc.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/artisans", controllers.ArtisanList(svc.Artisans, logg))
		r.Get("/artisans/{slug}", controllers.ArtisanGet(svc.Artisans, logg))
		r.Get("/products", controllers.ProductList(svc.Products, logg))
		r.Get("/products/{productId}", controllers.ProductGet(svc.Products, logg))
		r.Get("/products/{productId}/reviews", controllers.ProductReviews(svc.Reviews, logg))
		r.Get("/blog/posts", controllers.BlogPostList(svc.Blog, logg))
		r.Get("/blog/posts/{slug}", controllers.BlogPostGet(svc.Blog, logg))
		r.Get("/blog/posts/{postId}/comments", controllers.BlogCommentList(svc.Blog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
			r.Use(middleware.Idempotency(store, logg))

			r.Post("/orders", ordercontrollers.Checkout(svc.Orders, logg))
			r.Get("/orders", ordercontrollers.List(svc.Orders, logg))
			r.Get("/orders/stats", ordercontrollers.Stats(svc.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.Detail(svc.Orders, logg))
			r.Post("/orders/{orderId}/cancel", ordercontrollers.Cancel(svc.Orders, logg))
			r.Post("/orders/{orderId}/return", ordercontrollers.Return(svc.Orders, logg))
			r.Post("/reviews", controllers.ReviewCreate(svc.Reviews, logg))
			r.Post("/blog/posts/{postId}/comments", controllers.BlogCommentCreate(svc.Blog, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleArtisan))
				r.Post("/artisan/profile", controllers.ArtisanRegister(svc.Artisans, logg))
				r.Get("/artisan/profile", controllers.ArtisanMe(svc.Artisans, logg))
				r.Patch("/artisan/profile", controllers.ArtisanUpdate(svc.Artisans, logg))
				r.Get("/artisan/products", controllers.ArtisanProductList(svc.Products, logg))
				r.Post("/artisan/products", controllers.ArtisanCreateProduct(svc.Products, logg))
				r.Patch("/artisan/products/{productId}", controllers.ArtisanUpdateProduct(svc.Products, logg))
				r.Post("/blog/posts", controllers.BlogPostCreate(svc.Blog, logg))
				r.Patch("/blog/posts/{postId}", controllers.BlogPostUpdate(svc.Blog, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.AdminDetail(svc.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.AdminUpdateStatus(svc.Orders, logg))
			r.Patch("/{orderId}/payment-status", ordercontrollers.AdminUpdatePaymentStatus(svc.Orders, logg))
			r.Patch("/{orderId}/tracking", ordercontrollers.AdminUpdateTracking(svc.Orders, logg))
		})
		r.Route("/approvals", func(r chi.Router) {
			r.Get("/counts", controllers.AdminApprovalCounts(svc.Approvals, logg))
			r.Get("/{kind}/pending", controllers.AdminPendingApprovals(svc.Approvals, logg))
			r.Post("/{kind}/{entityId}", controllers.AdminSetApproval(svc.Approvals, logg))
		})
		r.Post("/artisans/{artisanId}/pending-changes/clear", controllers.AdminClearPendingChanges(svc.Artisans, logg))
		r.Route("/comments", func(r chi.Router) {
			r.Get("/pending", controllers.AdminPendingComments(svc.Blog, logg))
			r.Post("/{commentId}/approve", controllers.AdminModerateComment(svc.Blog, enums.CommentStatusApproved, logg))
			r.Post("/{commentId}/reject", controllers.AdminModerateComment(svc.Blog, enums.CommentStatusRejected, logg))
			r.Post("/{commentId}/spam", controllers.AdminModerateComment(svc.Blog, enums.CommentStatusSpam, logg))
		})
	})

	return r
}
