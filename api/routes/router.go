package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftkings-bg/driftkings-backend/api/controllers"
	webhookcontrollers "github.com/driftkings-bg/driftkings-backend/api/controllers/webhooks"
	"github.com/driftkings-bg/driftkings-backend/api/middleware"
	"github.com/driftkings-bg/driftkings-backend/internal/auth"
	checkoutsvc "github.com/driftkings-bg/driftkings-backend/internal/checkout"
	"github.com/driftkings-bg/driftkings-backend/internal/orders"
	"github.com/driftkings-bg/driftkings-backend/internal/vouchers"
	stripewebhook "github.com/driftkings-bg/driftkings-backend/internal/webhooks/stripe"
	"github.com/driftkings-bg/driftkings-backend/pkg/auth/session"
	"github.com/driftkings-bg/driftkings-backend/pkg/config"
	"github.com/driftkings-bg/driftkings-backend/pkg/db"
	"github.com/driftkings-bg/driftkings-backend/pkg/logger"
	"github.com/driftkings-bg/driftkings-backend/pkg/metrics"
	"github.com/driftkings-bg/driftkings-backend/pkg/redis"
	"github.com/driftkings-bg/driftkings-backend/pkg/stripe"
)

// Deps carries everything the HTTP surface needs. The router holds no state
// of its own.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *db.Client
	Redis          *redis.Client
	SessionManager *session.Manager
	HTTPMetrics    *metrics.HTTPMetrics
	Registry       *prometheus.Registry

	AuthService     auth.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service
	VoucherService  vouchers.Service

	StripeClient       *stripe.Client
	StripeWebhook      *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(deps.HTTPMetrics),
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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/vouchers/{voucherId}/verify", controllers.VerifyVoucher(deps.VoucherService, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeClient, deps.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.SessionManager, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionManager, logg))

		r.Post("/payment-intents", controllers.CreatePaymentIntent(deps.CheckoutService, logg))

		admin := middleware.RequireRole("admin", logg)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.OrdersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.OrdersService, logg))
			r.With(admin).Post("/{orderId}/items/{itemId}/confirm-date", controllers.ConfirmOrderItemDate(deps.OrdersService, logg))
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Get("/", controllers.ListVouchers(deps.VoucherService, logg))
			r.Get("/{voucherId}/download", controllers.DownloadVoucher(deps.VoucherService, logg))
			r.With(admin).Post("/", controllers.GenerateVoucher(deps.VoucherService, logg))
			r.With(admin).Post("/redeem", controllers.RedeemVoucher(deps.VoucherService, logg))
		})
	})

	return r
}
