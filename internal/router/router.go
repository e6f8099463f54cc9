package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/gatehouse-dev/gatehouse/internal/middleware"
	"github.com/gatehouse-dev/gatehouse/internal/middleware/metrics"
	rl "github.com/gatehouse-dev/gatehouse/internal/middleware/ratelimiter"
	"github.com/gatehouse-dev/gatehouse/internal/setup"
)

// New creates and configures the router with all the routes.
// IMPORTANT! ratelimiters set with .Use limit requests for all endpoints combined in that group
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	origins := deps.Config.Public.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:8081"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// JSON API only, no scripts or styles needed
	apiCSP := "default-src 'none'; frame-ancestors 'none'"
	r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, apiCSP))

	r.Use(metrics.Middleware)

	h := deps.Handler
	authMw := deps.Auth

	// Probes and metrics stay outside the tenant tree.
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/{tenant}", func(r chi.Router) {
		// Email-sending endpoints: limited per address and per IP so one
		// sender cannot drain the SMTP budget.
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(rl.New(1.0/10, 1, 1*time.Hour), mw.GetEmailFromBody)) // 1 per 10s by email
			r.Use(mw.RateLimit(rl.New(1.0/10, 2, 1*time.Hour), mw.GetIP))            // 1 per 10s by IP
			r.Use(mw.GlobalRateLimit(rl.New(100, 100, 1*time.Hour)))                 // 100 global RPS
			r.Post("/register", h.Register)
			r.Post("/password-forget", h.PasswordForget)
		})

		// Token verification endpoints (stricter limits to prevent brute force)
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(rl.New(5.0/600, 5, 1*time.Hour), mw.GetIP)) // 5 attempts per 10 minutes by IP
			r.Use(mw.GlobalRateLimit(rl.New(100, 100, 1*time.Hour)))
			r.Get("/confirm/{token}", h.ConfirmEmail)
			r.Get("/review/{token}/confirm", h.ConfirmReview)
			r.Get("/review/{token}/deny", h.DenyReview)
			r.Post("/password-reset", h.PasswordReset)
		})

		// Login endpoint (separate rate limiting)
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit(rl.New(1, 1, 1*time.Hour), mw.GetIP)) // 1 per second by IP
			r.Use(mw.GlobalRateLimit(rl.New(1000, 1000, 1*time.Hour)))
			r.Post("/login", h.Login)
		})

		// Logout (no rate limits)
		r.Post("/logout", h.Logout)

		// Logged-in account routes
		r.Group(func(r chi.Router) {
			r.Use(authMw.NeedAuth())
			r.Use(mw.RateLimit(rl.New(100, 100, 1*time.Hour), mw.GetIP)) // 100 RPS per IP
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.SaveProfile)
			r.Post("/profile/avatar", h.SaveAvatar)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMw.AdminOnly())
			r.Get("/reviews", h.PendingReviews)
			r.Get("/rules", h.ListRules)
			r.Post("/rules", h.CreateRule)
			r.Put("/rules/{rule}", h.UpdateRule)
			r.Delete("/rules/{rule}", h.DeleteRule)
		})
	})

	// Avoid 404s for preflight requests outside matched routes.
	r.MethodFunc(http.MethodOptions, "/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
