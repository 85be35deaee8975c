package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/blazzica/marketplace-api/app"
	"github.com/blazzica/marketplace-api/middleware"
	"github.com/blazzica/marketplace-api/models"
)

// SetupRoutes configures all application routes and middleware.
// Catalog, provider profile and review reads are public; every write needs a session.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(deps.Config.Server.RequestTimeout))
	r.Use(middleware.RequestMeta)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           deps.Config.CORS.MaxAge,
	}))

	authn := deps.AuthMiddleware.RequireAuth

	r.Get("/", deps.Health.HandleWelcome)
	r.Get("/health", deps.Health.HandleHealth)
	r.Get("/health/ready", deps.Health.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			h := deps.AuthHandler
			r.Post("/signup", h.HandleSignup)
			r.Post("/login", h.HandleLogin)
			r.Post("/logout", h.HandleLogout)
			r.Post("/reset-password", h.HandleResetPassword)
			r.Post("/update-password", h.HandleUpdatePassword)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/me", h.HandleMe)
				r.Put("/me", h.HandleUpdateMe)
				r.Post("/provider-application", h.HandleProviderApplication)
				r.Get("/user/{user_id}", h.HandleGetUser)
			})
		})

		r.Route("/services", func(r chi.Router) {
			h := deps.Services
			r.Get("/", h.HandleList)
			r.Get("/providers", h.HandleFindProviders)
			r.Get("/provider/{provider_id}", h.HandleListByProvider)
			r.Get("/by-title/{title}", h.HandleGetByTitle)
			r.Get("/{service_id}", h.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/", h.HandleCreate)
				r.Put("/{service_id}", h.HandleUpdate)
				r.Delete("/{service_id}", h.HandleDelete)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			h := deps.Bookings
			r.Use(authn)
			r.Post("/", h.HandleCreate)
			r.Get("/", h.HandleList)
			r.Get("/{booking_id}", h.HandleGet)
			r.Put("/{booking_id}", h.HandleUpdate)
			r.Post("/{booking_id}/status", h.HandleUpdateStatus)
			r.Delete("/{booking_id}", h.HandleCancel)
		})

		r.Route("/providers", func(r chi.Router) {
			h := deps.Providers
			r.Get("/{provider_id}", h.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/", h.HandleCreate)
				r.Put("/", h.HandleUpdate)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			h := deps.Reviews
			r.With(deps.AuthMiddleware.RequirePermission(models.PermWriteReview)).Post("/", h.HandleCreate)
			r.Get("/provider/{provider_id}", h.HandleListByProvider)
			r.Get("/service/{service_id}", h.HandleListByService)
		})

		r.Route("/admin", func(r chi.Router) {
			h := deps.Admin
			r.Use(deps.AuthMiddleware.RequireRoles(models.RoleAdmin))
			r.Get("/", h.HandleRoot)
			r.Get("/users", h.HandleListUsers)
			r.Get("/users/{user_id}", h.HandleGetUser)
			r.Put("/users/{user_id}", h.HandleUpdateUser)
			r.Put("/users/{user_id}/role", h.HandleUpdateRole)
			r.Get("/dashboard/stats", h.HandleDashboardStats)
			r.Get("/audit-logs", h.HandleAuditLogs)
		})
	})

	return r
}
