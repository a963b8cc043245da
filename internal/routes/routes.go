package routes

import (
	"net/http"

	"github.com/dbpilot/aegis/internal/auth"
	"github.com/dbpilot/aegis/internal/handlers"
	"github.com/dbpilot/aegis/internal/middleware"
	pkghttp "github.com/dbpilot/aegis/pkg/http"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes. Every security endpoint
// sits behind bearer authentication; the IP pre-limit runs first so
// unauthenticated floods are shed cheaply.
func RegisterRoutes(
	router chi.Router,
	securityHandler *handlers.SecurityHandler,
	csrfHandler *handlers.CSRFHandler,
	eventsHandler *handlers.EventsHandler,
	demoHandler *handlers.DemoSessionHandler,
	tokenManager *auth.TokenManager,
	ipLimitConfig middleware.IPRateLimitConfig,
) {
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteMethodNotAllowed(w, "method not allowed")
	})

	router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ipLimitConfig))
		r.Use(auth.RequireAuth(tokenManager))

		r.Route("/security", func(r chi.Router) {
			r.Post("/validate", securityHandler.ValidateInput)
			r.Post("/rate-limit", securityHandler.CheckRateLimit)
			r.Post("/csp-report", securityHandler.ReportCSPViolation)

			r.Get("/csrf-token", csrfHandler.GetToken)
			r.Post("/csrf-token/rotate", csrfHandler.RotateToken)

			r.Get("/events", eventsHandler.ListEvents)
		})

		if demoHandler != nil {
			r.Route("/demo", func(r chi.Router) {
				r.Post("/session", demoHandler.Create)
				r.Post("/session/verify", demoHandler.Verify)
			})
		}
	})
}
