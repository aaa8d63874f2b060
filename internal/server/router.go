// Package server собирает HTTP API: маршруты, middleware и жизненный цикл сервера.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/iudanet/bookshelf/internal/server/apierror"
	"github.com/iudanet/bookshelf/internal/server/handlers"
	"github.com/iudanet/bookshelf/internal/server/middleware"
)

const healthPath = "/api/health"

// RouterDeps зависимости маршрутизатора
type RouterDeps struct {
	Logger        *slog.Logger
	Responder     *apierror.Responder
	Authenticator middleware.Authenticator
	LoginLimiter  middleware.Limiter
	Users         *handlers.UserHandler
	Books         *handlers.BookHandler
	Health        *handlers.HealthHandler
	CORSOrigins   []string
	// TrustProxy включает chi RealIP. Без прокси X-Forwarded-For задает сам клиент.
	TrustProxy bool
}

// NewRouter создает маршрутизатор API
func NewRouter(d RouterDeps) http.Handler {
	wrap := d.Responder.Wrap
	gate := middleware.AuthMiddleware(d.Logger, d.Authenticator, d.Responder)
	limit := middleware.RateLimitMiddleware(d.LoginLimiter, d.Logger, d.Responder)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.LoggingMiddleware(d.Logger, healthPath))
	r.Use(middleware.RecoveryMiddleware(d.Logger, d.Responder))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(d.Responder.NotFoundHandler())
	r.MethodNotAllowed(d.Responder.MethodNotAllowedHandler())

	r.Get(healthPath, d.Health.Health)

	r.Route("/api/users", func(r chi.Router) {
		r.With(limit).Post("/register", wrap(d.Users.Register))
		r.With(limit).Post("/login", wrap(d.Users.Login))
		r.Get("/refresh-token", wrap(d.Users.RefreshToken))
		r.Post("/logout", wrap(d.Users.Logout))

		r.Group(func(r chi.Router) {
			r.Use(gate)
			r.Get("/profile", wrap(d.Users.GetProfile))
			r.Put("/profile", wrap(d.Users.UpdateProfile))
		})
	})

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", wrap(d.Books.List))
		r.Get("/{id}", wrap(d.Books.Get))

		// Каталог читают все, менять могут только вошедшие пользователи
		r.Group(func(r chi.Router) {
			r.Use(gate)
			r.Post("/", wrap(d.Books.Create))
			r.Put("/{id}", wrap(d.Books.Update))
			r.Delete("/{id}", wrap(d.Books.Delete))
		})
	})

	return r
}
