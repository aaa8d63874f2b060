package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/apierror"
	"github.com/iudanet/bookshelf/internal/server/auth"
	"github.com/iudanet/bookshelf/internal/server/handlers"
)

// Authenticator проверяет access токен и возвращает пользователя без хеша пароля
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthMiddleware создает middleware для проверки access токена (Session Gate).
// Пропускает запрос дальше только если токен валиден и пользователь существует.
func AuthMiddleware(logger *slog.Logger, authenticator Authenticator, responder *apierror.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logger.DebugContext(r.Context(), "missing bearer token", slog.String("path", r.URL.Path))
				responder.Write(w, r, apierror.Authentication(auth.MsgNoToken))
				return
			}

			user, err := authenticator.Authenticate(r.Context(), tokenString)
			if err != nil {
				responder.Write(w, r, err)
				return
			}

			logger.DebugContext(r.Context(), "user authenticated", slog.String("user_id", user.ID))

			// Передаем запрос дальше с пользователем в контексте
			next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
		})
	}
}

// bearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
// ok=false означает, что заголовка нет или схема не Bearer; пустой токен
// после Bearer возвращается как есть и отклоняется при проверке.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	if len(parts) < 2 {
		return "", true
	}

	return strings.TrimSpace(parts[1]), true
}
