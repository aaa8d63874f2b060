package handlers

import (
	"context"

	"github.com/iudanet/bookshelf/internal/models"
)

type contextKey string

// UserKey ключ контекста, под которым Session Gate сохраняет пользователя
const UserKey contextKey = "user"

// WithUser возвращает контекст с аутентифицированным пользователем
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser извлекает аутентифицированного пользователя из контекста
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}
