package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/bookshelf/internal/crypto"
	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
	"github.com/iudanet/bookshelf/internal/validation"
)

// ErrInvalidCredentials неизвестный email или неверный пароль, без различия
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserFinder поиск пользователя по email
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// CredentialVerifier проверяет пару email/пароль
type CredentialVerifier struct {
	users UserFinder
}

// NewCredentialVerifier создает CredentialVerifier
func NewCredentialVerifier(users UserFinder) *CredentialVerifier {
	return &CredentialVerifier{users: users}
}

// Verify возвращает пользователя, если пароль совпал с сохраненным хешем.
// Для неизвестного email тоже выполняется bcrypt сравнение, чтобы по времени
// ответа нельзя было узнать о существовании аккаунта.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := v.users.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			_ = crypto.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := crypto.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	return user, nil
}
