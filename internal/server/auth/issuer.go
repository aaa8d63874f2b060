// Package auth содержит проверку учетных данных, выпуск токенов и
// сценарии регистрации, входа, обновления токена и профиля.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/bookshelf/internal/server/token"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig параметры выпуска токенов, передаются явно при создании Issuer
type TokenConfig struct {
	Clock      func() time.Time // nil означает time.Now
	Issuer     string
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenPair пара токенов, выдаваемая при входе и регистрации
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer выпускает и проверяет access и refresh токены
type Issuer struct {
	access     *token.Codec
	refresh    *token.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer создает Issuer. Нулевые TTL заменяются значениями по умолчанию.
func NewIssuer(cfg TokenConfig) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("token lifetimes cannot be negative")
	}

	accessTTL := cfg.AccessTTL
	if accessTTL == 0 {
		accessTTL = DefaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL == 0 {
		refreshTTL = DefaultRefreshTTL
	}

	var opts []token.Option
	if cfg.Clock != nil {
		opts = append(opts, token.WithClock(cfg.Clock))
	}
	if cfg.Issuer != "" {
		opts = append(opts, token.WithIssuer(cfg.Issuer))
	}

	access, err := token.NewCodec(cfg.Secret, token.Access, opts...)
	if err != nil {
		return nil, fmt.Errorf("access codec: %w", err)
	}
	refresh, err := token.NewCodec(cfg.Secret, token.Refresh, opts...)
	if err != nil {
		return nil, fmt.Errorf("refresh codec: %w", err)
	}

	return &Issuer{
		access:     access,
		refresh:    refresh,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueForUser выпускает независимую пару access/refresh для пользователя
func (i *Issuer) IssueForUser(userID string) (TokenPair, error) {
	accessToken, err := i.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := i.refresh.Issue(userID, i.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// IssueAccess выпускает только access токен
func (i *Issuer) IssueAccess(userID string) (string, error) {
	accessToken, err := i.access.Issue(userID, i.accessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return accessToken, nil
}

// VerifyAccess проверяет access токен
func (i *Issuer) VerifyAccess(tokenString string) (*token.Claims, error) {
	return i.access.Verify(tokenString)
}

// VerifyRefresh проверяет refresh токен
func (i *Issuer) VerifyRefresh(tokenString string) (*token.Claims, error) {
	return i.refresh.Verify(tokenString)
}

// AccessTTL срок жизни access токена
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// RefreshTTL срок жизни refresh токена, он же MaxAge cookie
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}
