package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the client session
type AuthStorage interface {
	// SaveAuth stores session data, replacing the previous one
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored session data
	// Returns ErrAuthNotFound if no session exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored session data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated reports whether a session exists whose refresh token
	// has not expired yet
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the client session.
// Access token is short-lived and renewed via the refresh token, which the
// server sends only as a cookie; the client keeps its value here.
type AuthData struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"`
}

// AccessExpired reports whether the access token has expired at now
func (a *AuthData) AccessExpired(now time.Time) bool {
	return a.AccessExpiresAt != 0 && !now.Before(time.Unix(a.AccessExpiresAt, 0))
}

// RefreshExpired reports whether the refresh token has expired at now
func (a *AuthData) RefreshExpired(now time.Time) bool {
	return a.RefreshToken == "" || !now.Before(time.Unix(a.RefreshExpiresAt, 0))
}
