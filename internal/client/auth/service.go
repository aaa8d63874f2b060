// Package auth управляет сессией клиента: вход, хранение токенов и их
// обновление по refresh токену.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/bookshelf/internal/client/api"
	"github.com/iudanet/bookshelf/internal/client/storage"
	"github.com/iudanet/bookshelf/internal/validation"
	pkgapi "github.com/iudanet/bookshelf/pkg/api"
)

var (
	// ErrNotAuthenticated нет сохраненной сессии
	ErrNotAuthenticated = errors.New("not authenticated, run 'bookshelf login' first")

	// ErrSessionExpired refresh токен истек или отклонен сервером
	ErrSessionExpired = errors.New("session expired, run 'bookshelf login' again")
)

// Service предоставляет функции авторизации клиента
type Service struct {
	apiClient *api.Client
	store     storage.AuthStorage
	logger    *slog.Logger
	now       func() time.Time
}

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, store storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Register регистрирует пользователя и сохраняет полученную сессию
func (s *Service) Register(ctx context.Context, name, email, password string) (*storage.AuthData, error) {
	name = strings.TrimSpace(name)
	email = validation.NormalizeEmail(email)

	if err := validation.ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	result, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return s.saveSession(ctx, result)
}

// Login выполняет вход и сохраняет сессию
func (s *Service) Login(ctx context.Context, email, password string) (*storage.AuthData, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	result, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return s.saveSession(ctx, result)
}

func (s *Service) saveSession(ctx context.Context, result *api.AuthResult) (*storage.AuthData, error) {
	auth := &storage.AuthData{
		AccessToken:      result.Response.AccessToken,
		AccessExpiresAt:  tokenExpiry(result.Response.AccessToken),
		RefreshToken:     result.RefreshToken,
		RefreshExpiresAt: result.RefreshExpiresAt.Unix(),
	}
	if u := result.Response.Data; u != nil {
		auth.UserID = u.ID
		auth.Name = u.Name
		auth.Email = u.Email
	}

	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return auth, nil
}

// Logout удаляет локальную сессию и просит сервер удалить cookie.
// Сервер может быть недоступен, локальные данные удаляются в любом случае.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.apiClient.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}

	if err := s.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local session: %w", err)
	}
	return nil
}

// Session возвращает действующую сессию
func (s *Service) Session(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if auth.RefreshExpired(s.now()) {
		return nil, ErrSessionExpired
	}
	return auth, nil
}

// Refresh получает новый access токен. Refresh токен сервер не меняет.
func (s *Service) Refresh(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, auth)
}

func (s *Service) refresh(ctx context.Context, auth *storage.AuthData) (*storage.AuthData, error) {
	accessToken, err := s.apiClient.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("%w: %s", ErrSessionExpired, apiErr.Message)
		}
		return nil, err
	}

	auth.AccessToken = accessToken
	auth.AccessExpiresAt = tokenExpiry(accessToken)
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.DebugContext(ctx, "access token refreshed")
	return auth, nil
}

// WithAccessToken вызывает fn с действующим access токеном. Истекший токен
// обновляется заранее; если сервер все равно ответил 401, токен обновляется
// и fn вызывается повторно, но только один раз.
func (s *Service) WithAccessToken(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	auth, err := s.Session(ctx)
	if err != nil {
		return err
	}

	if auth.AccessExpired(s.now()) {
		if auth, err = s.refresh(ctx, auth); err != nil {
			return err
		}
	}

	err = fn(ctx, auth.AccessToken)
	if !api.IsUnauthorized(err) {
		return err
	}

	if auth, err = s.refresh(ctx, auth); err != nil {
		return err
	}
	return fn(ctx, auth.AccessToken)
}

// UpdateProfile меняет профиль и сохраняет выданный сервером новый access токен
func (s *Service) UpdateProfile(ctx context.Context, req pkgapi.UpdateProfileRequest) (*pkgapi.UserData, error) {
	var resp *pkgapi.AuthResponse
	err := s.WithAccessToken(ctx, func(ctx context.Context, token string) error {
		var err error
		resp, err = s.apiClient.UpdateProfile(ctx, token, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	auth, err := s.store.GetAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if resp.AccessToken != "" {
		auth.AccessToken = resp.AccessToken
		auth.AccessExpiresAt = tokenExpiry(resp.AccessToken)
	}
	if resp.Data != nil {
		auth.Name = resp.Data.Name
		auth.Email = resp.Data.Email
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return resp.Data, nil
}

// tokenExpiry читает exp из access токена без проверки подписи: клиенту
// секрет неизвестен, срок нужен только чтобы обновить токен заранее.
// 0 означает, что срок неизвестен.
func tokenExpiry(token string) int64 {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}
