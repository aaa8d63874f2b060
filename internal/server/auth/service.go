package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/bookshelf/internal/crypto"
	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/apierror"
	"github.com/iudanet/bookshelf/internal/server/storage"
	"github.com/iudanet/bookshelf/internal/validation"
)

// Сообщения, которые видит клиент
const (
	MsgNoToken             = "Not authorized, no token"
	MsgTokenFailed         = "Not authorized, token failed"
	MsgNoRefreshToken      = "No refresh token"
	MsgInvalidRefreshToken = "Invalid refresh token"
	MsgUserNotFound        = "User not found"
	MsgUserAlreadyExists   = "User already exists"
	MsgInvalidCredentials  = "Invalid email or password"
)

// RegisterInput данные регистрации
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileUpdate частичное обновление профиля, nil поля не меняются
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Avatar   *string
}

// Session результат входа или регистрации
type Session struct {
	User   *models.User
	Tokens TokenPair
}

// Service реализует сценарии аутентификации поверх хранилища и Issuer
type Service struct {
	logger   *slog.Logger
	users    storage.UserStorage
	verifier *CredentialVerifier
	issuer   *Issuer
	now      func() time.Time
}

// NewService создает Service
func NewService(logger *slog.Logger, users storage.UserStorage, issuer *Issuer) *Service {
	return &Service{
		logger:   logger,
		users:    users,
		verifier: NewCredentialVerifier(users),
		issuer:   issuer,
		now:      time.Now,
	}
}

// Issuer возвращает Issuer сервиса
func (s *Service) Issuer() *Issuer {
	return s.issuer
}

// Register создает пользователя и выдает ему ту же пару токенов, что и Login
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := validation.NormalizeEmail(in.Email)

	if err := validation.ValidateName(name); err != nil {
		return nil, apierror.Validation(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apierror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apierror.Validation(err.Error())
	}

	// Быстрая проверка, окончательную гарантирует UNIQUE индекс
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apierror.Validation(MsgUserAlreadyExists)
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, apierror.Internal(err)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, apierror.Internal(err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, apierror.Validation(MsgUserAlreadyExists)
		}
		return nil, apierror.Internal(fmt.Errorf("create user: %w", err))
	}

	tokens, err := s.issuer.IssueForUser(user.ID)
	if err != nil {
		return nil, apierror.Internal(err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))

	return &Session{User: user.Sanitized(), Tokens: tokens}, nil
}

// Login проверяет учетные данные и выдает пару токенов
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	// Пустые поля отклоняются тем же ответом, что и неверный пароль
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apierror.Authentication(MsgInvalidCredentials)
	}

	user, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.WarnContext(ctx, "login failed: invalid credentials")
			return nil, apierror.Authentication(MsgInvalidCredentials)
		}
		return nil, apierror.Internal(err)
	}

	tokens, err := s.issuer.IssueForUser(user.ID)
	if err != nil {
		return nil, apierror.Internal(err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &Session{User: user.Sanitized(), Tokens: tokens}, nil
}

// Authenticate проверяет access токен и загружает пользователя без хеша пароля.
// Удаленный пользователь считается такой же ошибкой проверки, как и плохой токен.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.issuer.VerifyAccess(accessToken)
	if err != nil {
		s.logger.DebugContext(ctx, "access token rejected", slog.Any("error", err))
		return nil, apierror.Authentication(MsgTokenFailed)
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			s.logger.WarnContext(ctx, "access token for missing user", slog.String("user_id", claims.Subject))
			return nil, apierror.Authentication(MsgTokenFailed)
		}
		return nil, apierror.Internal(err)
	}

	return user.Sanitized(), nil
}

// Refresh обменивает refresh токен на новый access токен.
// Refresh токен не ротируется: тот же cookie действует до своего exp.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apierror.Authentication(MsgNoRefreshToken)
	}

	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		s.logger.WarnContext(ctx, "refresh token rejected", slog.Any("error", err))
		return "", apierror.Authorization(MsgInvalidRefreshToken)
	}

	if _, err := s.users.GetUserByID(ctx, claims.Subject); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", apierror.Authentication(MsgUserNotFound)
		}
		return "", apierror.Internal(err)
	}

	accessToken, err := s.issuer.IssueAccess(claims.Subject)
	if err != nil {
		return "", apierror.Internal(err)
	}

	return accessToken, nil
}

// Profile возвращает актуальный профиль пользователя
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, apierror.NotFound(MsgUserNotFound)
		}
		return nil, apierror.Internal(err)
	}
	return user.Sanitized(), nil
}

// UpdateProfile применяет только заданные поля и после успешной записи
// выпускает новый access токен
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, "", apierror.NotFound(MsgUserNotFound)
		}
		return nil, "", apierror.Internal(err)
	}

	// GetUserByID не загружает хеш, пустой хеш не перезаписывает сохраненный
	user.PasswordHash = ""

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, "", apierror.Validation(err.Error())
		}
		user.Name = name
	}

	if upd.Email != nil {
		email := validation.NormalizeEmail(*upd.Email)
		if err := validation.ValidateEmail(email); err != nil {
			return nil, "", apierror.Validation(err.Error())
		}
		user.Email = email
	}

	if upd.Password != nil {
		if err := validation.ValidatePassword(*upd.Password); err != nil {
			return nil, "", apierror.Validation(err.Error())
		}
		hash, err := crypto.HashPassword(*upd.Password)
		if err != nil {
			return nil, "", apierror.Internal(err)
		}
		user.PasswordHash = hash
	}

	if upd.Avatar != nil {
		avatar := strings.TrimSpace(*upd.Avatar)
		if err := validation.ValidateAvatar(avatar); err != nil {
			return nil, "", apierror.Validation(err.Error())
		}
		user.Avatar = avatar
	}

	user.UpdatedAt = s.now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			return nil, "", apierror.Validation(MsgUserAlreadyExists)
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, "", apierror.NotFound(MsgUserNotFound)
		default:
			return nil, "", apierror.Internal(err)
		}
	}

	accessToken, err := s.issuer.IssueAccess(user.ID)
	if err != nil {
		return nil, "", apierror.Internal(err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))

	return user.Sanitized(), accessToken, nil
}
