package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/apierror"
	"github.com/iudanet/bookshelf/internal/server/auth"
	"github.com/iudanet/bookshelf/pkg/api"
)

// UserHandler обрабатывает запросы /api/users
type UserHandler struct {
	logger  *slog.Logger
	service *auth.Service
	cookie  CookieConfig
}

// NewUserHandler создает новый handler для пользователей
func NewUserHandler(logger *slog.Logger, service *auth.Service, cookie CookieConfig) *UserHandler {
	return &UserHandler{
		logger:  logger,
		service: service,
		cookie:  cookie,
	}
}

// Register обрабатывает POST /api/users/register
// Создает пользователя и выдает пару токенов, как при входе
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	sess, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.cookie.setRefreshCookie(w, sess.Tokens.RefreshToken)

	return sendJSON(w, http.StatusCreated, api.AuthResponse{
		Success:     true,
		AccessToken: sess.Tokens.AccessToken,
		Token:       sess.Tokens.AccessToken,
		Data:        toUserData(sess.User),
	})
}

// Login обрабатывает POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookie.setRefreshCookie(w, sess.Tokens.RefreshToken)

	return sendJSON(w, http.StatusOK, api.AuthResponse{
		Success:     true,
		AccessToken: sess.Tokens.AccessToken,
		Data:        toUserData(sess.User),
	})
}

// RefreshToken обрабатывает GET /api/users/refresh-token
// Токен берется только из cookie. Cookie не перевыпускается: refresh токен
// действует до своего exp, ротации нет.
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) error {
	var value string
	cookie, err := r.Cookie(api.RefreshTokenCookie)
	if err == nil {
		value = cookie.Value
	} else if !errors.Is(err, http.ErrNoCookie) {
		return apierror.Internal(err)
	}

	accessToken, err := h.service.Refresh(r.Context(), value)
	if err != nil {
		return err
	}

	return sendJSON(w, http.StatusOK, api.RefreshResponse{
		Success:     true,
		AccessToken: accessToken,
	})
}

// Logout обрабатывает POST /api/users/logout
// Удаляет refresh cookie у клиента; уже выданные токены остаются действительными до exp
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	h.cookie.clearRefreshCookie(w)
	return sendJSON(w, http.StatusOK, api.MessageResponse{Success: true, Message: "Logged out"})
}

// GetProfile обрабатывает GET /api/users/profile (требует аутентификации)
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) error {
	current, ok := GetUser(r.Context())
	if !ok {
		return apierror.Authentication(auth.MsgTokenFailed)
	}

	user, err := h.service.Profile(r.Context(), current.ID)
	if err != nil {
		return err
	}

	return sendJSON(w, http.StatusOK, api.ProfileResponse{
		Success: true,
		Data:    toUserData(user),
	})
}

// UpdateProfile обрабатывает PUT /api/users/profile (требует аутентификации)
// Меняет только переданные поля и возвращает новый access токен
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	current, ok := GetUser(r.Context())
	if !ok {
		return apierror.Authentication(auth.MsgTokenFailed)
	}

	var req api.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	user, accessToken, err := h.service.UpdateProfile(r.Context(), current.ID, auth.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return err
	}

	return sendJSON(w, http.StatusOK, api.AuthResponse{
		Success:     true,
		AccessToken: accessToken,
		Token:       accessToken,
		Data:        toUserData(user),
	})
}

func toUserData(u *models.User) *api.UserData {
	return &api.UserData{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}
