package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookshelf/internal/server/apierror"
	"github.com/iudanet/bookshelf/internal/server/auth"
	"github.com/iudanet/bookshelf/pkg/api"
)

var testSecret = []byte("handlers-test-secret-handlers-test")

type userTestEnv struct {
	handler   *UserHandler
	service   *auth.Service
	users     *mockUserStorage
	responder *apierror.Responder
}

func newUserTestEnv(t *testing.T, secure bool) *userTestEnv {
	t.Helper()

	issuer, err := auth.NewIssuer(auth.TokenConfig{Secret: testSecret})
	require.NoError(t, err)

	users := newMockUserStorage()
	logger := setupTestLogger()
	service := auth.NewService(logger, users, issuer)

	return &userTestEnv{
		handler:   NewUserHandler(logger, service, CookieConfig{MaxAge: issuer.RefreshTTL(), Secure: secure}),
		service:   service,
		users:     users,
		responder: apierror.NewResponder(logger, !secure),
	}
}

func (e *userTestEnv) do(fn apierror.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.responder.Wrap(fn)(w, req)
	return w
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (e *userTestEnv) register(t *testing.T, email string) api.AuthResponse {
	t.Helper()
	w := e.do(e.handler.Register, jsonRequest(t, http.MethodPost, "/api/users/register", api.RegisterRequest{
		Name:     "Ann",
		Email:    email,
		Password: "secret123",
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestUserHandler_Register(t *testing.T) {
	env := newUserTestEnv(t, false)

	w := env.do(env.handler.Register, jsonRequest(t, http.MethodPost, "/api/users/register", api.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "secret123",
	}))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, resp.AccessToken, resp.Token)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "ann@example.com", resp.Data.Email)
	assert.NotContains(t, w.Body.String(), "password")

	cookie := findCookie(w.Result(), api.RefreshTokenCookie)
	require.NotNil(t, cookie, "refresh cookie must be set on register")
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
}

func TestUserHandler_Register_Duplicate(t *testing.T) {
	env := newUserTestEnv(t, false)
	env.register(t, "ann@example.com")

	w := env.do(env.handler.Register, jsonRequest(t, http.MethodPost, "/api/users/register", api.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "secret123",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already exists", resp.Message)
	assert.NotEmpty(t, resp.Stack, "stack is exposed outside production")
	assert.Nil(t, findCookie(w.Result(), api.RefreshTokenCookie))
}

func TestUserHandler_Register_InvalidBody(t *testing.T) {
	env := newUserTestEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewBufferString("{not json"))
	w := env.do(env.handler.Register, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/users/register", http.NoBody)
	w = env.do(env.handler.Register, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_Login(t *testing.T) {
	env := newUserTestEnv(t, true)
	env.register(t, "ann@example.com")

	tests := []struct {
		name        string
		req         api.LoginRequest
		wantStatus  int
		wantMessage string
		wantCookie  bool
	}{
		{
			name:       "valid credentials",
			req:        api.LoginRequest{Email: "ann@example.com", Password: "secret123"},
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
		{
			name:        "wrong password",
			req:         api.LoginRequest{Email: "ann@example.com", Password: "wrong-pass"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid email or password",
		},
		{
			name:        "unknown email",
			req:         api.LoginRequest{Email: "ghost@example.com", Password: "wrong-pass"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid email or password",
		},
		{
			name:        "missing fields",
			req:         api.LoginRequest{},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(env.handler.Login, jsonRequest(t, http.MethodPost, "/api/users/login", tt.req))
			assert.Equal(t, tt.wantStatus, w.Code)

			cookie := findCookie(w.Result(), api.RefreshTokenCookie)
			if !tt.wantCookie {
				assert.Nil(t, cookie)
				resp := decodeError(t, w)
				if tt.wantMessage != "" {
					assert.Equal(t, tt.wantMessage, resp.Message)
				}
				// production: без стека
				assert.Empty(t, resp.Stack)
				return
			}

			require.NotNil(t, cookie)
			assert.True(t, cookie.Secure)
			assert.True(t, cookie.HttpOnly)

			var resp api.AuthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.NotEmpty(t, resp.AccessToken)
			assert.Equal(t, "ann@example.com", resp.Data.Email)
		})
	}
}

func TestUserHandler_RefreshToken(t *testing.T) {
	env := newUserTestEnv(t, false)
	env.register(t, "ann@example.com")

	login := env.do(env.handler.Login, jsonRequest(t, http.MethodPost, "/api/users/login",
		api.LoginRequest{Email: "ann@example.com", Password: "secret123"}))
	require.Equal(t, http.StatusOK, login.Code)
	refreshCookie := findCookie(login.Result(), api.RefreshTokenCookie)
	require.NotNil(t, refreshCookie)

	tests := []struct {
		name        string
		cookie      *http.Cookie
		wantStatus  int
		wantMessage string
	}{
		{name: "no cookie", wantStatus: http.StatusUnauthorized, wantMessage: "No refresh token"},
		{
			name:        "empty cookie",
			cookie:      &http.Cookie{Name: api.RefreshTokenCookie, Value: ""},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "No refresh token",
		},
		{
			name:        "invalid cookie",
			cookie:      &http.Cookie{Name: api.RefreshTokenCookie, Value: "garbage"},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Invalid refresh token",
		},
		{
			name:       "valid cookie",
			cookie:     &http.Cookie{Name: api.RefreshTokenCookie, Value: refreshCookie.Value},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/refresh-token", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}

			w := env.do(env.handler.RefreshToken, req)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, decodeError(t, w).Message)
				return
			}

			var resp api.RefreshResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Success)

			user, err := env.service.Authenticate(context.Background(), resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "ann@example.com", user.Email)

			// refresh token не ротируется
			assert.Empty(t, w.Header().Values("Set-Cookie"))
		})
	}
}

func TestUserHandler_RefreshToken_DeletedUser(t *testing.T) {
	env := newUserTestEnv(t, false)
	env.register(t, "ann@example.com")

	sess, err := env.service.Login(context.Background(), "ann@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, env.users.DeleteUser(context.Background(), sess.User.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: api.RefreshTokenCookie, Value: sess.Tokens.RefreshToken})

	w := env.do(env.handler.RefreshToken, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not found", decodeError(t, w).Message)
}

func TestUserHandler_Logout(t *testing.T) {
	env := newUserTestEnv(t, false)

	w := env.do(env.handler.Logout, httptest.NewRequest(http.MethodPost, "/api/users/logout", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	cookie := findCookie(w.Result(), api.RefreshTokenCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestUserHandler_Profile(t *testing.T) {
	env := newUserTestEnv(t, false)
	reg := env.register(t, "ann@example.com")

	current, err := env.service.Authenticate(context.Background(), reg.AccessToken)
	require.NoError(t, err)

	t.Run("get without user in context", func(t *testing.T) {
		w := env.do(env.handler.GetProfile, httptest.NewRequest(http.MethodGet, "/api/users/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req = req.WithContext(WithUser(req.Context(), current))

		w := env.do(env.handler.GetProfile, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp api.ProfileResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, current.ID, resp.Data.ID)
		assert.Equal(t, "Ann", resp.Data.Name)
	})

	t.Run("update", func(t *testing.T) {
		name := "Ann Lee"
		req := jsonRequest(t, http.MethodPut, "/api/users/profile", api.UpdateProfileRequest{Name: &name})
		req = req.WithContext(WithUser(req.Context(), current))

		w := env.do(env.handler.UpdateProfile, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp api.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "Ann Lee", resp.Data.Name)
		assert.Equal(t, "ann@example.com", resp.Data.Email)
		assert.NotEmpty(t, resp.Token)

		user, err := env.service.Authenticate(context.Background(), resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "Ann Lee", user.Name)
	})

	t.Run("get after user deleted", func(t *testing.T) {
		require.NoError(t, env.users.DeleteUser(context.Background(), current.ID))

		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req = req.WithContext(WithUser(req.Context(), current))

		w := env.do(env.handler.GetProfile, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found", decodeError(t, w).Message)
	})
}
