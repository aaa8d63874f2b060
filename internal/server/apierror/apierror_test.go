package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKind_Status(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{err: Validation("bad"), status: http.StatusBadRequest},
		{err: Authentication("who"), status: http.StatusUnauthorized},
		{err: Authorization("no"), status: http.StatusForbidden},
		{err: NotFound("where"), status: http.StatusNotFound},
		{err: TooManyRequests("slow"), status: http.StatusTooManyRequests},
		{err: MethodNotAllowed("method"), status: http.StatusMethodNotAllowed},
		{err: Internal(errors.New("boom")), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status())
		})
	}
}

func TestFrom(t *testing.T) {
	t.Run("wrapped api error is preserved", func(t *testing.T) {
		orig := NotFound("User not found")
		wrapped := fmt.Errorf("load profile: %w", orig)

		got := From(wrapped)
		assert.Same(t, orig, got)
		assert.True(t, IsKind(wrapped, KindNotFound))
	})

	t.Run("unknown error becomes internal", func(t *testing.T) {
		cause := errors.New("db is down")
		got := From(cause)

		assert.Equal(t, KindInternal, got.Kind)
		assert.Equal(t, "Internal Server Error", got.Message)
		assert.ErrorIs(t, got, cause)
	})
}

func TestResponder_Write(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		exposeStack bool
		wantStatus  int
		wantMessage string
		wantStack   bool
	}{
		{
			name:        "validation in development has stack",
			err:         Validation("User already exists"),
			exposeStack: true,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "User already exists",
			wantStack:   true,
		},
		{
			name:        "production hides stack",
			err:         Authentication("Not authorized, no token"),
			exposeStack: false,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authorized, no token",
			wantStack:   false,
		},
		{
			name:        "internal hides cause",
			err:         errors.New("sql: connection refused"),
			exposeStack: false,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
			wantStack:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewResponder(discardLogger(), tt.exposeStack)
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			w := httptest.NewRecorder()

			rs.Write(w, req, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMessage, resp.Message)
			if tt.wantStack {
				assert.NotEmpty(t, resp.Stack)
			} else {
				assert.Empty(t, resp.Stack)
				assert.NotContains(t, w.Body.String(), "stack")
			}
		})
	}
}

func TestResponder_Wrap(t *testing.T) {
	rs := NewResponder(discardLogger(), false)

	ok := rs.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
	w := httptest.NewRecorder()
	ok(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	failing := rs.Wrap(func(w http.ResponseWriter, r *http.Request) error {
		return Authorization("Invalid refresh token")
	})
	w = httptest.NewRecorder()
	failing(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid refresh token")
}

func TestResponder_NotFoundHandler(t *testing.T) {
	rs := NewResponder(discardLogger(), false)
	w := httptest.NewRecorder()

	rs.NotFoundHandler()(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not Found - /api/nope")
}

func TestResponder_MethodNotAllowedHandler(t *testing.T) {
	tests := []struct {
		name        string
		exposeStack bool
	}{
		{name: "production", exposeStack: false},
		{name: "development", exposeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NewResponder(discardLogger(), tt.exposeStack)
			w := httptest.NewRecorder()

			rs.MethodNotAllowedHandler()(w, httptest.NewRequest(http.MethodPatch, "/api/books", nil))

			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.Equal(t, "Method Not Allowed", resp.Message)
			if tt.exposeStack {
				assert.NotEmpty(t, resp.Stack)
			} else {
				assert.Empty(t, resp.Stack)
			}
		})
	}
}
