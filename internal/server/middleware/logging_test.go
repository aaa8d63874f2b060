package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *strings.Builder) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		handler        http.HandlerFunc
		name           string
		method         string
		path           string
		wantLevel      string
		expectedStatus int
	}{
		{
			name:   "GET books with 200 OK",
			method: http.MethodGet,
			path:   "/api/books",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("success"))
			},
			wantLevel:      "INFO",
			expectedStatus: http.StatusOK,
		},
		{
			name:   "register with 201 Created",
			method: http.MethodPost,
			path:   "/api/users/register",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			wantLevel:      "INFO",
			expectedStatus: http.StatusCreated,
		},
		{
			name:   "profile with 401",
			method: http.MethodGet,
			path:   "/api/users/profile",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantLevel:      "WARN",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "book create with 500",
			method: http.MethodPost,
			path:   "/api/books",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantLevel:      "ERROR",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf strings.Builder
			handler := LoggingMiddleware(newBufferLogger(&logBuf))(tt.handler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "192.168.1.1:12345"
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, "HTTP request")
			assert.Contains(t, logOutput, "method="+tt.method)
			assert.Contains(t, logOutput, "path="+tt.path)
			assert.Contains(t, logOutput, "192.168.1.1:12345")
			assert.Contains(t, logOutput, "level="+tt.wantLevel)
		})
	}
}

func TestLoggingMiddleware_CapturesResponseMetrics(t *testing.T) {
	var logBuf strings.Builder
	handler := LoggingMiddleware(newBufferLogger(&logBuf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Hello, World!"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "duration_ms=")
	assert.Contains(t, logOutput, "bytes_written=13")
	assert.Contains(t, logOutput, "status=200")
}

func TestLoggingMiddleware_OmitsQueryString(t *testing.T) {
	var logBuf strings.Builder
	handler := LoggingMiddleware(newBufferLogger(&logBuf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/books?keyword=secret-token-123", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, logBuf.String(), "path=/api/books")
	assert.NotContains(t, logBuf.String(), "secret-token-123")
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var logBuf strings.Builder
	handler := chimw.RequestID(LoggingMiddleware(newBufferLogger(&logBuf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, logBuf.String(), "request_id=req-42")
}

func TestLoggingMiddleware_SkipPaths(t *testing.T) {
	var logBuf strings.Builder
	handler := LoggingMiddleware(newBufferLogger(&logBuf), "/api/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	t.Run("Skipped path should not be logged", func(t *testing.T) {
		logBuf.Reset()

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, logBuf.String())
	})

	t.Run("Non-skipped path should be logged", func(t *testing.T) {
		logBuf.Reset()

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, logBuf.String(), "/api/books")
	})
}

func TestStatusRecorder(t *testing.T) {
	tests := []struct {
		name           string
		writeHeader    bool
		statusCode     int
		expectedStatus int
	}{
		{name: "Explicit 201", writeHeader: true, statusCode: http.StatusCreated, expectedStatus: http.StatusCreated},
		{name: "Explicit 404", writeHeader: true, statusCode: http.StatusNotFound, expectedStatus: http.StatusNotFound},
		{name: "Default 200 (no WriteHeader)", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			if tt.writeHeader {
				rec.WriteHeader(tt.statusCode)
			}
			n, err := rec.Write([]byte("Hello, "))
			require.NoError(t, err)
			m, err := rec.Write([]byte("World!"))
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, rec.status)
			assert.Equal(t, int64(n+m), rec.written)
			assert.Same(t, w, rec.Unwrap())
		})
	}
}
