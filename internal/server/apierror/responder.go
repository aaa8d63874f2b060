package apierror

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response тело ответа с ошибкой
type Response struct {
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
}

// HandlerFunc обработчик, возвращающий ошибку вместо записи ответа
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Responder единственное место, где ошибки превращаются в HTTP ответ
type Responder struct {
	logger      *slog.Logger
	exposeStack bool
}

// NewResponder создает Responder. exposeStack включает поле stack в ответе,
// в production его нужно выключать.
func NewResponder(logger *slog.Logger, exposeStack bool) *Responder {
	return &Responder{
		logger:      logger,
		exposeStack: exposeStack,
	}
}

// Wrap адаптирует HandlerFunc к http.Handler
func (rs *Responder) Wrap(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			rs.Write(w, r, err)
		}
	}
}

// Write сериализует ошибку в формате {success, statusCode, message, stack?}
func (rs *Responder) Write(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := From(err)
	status := apiErr.Status()

	if apiErr.Kind == KindInternal {
		rs.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", apiErr.Unwrap()),
		)
	} else {
		rs.logger.DebugContext(r.Context(), "request rejected",
			slog.String("path", r.URL.Path),
			slog.String("kind", apiErr.Kind.String()),
			slog.String("message", apiErr.Message),
		)
	}

	resp := Response{
		Success:    false,
		StatusCode: status,
		Message:    apiErr.Message,
	}
	if rs.exposeStack {
		resp.Stack = apiErr.Stack()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		rs.logger.ErrorContext(r.Context(), "failed to encode error response", slog.Any("error", err))
	}
}

// NotFoundHandler отвечает 404 на неизвестные маршруты
func (rs *Responder) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.Write(w, r, NotFound("Not Found - "+r.URL.Path))
	}
}

// MethodNotAllowedHandler отвечает 405 на неподдерживаемый метод
func (rs *Responder) MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.Write(w, r, MethodNotAllowed(http.StatusText(http.StatusMethodNotAllowed)))
	}
}
