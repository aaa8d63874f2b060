package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/iudanet/bookshelf/internal/server/apierror"
)

// maxBodySize ограничение размера тела запроса
const maxBodySize = 1 << 20

// sendJSON отправляет JSON ответ
func sendJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// заголовок уже отправлен, остается только вернуть ошибку для лога
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// decodeJSON разбирает тело запроса, неизвестные поля игнорируются
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if err == io.EOF {
			return apierror.Validation("request body is empty")
		}
		return apierror.Validation("invalid request body")
	}
	return nil
}
