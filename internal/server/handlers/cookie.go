package handlers

import (
	"net/http"
	"time"

	"github.com/iudanet/bookshelf/pkg/api"
)

// refreshCookiePath refresh cookie нужен только эндпоинтам /api/users
const refreshCookiePath = "/api/users"

// CookieConfig параметры refresh cookie
type CookieConfig struct {
	MaxAge time.Duration
	Secure bool // true в production
}

func (c CookieConfig) refreshCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     api.RefreshTokenCookie,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   int(c.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// setRefreshCookie устанавливает refresh токен в cookie
func (c CookieConfig) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, c.refreshCookie(value))
}

// clearRefreshCookie удаляет refresh cookie у клиента
func (c CookieConfig) clearRefreshCookie(w http.ResponseWriter) {
	cookie := c.refreshCookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}
