package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/bookshelf/internal/server/apierror"
)

// MsgTooManyRequests сообщение клиенту при превышении лимита
const MsgTooManyRequests = "Too many requests, please try again later"

// Limiter решает, пропускать ли очередной запрос с данным ключом.
// Ошибка означает недоступность хранилища счетчиков, а не превышение лимита.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter ограничивает число запросов в окне, счетчики хранятся в памяти
// процесса. Подходит для одного экземпляра сервера.
type MemoryLimiter struct {
	buckets  map[string]*bucket
	now      func() time.Time
	cleanupC chan struct{}
	rate     int
	window   time.Duration
	mu       sync.Mutex
	stopOnce sync.Once
}

// bucket счетчик для одного ключа
type bucket struct {
	windowStart time.Time
	remaining   int
}

// NewMemoryLimiter создает limiter: не более rate запросов за window на ключ
func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	rl := &MemoryLimiter{
		buckets:  make(map[string]*bucket),
		now:      time.Now,
		cleanupC: make(chan struct{}),
		rate:     rate,
		window:   window,
	}

	// Периодически удаляем устаревшие buckets
	go rl.cleanup()

	return rl
}

func (rl *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupOldBuckets()
		case <-rl.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет buckets, окно которых давно закончилось
func (rl *MemoryLimiter) cleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

// Stop останавливает cleanup goroutine, повторный вызов безопасен
func (rl *MemoryLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.cleanupC) })
}

// Allow implements Limiter
func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		b = &bucket{windowStart: now, remaining: rl.rate}
		rl.buckets[key] = b
	}

	if b.remaining <= 0 {
		return false, nil
	}
	b.remaining--
	return true, nil
}

// RateLimitMiddleware ограничивает частоту запросов по IP клиента.
// При ошибке limiter'а запрос пропускается: недоступный Redis не должен
// блокировать вход.
func RateLimitMiddleware(limiter Limiter, logger *slog.Logger, responder *apierror.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Path + "|" + getClientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable",
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", getClientIP(r)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				responder.Write(w, r, apierror.TooManyRequests(MsgTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP возвращает IP клиента из RemoteAddr без порта. Заголовки прокси
// здесь не читаются: за доверенным прокси RemoteAddr подменяет chi RealIP.
func getClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
