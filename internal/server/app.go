package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iudanet/bookshelf/internal/config"
	"github.com/iudanet/bookshelf/internal/server/apierror"
	"github.com/iudanet/bookshelf/internal/server/auth"
	"github.com/iudanet/bookshelf/internal/server/handlers"
	"github.com/iudanet/bookshelf/internal/server/middleware"
	"github.com/iudanet/bookshelf/internal/server/storage/sqldb"
)

// App связывает конфигурацию, хранилище и HTTP сервер
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *sqldb.Storage
	redis   *redis.Client
	memory  *middleware.MemoryLimiter
	handler http.Handler
}

// NewApp открывает хранилище, выбирает rate limiter и собирает маршруты
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	store, err := sqldb.New(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	app := &App{cfg: cfg, logger: logger, store: store}

	limiter, err := app.newLimiter(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	issuer, err := auth.NewIssuer(auth.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	service := auth.NewService(logger, store, issuer)
	responder := apierror.NewResponder(logger, !cfg.IsProduction())

	app.handler = NewRouter(RouterDeps{
		Logger:        logger,
		Responder:     responder,
		Authenticator: service,
		LoginLimiter:  limiter,
		Users: handlers.NewUserHandler(logger, service, handlers.CookieConfig{
			MaxAge: cfg.RefreshTokenTTL,
			Secure: cfg.IsProduction(),
		}),
		Books:       handlers.NewBookHandler(logger, store),
		Health:      handlers.NewHealthHandler(logger, store, version),
		CORSOrigins: cfg.CORSAllowedOrigins,
		TrustProxy:  cfg.TrustProxy,
	})

	return app, nil
}

// newLimiter использует Redis, если он настроен, иначе счетчики в памяти
func (a *App) newLimiter(ctx context.Context) (middleware.Limiter, error) {
	if a.cfg.RedisURL == "" {
		a.memory = middleware.NewMemoryLimiter(a.cfg.LoginRateLimit, a.cfg.LoginRateWindow)
		return a.memory, nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	a.redis = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.logger.InfoContext(ctx, "using redis rate limiter", slog.String("addr", opts.Addr))
	return middleware.NewRedisLimiter(a.redis, a.cfg.LoginRateLimit, a.cfg.LoginRateWindow), nil
}

// Handler возвращает корневой HTTP обработчик
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run слушает cfg.Addr до отмены ctx
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve обслуживает запросы на ln. При отмене ctx сервер перестает принимать
// соединения и ждет завершения активных запросов не дольше ShutdownTimeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.InfoContext(ctx, "HTTP server started", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return <-errCh
}

// Close освобождает хранилище и соединения
func (a *App) Close() error {
	var errs []error
	if a.memory != nil {
		a.memory.Stop()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
