// Package token подписывает и проверяет JWT токены сервера.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Use определяет назначение токена, записывается в claim aud
type Use string

const (
	// Access короткоживущий токен для заголовка Authorization
	Access Use = "access"
	// Refresh долгоживущий токен, передается только в cookie
	Refresh Use = "refresh"
)

// DefaultIssuer значение claim iss по умолчанию
const DefaultIssuer = "bookshelf"

var (
	// ErrExpired токен подписан верно, но срок его действия истек
	ErrExpired = errors.New("token expired")
	// ErrMalformed токен не удалось разобрать или подпись неверна
	ErrMalformed = errors.New("token malformed")
)

// Claims содержит проверенные данные токена
type Claims struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
	Subject   string
}

// Codec выпускает и проверяет токены одного назначения
type Codec struct {
	now    func() time.Time
	issuer string
	use    Use
	secret []byte
}

// Option настраивает Codec
type Option func(*Codec)

// WithClock подменяет источник времени (используется в тестах)
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// WithIssuer задает claim iss
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// NewCodec создает Codec с HMAC-SHA256 подписью
func NewCodec(secret []byte, use Use, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret cannot be empty")
	}
	if use != Access && use != Refresh {
		return nil, fmt.Errorf("unknown token use %q", use)
	}

	c := &Codec{
		secret: secret,
		use:    use,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Use возвращает назначение токенов этого Codec
func (c *Codec) Use() Use {
	return c.use
}

// Issue подписывает токен для subject со сроком жизни lifetime
func (c *Codec) Issue(subject string, lifetime time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject cannot be empty")
	}
	if lifetime <= 0 {
		return "", fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    c.issuer,
		Audience:  jwt.ClaimStrings{string(c.use)},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiryCeil(now.Add(lifetime))),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// expiryCeil округляет exp вверх до секунды: NumericDate отбрасывает доли
// секунды, и без округления токен истекал бы раньше now+lifetime.
func expiryCeil(exp time.Time) time.Time {
	if t := exp.Truncate(time.Second); !t.Equal(exp) {
		return t.Add(time.Second)
	}
	return exp
}

// Verify проверяет подпись, срок действия и назначение токена.
// Возвращает ErrExpired, если текущее время не раньше exp, и ErrMalformed во всех
// остальных случаях отказа.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformed
	}

	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &registered,
		func(t *jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(string(c.use)),
		jwt.WithIssuer(c.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if registered.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrMalformed)
	}

	claims := &Claims{
		Subject:   registered.Subject,
		ExpiresAt: registered.ExpiresAt.Time,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}

	return claims, nil
}
