package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/bookshelf/pkg/api"
)

// Error ответ сервера с кодом не 2xx
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized сообщает, что сервер ответил 401
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// AuthResult ответ login/register и refresh токен из Set-Cookie
type AuthResult struct {
	RefreshExpiresAt time.Time
	Response         api.AuthResponse
	RefreshToken     string
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// requestOptions заголовки и cookie отдельного запроса
type requestOptions struct {
	accessToken  string
	refreshToken string
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*AuthResult, error) {
	result, err := c.authRequest(ctx, "/api/users/register", req)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return result, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*AuthResult, error) {
	result, err := c.authRequest(ctx, "/api/users/login", req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return result, nil
}

func (c *Client) authRequest(ctx context.Context, path string, body any) (*AuthResult, error) {
	var result AuthResult
	resp, err := c.doRequest(ctx, http.MethodPost, path, requestOptions{}, body, &result.Response)
	if err != nil {
		return nil, err
	}

	cookie := findCookie(resp, api.RefreshTokenCookie)
	if cookie == nil || cookie.Value == "" {
		return nil, errors.New("server did not set refresh token cookie")
	}
	result.RefreshToken = cookie.Value
	result.RefreshExpiresAt = cookieExpiry(cookie, c.now())

	return &result, nil
}

// Refresh обменивает refresh токен на новый access токен
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp api.RefreshResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/users/refresh-token", requestOptions{refreshToken: refreshToken}, nil, &resp); err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	return resp.AccessToken, nil
}

// Logout просит сервер удалить refresh cookie
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/users/logout", requestOptions{}, nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// GetProfile возвращает профиль текущего пользователя
func (c *Client) GetProfile(ctx context.Context, accessToken string) (*api.UserData, error) {
	var resp api.ProfileResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/users/profile", requestOptions{accessToken: accessToken}, nil, &resp); err != nil {
		return nil, fmt.Errorf("get profile request failed: %w", err)
	}
	return resp.Data, nil
}

// UpdateProfile меняет переданные поля профиля, сервер возвращает новый access токен
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, req api.UpdateProfileRequest) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if _, err := c.doRequest(ctx, http.MethodPut, "/api/users/profile", requestOptions{accessToken: accessToken}, req, &resp); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &resp, nil
}

// ListBooks возвращает страницу каталога
func (c *Client) ListBooks(ctx context.Context, query url.Values) (*api.BookListResponse, error) {
	path := "/api/books"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp api.BookListResponse
	if _, err := c.doRequest(ctx, http.MethodGet, path, requestOptions{}, nil, &resp); err != nil {
		return nil, fmt.Errorf("list books request failed: %w", err)
	}
	return &resp, nil
}

// CreateBook добавляет книгу в каталог
func (c *Client) CreateBook(ctx context.Context, accessToken string, req api.BookRequest) (*api.BookData, error) {
	var resp api.BookResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/api/books", requestOptions{accessToken: accessToken}, req, &resp); err != nil {
		return nil, fmt.Errorf("create book request failed: %w", err)
	}
	return resp.Data, nil
}

// doRequest выполняет HTTP запрос. Ответ возвращается уже закрытым, он нужен
// только для заголовков (Set-Cookie).
func (c *Client) doRequest(ctx context.Context, method, path string, opts requestOptions, body, result any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.accessToken)
	}
	if opts.refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: api.RefreshTokenCookie, Value: opts.refreshToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
		}
		return nil, apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// cookieExpiry вычисляет срок жизни cookie: Max-Age приоритетнее Expires
func cookieExpiry(c *http.Cookie, now time.Time) time.Time {
	if c.MaxAge > 0 {
		return now.Add(time.Duration(c.MaxAge) * time.Second)
	}
	return c.Expires
}
