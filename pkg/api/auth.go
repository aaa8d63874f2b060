package api

// RefreshTokenCookie имя cookie с refresh токеном
const RefreshTokenCookie = "refreshToken"

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest частичное обновление профиля; отсутствующие поля не меняются
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// UserData публичное представление пользователя
type UserData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// AuthResponse ответ на регистрацию, вход и обновление профиля.
// Token дублирует AccessToken для клиентов, читающих поле token.
type AuthResponse struct {
	Data        *UserData `json:"data,omitempty"`
	AccessToken string    `json:"accessToken,omitempty"`
	Token       string    `json:"token,omitempty"`
	Success     bool      `json:"success"`
}

// ProfileResponse ответ GET /api/users/profile
type ProfileResponse struct {
	Data    *UserData `json:"data"`
	Success bool      `json:"success"`
}

// RefreshResponse ответ GET /api/users/refresh-token
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	Success     bool   `json:"success"`
}

// MessageResponse ответ без данных
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
}
