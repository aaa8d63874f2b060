package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// MinNameLen минимальная длина имени
	MinNameLen = 2
	// MaxNameLen максимальная длина имени
	MaxNameLen = 50
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 6
	// MaxPasswordLen ограничение bcrypt на длину входа
	MaxPasswordLen = 72
	// MaxEmailLen максимальная длина email
	MaxEmailLen = 254
)

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям, в нижнем регистре
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName проверяет имя пользователя
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}

	n := utf8.RuneCountInString(name)
	if n < MinNameLen || n > MaxNameLen {
		return fmt.Errorf("name must be between %d and %d characters", MinNameLen, MaxNameLen)
	}

	return nil
}

// ValidateEmail проверяет формат email
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return fmt.Errorf("please provide a valid email")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLen)
	}

	return nil
}

// ValidateAvatar проверяет, что аватар задан абсолютным http(s) URL
func ValidateAvatar(avatar string) error {
	if avatar == "" {
		return nil
	}

	u, err := url.ParseRequestURI(avatar)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("avatar must be an http or https URL")
	}

	return nil
}
