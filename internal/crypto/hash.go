package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost стоимость bcrypt для паролей пользователей
const PasswordCost = bcrypt.DefaultCost

// ErrPasswordMismatch пароль не совпадает с хешем
var ErrPasswordMismatch = errors.New("password does not match")

// dummyHash хеш, с которым сравнивается пароль, когда пользователь не найден.
// Время ответа для несуществующего email совпадает со временем для неверного пароля.
var dummyHash = mustHash("bookshelf-dummy-password")

// HashPassword хеширует пароль с использованием bcrypt
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword проверяет, соответствует ли пароль сохраненному хешу.
// Возвращает ErrPasswordMismatch, если пароль неверный.
func VerifyPassword(password, hashedPassword string) error {
	if hashedPassword == "" {
		return fmt.Errorf("hashed password cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}

	return nil
}

// BurnPasswordCheck выполняет сравнение с фиктивным хешем и всегда возвращает ErrPasswordMismatch
func BurnPasswordCheck(password string) error {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return ErrPasswordMismatch
}

func mustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		panic(fmt.Sprintf("crypto: failed to prepare dummy hash: %v", err))
	}
	return hash
}
