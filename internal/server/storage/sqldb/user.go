package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := s.db.Rebind(`
		INSERT INTO users (id, name, email, password_hash, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// Проверяем на duplicate email
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves user by email including the password hash
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := s.db.Rebind(`
		SELECT id, name, email, password_hash, avatar, created_at, updated_at
		FROM users
		WHERE email = ?
	`)

	user := &models.User{}
	if err := s.db.GetContext(ctx, user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves user by ID; password_hash is never selected
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := s.db.Rebind(`
		SELECT id, name, email, avatar, created_at, updated_at
		FROM users
		WHERE id = ?
	`)

	user := &models.User{}
	if err := s.db.GetContext(ctx, user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateUser updates user information. The password hash is replaced only when set.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = ?, email = ?, avatar = ?, updated_at = ?
		WHERE id = ?
	`
	args := []any{user.Name, user.Email, user.Avatar, user.UpdatedAt, user.ID}

	if user.PasswordHash != "" {
		query = `
			UPDATE users
			SET name = ?, email = ?, avatar = ?, updated_at = ?, password_hash = ?
			WHERE id = ?
		`
		args = []any{user.Name, user.Email, user.Avatar, user.UpdatedAt, user.PasswordHash, user.ID}
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// DeleteUser deletes user by ID
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	query := s.db.Rebind(`DELETE FROM users WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
