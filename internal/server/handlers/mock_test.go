package handlers

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users map[string]*models.User // id -> User
	mu    sync.Mutex
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u.Sanitized(), nil
}

func (m *mockUserStorage) UpdateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	if cp.PasswordHash == "" {
		cp.PasswordHash = existing.PasswordHash
	}
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserStorage) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// mockBookStorage is a mock implementation of BookStorage for testing
type mockBookStorage struct {
	books     map[string]*models.Book
	listError error
	lastQuery storage.BookQuery
}

func newMockBookStorage() *mockBookStorage {
	return &mockBookStorage{books: make(map[string]*models.Book)}
}

func (m *mockBookStorage) CreateBook(ctx context.Context, book *models.Book) error {
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *mockBookStorage) GetBook(ctx context.Context, id string) (*models.Book, error) {
	b, ok := m.books[id]
	if !ok {
		return nil, storage.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBookStorage) ListBooks(ctx context.Context, q storage.BookQuery) ([]*models.Book, int, error) {
	m.lastQuery = q
	if m.listError != nil {
		return nil, 0, m.listError
	}

	all := make([]*models.Book, 0, len(m.books))
	for _, b := range m.books {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })

	start := min(q.Page.Offset(), len(all))
	end := min(start+q.Page.Limit(), len(all))
	return all[start:end], len(all), nil
}

func (m *mockBookStorage) UpdateBook(ctx context.Context, book *models.Book) error {
	if _, ok := m.books[book.ID]; !ok {
		return storage.ErrBookNotFound
	}
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *mockBookStorage) DeleteBook(ctx context.Context, id string) error {
	if _, ok := m.books[id]; !ok {
		return storage.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}
