package storage

import (
	"context"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/pagination"
)

// BookSortFields поля, по которым разрешена сортировка, и их колонки в БД
var BookSortFields = map[string]string{
	"title":     "title",
	"author":    "author",
	"publisher": "publisher",
	"year":      "year",
	"genre":     "genre",
	"createdAt": "created_at",
}

// BookFilter условия выборки книг. Пустые поля не ограничивают выборку.
type BookFilter struct {
	YearFrom *int
	YearTo   *int
	Keyword  string
	Genre    string
}

// BookSort порядок сортировки
type BookSort struct {
	Field string // ключ из BookSortFields
	Desc  bool
}

// BookQuery полный запрос списка книг
type BookQuery struct {
	Sort   BookSort
	Filter BookFilter
	Page   pagination.Params
}

// BookStorage defines interface for book catalog persistence
type BookStorage interface {
	// CreateBook stores a new book
	CreateBook(ctx context.Context, book *models.Book) error

	// GetBook retrieves a book by ID
	// Returns ErrBookNotFound if book doesn't exist
	GetBook(ctx context.Context, id string) (*models.Book, error)

	// ListBooks returns one page of books matching the query and the total number of matches
	ListBooks(ctx context.Context, q BookQuery) ([]*models.Book, int, error)

	// UpdateBook replaces all mutable fields of a book
	// Returns ErrBookNotFound if book doesn't exist
	UpdateBook(ctx context.Context, book *models.Book) error

	// DeleteBook deletes a book by ID
	// Returns ErrBookNotFound if book doesn't exist
	DeleteBook(ctx context.Context, id string) error
}
