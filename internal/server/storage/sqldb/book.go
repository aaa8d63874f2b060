package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

const bookColumns = `id, title, author, publisher, year, description, genre, created_at, updated_at`

// CreateBook stores a new book
func (s *Storage) CreateBook(ctx context.Context, book *models.Book) error {
	query := s.db.Rebind(`
		INSERT INTO books (` + bookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Publisher,
		book.Year,
		book.Description,
		book.Genre,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	return nil
}

// GetBook retrieves a book by ID
func (s *Storage) GetBook(ctx context.Context, id string) (*models.Book, error) {
	query := s.db.Rebind(`SELECT ` + bookColumns + ` FROM books WHERE id = ?`)

	book := &models.Book{}
	if err := s.db.GetContext(ctx, book, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return book, nil
}

// ListBooks returns one page of books and the total count of matches
func (s *Storage) ListBooks(ctx context.Context, q storage.BookQuery) ([]*models.Book, int, error) {
	where, args := buildBookFilter(q.Filter)

	var total int
	countQuery := s.db.Rebind(`SELECT COUNT(*) FROM books` + where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	column, ok := storage.BookSortFields[q.Sort.Field]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if q.Sort.Desc {
		direction = "DESC"
	}

	listQuery := s.db.Rebind(`SELECT ` + bookColumns + ` FROM books` + where +
		` ORDER BY ` + column + ` ` + direction + `, id ASC LIMIT ? OFFSET ?`)

	books := []*models.Book{}
	listArgs := append(args, q.Page.Limit(), q.Page.Offset())
	if err := s.db.SelectContext(ctx, &books, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}

	return books, total, nil
}

// buildBookFilter собирает WHERE из фильтра; значения передаются только через аргументы
func buildBookFilter(f storage.BookFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		pattern := "%" + escapeLike(strings.ToLower(kw)) + "%"
		conds = append(conds,
			`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\' OR LOWER(publisher) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	if genre := strings.TrimSpace(f.Genre); genre != "" {
		conds = append(conds, `LOWER(genre) = ?`)
		args = append(args, strings.ToLower(genre))
	}

	if f.YearFrom != nil {
		conds = append(conds, `year >= ?`)
		args = append(args, *f.YearFrom)
	}
	if f.YearTo != nil {
		conds = append(conds, `year <= ?`)
		args = append(args, *f.YearTo)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// UpdateBook replaces all mutable fields of a book
func (s *Storage) UpdateBook(ctx context.Context, book *models.Book) error {
	query := s.db.Rebind(`
		UPDATE books
		SET title = ?, author = ?, publisher = ?, year = ?, description = ?, genre = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := s.db.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.Publisher,
		book.Year,
		book.Description,
		book.Genre,
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrBookNotFound
	}

	return nil
}

// DeleteBook deletes a book by ID
func (s *Storage) DeleteBook(ctx context.Context, id string) error {
	query := s.db.Rebind(`DELETE FROM books WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrBookNotFound
	}

	return nil
}
