package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/pagination"
	"github.com/iudanet/bookshelf/internal/server/apierror"
	"github.com/iudanet/bookshelf/internal/server/storage"
	"github.com/iudanet/bookshelf/internal/validation"
	"github.com/iudanet/bookshelf/pkg/api"
)

const msgBookNotFound = "Book not found"

// BookHandler обрабатывает запросы каталога /api/books
type BookHandler struct {
	logger  *slog.Logger
	storage storage.BookStorage
	now     func() time.Time
}

// NewBookHandler создает новый handler каталога
func NewBookHandler(logger *slog.Logger, bookStorage storage.BookStorage) *BookHandler {
	return &BookHandler{
		logger:  logger,
		storage: bookStorage,
		now:     time.Now,
	}
}

// List обрабатывает GET /api/books
// Поддерживает keyword, genre, yearFrom, yearTo, sort, order, page, pageSize
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) error {
	query, err := parseBookQuery(r.URL.Query())
	if err != nil {
		return err
	}

	books, total, err := h.storage.ListBooks(r.Context(), query)
	if err != nil {
		return apierror.Internal(err)
	}

	data := make([]*api.BookData, 0, len(books))
	for _, b := range books {
		data = append(data, toBookData(b))
	}

	meta := query.Page.Meta(total)
	return sendJSON(w, http.StatusOK, api.BookListResponse{
		Success: true,
		Data:    data,
		Pagination: api.Pagination{
			CurrentPage: meta.CurrentPage,
			TotalPages:  meta.TotalPages,
			TotalData:   meta.TotalData,
		},
	})
}

// Get обрабатывает GET /api/books/{id}
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) error {
	book, err := h.loadBook(r)
	if err != nil {
		return err
	}

	return sendJSON(w, http.StatusOK, api.BookResponse{Success: true, Data: toBookData(book)})
}

// Create обрабатывает POST /api/books (требует аутентификации)
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var req api.BookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	now := h.now().UTC()
	book := &models.Book{
		ID:        uuid.New().String(),
		Genre:     models.DefaultGenre,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyBookRequest(book, req)

	if err := validation.ValidateBook(book, now); err != nil {
		return apierror.Validation(err.Error())
	}

	if err := h.storage.CreateBook(r.Context(), book); err != nil {
		return apierror.Internal(err)
	}

	h.logger.InfoContext(r.Context(), "book created", slog.String("book_id", book.ID))

	return sendJSON(w, http.StatusCreated, api.BookResponse{Success: true, Data: toBookData(book)})
}

// Update обрабатывает PUT /api/books/{id} (требует аутентификации)
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) error {
	book, err := h.loadBook(r)
	if err != nil {
		return err
	}

	var req api.BookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	now := h.now().UTC()
	applyBookRequest(book, req)
	book.UpdatedAt = now

	if err := validation.ValidateBook(book, now); err != nil {
		return apierror.Validation(err.Error())
	}

	if err := h.storage.UpdateBook(r.Context(), book); err != nil {
		if errors.Is(err, storage.ErrBookNotFound) {
			return apierror.NotFound(msgBookNotFound)
		}
		return apierror.Internal(err)
	}

	return sendJSON(w, http.StatusOK, api.BookResponse{Success: true, Data: toBookData(book)})
}

// Delete обрабатывает DELETE /api/books/{id} (требует аутентификации)
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return apierror.NotFound(msgBookNotFound)
	}

	if err := h.storage.DeleteBook(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrBookNotFound) {
			return apierror.NotFound(msgBookNotFound)
		}
		return apierror.Internal(err)
	}

	h.logger.InfoContext(r.Context(), "book deleted", slog.String("book_id", id))

	return sendJSON(w, http.StatusOK, api.MessageResponse{Success: true, Message: "Book deleted"})
}

func (h *BookHandler) loadBook(r *http.Request) (*models.Book, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, apierror.NotFound(msgBookNotFound)
	}

	book, err := h.storage.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrBookNotFound) {
			return nil, apierror.NotFound(msgBookNotFound)
		}
		return nil, apierror.Internal(err)
	}

	return book, nil
}

// parseBookQuery разбирает фильтры, сортировку и пагинацию из query string
func parseBookQuery(q url.Values) (storage.BookQuery, error) {
	page, err := pagination.FromQuery(q)
	if err != nil {
		return storage.BookQuery{}, apierror.Validation(err.Error())
	}

	filter := storage.BookFilter{
		Keyword: strings.TrimSpace(q.Get("keyword")),
		Genre:   strings.TrimSpace(q.Get("genre")),
	}

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"yearFrom", &filter.YearFrom},
		{"yearTo", &filter.YearTo},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return storage.BookQuery{}, apierror.Validationf("%s must be an integer", p.name)
		}
		*p.dst = &n
	}

	// по умолчанию сначала новые
	sort := storage.BookSort{Field: "createdAt", Desc: true}
	if field := q.Get("sort"); field != "" {
		if _, ok := storage.BookSortFields[field]; !ok {
			return storage.BookQuery{}, apierror.Validationf("cannot sort by %q", field)
		}
		sort = storage.BookSort{Field: field}
	}

	switch strings.ToLower(q.Get("order")) {
	case "":
	case "asc":
		sort.Desc = false
	case "desc":
		sort.Desc = true
	default:
		return storage.BookQuery{}, apierror.Validation("order must be asc or desc")
	}

	return storage.BookQuery{Filter: filter, Sort: sort, Page: page}, nil
}

// applyBookRequest переносит заданные поля запроса в книгу
func applyBookRequest(b *models.Book, req api.BookRequest) {
	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		b.Author = strings.TrimSpace(*req.Author)
	}
	if req.Publisher != nil {
		b.Publisher = strings.TrimSpace(*req.Publisher)
	}
	if req.Year != nil {
		b.Year = *req.Year
	}
	if req.Description != nil {
		b.Description = strings.TrimSpace(*req.Description)
	}
	if req.Genre != nil {
		b.Genre = strings.TrimSpace(*req.Genre)
		if b.Genre == "" {
			b.Genre = models.DefaultGenre
		}
	}
}

func toBookData(b *models.Book) *api.BookData {
	return &api.BookData{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Year:        b.Year,
		Description: b.Description,
		Genre:       b.Genre,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
