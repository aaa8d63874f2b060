package api

import "time"

// BookRequest тело POST и PUT /api/books. При обновлении отсутствующие поля не меняются.
type BookRequest struct {
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	Publisher   *string `json:"publisher,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Description *string `json:"description,omitempty"`
	Genre       *string `json:"genre,omitempty"`
}

// BookData публичное представление книги
type BookData struct {
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Publisher   string    `json:"publisher"`
	Description string    `json:"description"`
	Genre       string    `json:"genre"`
	Year        int       `json:"year"`
}

// BookResponse ответ с одной книгой
type BookResponse struct {
	Data    *BookData `json:"data"`
	Success bool      `json:"success"`
}

// BookListResponse страница каталога
type BookListResponse struct {
	Data       []*BookData `json:"data"`
	Pagination Pagination  `json:"pagination"`
	Success    bool        `json:"success"`
}

// Pagination метаданные страницы
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalData   int `json:"totalData"`
}
