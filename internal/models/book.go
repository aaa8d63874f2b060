package models

import "time"

// DefaultGenre жанр книги, если он не указан
const DefaultGenre = "General"

// Book представляет книгу в каталоге
type Book struct {
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Publisher   string    `json:"publisher" db:"publisher"`
	Description string    `json:"description" db:"description"`
	Genre       string    `json:"genre" db:"genre"`
	Year        int       `json:"year" db:"year"`
}
