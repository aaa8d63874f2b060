package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iudanet/bookshelf/internal/models"
)

// MinBookYear самый ранний год издания, который принимает каталог
const MinBookYear = 2000

// ValidateBook проверяет поля книги. now задает текущий год для верхней границы.
func ValidateBook(b *models.Book, now time.Time) error {
	if err := lengthBetween("title", b.Title, 3, 100); err != nil {
		return err
	}
	if err := lengthBetween("author", b.Author, 3, 50); err != nil {
		return err
	}
	if err := lengthBetween("publisher", b.Publisher, 3, 50); err != nil {
		return err
	}

	if b.Year < MinBookYear || b.Year > now.Year() {
		return fmt.Errorf("year must be between %d and %d", MinBookYear, now.Year())
	}

	if utf8.RuneCountInString(b.Description) > 2000 {
		return fmt.Errorf("description must not exceed 2000 characters")
	}
	if utf8.RuneCountInString(b.Genre) > 50 {
		return fmt.Errorf("genre must not exceed 50 characters")
	}

	return nil
}

func lengthBetween(field, value string, minLen, maxLen int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}

	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		return fmt.Errorf("%s must be between %d and %d characters", field, minLen, maxLen)
	}

	return nil
}
