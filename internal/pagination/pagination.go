// Package pagination разбирает параметры постраничного вывода и считает метаданные.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage ограничивает номер страницы, чтобы (page-1)*pageSize не переполнялся
	MaxPage         = 1_000_000
)

// Params номер страницы (с 1) и ее размер
type Params struct {
	Page     int
	PageSize int
}

// Meta метаданные страницы в ответе API
type Meta struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalData   int `json:"totalData"`
}

// FromQuery читает page и pageSize из query string.
// Отсутствующие значения заменяются значениями по умолчанию.
func FromQuery(q url.Values) (Params, error) {
	p := Params{Page: DefaultPage, PageSize: DefaultPageSize}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, fmt.Errorf("page must be a positive integer")
		}
		if n > MaxPage {
			return Params{}, fmt.Errorf("page must not exceed %d", MaxPage)
		}
		p.Page = n
	}

	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, fmt.Errorf("pageSize must be a positive integer")
		}
		p.PageSize = min(n, MaxPageSize)
	}

	return p, nil
}

// Offset количество записей, которые нужно пропустить
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit размер страницы
func (p Params) Limit() int {
	return p.PageSize
}

// Meta считает метаданные для общего количества записей total
func (p Params) Meta(total int) Meta {
	pages := 0
	if p.PageSize > 0 {
		pages = (total + p.PageSize - 1) / p.PageSize
	}
	return Meta{
		CurrentPage: p.Page,
		TotalPages:  pages,
		TotalData:   total,
	}
}
