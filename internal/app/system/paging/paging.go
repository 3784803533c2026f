// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by paged list endpoints.
const PageSize = 50

// MaxPageSize caps the "limit" query parameter.
const MaxPageSize = 200

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseLimit extracts the "limit" query parameter, falling back to def and
// clamping to MaxPageSize.
func ParseLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || n < 1 {
		return def
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Skip returns the number of documents to skip for page at size.
func Skip(page, size int) int64 {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = PageSize
	}
	return int64((page - 1) * size)
}

// Info describes one page of a paged list in API responses.
type Info struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewInfo computes page metadata for total matching rows.
func NewInfo(page, size int, total int64) Info {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = PageSize
	}
	pages := int((total + int64(size) - 1) / int64(size))
	return Info{Page: page, PageSize: size, Total: total, TotalPages: pages}
}
