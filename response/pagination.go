package response

import (
	"net/http"
	"strconv"
)

const (
	DefaultPaginationLimit = 50
	MaxPaginationLimit     = 500
)

// Pagination selects a window of a listing. Total is the size of the whole
// listing and is filled in by Paginate.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

func NewPagination(offset, limit, total int) Pagination {
	return Pagination{
		Offset: max(offset, 0),
		Limit:  min(limit, MaxPaginationLimit),
		Total:  total,
	}
}

// NewPaginationFromRequest reads the offset and limit query parameters.
// Bad values fall back to the first page of DefaultPaginationLimit items.
func NewPaginationFromRequest(r *http.Request) Pagination {
	params := r.URL.Query()
	return NewPagination(
		queryInt(params.Get("offset"), 0, 0),
		queryInt(params.Get("limit"), DefaultPaginationLimit, 1),
		0)
}

// Next returns the page following p, or false when p is the last one.
func (p Pagination) Next() (Pagination, bool) {
	if p.Limit <= 0 || p.Offset+p.Limit >= p.Total {
		return p, false
	}
	return NewPagination(p.Offset+p.Limit, p.Limit, p.Total), true
}

func queryInt(raw string, fallback, least int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < least {
		return fallback
	}
	return v
}
