package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the slice of a listing that was returned.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

// FromRequest reads page/limit query parameters, falling back to defaults.
func FromRequest(r *http.Request) Params {
	params := Params{Page: 1, Limit: DefaultLimit}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			params.Page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			params.Limit = v
		}
	}
	return params.Normalize()
}

// Normalize clamps page and limit into valid ranges.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset converts page/limit into a row offset.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Build assembles the page descriptor for a listing response.
func Build(params Params, totalRows int64) Page {
	n := params.Normalize()
	totalPages := int((totalRows + int64(n.Limit) - 1) / int64(n.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return Page{
		Page:       n.Page,
		Limit:      n.Limit,
		TotalRows:  totalRows,
		TotalPages: totalPages,
	}
}
