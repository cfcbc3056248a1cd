package pagination

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// DefaultLimit is the page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows a page can request.
	MaxLimit = 100
	// MaxPage keeps Offset within int for every allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Params holds page-based pagination inputs.
type Params struct {
	Page  int
	Limit int
}

// Page is one page of results with totals for the whole collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize returns p with a 1-based page and a bounded limit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Parse reads page and limit query values. Empty values use defaults.
func Parse(page, limit string) (Params, error) {
	var p Params
	if page != "" {
		v, err := strconv.Atoi(page)
		if err != nil || v < 1 {
			return Params{}, fmt.Errorf("invalid page %q", page)
		}
		if v > MaxPage {
			return Params{}, fmt.Errorf("page must be at most %d", MaxPage)
		}
		p.Page = v
	}
	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < 1 {
			return Params{}, fmt.Errorf("invalid limit %q", limit)
		}
		p.Limit = v
	}
	return p.Normalize(), nil
}

// NewPage wraps one page of items fetched with p out of total.
func NewPage[T any](items []T, p Params, total int) Page[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{Items: items, Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

// Slice pages through an in-memory collection.
func Slice[T any](all []T, p Params) Page[T] {
	p = p.Normalize()
	start := p.Offset()
	if start < 0 || start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return NewPage(all[start:end], p, len(all))
}
