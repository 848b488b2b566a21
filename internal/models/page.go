package models

import "math"

const (
	DefaultPerPage = 10
	MaxPerPage     = 50

	// MaxPage keeps Offset from overflowing. Pages past it are simply empty.
	MaxPage = math.MaxInt / MaxPerPage
)

// Page is a 1-based limit/offset window
type Page struct {
	Page    int
	PerPage int
}

// NewPage clamps page to [1, MaxPage] and per_page to [1, MaxPerPage].
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func (p Page) Limit() int {
	return p.PerPage
}
