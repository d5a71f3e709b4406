package repository

import "math"

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// maxPageNumber keeps Number*Size within a 32-bit OFFSET.
	maxPageNumber = math.MaxInt32 / maxPageSize
)

// Page is a zero-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Number > maxPageNumber {
		p.Number = maxPageNumber
	}
	if p.Size <= 0 || p.Size > maxPageSize {
		p.Size = defaultPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return n.Number * n.Size
}

func (p Page) Limit() int {
	return p.Normalize().Size
}
