// Package pagination splits ordered result sets into numbered pages and
// builds the compact page ranges shown by the network feed.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

// Ellipsis is rendered in place of elided page numbers.
const Ellipsis = "…"

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Paginator divides count items into pages of perPage items. There is always
// at least one page, even when count is zero.
type Paginator struct {
	count    int64
	perPage  int
	numPages int
}

// New returns a Paginator. perPage is clamped to 1..MaxPerPage.
func New(count int64, perPage int) *Paginator {
	perPage = ClampPerPage(perPage)
	if count < 0 {
		count = 0
	}
	numPages := int(math.Ceil(float64(count) / float64(perPage)))
	if numPages < 1 {
		numPages = 1
	}
	return &Paginator{count: count, perPage: perPage, numPages: numPages}
}

// ClampPerPage keeps a requested page size within 1..MaxPerPage; zero means default.
func ClampPerPage(perPage int) int {
	switch {
	case perPage == 0:
		return DefaultPerPage
	case perPage < 1:
		return 1
	case perPage > MaxPerPage:
		return MaxPerPage
	}
	return perPage
}

// ParsePerPage reads a per_page query value, falling back to the default.
func ParsePerPage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultPerPage
	}
	return ClampPerPage(n)
}

func (p *Paginator) Count() int64  { return p.count }
func (p *Paginator) PerPage() int  { return p.perPage }
func (p *Paginator) NumPages() int { return p.numPages }

// Page is one page of a Paginator.
type Page struct {
	Number    int
	paginator *Paginator
}

// GetPage resolves a raw page query value leniently: anything that is not an
// integer yields the first page and numbers outside the range yield the last.
func (p *Paginator) GetPage(raw string) Page {
	number, ok := parsePageNumber(raw)
	switch {
	case !ok:
		number = 1
	case number < 1 || number > p.numPages:
		number = p.numPages
	}
	return Page{Number: number, paginator: p}
}

func parsePageNumber(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Offset is the index of the first item on the page.
func (pg Page) Offset() int {
	return (pg.Number - 1) * pg.paginator.perPage
}

// Limit is the page size.
func (pg Page) Limit() int {
	return pg.paginator.perPage
}

func (pg Page) HasNext() bool {
	return pg.Number < pg.paginator.numPages
}

func (pg Page) HasPrevious() bool {
	return pg.Number > 1
}

// ElidedRange returns the page numbers around the current page with one
// neighbour on each side and no pinned end pages. Skipped runs collapse to
// a single ellipsis item.
func (pg Page) ElidedRange() []RangeItem {
	return ElidedRange(pg.Number, pg.paginator.numPages, 1, 0)
}

// ElidedRange builds a compact page range for page number out of numPages,
// keeping onEachSide neighbours around number and onEnds pages at each end.
func ElidedRange(number, numPages, onEachSide, onEnds int) []RangeItem {
	var out []RangeItem
	pages := func(from, to int) {
		for i := from; i <= to; i++ {
			out = append(out, RangeItem(i))
		}
	}

	if numPages <= (onEachSide+onEnds)*2 {
		pages(1, numPages)
		return out
	}

	if number > 1+onEachSide+onEnds+1 {
		pages(1, onEnds)
		out = append(out, EllipsisItem)
		pages(number-onEachSide, number)
	} else {
		pages(1, number)
	}

	if number < numPages-onEachSide-onEnds-1 {
		pages(number+1, number+onEachSide)
		out = append(out, EllipsisItem)
		pages(numPages-onEnds+1, numPages)
	} else {
		pages(number+1, numPages)
	}
	return out
}
