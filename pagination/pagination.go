/*
Package pagination maps on-screen rows of a paged list to indexes in the
full list.

PURPOSE:
  Every list the shell shows (contracts, clients, invoices, treatments,
  history, accounts) is cut into pages of a fixed size. A Paginator keeps
  the current page for one list; a Set keeps one Paginator per list so
  their states never mix.

FORMULAS:
  totalPages  = 1 when total == 0, else ceil(total / rowsPerPage)
  globalIndex = (page-1) * rowsPerPage + rowOnPage
  valid       = 0 <= globalIndex < total

USAGE:
  p := pagination.New(8)
  p.SetTotal(25)         // 4 pages
  p.Next()               // page 2
  i := p.GlobalIndex(3)  // 11

SEE ALSO:
  - api/handlers.go: Window and Page for list endpoints
*/
package pagination

import (
	"fmt"
	"sync"
)

const (
	DefaultRowsPerPage = 8
	MaxRowsPerPage     = 100
)

// Paginator is the page state of one list. The zero value is not usable;
// call New.
type Paginator struct {
	rowsPerPage int
	page        int
	total       int
}

// New returns a paginator on page 1. A non-positive rowsPerPage falls back
// to DefaultRowsPerPage.
func New(rowsPerPage int) *Paginator {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	return &Paginator{rowsPerPage: rowsPerPage, page: 1}
}

func (p *Paginator) RowsPerPage() int { return p.rowsPerPage }
func (p *Paginator) Page() int        { return p.page }
func (p *Paginator) Total() int       { return p.total }

// SetTotal updates the row count. The current page is pulled back when the
// list shrank below it.
func (p *Paginator) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	if last := p.TotalPages(); p.page > last {
		p.page = last
	}
}

func (p *Paginator) TotalPages() int {
	return TotalPages(p.total, p.rowsPerPage)
}

func (p *Paginator) IsFirst() bool { return p.page == 1 }
func (p *Paginator) IsLast() bool  { return p.page >= p.TotalPages() }

// Next moves one page forward. It returns false, leaving the page
// unchanged, on the last page.
func (p *Paginator) Next() bool {
	if p.page < p.TotalPages() {
		p.page++
		return true
	}
	return false
}

// Prev moves one page back. It returns false on the first page.
func (p *Paginator) Prev() bool {
	if p.page > 1 {
		p.page--
		return true
	}
	return false
}

// Goto jumps to page (1-based) when it exists.
func (p *Paginator) Goto(page int) bool {
	if page >= 1 && page <= p.TotalPages() {
		p.page = page
		return true
	}
	return false
}

// GlobalIndex converts a 0-based row on the current page to a 0-based
// index in the full list.
func (p *Paginator) GlobalIndex(rowOnPage int) int {
	return GlobalIndex(p.page, p.rowsPerPage, rowOnPage)
}

// IsValid reports whether index addresses a row of the list.
func (p *Paginator) IsValid(index int) bool {
	return index >= 0 && index < p.total
}

// Reset returns to page 1 with no rows.
func (p *Paginator) Reset() {
	p.page = 1
	p.total = 0
}

// Bounds returns the [start, end) slice bounds of the current page.
func (p *Paginator) Bounds() (start, end int) {
	start = min((p.page-1)*p.rowsPerPage, p.total)
	end = min(start+p.rowsPerPage, p.total)
	return start, end
}

func (p *Paginator) String() string {
	return fmt.Sprintf("page %d/%d | %d rows/page | %d rows", p.page, p.TotalPages(), p.rowsPerPage, p.total)
}

// =============================================================================
// STATELESS HELPERS
// =============================================================================

func TotalPages(total, rowsPerPage int) int {
	if total <= 0 || rowsPerPage <= 0 {
		return 1
	}
	return (total-1)/rowsPerPage + 1
}

func GlobalIndex(page, rowsPerPage, rowOnPage int) int {
	return (page-1)*rowsPerPage + rowOnPage
}

// RowNumber converts the flat cell index reported by a table widget into
// its 0-based row.
func RowNumber(cellIndex, numColumns int) int {
	if numColumns <= 0 {
		return 0
	}
	return cellIndex / numColumns
}

// =============================================================================
// SET - Independent paginators by list name
// =============================================================================

// Set holds one Paginator per named list. Safe for concurrent use; the
// Paginators it returns are not.
type Set struct {
	mu          sync.Mutex
	rowsPerPage int
	lists       map[string]*Paginator
}

func NewSet(rowsPerPage int) *Set {
	return &Set{rowsPerPage: rowsPerPage, lists: make(map[string]*Paginator)}
}

// Get returns the named list's paginator, creating it on first use.
func (s *Set) Get(name string) *Paginator {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lists[name]
	if !ok {
		p = New(s.rowsPerPage)
		s.lists[name] = p
	}
	return p
}

// ResetAll resets every list, e.g. after a refresh of the whole screen.
func (s *Set) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.lists {
		p.Reset()
	}
}

// =============================================================================
// WINDOW - One page of an in-memory list
// =============================================================================

// Page is one window of a list with its position.
type Page[T any] struct {
	Items       []T `json:"items"`
	Page        int `json:"page"`
	RowsPerPage int `json:"rows_per_page"`
	TotalRows   int `json:"total_rows"`
	TotalPages  int `json:"total_pages"`
}

// Window cuts page (1-based) out of items. Out-of-range pages are clamped
// to the first or last page and rowsPerPage to [1, MaxRowsPerPage].
func Window[T any](items []T, page, rowsPerPage int) Page[T] {
	if rowsPerPage > MaxRowsPerPage {
		rowsPerPage = MaxRowsPerPage
	}
	p := New(rowsPerPage)
	p.SetTotal(len(items))
	if !p.Goto(page) && page > 1 {
		p.Goto(p.TotalPages())
	}
	start, end := p.Bounds()
	window := make([]T, end-start)
	copy(window, items[start:end])
	return Page[T]{
		Items:       window,
		Page:        p.Page(),
		RowsPerPage: p.RowsPerPage(),
		TotalRows:   p.Total(),
		TotalPages:  p.TotalPages(),
	}
}
