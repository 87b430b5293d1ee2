// Package listview implements the fetch + filter + paginate + export state
// engine shared by every admin collection page. It is parameterized over the
// entity type; each page instantiates it with its own searchable fields,
// export columns and page size.
package listview

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"shopadmin/internal/spreadsheet"
	"shopadmin/pkg/response"
)

// DefaultPerPage is used when a Config does not pin its own page size.
const DefaultPerPage = 15

var (
	// ErrStaleLoad reports that a load finished after a newer one was
	// issued; its result was discarded.
	ErrStaleLoad = errors.New("listview: stale load discarded")
	// ErrExportUnavailable reports that no export columns are configured
	// for this collection.
	ErrExportUnavailable = errors.New("listview: export not available")
)

// Column describes one export column for the entity.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Config pins the per-entity capabilities of a list view.
type Config[T any] struct {
	// SearchFields returns the fields matched by the search filter.
	SearchFields func(T) []string
	// Columns drive spreadsheet export; empty means export is unavailable.
	Columns []Column[T]
	// PerPage is the fixed page size for this entity.
	PerPage int
}

func (c Config[T]) perPage() int {
	if c.PerPage <= 0 {
		return DefaultPerPage
	}
	return c.PerPage
}

// Query is the client-controlled list state.
type Query struct {
	Search string
	Page   int
}

// Page is one derived view over a collection.
type Page[T any] struct {
	Items      []T
	Pagination response.Pagination
}

// Filter returns the subsequence of items whose searchable fields contain
// search as a case-insensitive substring. An empty search matches everything.
func Filter[T any](items []T, search string, fields func(T) []string) []T {
	if search == "" || fields == nil {
		return items
	}
	needle := strings.ToLower(search)

	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// TotalPages computes the page count; never less than 1.
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// ClampPage forces page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Apply derives the visible slice for a query. Empty results still report
// page 1 of 1 so pagination controls never divide by zero.
func Apply[T any](items []T, q Query, cfg Config[T]) Page[T] {
	perPage := cfg.perPage()

	filtered := Filter(items, q.Search, cfg.SearchFields)
	totalPages := TotalPages(len(filtered), perPage)
	page := ClampPage(q.Page, totalPages)

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page[T]{
		Items: filtered[start:end],
		Pagination: response.Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  int64(len(filtered)),
			Limit:       perPage,
		},
	}
}

// Controller owns the list state for one collection instance: the fetched
// snapshot, the search query and the current page. Each instance is owned by
// a single page; concurrent reloads are serialized by sequence number so a
// slow early response can never overwrite a fresher one.
type Controller[T any] struct {
	cfg Config[T]

	mu     sync.Mutex
	items  []T
	search string
	page   int
	seq    uint64 // sequence number of the latest issued load
}

// NewController builds an empty controller for cfg.
func NewController[T any](cfg Config[T]) *Controller[T] {
	return &Controller[T]{cfg: cfg, page: 1}
}

// Load fetches a fresh snapshot. The call is tagged with a monotonic
// sequence number when issued; if a newer load was issued before this one
// resolved, the result is discarded and ErrStaleLoad returned. A failed
// fetch leaves the previous snapshot intact.
func (c *Controller[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	items, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return ErrStaleLoad
	}
	if err != nil {
		return err
	}

	c.items = items
	c.page = ClampPage(c.page, TotalPages(len(c.filteredLocked()), c.cfg.perPage()))
	return nil
}

// SetSearchQuery replaces the filter text and resets to page 1.
func (c *Controller[T]) SetSearchQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = q
	c.page = 1
}

// SetCurrentPage clamps the requested page into the valid range.
func (c *Controller[T]) SetCurrentPage(p int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := TotalPages(len(c.filteredLocked()), c.cfg.perPage())
	c.page = ClampPage(p, total)
}

// SearchQuery returns the active filter text.
func (c *Controller[T]) SearchQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// CurrentPage returns the active page number.
func (c *Controller[T]) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Snapshot derives the currently visible page.
func (c *Controller[T]) Snapshot() Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Apply(c.items, Query{Search: c.search, Page: c.page}, c.cfg)
}

// Export writes every filtered item (not just the visible page) as an xlsx
// workbook. Collections without configured columns report
// ErrExportUnavailable instead of silently writing nothing.
func (c *Controller[T]) Export(w io.Writer) error {
	c.mu.Lock()
	filtered := c.filteredLocked()
	cols := c.cfg.Columns
	c.mu.Unlock()

	return Export(w, filtered, cols)
}

func (c *Controller[T]) filteredLocked() []T {
	return Filter(c.items, c.search, c.cfg.SearchFields)
}

// Export serializes items using cols into an xlsx workbook on w.
func Export[T any](w io.Writer, items []T, cols []Column[T]) error {
	if len(cols) == 0 {
		return ErrExportUnavailable
	}

	headers := make([]string, len(cols))
	for i, col := range cols {
		headers[i] = col.Header
	}

	rows := make([][]string, len(items))
	for i, it := range items {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = col.Value(it)
		}
		rows[i] = row
	}

	return spreadsheet.WriteTo(w, headers, rows)
}
