package listview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopadmin/internal/spreadsheet"
)

type customer struct {
	Name  string
	Email string
}

func customerConfig(perPage int) Config[customer] {
	return Config[customer]{
		PerPage:      perPage,
		SearchFields: func(c customer) []string { return []string{c.Name, c.Email} },
		Columns: []Column[customer]{
			{Header: "Name", Value: func(c customer) string { return c.Name }},
			{Header: "Email", Value: func(c customer) string { return c.Email }},
		},
	}
}

func makeCustomers(n int) []customer {
	out := make([]customer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, customer{
			Name:  fmt.Sprintf("Customer %02d", i),
			Email: fmt.Sprintf("customer%02d@example.com", i),
		})
	}
	return out
}

func TestFilterReturnsMatchingSubset(t *testing.T) {
	items := makeCustomers(20)
	fields := func(c customer) []string { return []string{c.Name, c.Email} }

	got := Filter(items, "Customer 1", fields)

	assert.NotEmpty(t, got)
	full := make(map[customer]bool, len(items))
	for _, it := range items {
		full[it] = true
	}
	for _, it := range got {
		assert.True(t, full[it], "filtered item must come from the full collection")
		matched := strings.Contains(strings.ToLower(it.Name), "customer 1") ||
			strings.Contains(strings.ToLower(it.Email), "customer 1")
		assert.True(t, matched, "every result must contain the query in a searchable field")
	}
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	items := []customer{{Name: "Alice"}, {Name: "BOB"}, {Name: "carol"}}
	fields := func(c customer) []string { return []string{c.Name} }

	assert.Len(t, Filter(items, "ALICE", fields), 1)
	assert.Len(t, Filter(items, "bob", fields), 1)
	assert.Len(t, Filter(items, "CaRoL", fields), 1)
}

func TestFilterVietnameseNames(t *testing.T) {
	items := []customer{
		{Name: "Nguyễn Văn A"},
		{Name: "Trần Thị B"},
		{Name: "Phạm Thanh Hà"},
		{Name: "Lê An"},
	}
	fields := func(c customer) []string { return []string{c.Name} }

	got := Filter(items, "an", fields)

	// "ă" and "ầ" are distinct runes from "a"; only plain "an" substrings match.
	require.Len(t, got, 2)
	assert.Equal(t, "Phạm Thanh Hà", got[0].Name)
	assert.Equal(t, "Lê An", got[1].Name)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 15), "empty collection still has one page")
	assert.Equal(t, 1, TotalPages(15, 15))
	assert.Equal(t, 2, TotalPages(16, 15))
	assert.Equal(t, 3, TotalPages(37, 15))
}

func TestApplyEmptyCollection(t *testing.T) {
	page := Apply(nil, Query{Search: "", Page: 3}, customerConfig(15))

	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.EqualValues(t, 0, page.Pagination.TotalItems)
}

func TestApplySearchMatchingNothing(t *testing.T) {
	page := Apply(makeCustomers(37), Query{Search: "no such customer", Page: 2}, customerConfig(15))

	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.EqualValues(t, 0, page.Pagination.TotalItems)
}

func TestControllerPageClamping(t *testing.T) {
	c := NewController(customerConfig(15))
	require.NoError(t, c.Load(context.Background(), func(context.Context) ([]customer, error) {
		return makeCustomers(37), nil
	}))

	c.SetCurrentPage(5)
	assert.Equal(t, 3, c.CurrentPage(), "37 items at 15 per page is 3 pages; page 5 clamps to 3")

	c.SetCurrentPage(-1)
	assert.Equal(t, 1, c.CurrentPage())

	c.SetCurrentPage(2)
	page := c.Snapshot()
	assert.Equal(t, 2, page.Pagination.CurrentPage)
	assert.Len(t, page.Items, 15)

	c.SetCurrentPage(3)
	page = c.Snapshot()
	assert.Len(t, page.Items, 7, "last page carries the remainder")
}

func TestSetSearchQueryResetsPage(t *testing.T) {
	c := NewController(customerConfig(15))
	require.NoError(t, c.Load(context.Background(), func(context.Context) ([]customer, error) {
		return makeCustomers(37), nil
	}))

	c.SetCurrentPage(3)
	require.Equal(t, 3, c.CurrentPage())

	c.SetSearchQuery("customer")
	assert.Equal(t, 1, c.CurrentPage())
}

func TestLoadFailureKeepsPreviousSnapshot(t *testing.T) {
	c := NewController(customerConfig(15))
	require.NoError(t, c.Load(context.Background(), func(context.Context) ([]customer, error) {
		return makeCustomers(5), nil
	}))

	err := c.Load(context.Background(), func(context.Context) ([]customer, error) {
		return nil, errors.New("backend unavailable")
	})

	require.Error(t, err)
	assert.EqualValues(t, 5, c.Snapshot().Pagination.TotalItems)
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	c := NewController(customerConfig(15))

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	// First-issued load resolves last.
	go func() {
		done <- c.Load(context.Background(), func(context.Context) ([]customer, error) {
			close(slowStarted)
			<-release
			return []customer{{Name: "stale"}}, nil
		})
	}()

	<-slowStarted
	require.NoError(t, c.Load(context.Background(), func(context.Context) ([]customer, error) {
		return []customer{{Name: "fresh one"}, {Name: "fresh two"}}, nil
	}))

	close(release)
	err := <-done

	assert.ErrorIs(t, err, ErrStaleLoad)
	page := c.Snapshot()
	require.EqualValues(t, 2, page.Pagination.TotalItems, "stale response must not overwrite the fresher one")
	assert.Equal(t, "fresh one", page.Items[0].Name)
}

func TestExportWritesAllFilteredRows(t *testing.T) {
	c := NewController(customerConfig(15))
	require.NoError(t, c.Load(context.Background(), func(context.Context) ([]customer, error) {
		return makeCustomers(37), nil
	}))
	c.SetCurrentPage(3) // export must ignore the visible page

	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf))

	table, err := spreadsheet.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, table.Headers)
	assert.Len(t, table.Rows, 37)

	// Filtered export only includes matching rows.
	c.SetSearchQuery("Customer 0")
	buf.Reset()
	require.NoError(t, c.Export(&buf))

	table, err = spreadsheet.Read(&buf)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 10)
}

func TestExportWithoutColumns(t *testing.T) {
	cfg := customerConfig(15)
	cfg.Columns = nil
	c := NewController(cfg)

	var buf bytes.Buffer
	err := c.Export(&buf)

	assert.ErrorIs(t, err, ErrExportUnavailable)
	assert.Zero(t, buf.Len())
}
