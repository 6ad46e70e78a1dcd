package view

import (
	"context"
	"sync"

	"github.com/evcraddock/homenest/internal/client"
	"github.com/evcraddock/homenest/internal/property"
)

// PropertyLister fetches one page of listings.
type PropertyLister interface {
	ListProperties(ctx context.Context, opts client.ListOptions) (*client.PropertyList, error)
}

// ListState is a snapshot of a ListPage.
type ListState struct {
	Options client.ListOptions
	Loading bool
	Err     error
	Items   []*property.Property
	Total   int
}

// ListPage is the browse screen: a query and its latest committed result.
// A failed refresh keeps the previous items.
type ListPage struct {
	guard Guard

	mu    sync.Mutex
	state ListState
}

// NewListPage creates a page with the default ordering.
func NewListPage(opts client.ListOptions) *ListPage {
	if opts.Sort == "" {
		opts.Sort = property.DefaultSort
	}
	return &ListPage{state: ListState{Options: opts}}
}

// State returns a snapshot of the page.
func (lp *ListPage) State() ListState {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.state
}

// SetSearch changes the search text and resets to the first page.
func (lp *ListPage) SetSearch(s string) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.state.Options.Search = s
	lp.state.Options.Page = 0
}

// SetSort changes the ordering and resets to the first page.
func (lp *ListPage) SetSort(k property.SortKey) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.state.Options.Sort = k
	lp.state.Options.Page = 0
}

// SetPage moves to page n.
func (lp *ListPage) SetPage(n int) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.state.Options.Page = n
}

// Refresh fetches the current query. It reports whether this call's result
// was committed; a result superseded by a later Refresh is dropped.
func (lp *ListPage) Refresh(ctx context.Context, lister PropertyLister) (bool, error) {
	t := lp.guard.Begin()

	lp.mu.Lock()
	lp.state.Loading = true
	opts := lp.state.Options
	lp.mu.Unlock()

	list, err := lister.ListProperties(ctx, opts)

	committed := lp.guard.Commit(t, func() {
		lp.mu.Lock()
		defer lp.mu.Unlock()
		lp.state.Loading = false
		lp.state.Err = err
		if err == nil {
			lp.state.Items = list.Items
			lp.state.Total = list.Total
		}
	})
	return committed, err
}
