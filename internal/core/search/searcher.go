package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/registry"
	"github.com/baseplate/backoffice/internal/core/store"
	"github.com/baseplate/backoffice/internal/logging"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultTimeout  = 15 * time.Second
)

var (
	// ErrSuperseded is returned by a fetch whose result was dropped because a
	// newer fetch was started meanwhile.
	ErrSuperseded  = errors.New("superseded by a newer search")
	ErrWrongModule = errors.New("descriptor targets another module")
)

// Fetcher is a data source for one module.
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, d query.Descriptor) (*query.PageResult[T], error)
}

type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
}

// Searcher drives a module store from user input. Every change is checked
// against the registry before it reaches the store, so an invalid request
// never alters the selection. Text input is debounced; filter, sort and page
// changes fetch immediately. Only the newest fetch may update the store.
type Searcher[T record.Record] struct {
	registry *registry.Registry
	store    *store.Store[T]
	fetcher  Fetcher[T]
	debounce *Debouncer
	timeout  time.Duration
	log      *logging.Logger

	base     context.Context
	shutdown context.CancelFunc

	mu       sync.Mutex
	inflight context.CancelFunc
}

func NewSearcher[T record.Record](reg *registry.Registry, st *store.Store[T], fetcher Fetcher[T], opts Options) *Searcher[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	base, shutdown := context.WithCancel(context.Background())
	return &Searcher[T]{
		registry: reg,
		store:    st,
		fetcher:  fetcher,
		debounce: NewDebouncer(opts.Debounce),
		timeout:  opts.Timeout,
		log:      logging.For("search." + st.Module()),
		base:     base,
		shutdown: shutdown,
	}
}

// Debounce is the quiet period SetQuery waits for before fetching.
func (s *Searcher[T]) Debounce() time.Duration {
	return s.debounce.Delay()
}

// Search validates d, makes it the current selection and fetches it. An
// empty module means the searcher's own module.
func (s *Searcher[T]) Search(ctx context.Context, d query.Descriptor) error {
	if d.Module == "" {
		d.Module = s.store.Module()
	}
	if err := s.registry.Validate(d); err != nil {
		return err
	}
	if d.Module != s.store.Module() {
		return fmt.Errorf("%w: %s searcher got %s", ErrWrongModule, s.store.Module(), d.Module)
	}

	s.debounce.Cancel()
	s.store.SetSelection(d)
	return s.fetch(ctx)
}

// SetQuery updates the search text right away and fetches once typing has
// paused.
func (s *Searcher[T]) SetQuery(text string) {
	s.store.SetSearch(text)
	s.debounce.Schedule(func() {
		if err := s.fetch(s.base); err != nil && !errors.Is(err, ErrSuperseded) {
			s.log.Warnf("debounced search failed: %v", err)
		}
	})
}

func (s *Searcher[T]) SetFilters(ctx context.Context, partial query.Filters) error {
	return s.apply(ctx, func(d query.Descriptor) query.Descriptor { return d.WithFilters(partial) })
}

func (s *Searcher[T]) SetSorting(ctx context.Context, field string, order query.SortOrder) error {
	return s.apply(ctx, func(d query.Descriptor) query.Descriptor { return d.WithSort(field, order) })
}

func (s *Searcher[T]) SetPagination(ctx context.Context, page int, limit ...int) error {
	return s.apply(ctx, func(d query.Descriptor) query.Descriptor { return d.WithPage(page, limit...) })
}

// ClearSearch drops the search text, filters and ranges and returns to the
// first page. Sorting and page size are kept.
func (s *Searcher[T]) ClearSearch(ctx context.Context) error {
	s.debounce.Cancel()
	return s.apply(ctx, func(d query.Descriptor) query.Descriptor {
		d = d.Clone()
		d.Search = ""
		d.Filters = nil
		d.DateRange = nil
		d.NumericRange = nil
		d.Page = 1
		return d
	})
}

// Refresh fetches the current selection again. It is the only retry; failed
// fetches are never retried automatically.
func (s *Searcher[T]) Refresh(ctx context.Context) error {
	s.debounce.Cancel()
	return s.fetch(ctx)
}

func (s *Searcher[T]) apply(ctx context.Context, change func(query.Descriptor) query.Descriptor) error {
	next := change(s.store.Selection())
	if err := s.registry.Validate(next); err != nil {
		return err
	}
	s.store.SetSelection(next)
	return s.fetch(ctx)
}

func (s *Searcher[T]) fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.inflight != nil {
		s.inflight()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	s.inflight = cancel
	ticket := s.store.BeginFetch()
	s.mu.Unlock()
	defer cancel()

	page, err := s.fetcher.FetchPage(ctx, ticket.Descriptor)
	if !s.store.CompleteFetch(ticket, page, err) {
		s.log.Debugf("dropped stale result for page %d", ticket.Descriptor.Page)
		return ErrSuperseded
	}
	if err != nil {
		s.log.Errorf("fetch failed: %v", err)
		return s.store.Err()
	}
	s.log.Debugf("fetched page %d/%d (%d total)", page.Page, page.TotalPages, page.Total)
	return nil
}

// Close stops pending debounced searches and cancels the in-flight fetch.
func (s *Searcher[T]) Close() {
	s.debounce.Stop()
	s.shutdown()
	s.mu.Lock()
	if s.inflight != nil {
		s.inflight()
	}
	s.mu.Unlock()
}

func (s *Searcher[T]) SearchState() query.Descriptor {
	return s.store.Selection()
}

func (s *Searcher[T]) SearchResult() *query.PageResult[T] {
	return s.store.LastResult()
}

func (s *Searcher[T]) IsLoading() bool {
	return s.store.Loading()
}

func (s *Searcher[T]) Error() error {
	return s.store.Err()
}

func (s *Searcher[T]) HasResults() bool {
	r := s.store.LastResult()
	return r != nil && len(r.Data) > 0
}

func (s *Searcher[T]) TotalResults() int {
	if r := s.store.LastResult(); r != nil {
		return r.Total
	}
	return 0
}
