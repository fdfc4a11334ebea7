// Package store keeps the authoritative record collection of one module
// together with its current query selection and fetch state.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
)

var (
	ErrRecordExists   = errors.New("record already exists")
	ErrRecordNotFound = errors.New("record not found")
)

// FetchError wraps a failed or timed out data source call.
type FetchError struct {
	Module string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Module, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Ticket identifies one fetch. Only the most recently issued ticket may
// complete.
type Ticket struct {
	seq        uint64
	Descriptor query.Descriptor
}

// State is a consistent copy of the store's bookkeeping.
type State[T any] struct {
	Selection  query.Descriptor
	LastResult *query.PageResult[T]
	Loading    bool
	Err        error
	Revision   uint64
	Len        int
}

// Store is safe for concurrent use. Record slices are never modified in
// place, so readers can work on a snapshot without holding the lock.
type Store[T record.Record] struct {
	engine *query.Engine[T]

	mu        sync.RWMutex
	records   []T
	selection query.Descriptor
	revision  uint64
	seq       uint64
	loading   bool
	err       error
	last      *query.PageResult[T]
}

func New[T record.Record](engine *query.Engine[T]) *Store[T] {
	return &Store[T]{
		engine:    engine,
		records:   []T{},
		selection: engine.Config().Default(),
	}
}

func (s *Store[T]) Module() string {
	return s.engine.Config().Name
}

func (s *Store[T]) Engine() *query.Engine[T] {
	return s.engine
}

// ReplaceRecords swaps the whole collection.
func (s *Store[T]) ReplaceRecords(records []T) {
	next := slices.Clone(records)
	if next == nil {
		next = []T{}
	}

	s.mu.Lock()
	s.records = next
	s.revision++
	s.mu.Unlock()
}

// Records returns a copy of the collection in insertion order.
func (s *Store[T]) Records() []T {
	return slices.Clone(s.snapshot())
}

func (s *Store[T]) snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	var zero T
	return zero, false
}

// Revision changes whenever the collection changes.
func (s *Store[T]) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store[T]) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r T) bool { return r.RecordID() == id })
}

func (s *Store[T]) Add(rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rec.RecordID()) >= 0 {
		return fmt.Errorf("%w: %s/%s", ErrRecordExists, s.Module(), rec.RecordID())
	}
	next := make([]T, len(s.records), len(s.records)+1)
	copy(next, s.records)
	s.records = append(next, rec)
	s.revision++
	return nil
}

// Update replaces the record with the given id by patch(current). An unknown
// id is reported as ErrRecordNotFound and nothing changes.
func (s *Store[T]) Update(id string, patch func(T) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	i := s.indexOf(id)
	if i < 0 {
		return zero, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, s.Module(), id)
	}
	updated, err := patch(s.records[i])
	if err != nil {
		return zero, err
	}
	if updated.RecordID() != id {
		return zero, fmt.Errorf("%w: id", record.ErrImmutable)
	}

	next := slices.Clone(s.records)
	next[i] = updated
	s.records = next
	s.revision++
	return updated, nil
}

// Remove deletes the record with the given id. An unknown id is reported as
// ErrRecordNotFound and nothing changes.
func (s *Store[T]) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrRecordNotFound, s.Module(), id)
	}
	next := make([]T, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	s.records = append(next, s.records[i+1:]...)
	s.revision++
	return nil
}

func (s *Store[T]) Selection() query.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Clone()
}

// SetSelection replaces the whole selection. The module cannot change.
func (s *Store[T]) SetSelection(d query.Descriptor) {
	s.modify(func(query.Descriptor) query.Descriptor { return d })
}

func (s *Store[T]) SetSearch(search string) {
	s.modify(func(d query.Descriptor) query.Descriptor { return d.WithSearch(search) })
}

// SetFilters merges partial into the current filters. It does not reset the
// page.
func (s *Store[T]) SetFilters(partial query.Filters) {
	s.modify(func(d query.Descriptor) query.Descriptor { return d.WithFilters(partial) })
}

func (s *Store[T]) ClearFilters() {
	s.modify(func(d query.Descriptor) query.Descriptor {
		d = d.Clone()
		d.Filters = nil
		d.DateRange = nil
		d.NumericRange = nil
		return d
	})
}

func (s *Store[T]) SetSort(field string, order query.SortOrder) {
	s.modify(func(d query.Descriptor) query.Descriptor { return d.WithSort(field, order) })
}

func (s *Store[T]) SetPage(page int, limit ...int) {
	s.modify(func(d query.Descriptor) query.Descriptor { return d.WithPage(page, limit...) })
}

func (s *Store[T]) modify(fn func(query.Descriptor) query.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.selection).Clone()
	next.Module = s.Module()
	s.selection = next
}

// View runs the current selection against the current records. It is
// recomputed on every call.
func (s *Store[T]) View() *query.Result[T] {
	s.mu.RLock()
	records, sel := s.records, s.selection.Clone()
	s.mu.RUnlock()
	return s.engine.Run(records, sel)
}

// Run executes d against the current records without touching the selection.
func (s *Store[T]) Run(d query.Descriptor) *query.Result[T] {
	return s.engine.Run(s.snapshot(), d)
}

// Select returns the records satisfying pred, in collection order.
func (s *Store[T]) Select(pred func(T) bool) []T {
	out := []T{}
	for _, r := range s.snapshot() {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store[T]) Count(pred func(T) bool) int {
	n := 0
	for _, r := range s.snapshot() {
		if pred(r) {
			n++
		}
	}
	return n
}

type Group[T any] struct {
	Key     string `json:"key"`
	Records []T    `json:"records"`
}

// GroupBy partitions the records by the text value of field, in order of
// first appearance. Records without a value are left out.
func (s *Store[T]) GroupBy(field string) []Group[T] {
	groups := []Group[T]{}
	index := make(map[string]int)
	for _, r := range s.snapshot() {
		key, ok := query.Text(s.engine.Value(r, field))
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group[T]{Key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// BeginFetch marks the store as loading and issues a ticket for the current
// selection. Any earlier ticket becomes stale.
func (s *Store[T]) BeginFetch() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.loading = true
	return Ticket{seq: s.seq, Descriptor: s.selection.Clone()}
}

// CompleteFetch records the outcome of the fetch identified by t and reports
// whether it was applied. Stale tickets are discarded. A failure is kept as
// a *FetchError and leaves the last good result in place.
func (s *Store[T]) CompleteFetch(t Ticket, page *query.PageResult[T], err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.seq != s.seq {
		return false
	}
	s.loading = false
	if err != nil {
		s.err = &FetchError{Module: s.Module(), Err: err}
		return true
	}
	s.err = nil
	s.last = page
	return true
}

func (s *Store[T]) LastResult() *query.PageResult[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State[T]{
		Selection:  s.selection.Clone(),
		LastResult: s.last,
		Loading:    s.loading,
		Err:        s.err,
		Revision:   s.revision,
		Len:        len(s.records),
	}
}
