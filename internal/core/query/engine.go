package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type options struct {
	locale language.Tag
}

type Option func(*options)

// WithLocale sets the language whose collation orders string sort keys.
func WithLocale(tag language.Tag) Option {
	return func(o *options) {
		o.locale = tag
	}
}

// Engine runs descriptors against in-memory record collections of one
// module. It holds no mutable state between runs and is safe for concurrent
// use.
type Engine[T any] struct {
	cfg    *Config
	fields Fields[T]

	// collate.Collator is not safe for concurrent use.
	collators sync.Pool
}

// NewEngine binds a module config to its field table. Every field the config
// names must have an accessor.
func NewEngine[T any](cfg *Config, fields Fields[T], opts ...Option) (*Engine[T], error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	if missing := fields.Missing(cfg); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s: no accessor for %s", ErrInvalidConfig, cfg.Name, strings.Join(missing, ", "))
	}

	o := options{locale: language.English}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine[T]{cfg: cfg, fields: fields}
	e.collators.New = func() any {
		return collate.New(o.locale, collate.IgnoreCase)
	}
	return e, nil
}

func (e *Engine[T]) Config() *Config {
	return e.cfg
}

// Value resolves a field of rec through the module's field table.
func (e *Engine[T]) Value(rec T, field string) any {
	return e.fields.Value(rec, field)
}

// Run executes d against records. The descriptor is expected to have passed
// registry validation; it is normalized here (defaults, page bounds) but not
// checked. records is never modified.
//
// Stages run in a fixed order: search, filters, date range, numeric range,
// facets, sort, pagination. Facets therefore describe the whole match set
// and not only the returned page.
func (e *Engine[T]) Run(records []T, d Descriptor) *Result[T] {
	d = e.cfg.Normalize(d)

	matched := e.Match(records, d)
	facets := e.Facets(matched)
	sorted := e.Sort(matched, d.SortBy, d.SortOrder)

	return &Result[T]{
		PageResult:  Paginate(sorted, d.Page, d.Limit),
		Facets:      facets,
		Suggestions: Suggest(e.cfg, d.Search),
	}
}

// Match applies the search, filter, date range and numeric range stages and
// returns the surviving records in their original order.
func (e *Engine[T]) Match(records []T, d Descriptor) []T {
	out := slices.Clone(records)
	for _, keep := range e.stages(d) {
		out = slices.DeleteFunc(out, func(rec T) bool { return !keep(rec) })
	}
	if out == nil {
		out = []T{}
	}
	return out
}

func (e *Engine[T]) stages(d Descriptor) []func(T) bool {
	var stages []func(T) bool
	if needle := strings.ToLower(d.Search); needle != "" {
		stages = append(stages, func(rec T) bool { return e.matchesSearch(rec, needle) })
	}
	if len(d.Filters) > 0 {
		filters := d.Filters
		stages = append(stages, func(rec T) bool { return e.matchesFilters(rec, filters) })
	}
	if d.DateRange != nil {
		dr := *d.DateRange
		stages = append(stages, func(rec T) bool { return e.inDateRange(rec, dr) })
	}
	if d.NumericRange != nil {
		nr := *d.NumericRange
		stages = append(stages, func(rec T) bool { return e.inNumericRange(rec, nr) })
	}
	return stages
}

func (e *Engine[T]) matchesSearch(rec T, needle string) bool {
	for _, field := range e.cfg.SearchableFields {
		s, ok := e.fields.Value(rec, field).(string)
		if ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func (e *Engine[T]) matchesFilters(rec T, filters Filters) bool {
	for field, accepted := range filters {
		if len(accepted) == 0 {
			continue
		}
		s, ok := stringValue(e.fields.Value(rec, field))
		if !ok || !slices.Contains(accepted, s) {
			return false
		}
	}
	return true
}

func (e *Engine[T]) inDateRange(rec T, dr DateRange) bool {
	t, ok := coerceTime(e.fields.Value(rec, dr.Field))
	if !ok {
		return false
	}
	if !dr.Start.IsZero() && t.Before(dr.Start) {
		return false
	}
	if !dr.End.IsZero() && t.After(dr.End) {
		return false
	}
	return true
}

func (e *Engine[T]) inNumericRange(rec T, nr NumericRange) bool {
	f, ok := coerceNumber(e.fields.Value(rec, nr.Field))
	if !ok {
		return false
	}
	if nr.Min != nil && f < *nr.Min {
		return false
	}
	if nr.Max != nil && f > *nr.Max {
		return false
	}
	return true
}

// Facets counts, for every filterable field, how often each value occurs in
// records. Counts are ordered most frequent first; equal counts keep the
// order in which the values were first seen.
func (e *Engine[T]) Facets(records []T) FacetSet {
	set := make(FacetSet, len(e.cfg.FilterableFields))
	for _, ff := range e.cfg.FilterableFields {
		counts := []FacetCount{}
		index := make(map[string]int)
		for _, rec := range records {
			s, ok := stringValue(e.fields.Value(rec, ff.Field))
			if !ok {
				continue
			}
			if i, seen := index[s]; seen {
				counts[i].Count++
				continue
			}
			index[s] = len(counts)
			counts = append(counts, FacetCount{Value: s, Count: 1})
		}
		slices.SortStableFunc(counts, func(a, b FacetCount) int {
			return cmp.Compare(b.Count, a.Count)
		})
		set[ff.Field] = counts
	}
	return set
}

type sortItem[T any] struct {
	rec T
	key any
}

// Sort returns a stably sorted copy of records. Records with equal keys keep
// their relative order in both directions; records without a value go last.
func (e *Engine[T]) Sort(records []T, field string, order SortOrder) []T {
	items := make([]sortItem[T], len(records))
	for i, rec := range records {
		items[i] = sortItem[T]{rec: rec, key: e.fields.Value(rec, field)}
	}

	col := e.collators.Get().(*collate.Collator)
	defer e.collators.Put(col)

	slices.SortStableFunc(items, func(a, b sortItem[T]) int {
		return compareKeys(col, a.key, b.key, order)
	})

	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

func missing(v any) bool {
	if v == nil {
		return true
	}
	if t, ok := v.(time.Time); ok {
		return t.IsZero()
	}
	return false
}

func compareKeys(col *collate.Collator, a, b any, order SortOrder) int {
	am, bm := missing(a), missing(b)
	switch {
	case am && bm:
		return 0
	case am:
		return 1
	case bm:
		return -1
	}

	c := compareValues(col, a, b)
	if order == SortDesc {
		return -c
	}
	return c
}

func compareValues(col *collate.Collator, a, b any) int {
	if fa, ok := numberValue(a); ok {
		if fb, ok := numberValue(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	sa, _ := stringValue(a)
	sb, _ := stringValue(b)
	return col.CompareString(sa, sb)
}
