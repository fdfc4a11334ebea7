package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// FilterValue holds one or more accepted values for a filter field. In JSON
// it may be written as a single string or as an array of strings.
type FilterValue []string

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = FilterValue{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("filter value must be a string or an array of strings")
	}
	*v = FilterValue(many)
	return nil
}

// Filters maps a filterable field to its accepted values. Fields combine
// with AND, values within a field with OR.
type Filters map[string]FilterValue

func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = append(FilterValue(nil), v...)
	}
	return out
}

// Fields returns the filter keys in lexical order.
func (f Filters) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DateRange keeps records whose Field lies within [Start, End]. A zero bound
// is open.
type DateRange struct {
	Field string    `json:"field"`
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// NumericRange keeps records whose Field lies within [Min, Max]. A nil bound
// is open.
type NumericRange struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// Descriptor is the full description of one query against a module.
type Descriptor struct {
	Module       string        `json:"module"`
	Search       string        `json:"search,omitempty"`
	Filters      Filters       `json:"filters,omitempty"`
	DateRange    *DateRange    `json:"dateRange,omitempty"`
	NumericRange *NumericRange `json:"numericRange,omitempty"`
	SortBy       string        `json:"sortBy,omitempty"`
	SortOrder    SortOrder     `json:"sortOrder,omitempty"`
	Page         int           `json:"page,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}

// Clone returns a deep copy so the result can be changed without touching d.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Filters = d.Filters.Clone()
	if d.DateRange != nil {
		dr := *d.DateRange
		out.DateRange = &dr
	}
	if d.NumericRange != nil {
		nr := NumericRange{Field: d.NumericRange.Field}
		if d.NumericRange.Min != nil {
			v := *d.NumericRange.Min
			nr.Min = &v
		}
		if d.NumericRange.Max != nil {
			v := *d.NumericRange.Max
			nr.Max = &v
		}
		out.NumericRange = &nr
	}
	return out
}

func (d Descriptor) WithSearch(search string) Descriptor {
	out := d.Clone()
	out.Search = search
	return out
}

// WithFilters merges partial into the current filters. A key with no values
// removes that filter.
func (d Descriptor) WithFilters(partial Filters) Descriptor {
	out := d.Clone()
	if out.Filters == nil && len(partial) > 0 {
		out.Filters = make(Filters, len(partial))
	}
	for field, values := range partial {
		if len(values) == 0 {
			delete(out.Filters, field)
			continue
		}
		out.Filters[field] = append(FilterValue(nil), values...)
	}
	return out
}

func (d Descriptor) WithSort(field string, order SortOrder) Descriptor {
	out := d.Clone()
	out.SortBy = field
	out.SortOrder = order
	return out
}

// WithPage sets the page and, when given, the page size.
func (d Descriptor) WithPage(page int, limit ...int) Descriptor {
	out := d.Clone()
	out.Page = page
	if len(limit) > 0 {
		out.Limit = limit[0]
	}
	return out
}

const filterPrefix = "filter."

// Values encodes the descriptor as URL query parameters.
func (d Descriptor) Values() url.Values {
	v := url.Values{}
	if d.Search != "" {
		v.Set("search", d.Search)
	}
	for _, field := range d.Filters.Fields() {
		for _, value := range d.Filters[field] {
			v.Add(filterPrefix+field, value)
		}
	}
	if d.SortBy != "" {
		v.Set("sortBy", d.SortBy)
	}
	if d.SortOrder != "" {
		v.Set("sortOrder", string(d.SortOrder))
	}
	if d.Page > 0 {
		v.Set("page", strconv.Itoa(d.Page))
	}
	if d.Limit > 0 {
		v.Set("limit", strconv.Itoa(d.Limit))
	}
	if dr := d.DateRange; dr != nil {
		v.Set("dateField", dr.Field)
		if !dr.Start.IsZero() {
			v.Set("dateFrom", dr.Start.Format(time.RFC3339Nano))
		}
		if !dr.End.IsZero() {
			v.Set("dateTo", dr.End.Format(time.RFC3339Nano))
		}
	}
	if nr := d.NumericRange; nr != nil {
		v.Set("rangeField", nr.Field)
		if nr.Min != nil {
			v.Set("rangeMin", strconv.FormatFloat(*nr.Min, 'f', -1, 64))
		}
		if nr.Max != nil {
			v.Set("rangeMax", strconv.FormatFloat(*nr.Max, 'f', -1, 64))
		}
	}
	return v
}

// ParseValues decodes URL query parameters produced by Values. Module is left
// for the caller to set from the route.
func ParseValues(v url.Values) (Descriptor, error) {
	d := Descriptor{
		Search:    v.Get("search"),
		SortBy:    v.Get("sortBy"),
		SortOrder: SortOrder(strings.ToLower(v.Get("sortOrder"))),
	}

	var err error
	if d.Page, err = parseInt(v, "page"); err != nil {
		return Descriptor{}, err
	}
	if d.Limit, err = parseInt(v, "limit"); err != nil {
		return Descriptor{}, err
	}

	for key, values := range v {
		field, ok := strings.CutPrefix(key, filterPrefix)
		if !ok || field == "" {
			continue
		}
		if d.Filters == nil {
			d.Filters = Filters{}
		}
		d.Filters[field] = append(d.Filters[field], values...)
	}

	if field := v.Get("dateField"); field != "" {
		dr := &DateRange{Field: field}
		if s := v.Get("dateFrom"); s != "" {
			if dr.Start, err = ParseTime(s); err != nil {
				return Descriptor{}, fmt.Errorf("invalid dateFrom: %w", err)
			}
		}
		if s := v.Get("dateTo"); s != "" {
			if dr.End, err = ParseTime(s); err != nil {
				return Descriptor{}, fmt.Errorf("invalid dateTo: %w", err)
			}
		}
		d.DateRange = dr
	}

	if field := v.Get("rangeField"); field != "" {
		nr := &NumericRange{Field: field}
		if nr.Min, err = parseFloatPtr(v, "rangeMin"); err != nil {
			return Descriptor{}, err
		}
		if nr.Max, err = parseFloatPtr(v, "rangeMax"); err != nil {
			return Descriptor{}, err
		}
		d.NumericRange = nr
	}

	return d, nil
}

func parseInt(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseFloatPtr(v url.Values, key string) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, s)
	}
	return &f, nil
}
