package query

import (
	"errors"
	"fmt"
	"slices"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// FilterField declares a filterable field and its allowed values, in the
// order they are offered to users.
type FilterField struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// Config describes what may be queried on one module. It is built once at
// startup and never changed afterwards.
type Config struct {
	Name             string        `json:"name"`
	Title            string        `json:"title"`
	SearchableFields []string      `json:"searchableFields"`
	FilterableFields []FilterField `json:"filterableFields"`
	SortableFields   []string      `json:"sortableFields"`
	DefaultSort      Sort          `json:"defaultSort"`
	DateFields       []string      `json:"dateFields,omitempty"`
	NumericFields    []string      `json:"numericFields,omitempty"`
	DefaultLimit     int           `json:"defaultLimit"`
	MaxLimit         int           `json:"maxLimit"`
	// Schema is the JSON Schema record payloads must satisfy.
	Schema map[string]interface{} `json:"schema,omitempty"`
}

var ErrInvalidConfig = errors.New("invalid module config")

// Check rejects configs that could not serve a query: missing name, bad
// default sort, duplicate or empty filter declarations.
func (c *Config) Check() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if !c.IsSortable(c.DefaultSort.Field) {
		return fmt.Errorf("%w: %s: default sort field %q is not sortable", ErrInvalidConfig, c.Name, c.DefaultSort.Field)
	}
	if !c.DefaultSort.Order.Valid() {
		return fmt.Errorf("%w: %s: default sort order %q", ErrInvalidConfig, c.Name, c.DefaultSort.Order)
	}
	seen := make(map[string]bool, len(c.FilterableFields))
	for _, f := range c.FilterableFields {
		if seen[f.Field] {
			return fmt.Errorf("%w: %s: filter field %q declared twice", ErrInvalidConfig, c.Name, f.Field)
		}
		seen[f.Field] = true
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: %s: filter field %q has no allowed values", ErrInvalidConfig, c.Name, f.Field)
		}
	}
	if c.DefaultLimit < 0 || c.MaxLimit < 0 || (c.MaxLimit > 0 && c.DefaultLimit > c.MaxLimit) {
		return fmt.Errorf("%w: %s: limits %d/%d", ErrInvalidConfig, c.Name, c.DefaultLimit, c.MaxLimit)
	}
	return nil
}

// Fields lists every field the config refers to, without duplicates.
func (c *Config) Fields() []string {
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if !slices.Contains(out, n) {
				out = append(out, n)
			}
		}
	}
	add(c.SearchableFields...)
	for _, f := range c.FilterableFields {
		add(f.Field)
	}
	add(c.SortableFields...)
	add(c.DateFields...)
	add(c.NumericFields...)
	return out
}

func (c *Config) IsSortable(field string) bool {
	return slices.Contains(c.SortableFields, field)
}

// Filterable returns the allowed values of a filterable field.
func (c *Config) Filterable(field string) ([]string, bool) {
	for _, f := range c.FilterableFields {
		if f.Field == field {
			return f.Values, true
		}
	}
	return nil, false
}

func (c *Config) IsDateField(field string) bool {
	return slices.Contains(c.DateFields, field)
}

func (c *Config) IsNumericField(field string) bool {
	return slices.Contains(c.NumericFields, field)
}

func (c *Config) limits() (defLimit, maxLimit int) {
	defLimit, maxLimit = c.DefaultLimit, c.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defLimit <= 0 {
		defLimit = min(DefaultLimit, maxLimit)
	}
	return defLimit, maxLimit
}

// Normalize fills in the module, default sort, first page and default page
// size, and clamps the page size to the module maximum.
func (c *Config) Normalize(d Descriptor) Descriptor {
	out := d.Clone()
	out.Module = c.Name
	if out.SortBy == "" {
		out.SortBy = c.DefaultSort.Field
		if out.SortOrder == "" {
			out.SortOrder = c.DefaultSort.Order
		}
	}
	if out.SortOrder == "" {
		out.SortOrder = SortAsc
	}
	if out.Page < 1 {
		out.Page = 1
	}
	defLimit, maxLimit := c.limits()
	if out.Limit <= 0 {
		out.Limit = defLimit
	}
	if out.Limit > maxLimit {
		out.Limit = maxLimit
	}
	return out
}

// Default returns the descriptor a fresh store starts from.
func (c *Config) Default() Descriptor {
	return c.Normalize(Descriptor{})
}
