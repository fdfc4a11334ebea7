// Package registry holds the module configs and decides which descriptors
// are legal against them.
package registry

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/validation"
)

type Registry struct {
	mu      sync.RWMutex
	configs map[string]*query.Config
	order   []string
}

func New() *Registry {
	return &Registry{configs: make(map[string]*query.Config)}
}

// Register adds a module config. Configs are treated as immutable once
// registered.
func (r *Registry) Register(cfg *query.Config) error {
	if err := cfg.Check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.configs[cfg.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, cfg.Name)
	}
	r.configs[cfg.Name] = cfg
	r.order = append(r.order, cfg.Name)
	return nil
}

func (r *Registry) MustRegister(cfg *query.Config) {
	if err := r.Register(cfg); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(module string) (*query.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[module]
	if !ok {
		return nil, &UnknownModuleError{Module: module}
	}
	return cfg, nil
}

// Names returns module names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func (r *Registry) Configs() []*query.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*query.Config, len(r.order))
	for i, name := range r.order {
		out[i] = r.configs[name]
	}
	return out
}

// Validate checks d against its module's config. It returns an
// *UnknownModuleError when the module is not registered, and otherwise a
// *validation.ValidationErrors listing every violation, or nil.
//
// Empty sortBy, sortOrder, page and limit are legal; they take the module
// defaults when the descriptor is normalized.
func (r *Registry) Validate(d query.Descriptor) error {
	cfg, err := r.Get(d.Module)
	if err != nil {
		return err
	}

	ve := &validation.ValidationErrors{}

	if d.SortBy != "" && !cfg.IsSortable(d.SortBy) {
		ve.Add("sortBy", "field %q is not sortable", d.SortBy)
	}
	if d.SortOrder != "" && !d.SortOrder.Valid() {
		ve.Add("sortOrder", "must be %q or %q, got %q", query.SortAsc, query.SortDesc, d.SortOrder)
	}

	for _, field := range d.Filters.Fields() {
		allowed, ok := cfg.Filterable(field)
		if !ok {
			ve.Add("filters."+field, "field is not filterable")
			continue
		}
		for _, value := range d.Filters[field] {
			if !slices.Contains(allowed, value) {
				ve.Add("filters."+field, "value %q is not allowed", value)
			}
		}
	}

	if dr := d.DateRange; dr != nil {
		if !cfg.IsDateField(dr.Field) {
			ve.Add("dateRange.field", "field %q does not support date ranges", dr.Field)
		}
		if !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
			ve.Add("dateRange", "end is before start")
		}
	}

	if nr := d.NumericRange; nr != nil {
		if !cfg.IsNumericField(nr.Field) {
			ve.Add("numericRange.field", "field %q does not support numeric ranges", nr.Field)
		}
		finite := true
		if !isFinite(nr.Min) {
			ve.Add("numericRange.min", "must be a finite number")
			finite = false
		}
		if !isFinite(nr.Max) {
			ve.Add("numericRange.max", "must be a finite number")
			finite = false
		}
		if finite && nr.Min != nil && nr.Max != nil && *nr.Max < *nr.Min {
			ve.Add("numericRange", "max is below min")
		}
	}

	if d.Page < 0 {
		ve.Add("page", "must not be negative")
	}
	if d.Limit < 0 {
		ve.Add("limit", "must not be negative")
	}

	return ve.Err()
}

// isFinite reports whether an optional range bound is absent or a real number.
func isFinite(bound *float64) bool {
	return bound == nil || !(math.IsNaN(*bound) || math.IsInf(*bound, 0))
}
