package registry

import (
	"errors"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersConfig() *query.Config {
	return &query.Config{
		Name:             "users",
		SearchableFields: []string{"name", "email"},
		FilterableFields: []query.FilterField{
			{Field: "status", Values: []string{"active", "inactive"}},
			{Field: "role.name", Values: []string{"admin", "staff"}},
		},
		SortableFields: []string{"name", "createdAt"},
		DefaultSort:    query.Sort{Field: "createdAt", Order: query.SortDesc},
		DateFields:     []string{"createdAt"},
		NumericFields:  []string{"age"},
	}
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	require.NoError(t, r.Register(usersConfig()))
	return r
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)

	err := r.Register(usersConfig())
	assert.ErrorIs(t, err, ErrDuplicateModule)

	bad := &query.Config{Name: "broken", SortableFields: []string{"a"}, DefaultSort: query.Sort{Field: "b", Order: query.SortAsc}}
	assert.ErrorIs(t, r.Register(bad), query.ErrInvalidConfig)

	assert.Equal(t, []string{"users"}, r.Names())
	assert.Panics(t, func() { r.MustRegister(usersConfig()) })
}

func TestGetUnknownModule(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Get("foobar")

	var unknown *UnknownModuleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "foobar", unknown.Module)
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestValidateUnknownModule(t *testing.T) {
	r := newRegistry(t)

	err := r.Validate(query.Descriptor{Module: "foobar", SortBy: "nope"})

	assert.ErrorIs(t, err, ErrUnknownModule)
	assert.False(t, validation.IsValidationError(err))
}

func TestValidateCollectsAllViolations(t *testing.T) {
	r := newRegistry(t)
	lo, hi := 10.0, 1.0
	now := time.Now()

	err := r.Validate(query.Descriptor{
		Module:    "users",
		SortBy:    "email",
		SortOrder: "sideways",
		Filters: query.Filters{
			"status": {"active", "gone"},
			"color":  {"red"},
		},
		DateRange:    &query.DateRange{Field: "name", Start: now, End: now.Add(-time.Hour)},
		NumericRange: &query.NumericRange{Field: "age", Min: &lo, Max: &hi},
		Page:         -1,
		Limit:        -5,
	})

	ve := validation.GetValidationErrors(err)
	require.NotNil(t, ve, "expected validation errors, got %v", err)
	assert.Equal(t, []string{
		"sortBy",
		"sortOrder",
		"filters.color",
		"filters.status",
		"dateRange.field",
		"dateRange",
		"numericRange",
		"page",
		"limit",
	}, ve.Fields())
}

func TestValidateRejectsNonFiniteRangeBounds(t *testing.T) {
	r := newRegistry(t)

	d, err := query.ParseValues(url.Values{"rangeField": {"age"}, "rangeMin": {"NaN"}, "rangeMax": {"NaN"}})
	require.NoError(t, err)
	d.Module = "users"
	ve := validation.GetValidationErrors(r.Validate(d))
	require.NotNil(t, ve)
	assert.Equal(t, []string{"numericRange.min", "numericRange.max"}, ve.Fields())

	lo, inf := 1.0, math.Inf(1)
	ve = validation.GetValidationErrors(r.Validate(query.Descriptor{
		Module:       "users",
		NumericRange: &query.NumericRange{Field: "age", Min: &lo, Max: &inf},
	}))
	require.NotNil(t, ve)
	assert.Equal(t, []string{"numericRange.max"}, ve.Fields())
}

func TestValidateAcceptsOwnDeclarations(t *testing.T) {
	r := newRegistry(t)

	for _, cfg := range r.Configs() {
		for _, sortBy := range cfg.SortableFields {
			for _, order := range []query.SortOrder{query.SortAsc, query.SortDesc, ""} {
				d := query.Descriptor{Module: cfg.Name, SortBy: sortBy, SortOrder: order, Filters: query.Filters{}}
				for _, ff := range cfg.FilterableFields {
					d.Filters[ff.Field] = ff.Values
				}
				assert.NoError(t, r.Validate(d))
			}
		}
	}
}

func TestValidateEmptyDescriptor(t *testing.T) {
	r := newRegistry(t)
	assert.NoError(t, r.Validate(query.Descriptor{Module: "users"}))
}

func TestUnknownModuleErrorIs(t *testing.T) {
	err := error(&UnknownModuleError{Module: "x"})
	assert.True(t, errors.Is(err, ErrUnknownModule))
	assert.False(t, errors.Is(err, ErrDuplicateModule))
}
