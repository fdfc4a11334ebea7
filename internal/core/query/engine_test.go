package query

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	ID      int
	Name    string
	Email   string
	Status  string
	Role    string
	Age     int
	Joined  time.Time
	Deleted *time.Time
}

func personConfig() *Config {
	return &Config{
		Name:             "users",
		SearchableFields: []string{"name", "email"},
		FilterableFields: []FilterField{
			{Field: "status", Values: []string{"active", "inactive", "suspended"}},
			{Field: "role.name", Values: []string{"admin", "manager", "staff"}},
		},
		SortableFields: []string{"name", "age", "joined", "deletedAt"},
		DefaultSort:    Sort{Field: "name", Order: SortAsc},
		DateFields:     []string{"joined"},
		NumericFields:  []string{"age"},
	}
}

var personFields = Fields[person]{
	"name":      func(p person) any { return p.Name },
	"email":     func(p person) any { return p.Email },
	"status":    func(p person) any { return p.Status },
	"role.name": func(p person) any { return p.Role },
	"age":       func(p person) any { return p.Age },
	"joined":    func(p person) any { return p.Joined },
	"deletedAt": func(p person) any { return TimePtr(p.Deleted) },
}

func newPersonEngine(t *testing.T) *Engine[person] {
	t.Helper()
	eng, err := NewEngine(personConfig(), personFields)
	require.NoError(t, err)
	return eng
}

// people returns n records; the first `active` are active, the rest
// alternate between inactive and suspended.
func people(n, active int) []person {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	roles := []string{"admin", "manager", "staff"}
	out := make([]person, n)
	for i := range out {
		status := "active"
		if i >= active {
			status = []string{"inactive", "suspended"}[i%2]
		}
		out[i] = person{
			ID:     i + 1,
			Name:   fmt.Sprintf("user%02d", i+1),
			Email:  fmt.Sprintf("user%02d@example.com", i+1),
			Status: status,
			Role:   roles[i%len(roles)],
			Age:    20 + i,
			Joined: base.AddDate(0, 0, i),
		}
	}
	return out
}

func names(ps []person) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestNewEngineMissingAccessor(t *testing.T) {
	fields := Fields[person]{"name": personFields["name"]}
	_, err := NewEngine(personConfig(), fields)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "email")
}

func TestNewEngineInvalidConfig(t *testing.T) {
	cfg := personConfig()
	cfg.DefaultSort.Field = "email"
	_, err := NewEngine(cfg, personFields)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunFirstPage(t *testing.T) {
	eng := newPersonEngine(t)

	res := eng.Run(people(25, 12), Descriptor{Page: 1, Limit: 10})

	assert.Len(t, res.Data, 10)
	assert.Equal(t, 25, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 10, res.Limit)
}

func TestRunFilteredSecondPage(t *testing.T) {
	eng := newPersonEngine(t)

	res := eng.Run(people(25, 12), Descriptor{
		Filters: Filters{"status": {"active"}},
		Page:    2,
		Limit:   10,
	})

	assert.Len(t, res.Data, 2)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 2, res.TotalPages)
	for _, p := range res.Data {
		assert.Equal(t, "active", p.Status)
	}
}

func TestRunSortCaseInsensitive(t *testing.T) {
	eng := newPersonEngine(t)
	records := []person{{Name: "Bob"}, {Name: "alice"}, {Name: "Charlie"}}

	res := eng.Run(records, Descriptor{SortBy: "name", SortOrder: SortAsc})
	assert.Equal(t, []string{"alice", "Bob", "Charlie"}, names(res.Data))

	res = eng.Run(records, Descriptor{SortBy: "name", SortOrder: SortDesc})
	assert.Equal(t, []string{"Charlie", "Bob", "alice"}, names(res.Data))
}

func TestRunSearchNoMatch(t *testing.T) {
	eng := newPersonEngine(t)

	res := eng.Run(people(25, 12), Descriptor{Search: "zzz"})

	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 0, res.TotalPages)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	require.Len(t, res.Facets, 2)
	for field, counts := range res.Facets {
		assert.NotNil(t, counts, field)
		assert.Empty(t, counts, field)
	}
}

func TestRunSearchIsCaseInsensitiveSubstring(t *testing.T) {
	eng := newPersonEngine(t)
	records := []person{
		{Name: "Alice Smith", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@SMITHCO.io"},
		{Name: "Carol", Email: "carol@example.com"},
	}

	res := eng.Run(records, Descriptor{Search: "smith"})
	assert.Equal(t, []string{"Alice Smith", "Bob"}, names(res.Data))
}

func TestRunSearchIgnoresNonStringFields(t *testing.T) {
	cfg := personConfig()
	cfg.SearchableFields = []string{"name", "age"}
	eng, err := NewEngine(cfg, personFields)
	require.NoError(t, err)

	res := eng.Run([]person{{Name: "x", Age: 42}}, Descriptor{Search: "42"})
	assert.Equal(t, 0, res.Total)
}

func TestRunMultiValueFilter(t *testing.T) {
	eng := newPersonEngine(t)
	records := people(9, 3)

	res := eng.Run(records, Descriptor{
		Filters: Filters{"status": {"inactive", "suspended"}},
		Limit:   100,
	})
	assert.Equal(t, 6, res.Total)

	res = eng.Run(records, Descriptor{
		Filters: Filters{"status": {"inactive", "suspended"}, "role.name": {"admin"}},
		Limit:   100,
	})
	for _, p := range res.Data {
		assert.Equal(t, "admin", p.Role)
		assert.NotEqual(t, "active", p.Status)
	}
	assert.Equal(t, 2, res.Total)
}

func TestRunDateRangeInclusive(t *testing.T) {
	eng := newPersonEngine(t)
	records := people(10, 10)
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	res := eng.Run(records, Descriptor{DateRange: &DateRange{Field: "joined", Start: start, End: end}})
	assert.Equal(t, []string{"user03", "user04", "user05"}, names(res.Data))

	res = eng.Run(records, Descriptor{DateRange: &DateRange{Field: "joined", Start: end}})
	assert.Equal(t, 6, res.Total)
}

func TestRunNumericRangeInclusive(t *testing.T) {
	eng := newPersonEngine(t)
	lo, hi := 22.0, 24.0

	res := eng.Run(people(10, 10), Descriptor{NumericRange: &NumericRange{Field: "age", Min: &lo, Max: &hi}})
	assert.Equal(t, []string{"user03", "user04", "user05"}, names(res.Data))
}

func TestRunNumericRangeExcludesNonNumeric(t *testing.T) {
	cfg := personConfig()
	cfg.NumericFields = append(cfg.NumericFields, "status")
	eng, err := NewEngine(cfg, personFields)
	require.NoError(t, err)
	lo := 0.0

	res := eng.Run(people(3, 3), Descriptor{NumericRange: &NumericRange{Field: "status", Min: &lo}})
	assert.Equal(t, 0, res.Total)
}

func TestRunDeterministic(t *testing.T) {
	eng := newPersonEngine(t)
	records := people(40, 17)
	d := Descriptor{
		Search:    "user",
		Filters:   Filters{"role.name": {"admin", "staff"}},
		SortBy:    "age",
		SortOrder: SortDesc,
		Page:      2,
		Limit:     5,
	}

	a, err := json.Marshal(eng.Run(records, d))
	require.NoError(t, err)
	b, err := json.Marshal(eng.Run(records, d))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunPaginationCompleteness(t *testing.T) {
	eng := newPersonEngine(t)
	records := people(47, 20)
	d := Descriptor{Filters: Filters{"role.name": {"admin", "manager"}}, SortBy: "age", SortOrder: SortDesc, Limit: 7}

	full := eng.Run(records, d.WithPage(1, 100))
	first := eng.Run(records, d)

	var collected []person
	for page := 1; page <= first.TotalPages; page++ {
		collected = append(collected, eng.Run(records, d.WithPage(page)).Data...)
	}
	assert.Equal(t, full.Data, collected)
	assert.Len(t, collected, first.Total)
}

func TestRunFilterMonotonic(t *testing.T) {
	eng := newPersonEngine(t)
	records := people(30, 11)
	base := Descriptor{Search: "user"}

	without := eng.Run(records, base).Total
	with := eng.Run(records, base.WithFilters(Filters{"role.name": {"manager"}})).Total
	both := eng.Run(records, base.WithFilters(Filters{"role.name": {"manager"}, "status": {"active"}})).Total

	assert.LessOrEqual(t, with, without)
	assert.LessOrEqual(t, both, with)
}

func TestFacetsSumToTotal(t *testing.T) {
	eng := newPersonEngine(t)

	res := eng.Run(people(31, 9), Descriptor{Search: "user", Limit: 5})

	for field, counts := range res.Facets {
		sum := 0
		for _, c := range counts {
			sum += c.Count
		}
		assert.Equal(t, res.Total, sum, field)
	}
}

func TestFacetsOrderedByCountThenFirstSeen(t *testing.T) {
	eng := newPersonEngine(t)
	records := []person{
		{Status: "suspended", Role: "staff"},
		{Status: "inactive", Role: "admin"},
		{Status: "active", Role: "staff"},
		{Status: "inactive", Role: "admin"},
		{Status: "active", Role: "manager"},
	}

	facets := eng.Facets(records)

	assert.Equal(t, []FacetCount{
		{Value: "inactive", Count: 2},
		{Value: "active", Count: 2},
		{Value: "suspended", Count: 1},
	}, facets["status"])
	assert.Equal(t, []FacetCount{
		{Value: "staff", Count: 2},
		{Value: "admin", Count: 2},
		{Value: "manager", Count: 1},
	}, facets["role.name"])
}

func TestFacetsReflectFiltersNotPagination(t *testing.T) {
	eng := newPersonEngine(t)

	res := eng.Run(people(25, 12), Descriptor{Filters: Filters{"status": {"active"}}, Limit: 3})

	assert.Equal(t, []FacetCount{{Value: "active", Count: 12}}, res.Facets["status"])
}

func TestSortStable(t *testing.T) {
	eng := newPersonEngine(t)
	records := []person{
		{ID: 1, Name: "b", Age: 30},
		{ID: 2, Name: "a", Age: 20},
		{ID: 3, Name: "c", Age: 30},
		{ID: 4, Name: "d", Age: 20},
		{ID: 5, Name: "e", Age: 30},
	}

	ids := func(ps []person) []int {
		out := make([]int, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	assert.Equal(t, []int{2, 4, 1, 3, 5}, ids(eng.Sort(records, "age", SortAsc)))
	assert.Equal(t, []int{1, 3, 5, 2, 4}, ids(eng.Sort(records, "age", SortDesc)))

	// Repeated sorting of an already sorted slice must not move anything.
	once := eng.Sort(records, "age", SortDesc)
	assert.Equal(t, ids(once), ids(eng.Sort(once, "age", SortDesc)))
}

func TestSortNumericNotLexical(t *testing.T) {
	eng := newPersonEngine(t)
	records := []person{{Name: "x", Age: 100}, {Name: "y", Age: 9}, {Name: "z", Age: 20}}

	assert.Equal(t, []string{"y", "z", "x"}, names(eng.Sort(records, "age", SortAsc)))
}

func TestSortMissingValuesLast(t *testing.T) {
	eng := newPersonEngine(t)
	t1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.AddDate(0, 1, 0)
	records := []person{{Name: "none"}, {Name: "late", Deleted: &t2}, {Name: "early", Deleted: &t1}}

	assert.Equal(t, []string{"early", "late", "none"}, names(eng.Sort(records, "deletedAt", SortAsc)))
	assert.Equal(t, []string{"late", "early", "none"}, names(eng.Sort(records, "deletedAt", SortDesc)))
}

func TestRunDoesNotModifyInput(t *testing.T) {
	eng := newPersonEngine(t)
	records := []person{{Name: "c"}, {Name: "a"}, {Name: "b"}}

	eng.Run(records, Descriptor{SortBy: "name"})

	assert.Equal(t, []string{"c", "a", "b"}, names(records))
}

func TestRunAppliesDefaults(t *testing.T) {
	eng := newPersonEngine(t)

	res := eng.Run(people(3, 3), Descriptor{Limit: 1000})

	assert.Equal(t, MaxLimit, res.Limit)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, []string{"user01", "user02", "user03"}, names(res.Data))
}

func TestRunHugePageIsEmptyNotPanic(t *testing.T) {
	eng := newPersonEngine(t)

	res := eng.Run(people(25, 12), Descriptor{Page: math.MaxInt, Limit: 10})
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Equal(t, 25, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, math.MaxInt, res.Page)

	d, err := ParseValues(url.Values{"page": {strconv.Itoa(math.MaxInt)}, "limit": {"10"}})
	require.NoError(t, err)
	res = eng.Run(people(25, 12), d)
	assert.Empty(t, res.Data)
	assert.Equal(t, 25, res.Total)
}

func TestRunSearchKeepsSurroundingSpaces(t *testing.T) {
	eng := newPersonEngine(t)
	records := []person{{Name: "alice"}, {Name: "ali baba"}}

	res := eng.Run(records, Descriptor{Search: "ali "})
	assert.Equal(t, []string{"ali baba"}, names(res.Data))
}
