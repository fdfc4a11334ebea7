package query

// PageResult is one page of a match set.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// FacetCount is the number of matching records holding Value.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetSet maps each filterable field to its value counts, most frequent
// first.
type FacetSet map[string][]FacetCount

// Result is a page together with the facets of the whole match set and the
// suggestions for the search text.
type Result[T any] struct {
	PageResult[T]
	Facets      FacetSet `json:"facets"`
	Suggestions []string `json:"suggestions"`
}

// TotalPagesFor returns ceil(total/limit), and 0 for an empty match set.
func TotalPagesFor(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// Paginate returns items[(page-1)*limit : page*limit], clipped to the slice.
// A page past the end yields an empty, non-nil Data slice.
func Paginate[T any](items []T, page, limit int) PageResult[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	total := len(items)
	start := total
	if page-1 < TotalPagesFor(total, limit) {
		start = (page - 1) * limit
	}
	end := start + min(limit, total-start)

	data := make([]T, end-start)
	copy(data, items[start:end])

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPagesFor(total, limit),
	}
}
