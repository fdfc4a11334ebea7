package query

import (
	"fmt"
	"strings"
)

const MaxSuggestions = 5

// Suggest proposes up to MaxSuggestions hints for a partial search term:
// searchable fields whose name contains the term come first, then allowed
// filter values containing it, each group in declaration order.
func Suggest(cfg *Config, search string) []string {
	out := []string{}
	needle := strings.ToLower(search)
	if needle == "" {
		return out
	}

	for _, field := range cfg.SearchableFields {
		if len(out) == MaxSuggestions {
			return out
		}
		if strings.Contains(strings.ToLower(field), needle) {
			out = append(out, "Search in "+field)
		}
	}

	for _, ff := range cfg.FilterableFields {
		for _, value := range ff.Values {
			if len(out) == MaxSuggestions {
				return out
			}
			if strings.Contains(strings.ToLower(value), needle) {
				out = append(out, fmt.Sprintf("Filter by %s: %s", ff.Field, value))
			}
		}
	}
	return out
}
