// Package query implements the search, filter, sort and pagination engine
// shared by every back-office module.
//
// A module is described by a Config (which fields can be searched, filtered
// and sorted) and a Fields table of typed accessors. An Engine binds the two
// and runs a Descriptor against a slice of records:
//
//	eng, err := query.NewEngine(cfg, fields)
//	res := eng.Run(records, query.Descriptor{
//	    Search:  "ali",
//	    Filters: query.Filters{"status": {"active"}},
//	    SortBy:  "name",
//	    Page:    2,
//	    Limit:   10,
//	})
//
// res.Data holds the requested page, res.Total the size of the whole match
// set, res.Facets the per-value counts of every filterable field over the
// match set, and res.Suggestions hints derived from the search text.
//
// # Determinism
//
// Run is a pure function of its inputs. Sorting is stable: records with equal
// sort keys keep their input order whether sorting ascending or descending,
// so repeated sorts of the same collection always agree. Strings are compared
// with a case-insensitive collator for the engine's locale (English unless
// WithLocale is given); numbers and timestamps compare by value.
//
// Validation of descriptors against a Config lives in the registry package;
// Run assumes its input already passed it.
package query
