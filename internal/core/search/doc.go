// Package search is the surface a presentation layer talks to.
//
// A Searcher owns the interaction between user input, a module store and a
// data source (Fetcher). Typed text goes through a Debouncer; discrete
// changes such as filters, sorting and paging fetch at once. Each fetch
// cancels the previous one and carries a store ticket, so a slow response
// for an old selection can never overwrite a newer page.
//
// LocalSource is the in-process Fetcher: it runs the query engine over the
// module store and caches results per store revision. The HTTP client in
// internal/client is the remote one.
package search
