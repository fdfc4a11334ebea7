package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/baseplate/backoffice/config"
	"github.com/baseplate/backoffice/internal/api/handlers"
	"github.com/baseplate/backoffice/internal/client"
	"github.com/baseplate/backoffice/internal/core/modules"
	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/registry"
	"github.com/baseplate/backoffice/internal/core/search"
	"github.com/baseplate/backoffice/internal/logging"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Search, filter, sort and page one module",
		ArgsUsage: "MODULE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Case-insensitive text to look for"},
			&cli.StringSliceFlag{Name: "filter", Aliases: []string{"f"}, Usage: "field=value, repeatable"},
			&cli.StringFlag{Name: "sort", Usage: "Sortable field"},
			&cli.StringFlag{Name: "order", Usage: "asc or desc"},
			&cli.IntFlag{Name: "page", Value: 1},
			&cli.IntFlag{Name: "limit"},
			&cli.BoolFlag{Name: "facets", Usage: "Include facet counts and suggestions"},
			&cli.StringFlag{Name: "remote", Usage: "Query a running server at this base URL instead of the database"},
		},
		Action: runQuery,
	}
}

func runQuery(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("module name required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	d := query.Descriptor{
		Module:    name,
		Search:    cmd.String("search"),
		SortBy:    cmd.String("sort"),
		SortOrder: query.SortOrder(strings.ToLower(cmd.String("order"))),
		Page:      cmd.Int("page"),
		Limit:     cmd.Int("limit"),
	}
	for _, f := range cmd.StringSlice("filter") {
		field, value, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("filter %q is not field=value", f)
		}
		d = d.WithFilters(query.Filters{field: append(d.Filters[field], value)})
	}

	var out any
	if base := cmd.String("remote"); base != "" {
		catalog, err := newCatalog(cfg, nil)
		if err != nil {
			return err
		}
		out, err = remoteQuery(ctx, catalog, base, d, cmd.Bool("facets"), searchOptions(cfg))
		if err != nil {
			return err
		}
	} else {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		catalog, err := newCatalog(cfg, db)
		if err != nil {
			return err
		}
		if err := catalog.LoadAll(ctx); err != nil {
			return err
		}
		out, err = localQuery(ctx, catalog, d, cmd.Bool("facets"))
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func localQuery(ctx context.Context, catalog *modules.Catalog, d query.Descriptor, facets bool) (any, error) {
	for _, m := range handlers.BindCatalog(catalog) {
		if m.Name() != d.Module {
			continue
		}
		if facets {
			return m.Query(ctx, d)
		}
		return m.FetchPage(ctx, d)
	}
	return nil, &registry.UnknownModuleError{Module: d.Module}
}

// searchOptions carries the configured debounce and fetch timeout into a
// Searcher.
func searchOptions(cfg *config.Config) search.Options {
	return search.Options{
		Debounce: cfg.Query.Debounce.Duration,
		Timeout:  cfg.Query.FetchTimeout.Duration,
	}
}

func remoteQuery(ctx context.Context, catalog *modules.Catalog, base string, d query.Descriptor, facets bool, opts search.Options) (any, error) {
	switch d.Module {
	case "users":
		return searchRemote(ctx, catalog.Registry, catalog.Users, base, d, facets, opts)
	case "vendors":
		return searchRemote(ctx, catalog.Registry, catalog.Vendors, base, d, facets, opts)
	case "products":
		return searchRemote(ctx, catalog.Registry, catalog.Products, base, d, facets, opts)
	case "transactions":
		return searchRemote(ctx, catalog.Registry, catalog.Transactions, base, d, facets, opts)
	case "orders":
		return searchRemote(ctx, catalog.Registry, catalog.Orders, base, d, facets, opts)
	}
	return nil, &registry.UnknownModuleError{Module: d.Module}
}

// searchRemote validates d locally and drives the module store through a
// Searcher backed by the remote API.
func searchRemote[T record.Record](ctx context.Context, reg *registry.Registry, m *modules.Module[T], base string, d query.Descriptor, facets bool, opts search.Options) (any, error) {
	c, err := client.New[T](base, m.Name(), client.WithTimeout(opts.Timeout))
	if err != nil {
		return nil, err
	}
	if facets {
		if err := reg.Validate(d); err != nil {
			return nil, err
		}
		return c.Query(ctx, d)
	}

	s := search.NewSearcher(reg, m.Store, c, opts)
	defer s.Close()
	logging.For("query").Debugf("remote search on %s, debounce %s", m.Name(), s.Debounce())
	if err := s.Search(ctx, d); err != nil {
		return nil, err
	}
	return s.SearchResult(), nil
}
