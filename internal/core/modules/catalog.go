package modules

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/registry"
	"github.com/baseplate/backoffice/internal/core/validation"
)

type Options struct {
	// DefaultLimit and MaxLimit override the page sizes of every module when
	// positive.
	DefaultLimit int
	MaxLimit     int
	// CacheSize is the number of query results kept per module.
	CacheSize int
	Locale    language.Tag
	// Repository persists records. Nil keeps everything in memory.
	Repository *record.Repository
}

// Catalog is the set of back-office modules sharing one registry.
type Catalog struct {
	Registry  *registry.Registry
	Validator *validation.Validator

	Users        *Module[User]
	Vendors      *Module[Vendor]
	Products     *Module[Product]
	Transactions *Module[Transaction]
	Orders       *Module[Order]
}

func NewCatalog(opts Options) (*Catalog, error) {
	c := &Catalog{
		Registry:  registry.New(),
		Validator: validation.NewValidator(),
	}
	mo := moduleOptions{cacheSize: opts.CacheSize, locale: opts.Locale, repo: opts.Repository}
	if mo.locale == language.Und {
		mo.locale = language.English
	}
	limits := func(cfg *query.Config) *query.Config {
		if opts.DefaultLimit > 0 {
			cfg.DefaultLimit = opts.DefaultLimit
		}
		if opts.MaxLimit > 0 {
			cfg.MaxLimit = opts.MaxLimit
		}
		return cfg
	}

	var err error
	if c.Users, err = newModule(c.Registry, c.Validator, limits(UsersConfig()), UserFields, summary(UserStats), mo); err != nil {
		return nil, err
	}
	if c.Vendors, err = newModule(c.Registry, c.Validator, limits(VendorsConfig()), VendorFields, summary(VendorStats), mo); err != nil {
		return nil, err
	}
	if c.Products, err = newModule(c.Registry, c.Validator, limits(ProductsConfig()), ProductFields, summary(ProductStats), mo); err != nil {
		return nil, err
	}
	if c.Transactions, err = newModule(c.Registry, c.Validator, limits(TransactionsConfig()), TransactionFields, summary(TransactionStats), mo); err != nil {
		return nil, err
	}
	if c.Orders, err = newModule(c.Registry, c.Validator, limits(OrdersConfig()), OrderFields, summary(OrderStats), mo); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadAll loads every module from the repository concurrently.
func (c *Catalog) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Users.Load(ctx) })
	g.Go(func() error { return c.Vendors.Load(ctx) })
	g.Go(func() error { return c.Products.Load(ctx) })
	g.Go(func() error { return c.Transactions.Load(ctx) })
	g.Go(func() error { return c.Orders.Load(ctx) })
	return g.Wait()
}

// Stats returns each module's summary keyed by module name.
func (c *Catalog) Stats() map[string]any {
	return map[string]any{
		c.Users.Name():        c.Users.Stats(),
		c.Vendors.Name():      c.Vendors.Stats(),
		c.Products.Name():     c.Products.Stats(),
		c.Transactions.Name(): c.Transactions.Stats(),
		c.Orders.Name():       c.Orders.Stats(),
	}
}

func summary[T, S any](fn func([]T) S) func([]T) any {
	return func(items []T) any { return fn(items) }
}
