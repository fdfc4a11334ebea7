package handlers

import (
	"context"

	"github.com/baseplate/backoffice/internal/core/modules"
	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/validation"
)

// Module is what the HTTP layer needs from one back-office module, with the
// record type erased.
type Module interface {
	Name() string
	Config() *query.Config
	FetchPage(ctx context.Context, d query.Descriptor) (any, error)
	Query(ctx context.Context, d query.Descriptor) (any, error)
	Get(ctx context.Context, id string) (any, error)
	Create(ctx context.Context, payload map[string]interface{}) (any, error)
	Update(ctx context.Context, id string, patch map[string]interface{}) (any, error)
	Delete(ctx context.Context, id string) error
	Stats() any
	Groups(field string) (any, error)
}

type binding[T record.Record] struct {
	m *modules.Module[T]
}

// Bind exposes m to the HTTP layer.
func Bind[T record.Record](m *modules.Module[T]) Module {
	return binding[T]{m: m}
}

func (b binding[T]) Name() string          { return b.m.Name() }
func (b binding[T]) Config() *query.Config { return b.m.Config }
func (b binding[T]) Stats() any            { return b.m.Stats() }

func (b binding[T]) FetchPage(ctx context.Context, d query.Descriptor) (any, error) {
	return b.m.Source.FetchPage(ctx, d)
}

func (b binding[T]) Query(ctx context.Context, d query.Descriptor) (any, error) {
	return b.m.Source.Query(ctx, d)
}

func (b binding[T]) Get(ctx context.Context, id string) (any, error) {
	return b.m.Find(ctx, id)
}

func (b binding[T]) Create(ctx context.Context, payload map[string]interface{}) (any, error) {
	return b.m.Create(ctx, payload)
}

func (b binding[T]) Update(ctx context.Context, id string, patch map[string]interface{}) (any, error) {
	return b.m.Update(ctx, id, patch)
}

func (b binding[T]) Delete(ctx context.Context, id string) error {
	return b.m.Delete(ctx, id)
}

// Groups partitions the records by a filterable field.
func (b binding[T]) Groups(field string) (any, error) {
	if _, ok := b.m.Config.Filterable(field); !ok {
		ve := &validation.ValidationErrors{}
		ve.Add("field", "%q is not filterable in %s", field, b.m.Name())
		return nil, ve
	}
	return b.m.Store.GroupBy(field), nil
}

var _ Module = binding[modules.User]{}

// BindCatalog binds every module of c, in registration order.
func BindCatalog(c *modules.Catalog) []Module {
	return []Module{Bind(c.Users), Bind(c.Vendors), Bind(c.Products), Bind(c.Transactions), Bind(c.Orders)}
}
