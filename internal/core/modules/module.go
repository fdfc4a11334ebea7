package modules

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/registry"
	"github.com/baseplate/backoffice/internal/core/search"
	"github.com/baseplate/backoffice/internal/core/store"
	"github.com/baseplate/backoffice/internal/core/validation"
	"github.com/baseplate/backoffice/internal/logging"
)

// Module bundles everything needed to serve one entity type.
type Module[T record.Record] struct {
	Config *query.Config
	Fields query.Fields[T]
	Engine *query.Engine[T]
	Store  *store.Store[T]
	Source *search.LocalSource[T]
	Codec  *record.Codec[T]

	stats func([]T) any
	repo  *record.Repository
	log   *logging.Logger
}

type moduleOptions struct {
	cacheSize int
	locale    language.Tag
	repo      *record.Repository
}

func newModule[T record.Record](reg *registry.Registry, v *validation.Validator, cfg *query.Config, fields query.Fields[T], stats func([]T) any, opts moduleOptions) (*Module[T], error) {
	if err := reg.Register(cfg); err != nil {
		return nil, err
	}
	eng, err := query.NewEngine(cfg, fields, query.WithLocale(opts.locale))
	if err != nil {
		return nil, err
	}
	s, err := v.Compile(cfg.Name, cfg.Schema)
	if err != nil {
		return nil, err
	}

	st := store.New(eng)
	src, err := search.NewLocalSource(reg, st, opts.cacheSize)
	if err != nil {
		return nil, err
	}

	return &Module[T]{
		Config: cfg,
		Fields: fields,
		Engine: eng,
		Store:  st,
		Source: src,
		Codec:  record.NewCodec[T](s),
		stats:  stats,
		repo:   opts.repo,
		log:    logging.For("module." + cfg.Name),
	}, nil
}

func (m *Module[T]) Name() string {
	return m.Config.Name
}

// Stats computes the module's aggregate summary over the current records.
func (m *Module[T]) Stats() any {
	return m.stats(m.Store.Records())
}

// Load replaces the store content with what the repository holds. Without a
// repository it does nothing.
func (m *Module[T]) Load(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	docs, err := m.repo.List(ctx, m.Name())
	if err != nil {
		return fmt.Errorf("load %s: %w", m.Name(), err)
	}
	recs, err := m.Codec.DecodeAll(docs)
	if err != nil {
		return fmt.Errorf("load %s: %w", m.Name(), err)
	}
	m.Store.ReplaceRecords(recs)
	m.log.Infof("loaded %d records", len(recs))
	return nil
}

// Replace swaps the store content for recs and, when a repository is
// attached, the stored content too.
func (m *Module[T]) Replace(ctx context.Context, recs []T) error {
	if m.repo != nil {
		generic := make([]record.Record, len(recs))
		for i, r := range recs {
			generic[i] = r
		}
		if err := m.repo.Replace(ctx, m.Name(), generic); err != nil {
			return err
		}
	}
	m.Store.ReplaceRecords(recs)
	return nil
}

// Find returns the record with the given id. A record missing from the store
// but present in the repository, such as one written by another process
// since Load, is added to the store.
func (m *Module[T]) Find(ctx context.Context, id string) (T, error) {
	if rec, ok := m.Store.Get(id); ok {
		return rec, nil
	}
	var zero T
	if m.repo == nil {
		return zero, fmt.Errorf("%w: %s/%s", store.ErrRecordNotFound, m.Name(), id)
	}
	doc, err := m.repo.Get(ctx, m.Name(), id)
	if errors.Is(err, record.ErrNotFound) {
		return zero, fmt.Errorf("%w: %s/%s", store.ErrRecordNotFound, m.Name(), id)
	}
	if err != nil {
		return zero, err
	}
	rec, err := m.Codec.Decode(doc)
	if err != nil {
		return zero, err
	}
	if err := m.Store.Add(rec); err != nil && !errors.Is(err, store.ErrRecordExists) {
		return zero, err
	}
	m.log.Debugf("picked up %s from the repository", id)
	return rec, nil
}

// Stored counts the module's records in the repository, or in the store when
// there is no repository.
func (m *Module[T]) Stored(ctx context.Context) (int, error) {
	if m.repo == nil {
		return m.Store.Len(), nil
	}
	return m.repo.Count(ctx, m.Name())
}

// Create validates payload, adds the new record and persists it. A failed
// write leaves the store unchanged.
func (m *Module[T]) Create(ctx context.Context, payload map[string]interface{}) (T, error) {
	var zero T
	rec, err := m.Codec.Create(payload)
	if err != nil {
		return zero, err
	}
	if err := m.Store.Add(rec); err != nil {
		return zero, err
	}
	if m.repo != nil {
		if err := m.repo.Save(ctx, m.Name(), rec); err != nil {
			m.rollback(m.Store.Remove(rec.RecordID()))
			return zero, err
		}
	}
	m.log.Debugf("created %s", rec.RecordID())
	return rec, nil
}

// Update merges patch into the record with the given id and persists it.
func (m *Module[T]) Update(ctx context.Context, id string, patch map[string]interface{}) (T, error) {
	var zero T
	previous, ok := m.Store.Get(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s/%s", store.ErrRecordNotFound, m.Name(), id)
	}
	updated, err := m.Store.Update(id, func(cur T) (T, error) {
		return m.Codec.Patch(cur, patch)
	})
	if err != nil {
		return zero, err
	}
	if m.repo != nil {
		if err := m.repo.Update(ctx, m.Name(), updated); err != nil {
			_, rerr := m.Store.Update(id, func(T) (T, error) { return previous, nil })
			m.rollback(rerr)
			return zero, err
		}
	}
	return updated, nil
}

// Delete removes the record with the given id and its stored copy.
func (m *Module[T]) Delete(ctx context.Context, id string) error {
	previous, ok := m.Store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s/%s", store.ErrRecordNotFound, m.Name(), id)
	}
	if err := m.Store.Remove(id); err != nil {
		return err
	}
	if m.repo != nil {
		err := m.repo.Delete(ctx, m.Name(), id)
		if err != nil && !errors.Is(err, record.ErrNotFound) {
			m.rollback(m.Store.Add(previous))
			return err
		}
	}
	return nil
}

func (m *Module[T]) rollback(err error) {
	if err != nil {
		m.log.Errorf("rollback failed: %v", err)
	}
}

func withMeta[T record.Record](f query.Fields[T]) query.Fields[T] {
	f["id"] = func(r T) any { return r.RecordID() }
	f["createdAt"] = func(r T) any { return r.CreatedTime() }
	f["updatedAt"] = func(r T) any { return r.UpdatedTime() }
	return f
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func count[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}
