package search

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/core/registry"
	"github.com/baseplate/backoffice/internal/core/store"
	"github.com/baseplate/backoffice/internal/logging"
)

type cacheKey [blake2b.Size256]byte

// LocalSource answers queries from a module store. Results are cached per
// normalized descriptor and store revision, so any change to the records
// makes earlier entries unreachable.
//
// Cached results are shared between callers and must not be modified.
type LocalSource[T record.Record] struct {
	registry *registry.Registry
	store    *store.Store[T]
	cache    *lru.Cache[cacheKey, *query.Result[T]]
	log      *logging.Logger
}

// NewLocalSource builds a source over st. A cacheSize of zero or less
// disables caching.
func NewLocalSource[T record.Record](reg *registry.Registry, st *store.Store[T], cacheSize int) (*LocalSource[T], error) {
	src := &LocalSource[T]{
		registry: reg,
		store:    st,
		log:      logging.For("source." + st.Module()),
	}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, *query.Result[T]](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}
		src.cache = cache
	}
	return src, nil
}

// Query validates d and runs it against the store's current records.
func (l *LocalSource[T]) Query(ctx context.Context, d query.Descriptor) (*query.Result[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Module == "" {
		d.Module = l.store.Module()
	}
	if err := l.registry.Validate(d); err != nil {
		return nil, err
	}
	if d.Module != l.store.Module() {
		return nil, fmt.Errorf("%w: %s source got %s", ErrWrongModule, l.store.Module(), d.Module)
	}

	d = l.store.Engine().Config().Normalize(d)
	if l.cache == nil {
		return l.store.Run(d), nil
	}

	key, err := fingerprint(d, l.store.Revision())
	if err != nil {
		return nil, err
	}
	if res, ok := l.cache.Get(key); ok {
		l.log.Debugf("cache hit for page %d", d.Page)
		return res, nil
	}
	res := l.store.Run(d)
	l.cache.Add(key, res)
	return res, nil
}

func (l *LocalSource[T]) FetchPage(ctx context.Context, d query.Descriptor) (*query.PageResult[T], error) {
	res, err := l.Query(ctx, d)
	if err != nil {
		return nil, err
	}
	page := res.PageResult
	return &page, nil
}

// Purge empties the cache.
func (l *LocalSource[T]) Purge() {
	if l.cache != nil {
		l.cache.Purge()
	}
}

func (l *LocalSource[T]) CacheLen() int {
	if l.cache == nil {
		return 0
	}
	return l.cache.Len()
}

func fingerprint(d query.Descriptor, revision uint64) (cacheKey, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return cacheKey{}, fmt.Errorf("fingerprint descriptor: %w", err)
	}
	data = binary.BigEndian.AppendUint64(data, revision)
	return blake2b.Sum256(data), nil
}
