// Package dedup decides whether a candidate article is already stored and
// writes the ones that are not.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log"

	"news-ingest/pkg/db"
	"news-ingest/pkg/domain"
)

// Outcome is the result of SaveIfNew.
type Outcome int

const (
	// Inserted means the article was new and is now stored.
	Inserted Outcome = iota
	// Duplicate means an article with the same link was already stored.
	Duplicate
	// Invalid means the record broke a storage invariant and was not stored.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// LinkCache remembers links known to be stored. The store stays the source of
// truth: a cache entry can outlive the store it was written for.
type LinkCache interface {
	Seen(ctx context.Context, link string) (bool, error)
	Mark(ctx context.Context, link string) error
}

// Deduplicator guards an ArticleStore against storing the same link twice.
type Deduplicator struct {
	store db.ArticleStore
	cache LinkCache
	// scoped means the cache keys belong to this store only, so a hit
	// can skip the store lookup.
	scoped bool
}

// New creates a deduplicator over store. cache may be nil. Cache hits are
// confirmed against the store before a link counts as stored.
func New(store db.ArticleStore, cache LinkCache) *Deduplicator {
	return &Deduplicator{store: store, cache: cache}
}

// NewScoped creates a deduplicator that trusts cache hits without asking the
// store. The cache must be namespaced to store (see CachePrefix) and store
// must be durable.
func NewScoped(store db.ArticleStore, cache LinkCache) *Deduplicator {
	return &Deduplicator{store: store, cache: cache, scoped: cache != nil}
}

// Exists reports whether an article with link is already stored.
func (d *Deduplicator) Exists(ctx context.Context, link string) (bool, error) {
	cached := false
	if d.cache != nil {
		seen, err := d.cache.Seen(ctx, link)
		if err != nil {
			log.Printf("Deduplicator: link cache lookup failed, falling back to store: %v", err)
		} else if seen && d.scoped {
			return true, nil
		} else {
			cached = seen
		}
	}

	exists, err := d.store.Exists(ctx, link)
	if err != nil {
		return false, fmt.Errorf("check existing article: %w", err)
	}
	switch {
	case exists && !cached:
		d.mark(ctx, link)
	case !exists && cached:
		log.Printf("Deduplicator: cached link %s is not in the store, treating it as new", link)
	}
	return exists, nil
}

// SaveIfNew inserts article unless its link is already stored.
//
// The check and the insert are not atomic. A concurrent writer that wins the
// race makes the store reject the insert with db.ErrDuplicate, which is
// reported as Duplicate.
func (d *Deduplicator) SaveIfNew(ctx context.Context, article *domain.Article) (Outcome, error) {
	if err := article.Validate(); err != nil {
		return Invalid, nil
	}

	exists, err := d.Exists(ctx, article.Link)
	if err != nil {
		return Invalid, err
	}
	if exists {
		return Duplicate, nil
	}

	if err := d.store.Insert(ctx, article); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			d.mark(ctx, article.Link)
			return Duplicate, nil
		}
		return Invalid, fmt.Errorf("store article %s: %w", article.Link, err)
	}

	d.mark(ctx, article.Link)
	return Inserted, nil
}

func (d *Deduplicator) mark(ctx context.Context, link string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Mark(ctx, link); err != nil {
		log.Printf("Deduplicator: failed to cache link %s: %v", link, err)
	}
}
