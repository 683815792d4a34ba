package document

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of documents a CachingSource keeps.
const DefaultCacheSize = 256

// CachingSource remembers documents resolved by another Source. Failed
// lookups are not cached.
type CachingSource struct {
	next  Source
	cache *lru.Cache[string, string]
}

// NewCachingSource wraps next with an LRU cache of the given size. A size of
// zero or less uses DefaultCacheSize.
func NewCachingSource(next Source, size int) (*CachingSource, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachingSource{next: next, cache: c}, nil
}

func (s *CachingSource) Document(ctx context.Context, name string) (string, error) {
	if doc, ok := s.cache.Get(name); ok {
		return doc, nil
	}
	doc, err := s.next.Document(ctx, name)
	if err != nil {
		return "", err
	}
	s.cache.Add(name, doc)
	return doc, nil
}

// ClearCache drops every cached document.
func (s *CachingSource) ClearCache() { s.cache.Purge() }

// Len reports the number of cached documents.
func (s *CachingSource) Len() int { return s.cache.Len() }
