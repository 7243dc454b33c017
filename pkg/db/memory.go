package db

import (
	"context"
	"sync"

	"news-ingest/pkg/domain"
)

// MemoryStore keeps articles in process memory. Used for dry runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	byLink   map[string]int
	articles []domain.Article
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byLink: make(map[string]int)}
}

// Exists reports whether an article with link is stored
func (s *MemoryStore) Exists(ctx context.Context, link string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byLink[link]
	return ok, nil
}

// Insert stores a copy of article, or returns ErrDuplicate if its link is taken
func (s *MemoryStore) Insert(ctx context.Context, article *domain.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byLink[article.Link]; ok {
		return ErrDuplicate
	}
	s.byLink[article.Link] = len(s.articles)
	s.articles = append(s.articles, *article)
	return nil
}

// Articles returns the stored articles in insertion order
func (s *MemoryStore) Articles() []domain.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Article, len(s.articles))
	copy(out, s.articles)
	return out
}

// Len returns the number of stored articles
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}
