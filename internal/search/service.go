package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrIndexUnavailable is returned by SyncPost while Meilisearch is unhealthy so
// the sync task is retried with backoff.
var ErrIndexUnavailable = errors.New("search index unavailable")

// indexer is the write side of Meili.
type indexer interface {
	Healthy() bool
	IndexPost(rec PostRecord) error
	DeletePost(id string) error
}

// Service tries Meilisearch first and falls back to Postgres full-text search.
type Service struct {
	primary  Searcher
	index    indexer
	fallback Searcher
	posts    PostLoader
	log      *zap.SugaredLogger
}

// NewService builds the facade. meili may be nil when Meilisearch is not configured.
func NewService(meili *Meili, fallback Searcher, posts PostLoader, log *zap.SugaredLogger) *Service {
	s := &Service{fallback: fallback, posts: posts, log: log}
	if meili != nil {
		s.primary, s.index = meili, meili
	}
	return s
}

func (s *Service) Search(ctx context.Context, q Query) (Response, error) {
	q = q.normalized()
	if s.primary != nil && s.primary.Healthy() {
		ids, total, err := s.primary.Search(ctx, q)
		if err == nil {
			return s.hydrate(ctx, q, ids, total, "meilisearch")
		}
		s.log.Warnw("meilisearch failed, falling back to postgres", "error", err)
	}
	ids, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		return Response{}, err
	}
	return s.hydrate(ctx, q, ids, total, "postgres")
}

func (s *Service) hydrate(ctx context.Context, q Query, ids []uuid.UUID, total int, engine string) (Response, error) {
	posts, err := s.posts.PostsByIDs(ctx, ids)
	if err != nil {
		return Response{}, fmt.Errorf("load search results: %w", err)
	}
	return Response{Posts: posts, Total: total, Query: q.Text, Engine: engine}, nil
}

// SyncPost indexes a visible post and removes any other from the index.
// A missing post is removed too. Without Meilisearch configured it does nothing.
func (s *Service) SyncPost(ctx context.Context, id uuid.UUID) error {
	if s.index == nil {
		return nil
	}
	if !s.index.Healthy() {
		return ErrIndexUnavailable
	}
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return s.index.DeletePost(id.String())
		}
		return fmt.Errorf("load post: %w", err)
	}
	if !post.Visible() {
		return s.index.DeletePost(id.String())
	}
	return s.index.IndexPost(recordFromPost(post))
}
