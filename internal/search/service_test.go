package search

import (
	"context"
	"errors"
	"testing"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/internal/services"
	"github.com/AnshRaj112/solace-backend/pkg/logger"
	"github.com/google/uuid"
)

type fakeSearcher struct {
	healthy bool
	ids     []uuid.UUID
	err     error
	calls   int
}

func (f *fakeSearcher) Search(context.Context, Query) ([]uuid.UUID, int, error) {
	f.calls++
	return f.ids, len(f.ids), f.err
}

func (f *fakeSearcher) Healthy() bool { return f.healthy }

type fakeIndex struct {
	down    bool
	indexed []string
	deleted []string
}

func (f *fakeIndex) Healthy() bool { return !f.down }
func (f *fakeIndex) IndexPost(rec PostRecord) error {
	f.indexed = append(f.indexed, rec.ID)
	return nil
}
func (f *fakeIndex) DeletePost(id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePosts map[uuid.UUID]models.Post

func (f fakePosts) PostsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Post, error) {
	out := []models.Post{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePosts) GetPost(_ context.Context, id uuid.UUID) (models.Post, error) {
	p, ok := f[id]
	if !ok {
		return models.Post{}, services.ErrNotFound
	}
	return p, nil
}

func TestSearchFallsBackWhenPrimaryFails(t *testing.T) {
	id := uuid.New()
	posts := fakePosts{id: {ID: id, Title: "sleep"}}
	primary := &fakeSearcher{healthy: true, err: errors.New("timeout")}
	fallback := &fakeSearcher{healthy: true, ids: []uuid.UUID{id}}
	s := &Service{primary: primary, fallback: fallback, posts: posts, log: logger.Nop()}

	resp, err := s.Search(context.Background(), Query{Text: "sleep"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Engine != "postgres" || len(resp.Posts) != 1 || primary.calls != 1 {
		t.Fatalf("unexpected response %+v (primary calls %d)", resp, primary.calls)
	}
}

func TestSearchSkipsUnhealthyPrimary(t *testing.T) {
	primary := &fakeSearcher{healthy: false}
	fallback := &fakeSearcher{healthy: true}
	s := &Service{primary: primary, fallback: fallback, posts: fakePosts{}, log: logger.Nop()}

	if _, err := s.Search(context.Background(), Query{Text: "x"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if primary.calls != 0 || fallback.calls != 1 {
		t.Fatalf("primary=%d fallback=%d", primary.calls, fallback.calls)
	}
}

func TestSyncPost(t *testing.T) {
	visible := models.Post{ID: uuid.New()}
	visible.IsApproved = true
	hidden := models.Post{ID: uuid.New()}
	hidden.IsApproved, hidden.IsRemoved = true, true
	missing := uuid.New()

	idx := &fakeIndex{}
	s := &Service{index: idx, posts: fakePosts{visible.ID: visible, hidden.ID: hidden}, log: logger.Nop()}
	for _, id := range []uuid.UUID{visible.ID, hidden.ID, missing} {
		if err := s.SyncPost(context.Background(), id); err != nil {
			t.Fatalf("SyncPost(%s): %v", id, err)
		}
	}
	if len(idx.indexed) != 1 || idx.indexed[0] != visible.ID.String() {
		t.Fatalf("indexed = %v", idx.indexed)
	}
	if len(idx.deleted) != 2 {
		t.Fatalf("deleted = %v, want hidden and missing", idx.deleted)
	}
}

func TestSyncPostFailsWhileIndexDown(t *testing.T) {
	post := models.Post{ID: uuid.New()}
	post.IsApproved = true
	idx := &fakeIndex{down: true}
	s := &Service{index: idx, posts: fakePosts{post.ID: post}, log: logger.Nop()}

	if err := s.SyncPost(context.Background(), post.ID); !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("SyncPost while down: err = %v, want ErrIndexUnavailable", err)
	}
	if len(idx.indexed) != 0 {
		t.Fatalf("indexed while down: %v", idx.indexed)
	}

	idx.down = false
	if err := s.SyncPost(context.Background(), post.ID); err != nil {
		t.Fatalf("SyncPost after recovery: %v", err)
	}
	if len(idx.indexed) != 1 || idx.indexed[0] != post.ID.String() {
		t.Fatalf("indexed = %v", idx.indexed)
	}
}

func TestSyncPostWithoutIndexIsNoop(t *testing.T) {
	s := &Service{posts: fakePosts{}, log: logger.Nop()}
	if err := s.SyncPost(context.Background(), uuid.New()); err != nil {
		t.Fatalf("SyncPost: %v", err)
	}
}

func TestQueryNormalized(t *testing.T) {
	q := Query{Limit: 500, Offset: -3}.normalized()
	if q.Limit != maxLimit || q.Offset != 0 {
		t.Fatalf("normalized = %+v", q)
	}
	if q := (Query{}).normalized(); q.Limit != defaultLimit {
		t.Fatalf("default limit = %d", q.Limit)
	}
}
