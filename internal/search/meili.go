package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const idxPosts = "solace_forum_posts"

// Meili searches and indexes forum posts in Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
	log     *zap.SugaredLogger
}

// NewMeili creates the client, configures the index when reachable and starts
// a health loop. Callers fall back to Postgres while it reports unhealthy.
func NewMeili(url, apiKey string, log *zap.SugaredLogger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
		log:    log,
	}
	if _, err := m.client.Health(); err != nil {
		log.Warnw("meilisearch unavailable", "url", url, "error", err)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}
	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxPosts, PrimaryKey: "id"}); err != nil {
		m.log.Debugw("create index (may already exist)", "index", idxPosts, "error", err)
	}
	index := m.client.Index(idxPosts)
	filterable := []interface{}{"user_id"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warnw("update filterable attributes failed", "index", idxPosts, "error", err)
	}
	searchable := []string{"title", "content", "author_name"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warnw("update searchable attributes failed", "index", idxPosts, "error", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(healthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			was := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !was {
				m.log.Infow("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the health loop.
func (m *Meili) Close() { close(m.done) }

func (m *Meili) Healthy() bool { return m.healthy.Load() }

func (m *Meili) Search(_ context.Context, q Query) ([]uuid.UUID, int, error) {
	if !m.healthy.Load() {
		return nil, 0, errors.New("meilisearch unhealthy")
	}
	q = q.normalized()
	resp, err := m.client.Index(idxPosts).Search(q.Text, &meili.SearchRequest{
		Limit:                int64(q.Limit),
		Offset:               int64(q.Offset),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if id, ok := hitID(hit); ok {
			ids = append(ids, id)
		}
	}
	return ids, int(resp.EstimatedTotalHits), nil
}

func hitID(hit meili.Hit) (uuid.UUID, bool) {
	raw, ok := hit["id"]
	if !ok {
		return uuid.Nil, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	return id, err == nil
}

func (m *Meili) IndexPost(rec PostRecord) error {
	_, err := m.client.Index(idxPosts).AddDocuments([]PostRecord{rec}, nil)
	return err
}

func (m *Meili) DeletePost(id string) error {
	_, err := m.client.Index(idxPosts).DeleteDocument(id, nil)
	return err
}
