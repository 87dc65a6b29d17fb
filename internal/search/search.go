package search

import (
	"context"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
)

// PostRecord is the data indexed for a forum post.
type PostRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
	UserID     string `json:"user_id"`
	CreatedAt  int64  `json:"created_at"`
}

func recordFromPost(p models.Post) PostRecord {
	return PostRecord{
		ID:         p.ID.String(),
		Title:      p.Title,
		Content:    p.Content,
		AuthorName: p.AuthorName,
		UserID:     p.UserID.String(),
		CreatedAt:  p.CreatedAt.UTC().Unix(),
	}
}

// Query describes a forum search request.
type Query struct {
	Text   string
	Limit  int
	Offset int
}

// Response is returned by the search endpoint.
type Response struct {
	Posts  []models.Post `json:"posts"`
	Total  int           `json:"total"`
	Query  string        `json:"query"`
	Engine string        `json:"engine"`
}

// Searcher returns matching post ids ranked best first.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]uuid.UUID, int, error)
	Healthy() bool
}

// PostLoader hydrates visible posts by id, preserving order.
type PostLoader interface {
	PostsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (models.Post, error)
}

const (
	defaultLimit = 20
	maxLimit     = 50
	healthEvery  = 10 * time.Second
)

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
