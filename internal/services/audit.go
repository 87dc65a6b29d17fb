package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	AuditCollection   = "audit_events"
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditLog is the MongoDB-backed Auditor.
type AuditLog struct {
	col *mongo.Collection
}

func NewAuditLog(db *mongo.Database) *AuditLog {
	return &AuditLog{col: db.Collection(AuditCollection)}
}

func (a *AuditLog) EnsureIndexes(ctx context.Context) error {
	_, err := a.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}},
	})
	return err
}

func (a *AuditLog) Record(ctx context.Context, event models.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if _, err := a.col.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns matching events, newest first.
func (a *AuditLog) List(ctx context.Context, f models.AuditFilter) ([]models.AuditEvent, error) {
	filter := bson.M{}
	if f.Kind != "" {
		filter["kind"] = f.Kind
	}
	if f.TargetID != "" {
		filter["target_id"] = f.TargetID
	}
	if f.ActorID != "" {
		filter["actor_id"] = f.ActorID
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := a.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.AuditEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}
	return events, nil
}

// PurgeViolations deletes content-violation events created before cutoff.
// Moderation and review history is kept.
func (a *AuditLog) PurgeViolations(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := a.col.DeleteMany(ctx, bson.M{
		"kind":       models.AuditContentViolation,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("purge violations: %w", err)
	}
	return res.DeletedCount, nil
}

// recordAudit writes an event after the primary change has committed. A
// failure is logged and does not fail the request.
func recordAudit(ctx context.Context, audit Auditor, log *zap.SugaredLogger, event models.AuditEvent) {
	if audit == nil {
		return
	}
	if err := audit.Record(ctx, event); err != nil {
		log.Errorw("audit write failed", "kind", event.Kind, "target_id", event.TargetID, "error", err)
	}
}
