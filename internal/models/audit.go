package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditKind string

const (
	AuditForumModeration   AuditKind = "forum_moderation"
	AuditApplicationReview AuditKind = "application_review"
	AuditContentViolation  AuditKind = "content_violation"
	AuditRoleChange        AuditKind = "role_change"
	AuditSessionDeleted    AuditKind = "session_deleted"
)

// AuditEvent is an append-only record stored in MongoDB.
type AuditEvent struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Kind       AuditKind              `bson:"kind" json:"kind"`
	ActorID    string                 `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	TargetType string                 `bson:"target_type" json:"target_type"`
	TargetID   string                 `bson:"target_id" json:"target_id"`
	Action     string                 `bson:"action" json:"action"`
	Reason     string                 `bson:"reason,omitempty" json:"reason,omitempty"`
	IPAddress  string                 `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}

// AuditFilter narrows audit log queries. Empty fields match everything.
type AuditFilter struct {
	Kind     AuditKind
	TargetID string
	ActorID  string
	Limit    int64
}
