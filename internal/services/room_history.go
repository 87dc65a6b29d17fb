package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	RoomMessagesCollection = "session_messages"

	roomRecentKeyPrefix = "room:session:"
	roomRecentKeySuffix = ":recent"
	roomRecentMaxLen    = 50
	roomRecentTTL       = time.Hour

	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

func roomRecentKey(sessionID string) string {
	return roomRecentKeyPrefix + sessionID + roomRecentKeySuffix
}

// recentCache keeps the newest room messages in a capped Redis list, newest at head.
type recentCache struct {
	client *redis.Client
}

func (c recentCache) push(ctx context.Context, msg models.RoomMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := roomRecentKey(msg.SessionID)
	// Only append to a warm list; a cold list is rebuilt from Mongo on the next read.
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return err
	}
	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, roomRecentMaxLen-1)
	pipe.Expire(ctx, key, roomRecentTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// get returns cached messages oldest-first.
func (c recentCache) get(ctx context.Context, sessionID string) ([]models.RoomMessage, bool, error) {
	raw, err := c.client.LRange(ctx, roomRecentKey(sessionID), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false, err
	}
	msgs := make([]models.RoomMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.RoomMessage
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true, nil
}

// warm replaces the cached list with msgs (oldest-first input).
func (c recentCache) warm(ctx context.Context, sessionID string, msgs []models.RoomMessage) error {
	key := roomRecentKey(sessionID)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, roomRecentMaxLen-1)
	pipe.Expire(ctx, key, roomRecentTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c recentCache) drop(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, roomRecentKey(sessionID)).Err()
}

// RoomHistory persists session room messages in MongoDB with a Redis cache of
// the latest page. Message ids are Snowflake ids, so they order by time.
type RoomHistory struct {
	col    *mongo.Collection
	recent recentCache
	ids    *snowflake.Node
	log    *zap.SugaredLogger
}

func NewRoomHistory(db *mongo.Database, client *redis.Client, node *snowflake.Node, log *zap.SugaredLogger) *RoomHistory {
	return &RoomHistory{
		col:    db.Collection(RoomMessagesCollection),
		recent: recentCache{client: client},
		ids:    node,
		log:    log,
	}
}

func (h *RoomHistory) EnsureIndexes(ctx context.Context) error {
	_, err := h.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("idx_session_id"),
	})
	return err
}

// Save assigns an id and timestamp and persists the message.
func (h *RoomHistory) Save(ctx context.Context, msg models.RoomMessage) (models.RoomMessage, error) {
	msg.ID = h.ids.Generate().Int64()
	msg.CreatedAt = time.Now().UTC()
	if _, err := h.col.InsertOne(ctx, msg); err != nil {
		return models.RoomMessage{}, fmt.Errorf("insert room message: %w", err)
	}
	if err := h.recent.push(ctx, msg); err != nil {
		h.log.Warnw("room recent cache push failed", "session_id", msg.SessionID, "error", err)
	}
	return msg, nil
}

// Load returns up to limit messages older than before (0 = newest), oldest-first,
// and whether older messages remain.
func (h *RoomHistory) Load(ctx context.Context, sessionID string, before int64, limit int64) ([]models.RoomMessage, bool, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	if before == 0 && limit <= roomRecentMaxLen {
		cached, ok, err := h.recent.get(ctx, sessionID)
		if err != nil {
			h.log.Warnw("room recent cache read failed", "session_id", sessionID, "error", err)
		}
		// A full list can serve any page that fits in it; a short list means
		// the whole history is cached.
		if ok && (int64(len(cached)) >= limit || len(cached) < roomRecentMaxLen) {
			hasMore := int64(len(cached)) > limit || len(cached) >= roomRecentMaxLen
			if int64(len(cached)) > limit {
				cached = cached[int64(len(cached))-limit:]
			}
			return cached, hasMore, nil
		}
	}

	filter := bson.M{"session_id": sessionID}
	if before > 0 {
		filter["_id"] = bson.M{"$lt": before}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(limit + 1)
	cur, err := h.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, fmt.Errorf("find room messages: %w", err)
	}
	defer cur.Close(ctx)

	msgs := []models.RoomMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, false, fmt.Errorf("decode room messages: %w", err)
	}
	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if before == 0 && limit == defaultHistoryLimit {
		if err := h.recent.warm(ctx, sessionID, msgs); err != nil {
			h.log.Warnw("room recent cache warm failed", "session_id", sessionID, "error", err)
		}
	}
	return msgs, hasMore, nil
}

// Purge deletes every stored message of a session.
func (h *RoomHistory) Purge(ctx context.Context, sessionID string) error {
	if _, err := h.col.DeleteMany(ctx, bson.M{"session_id": sessionID}); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("delete room messages: %w", err)
	}
	return h.recent.drop(ctx, sessionID)
}
