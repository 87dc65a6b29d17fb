package models

import "time"

// RoomMessage is one chat line in a counseling session room. IDs are Snowflake
// ids, so they sort by creation time.
type RoomMessage struct {
	ID         int64     `bson:"_id" json:"id,string"`
	SessionID  string    `bson:"session_id" json:"session_id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	SenderName string    `bson:"sender_name" json:"sender_name"`
	Text       string    `bson:"text" json:"text"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
