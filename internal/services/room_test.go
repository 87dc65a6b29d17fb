package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/google/uuid"
)

func TestRecentCacheWarmPushGet(t *testing.T) {
	_, client := newTestRedis(t)
	cache := recentCache{client: client}
	ctx := context.Background()

	msg := func(id int64) models.RoomMessage {
		return models.RoomMessage{ID: id, SessionID: "s1", Text: "hi"}
	}

	// Pushing to a cold list does nothing.
	if err := cache.push(ctx, msg(1)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, ok, _ := cache.get(ctx, "s1"); ok {
		t.Fatal("cold list should stay empty")
	}

	if err := cache.warm(ctx, "s1", []models.RoomMessage{msg(1), msg(2)}); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if err := cache.push(ctx, msg(3)); err != nil {
		t.Fatalf("push: %v", err)
	}
	got, ok, err := cache.get(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if len(got) != 3 || got[0].ID != 1 || got[2].ID != 3 {
		t.Fatalf("cached order = %+v, want oldest-first 1,2,3", got)
	}

	if err := cache.drop(ctx, "s1"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok, _ := cache.get(ctx, "s1"); ok {
		t.Fatal("dropped list should be empty")
	}
}

func TestRecentCacheCapsLength(t *testing.T) {
	_, client := newTestRedis(t)
	cache := recentCache{client: client}
	ctx := context.Background()

	if err := cache.warm(ctx, "s2", []models.RoomMessage{{ID: 1, SessionID: "s2"}}); err != nil {
		t.Fatalf("warm: %v", err)
	}
	for i := int64(2); i <= roomRecentMaxLen+10; i++ {
		if err := cache.push(ctx, models.RoomMessage{ID: i, SessionID: "s2"}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	got, _, _ := cache.get(ctx, "s2")
	if len(got) != roomRecentMaxLen {
		t.Fatalf("len = %d, want %d", len(got), roomRecentMaxLen)
	}
	if got[len(got)-1].ID != roomRecentMaxLen+10 {
		t.Fatalf("newest = %d", got[len(got)-1].ID)
	}
}

func TestRoomHubFanOut(t *testing.T) {
	_, client := newTestRedis(t)
	hub := NewRoomHub(client, testLog)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a := hub.Subscribe("s1")
	defer a.Close()
	other := hub.Subscribe("s2")
	defer other.Close()

	waitForRoomSubscriber(t, hub)

	if err := hub.Publish(ctx, RoomEvent{Type: RoomEventJoined, SessionID: "s1", UserID: "u1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-a.C:
		if ev.Type != RoomEventJoined || ev.UserID != "u1" {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for room event")
	}
	select {
	case ev := <-other.C:
		t.Fatalf("other room received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	if hub.Subscribers("s1") != 1 {
		t.Fatalf("Subscribers = %d", hub.Subscribers("s1"))
	}
	a.Close()
	a.Close()
	if hub.Subscribers("s1") != 0 {
		t.Fatal("closed subscription should be removed")
	}
	if _, open := <-a.C; open {
		t.Fatal("closed subscription channel should be closed")
	}
}

func waitForRoomSubscriber(t *testing.T, hub *RoomHub) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, _ := hub.client.PubSubNumPat(context.Background()).Result()
		if n > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("room subscriber did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRoomSendChecksSessionState(t *testing.T) {
	counselor, patient := uuid.New(), uuid.New()
	sessions := &memSessions{sessions: map[uuid.UUID]models.CounselingSession{}}
	ended := models.CounselingSession{ID: uuid.New(), CounselorID: counselor, PatientID: patient, Status: models.SessionCompleted}
	cancelled := models.CounselingSession{ID: uuid.New(), CounselorID: counselor, PatientID: patient, Status: models.SessionCancelled}
	live := models.CounselingSession{ID: uuid.New(), CounselorID: counselor, PatientID: patient, Status: models.SessionInProgress}
	for _, s := range []models.CounselingSession{ended, cancelled, live} {
		sessions.sessions[s.ID] = s
	}
	rooms := &Rooms{Sessions: sessions}

	cases := []struct {
		name    string
		session uuid.UUID
		sender  uuid.UUID
		status  int
	}{
		{name: "completed session", session: ended.ID, sender: patient, status: http.StatusConflict},
		{name: "cancelled session", session: cancelled.ID, sender: counselor, status: http.StatusConflict},
		{name: "missing session", session: uuid.New(), sender: patient, status: http.StatusNotFound},
		{name: "not a participant", session: live.ID, sender: uuid.New(), status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rooms.Send(context.Background(), tc.session, Actor{ID: tc.sender}, "hello")
			if statusOf(err) != tc.status {
				t.Fatalf("Send() err = %v, want status %d", err, tc.status)
			}
		})
	}
}

func TestRoomCloseNotifiesSubscribers(t *testing.T) {
	_, client := newTestRedis(t)
	hub := NewRoomHub(client, testLog)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	sub := hub.Subscribe("s1")
	defer sub.Close()
	waitForRoomSubscriber(t, hub)

	rooms := &Rooms{Hub: hub}
	if err := rooms.Close(ctx, "s1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case ev := <-sub.C:
		if ev.Type != RoomEventClosed || ev.SessionID != "s1" {
			t.Fatalf("event = %+v, want closed", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for closed event")
	}
}
