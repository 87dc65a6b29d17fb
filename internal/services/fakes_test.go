package services

import (
	"context"
	"sync"
	"time"

	"github.com/AnshRaj112/solace-backend/internal/models"
	"github.com/AnshRaj112/solace-backend/pkg/logger"
	"github.com/google/uuid"
)

var testLog = logger.Nop()

// memProfiles is an in-memory AccountStore and ProfileStore.
type memProfiles struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	profiles map[uuid.UUID]models.Profile
	getErr   error
}

func newMemProfiles(profiles ...models.Profile) *memProfiles {
	m := &memProfiles{accounts: map[string]models.Account{}, profiles: map[uuid.UUID]models.Profile{}}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *memProfiles) CreateAccount(_ context.Context, a models.Account, p models.Profile) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.Email]; ok {
		return models.Profile{}, ErrDuplicate
	}
	m.accounts[a.Email] = a
	m.profiles[p.ID] = p
	return p, nil
}

func (m *memProfiles) AccountByEmail(_ context.Context, email string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[email]
	if !ok {
		return a, ErrNotFound
	}
	return a, nil
}

func (m *memProfiles) AccountEmail(_ context.Context, id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			return a.Email, nil
		}
	}
	return "", ErrNotFound
}

func (m *memProfiles) GetProfile(_ context.Context, id uuid.UUID) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return models.Profile{}, m.getErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return p, ErrNotFound
	}
	return p, nil
}

func (m *memProfiles) UpdateProfile(_ context.Context, p models.Profile) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return p, ErrNotFound
	}
	m.profiles[p.ID] = p
	return p, nil
}

func (m *memProfiles) ListProfiles(_ context.Context, role models.Role, limit, offset int) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Profile
	for _, p := range m.profiles {
		if role == "" || p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProfiles) ListCounselors(ctx context.Context) ([]models.Profile, error) {
	return m.ListProfiles(ctx, models.RoleCounselor, 0, 0)
}

func (m *memProfiles) SetRole(_ context.Context, id uuid.UUID, role models.Role) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return p, ErrNotFound
	}
	p.Role = role
	m.profiles[id] = p
	return p, nil
}

// memCache is a map-backed Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string]interface{}
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string]interface{}{}} }

func (c *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *[]models.CounselorListing:
		*d = v.([]models.CounselorListing)
	case *models.CounselorListing:
		*d = v.(models.CounselorListing)
	case *models.Streak:
		*d = v.(models.Streak)
	default:
		return false, nil
	}
	return true, nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// recordingAuditor keeps events in memory.
type recordingAuditor struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, e models.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

func (a *recordingAuditor) List(context.Context, models.AuditFilter) ([]models.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.AuditEvent(nil), a.events...), nil
}

func (a *recordingAuditor) count(kind models.AuditKind) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// countingNotifier counts notifications per kind.
type countingNotifier struct {
	mu       sync.Mutex
	reviewed int
	booked   int
	status   int
	posts    int
}

func (n *countingNotifier) ApplicationReviewed(context.Context, models.CounselorApplication) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviewed++
	return nil
}

func (n *countingNotifier) SessionBooked(context.Context, models.CounselingSession) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked++
	return nil
}

func (n *countingNotifier) SessionStatusChanged(context.Context, models.CounselingSession) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.status++
	return nil
}

func (n *countingNotifier) PostChanged(context.Context, uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.posts++
	return nil
}

// fakeRooms is a SessionRooms with a pluggable purge.
type fakeRooms struct {
	purgeFn func(ctx context.Context, sessionID string) error
	purged  []string
	closed  []string
}

func (f *fakeRooms) Close(_ context.Context, sessionID string) error {
	f.closed = append(f.closed, sessionID)
	return nil
}

func (f *fakeRooms) Purge(ctx context.Context, sessionID string) error {
	f.purged = append(f.purged, sessionID)
	if f.purgeFn != nil {
		return f.purgeFn(ctx, sessionID)
	}
	return nil
}
