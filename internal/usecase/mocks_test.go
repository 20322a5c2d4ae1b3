package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
	"notification-hub/internal/domain/ports/adapter"
	"notification-hub/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// fakeTxManager serializes transactions with a mutex, mirroring the row lock
// the postgres TxManager holds across check-then-increment.
type fakeTxManager struct {
	mu sync.Mutex
}

type fakeTx struct{}

func (m *fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, fakeTx{})
}

// memQuotaRepo is a small in-memory counter used by unit tests.
type memQuotaRepo struct {
	mu      sync.Mutex
	rows    map[string]int
	created int // how many rows were lazily created
	incErr  error
}

func newMemQuotaRepo() *memQuotaRepo {
	return &memQuotaRepo{rows: make(map[string]int)}
}

func quotaKey(userID string, day time.Time) string {
	return userID + "|" + day.Format("2006-01-02")
}

func (m *memQuotaRepo) CountForUpdate(ctx context.Context, tx repository.Tx, userID string, day time.Time) (int, error) {
	if tx == nil {
		return 0, domain.ErrTxRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := quotaKey(userID, day)
	if _, ok := m.rows[k]; !ok {
		m.rows[k] = 0
		m.created++
	}
	return m.rows[k], nil
}

func (m *memQuotaRepo) Increment(ctx context.Context, tx repository.Tx, userID string, day time.Time) error {
	if m.incErr != nil {
		return m.incErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := quotaKey(userID, day)
	if _, ok := m.rows[k]; !ok {
		m.rows[k] = 0
		m.created++
	}
	m.rows[k]++
	return nil
}

func (m *memQuotaRepo) Count(ctx context.Context, tx repository.Tx, userID string, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[quotaKey(userID, day)], nil
}

// memMessageRepo stores messages in insertion order.
type memMessageRepo struct {
	mu      sync.Mutex
	msgs    []*model.Message
	saveErr error
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{}
}

func (m *memMessageRepo) Save(ctx context.Context, tx repository.Tx, msg *model.Message) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *msg
	cp.Deliveries = append([]*model.Delivery(nil), msg.Deliveries...)
	m.msgs = append(m.msgs, &cp)
	return nil
}

func (m *memMessageRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memMessageRepo) FindByOwner(ctx context.Context, tx repository.Tx, userID string, f repository.MessageFilter) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Message
	for i := len(m.msgs) - 1; i >= 0; i-- {
		msg := m.msgs[i]
		if msg.UserID == userID && matchesFilter(msg, f) {
			out = append(out, msg)
		}
	}
	return page(out, f), nil
}

func (m *memMessageRepo) FindAll(ctx context.Context, tx repository.Tx, f repository.MessageFilter) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Message
	for i := len(m.msgs) - 1; i >= 0; i-- {
		if matchesFilter(m.msgs[i], f) {
			out = append(out, m.msgs[i])
		}
	}
	return page(out, f), nil
}

func (m *memMessageRepo) CountByOwner(ctx context.Context, tx repository.Tx, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.msgs {
		if msg.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memMessageRepo) saved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func page(out []*model.Message, f repository.MessageFilter) []*model.Message {
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func matchesFilter(msg *model.Message, f repository.MessageFilter) bool {
	if !f.From.IsZero() && msg.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && msg.CreatedAt.After(f.To) {
		return false
	}
	if f.Status != "" {
		found := false
		for _, d := range msg.Deliveries {
			if d.Status == f.Status {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.Platform != "" {
		found := false
		for _, d := range msg.Deliveries {
			if d.Platform == f.Platform {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// memUserRepo keyed by username.
type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.Username] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) List(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.User, 0, len(m.store))
	for _, u := range m.store {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUserRepo) UpdateDailyLimit(ctx context.Context, tx repository.Tx, id string, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.ID == id {
			u.DailyLimit = limit
			return nil
		}
	}
	return domain.ErrNotFound
}

// fakeAdapter is a scriptable platform adapter.
type fakeAdapter struct {
	platform   model.Platform
	configured bool
	send       func(ctx context.Context, content, destination, sender string) adapter.SendOutcome

	mu    sync.Mutex
	calls int
}

func newFakeAdapter(p model.Platform) *fakeAdapter {
	return &fakeAdapter{platform: p, configured: true}
}

func (f *fakeAdapter) Send(ctx context.Context, content, destination, sender string) adapter.SendOutcome {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.send != nil {
		return f.send(ctx, content, destination, sender)
	}
	resolved := destination
	if resolved == "" {
		resolved = "default"
	}
	return adapter.SendOutcome{
		Platform:    f.platform,
		Destination: resolved,
		Response:    map[string]any{"ok": true},
	}
}

func (f *fakeAdapter) PlatformType() model.Platform { return f.platform }
func (f *fakeAdapter) IsConfigured() bool           { return f.configured }

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCache records RemainingCache traffic.
type fakeCache struct {
	mu        sync.Mutex
	vals      map[string]int
	evictions int
}

func newFakeCache() *fakeCache {
	return &fakeCache{vals: make(map[string]int)}
}

func (c *fakeCache) Get(ctx context.Context, userID string, day time.Time) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.vals[quotaKey(userID, day)]
	return v, ok
}

func (c *fakeCache) Set(ctx context.Context, userID string, day time.Time, remaining int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[quotaKey(userID, day)] = remaining
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, userID string, day time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vals, quotaKey(userID, day))
	c.evictions++
	return nil
}
