package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/seatrack/seatrack/backend/go-services/internal/models"
)

// MemoryStore keeps users in process memory. All writes go through one lock;
// data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[int64]*models.User
	byEmail map[string]int64
	nextID  int64
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[int64]*models.User),
		byEmail: make(map[string]int64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func clone(u *models.User) *models.User {
	cp := *u
	return &cp
}

func (m *MemoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return clone(m.byID[id]), nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(u), nil
}

func (m *MemoryStore) FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	if provider == "" || providerID == "" {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byID {
		if u.Provider == provider && u.ProviderID == providerID {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := clone(u)
	prepareInsert(rec, m.now())
	if _, exists := m.byEmail[rec.Email]; exists {
		return nil, ErrDuplicateEmail
	}
	m.nextID++
	rec.ID = m.nextID
	m.byID[rec.ID] = rec
	m.byEmail[rec.Email] = rec.ID
	return clone(rec), nil
}

func (m *MemoryStore) Update(ctx context.Context, id int64, p Patch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := clone(cur)
	p.apply(next, m.now())
	if next.Email != cur.Email {
		if other, taken := m.byEmail[next.Email]; taken && other != id {
			return nil, ErrDuplicateEmail
		}
		delete(m.byEmail, cur.Email)
		m.byEmail[next.Email] = id
	}
	m.byID[id] = next
	return clone(next), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.byID, id)
	delete(m.byEmail, u.Email)
	return clone(u), nil
}

// List returns users ordered by id.
func (m *MemoryStore) List(ctx context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
