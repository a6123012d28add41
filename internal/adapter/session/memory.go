package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
)

// MemoryStore keeps sessions in process. Expired entries are swept on
// Create instead of by a janitor goroutine.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

var _ port.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, 0),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (ms *MemoryStore) Create(_ context.Context, userID int) (port.Session, error) {
	ms.cache.DeleteExpired()

	s, err := newSession(userID, ms.ttl, ms.now())

	if err != nil {
		return port.Session{}, err
	}

	ms.cache.Set(s.ID, s, ms.ttl)

	return clone(s), nil
}

func (ms *MemoryStore) Get(_ context.Context, id string) (port.Session, error) {
	item, found := ms.cache.Get(id)

	if !found {
		return port.Session{}, domain.ErrNotFound
	}

	s := item.(port.Session)

	if !ms.now().Before(s.ExpiresAt) {
		ms.cache.Delete(id)
		return port.Session{}, domain.ErrNotFound
	}

	return clone(s), nil
}

// Save keeps the original expiry; sessions do not slide.
func (ms *MemoryStore) Save(_ context.Context, s port.Session) error {
	remaining := s.ExpiresAt.Sub(ms.now())

	if remaining <= 0 {
		ms.cache.Delete(s.ID)
		return domain.ErrNotFound
	}

	ms.cache.Set(s.ID, clone(s), remaining)

	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, id string) error {
	ms.cache.Delete(id)
	return nil
}

func (ms *MemoryStore) Count() int {
	return ms.cache.ItemCount()
}
