package authsession

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps auth sessions in process. Useful for single-instance
// deployments and tests.
type MemoryStore struct {
	c   *gocache.Cache
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		c:   gocache.New(gocache.NoExpiration, time.Minute),
		now: time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s AuthSession) error {
	ttl, err := validate(s)
	if err != nil {
		return err
	}
	m.c.Set(s.ID, s, ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*AuthSession, error) {
	v, ok := m.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := v.(AuthSession)
	if !ok || s.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.c.Delete(id)
	return nil
}
