package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/ecole/core/session"
)

type memoryStore struct {
	mutex     sync.Mutex
	sessions  map[string]session.Session
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[string]session.Session),
		now:      time.Now,
	}
}

func (s *memoryStore) Save(_ context.Context, sess session.Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions[sess.ID] = sess
	s.sweep()
	return nil
}

// sweep drops expired sessions, at most once per sweepInterval. The caller holds the lock.
func (s *memoryStore) sweep() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
		}
	}
}

func (s *memoryStore) Get(_ context.Context, id string) (session.Session, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, id)
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return session.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) Close() error { return nil }
