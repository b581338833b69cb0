package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps sessions in process memory with a sliding TTL.
type MemoryStorage struct {
	mu       sync.Mutex
	sessions map[SessionID]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStorage creates an in-memory Storage. A non-positive ttl disables expiry.
func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[SessionID]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStorage) GetState(_ context.Context, id SessionID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return nil, ErrStateNotFound
	}

	return &session, nil
}

func (s *MemoryStorage) SetState(_ context.Context, id SessionID, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	stored.ID = id
	stored.UpdatedAt = s.now().UTC()
	s.sessions[id] = stored

	return nil
}

func (s *MemoryStorage) TakeState(_ context.Context, id SessionID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookup(id)
	if !ok {
		return nil, ErrStateNotFound
	}
	delete(s.sessions, id)

	return &session, nil
}

func (s *MemoryStorage) ClearState(_ context.Context, id SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemoryStorage) GetAllStates(_ context.Context) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Session, 0, len(s.sessions))
	for id := range s.sessions {
		session, ok := s.lookup(id)
		if !ok {
			continue
		}
		result = append(result, &session)
	}

	return result, nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStorage) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed
}

// lookup must be called with mu held.
func (s *MemoryStorage) lookup(id SessionID) (Session, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}

	if s.expired(session) {
		delete(s.sessions, id)
		return Session{}, false
	}

	return session, true
}

func (s *MemoryStorage) expired(session Session) bool {
	return s.ttl > 0 && s.now().Sub(session.UpdatedAt) > s.ttl
}
