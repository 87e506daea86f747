package main

import (
	"context"
	"sync"
	"time"

	"composer-server/internal/types"
)

// MemorySessionStore implements SessionStore using a map
type MemorySessionStore struct {
	sessions map[string]*types.Session
	mu       sync.RWMutex
	ttl      time.Duration
	stopCh   chan struct{}
}

// NewMemorySessionStore creates a new in-memory session store
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	store := &MemorySessionStore{
		sessions: make(map[string]*types.Session),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session := s.sessions[sessionID]
	if session == nil {
		return nil, nil
	}
	// Check expiry
	if time.Since(time.Unix(session.CreatedAt, 0)) > s.ttl {
		return nil, nil
	}
	return session, nil
}

func (s *MemorySessionStore) Set(ctx context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemorySessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, session := range s.sessions {
		if now.Sub(time.Unix(session.CreatedAt, 0)) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *MemorySessionStore) Close() {
	close(s.stopCh)
}

// MemoryStateStore implements StateStore using a map. Update runs under the
// store lock, so concurrent input and resolver writes for one session are
// serialized and the state's sequence check sees a consistent view.
type MemoryStateStore struct {
	states map[string]*stateEntry
	mu     sync.Mutex
	ttl    time.Duration
	stopCh chan struct{}
}

type stateEntry struct {
	state     *types.ComposerState
	expiresAt time.Time
}

// NewMemoryStateStore creates a new in-memory composer state store
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	store := &MemoryStateStore{
		states: make(map[string]*stateEntry),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

func (s *MemoryStateStore) Get(ctx context.Context, sessionID string) (*types.ComposerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.states[sessionID]
	if entry == nil || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	state := *entry.state
	return &state, nil
}

func (s *MemoryStateStore) Update(ctx context.Context, sessionID string, fn func(*types.ComposerState)) (*types.ComposerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state types.ComposerState
	if entry := s.states[sessionID]; entry != nil && time.Now().Before(entry.expiresAt) {
		state = *entry.state
	}

	fn(&state)
	state.UpdatedAt = time.Now()

	stored := state
	s.states[sessionID] = &stateEntry{
		state:     &stored,
		expiresAt: time.Now().Add(s.ttl),
	}

	result := state
	return &result, nil
}

func (s *MemoryStateStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}

func (s *MemoryStateStore) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryStateStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, entry := range s.states {
		if now.After(entry.expiresAt) {
			delete(s.states, id)
		}
	}
}

func (s *MemoryStateStore) Close() {
	close(s.stopCh)
}
