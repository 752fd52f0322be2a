package server

import (
	"context"
	"sync"
)

// SessionManager tracks open live sessions so shutdown can close them.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
	closed   bool
}

func newSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// add registers s. It reports false once the manager is shut down.
func (sm *SessionManager) add(s *Session) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.closed {
		return false
	}
	sm.sessions[s.ID] = s
	sm.wg.Add(1)
	return true
}

func (sm *SessionManager) remove(id string) {
	sm.mu.Lock()
	_, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if ok {
		sm.wg.Done()
	}
}

// Get returns a session by ID.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of open sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Shutdown closes every session and waits for their loops to exit or ctx to
// end. New sessions are refused afterwards.
func (sm *SessionManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	sm.closed = true
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		sm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
