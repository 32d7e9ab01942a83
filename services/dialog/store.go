package dialog

import (
	"sync"
	"time"

	"voicedesk/models"
)

// SessionStore owns all live call sessions. Turns for one call arrive
// serially, so only the map itself needs guarding.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.CallSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*models.CallSession)}
}

// GetOrCreate returns the session for a call, creating it on first touch.
func (s *SessionStore) GetOrCreate(callID string, now time.Time) *models.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[callID]; ok {
		return sess
	}
	sess := &models.CallSession{CallID: callID, CreatedAt: now, UpdatedAt: now}
	s.sessions[callID] = sess
	return sess
}

func (s *SessionStore) Get(callID string) (*models.CallSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[callID]
	return sess, ok
}

func (s *SessionStore) Delete(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callID)
}

// SweepIdle drops sessions untouched for longer than maxIdle and expires
// pending bookings older than maxPending. Returns how many sessions died.
func (s *SessionStore) SweepIdle(now time.Time, maxIdle, maxPending time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > maxIdle {
			delete(s.sessions, id)
			removed++
			continue
		}
		if sess.Pending != nil && now.Sub(sess.Pending.CreatedAt) > maxPending {
			sess.Pending = nil
		}
	}
	return removed
}

// TurnStore holds in-flight turn cells keyed by one-time token.
type TurnStore struct {
	mu    sync.Mutex
	turns map[string]*models.PendingTurn
}

func NewTurnStore() *TurnStore {
	return &TurnStore{turns: make(map[string]*models.PendingTurn)}
}

func (s *TurnStore) Put(token string, turn *models.PendingTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[token] = turn
}

// Get returns the live cell for a token, or nil when the token is unknown
// or already swept.
func (s *TurnStore) Get(token string) *models.PendingTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns[token]
}

// Remove deletes a consumed cell.
func (s *TurnStore) Remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, token)
}

// SweepExpired expires and removes cells older than maxAge. A turn
// goroutine finishing afterwards writes into a dead cell and is discarded.
func (s *TurnStore) SweepExpired(now time.Time, maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, turn := range s.turns {
		if now.Sub(turn.CreatedAt) > maxAge {
			turn.Expire()
			delete(s.turns, token)
			removed++
		}
	}
	return removed
}
