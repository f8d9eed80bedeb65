package app

import (
	"context"
	"sync"
	"time"

	"aura-finance/internal/core"

	"github.com/google/uuid"
)

// Session is the per-user interaction state between requests: who is signed
// in and the extracted invoice awaiting save, if any.
type Session struct {
	ID     string
	UserID int

	mu       sync.Mutex
	draft    *core.Invoice
	lastSeen time.Time
}

// Draft returns a copy of the current draft, or nil.
func (s *Session) Draft() *core.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil
	}
	return copyInvoice(s.draft)
}

func (s *Session) setDraft(inv *core.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = copyInvoice(inv)
}

// ClearDraft discards the draft.
func (s *Session) ClearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func copyInvoice(inv *core.Invoice) *core.Invoice {
	c := *inv
	c.Items = append([]core.LineItem{}, inv.Items...)
	return &c
}

// SessionStore is a thread-safe in-memory session registry with idle expiry.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a new session for userID.
func (s *SessionStore) Create(userID int) *Session {
	sess := &Session{ID: uuid.NewString(), UserID: userID, lastSeen: s.now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session and refreshes its idle timer. Expired sessions are
// removed and reported as missing.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if sess.idleSince(now) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports the number of tracked sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// StartPurge starts a background goroutine that evicts expired sessions every
// interval until ctx is done.
func (s *SessionStore) StartPurge(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.purge()
			}
		}
	}()
}
