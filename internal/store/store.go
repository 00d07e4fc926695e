// Package store keeps the small pieces of process-wide mutable state: the
// most recent search and the last-seen upstream auth tokens. Only the most
// recent search is retained.
package store

import "sync"

// Store is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	lastID      string
	lastPayload map[string]any
	session     string
	referrer    string
}

func New() *Store {
	return &Store{}
}

// SetLast records the most recent search, replacing the previous one.
func (s *Store) SetLast(requestID string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID = requestID
	s.lastPayload = payload
}

// LastID returns the request id of the most recent search, if any.
func (s *Store) LastID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

// LastPayload returns the raw payload of the most recent search, if any.
func (s *Store) LastPayload() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPayload
}

// UpdateAuth overwrites the remembered session/referrer tokens. Empty
// values leave the existing token in place.
func (s *Store) UpdateAuth(session, referrer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session != "" {
		s.session = session
	}
	if referrer != "" {
		s.referrer = referrer
	}
}

// Auth returns the last-seen session and referrer tokens.
func (s *Store) Auth() (session, referrer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.referrer
}
