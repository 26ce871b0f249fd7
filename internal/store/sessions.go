package store

import (
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
)

// StartSession opens a fresh session, closing and archiving any session that
// is still open. Session boundaries persist synchronously.
func (s *Store) StartSession(workspaceID, projectName string) event.SessionData {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMilli()
	s.closeCurrentLocked(now)
	s.lastEventAt = 0
	sess := event.NewSession(now, workspaceID, projectName)
	s.current = &sess
	s.persistLocked()
	return sess
}

// EndSession closes and archives the current session. No-op when none is
// open.
func (s *Store) EndSession() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.closeCurrentLocked(nowMilli())
	s.persistLocked()
}

// CurrentSession returns a copy of the open session, or nil if none is open.
func (s *Store) CurrentSession() *event.SessionData {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	sess := *s.current
	return &sess
}

// Sessions returns a copy of the archived session log in close order.
func (s *Store) Sessions() []event.SessionData {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]event.SessionData, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func (s *Store) closeCurrentLocked(ts int64) {
	if s.current == nil {
		return
	}
	if s.current.EndTime == nil || *s.current.EndTime < ts {
		end := ts
		s.current.EndTime = &end
	}
	s.sessions = append(s.sessions, *s.current)
	s.current = nil
	// Active time never crosses a session boundary: the next session's
	// first event starts a fresh gap chain.
	s.lastEventAt = 0
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}
