package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fakeyudi/codetrack/internal/event"
)

// snapshotVersion tags persisted documents so future layout changes can be
// migrated.
const snapshotVersion = "1"

// eventsDoc is the durable layout of the event log.
type eventsDoc struct {
	Events      []event.Event `json:"events"`
	LastUpdated int64         `json:"lastUpdated"`
	Version     string        `json:"version"`
}

// sessionsDoc is the durable layout of the session log.
type sessionsDoc struct {
	Sessions       []event.SessionData `json:"sessions"`
	CurrentSession *event.SessionData  `json:"currentSession,omitempty"`
	LastUpdated    int64               `json:"lastUpdated"`
	Version        string              `json:"version"`
}

func newAt(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{
		eventsPath:   filepath.Join(dir, "events.json"),
		sessionsPath: filepath.Join(dir, "sessions.json"),
		maxEvents:    opts.MaxEvents,
		flushDelay:   opts.FlushDelay,
	}, nil
}

// load reads the last persisted snapshot. A missing or corrupt document
// yields a clean empty state; this never fails.
func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// lastEventAt stays zero on load: gaps from a previous run never count
	// toward a session started in this one.
	var ed eventsDoc
	if readDoc(s.eventsPath, &ed) {
		s.events = ed.Events
	}

	var sd sessionsDoc
	if readDoc(s.sessionsPath, &sd) {
		s.sessions = sd.Sessions
		// A current session left behind by a crash is closed at its last
		// known update time and archived.
		if sd.CurrentSession != nil {
			stale := *sd.CurrentSession
			if stale.EndTime == nil {
				end := stale.StartTime
				if sd.LastUpdated > end {
					end = sd.LastUpdated
				}
				stale.EndTime = &end
			}
			s.sessions = append(s.sessions, stale)
		}
	}

	s.truncateLocked()
}

// readDoc unmarshals the JSON document at path into v. It reports whether a
// usable document was read; absence is silent, corruption is logged.
func readDoc(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("codetrack: reading %s: %v (starting empty)", path, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("codetrack: parsing %s: %v (starting empty)", path, err)
		return false
	}
	return true
}

// persistLocked writes the full snapshot. Failures are logged and swallowed:
// the collector must never crash its host over a storage error, an
// in-memory-only degraded mode is acceptable.
func (s *Store) persistLocked() {
	if err := s.persistErrLocked(); err != nil {
		log.Printf("codetrack: persisting state: %v", err)
	}
}

func (s *Store) persistErrLocked() error {
	now := nowMilli()

	events := s.events
	if events == nil {
		events = []event.Event{}
	}
	if err := writeDoc(s.eventsPath, eventsDoc{
		Events:      events,
		LastUpdated: now,
		Version:     snapshotVersion,
	}); err != nil {
		return err
	}

	sessions := s.sessions
	if sessions == nil {
		sessions = []event.SessionData{}
	}
	return writeDoc(s.sessionsPath, sessionsDoc{
		Sessions:       sessions,
		CurrentSession: s.current,
		LastUpdated:    now,
		Version:        snapshotVersion,
	})
}

// writeDoc marshals v and writes it atomically via a temp file + os.Rename.
func writeDoc(path string, v any) (err error) {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
