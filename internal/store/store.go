// Package store owns the durable event and session logs: an append-only,
// memory-bounded in-memory log with debounced persistence to JSON documents.
package store

import (
	"sync"
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
)

const (
	// DefaultMaxEvents is the hard cap on the in-memory event log.
	DefaultMaxEvents = 50_000

	// DefaultFlushDelay is the quiet period after the last non-critical
	// append before the log is persisted.
	DefaultFlushDelay = 2 * time.Second

	// activityGap is the largest gap between consecutive events that still
	// counts toward the current session's active time.
	activityGap = 5 * time.Minute
)

// Options tune a Store. Zero values select the defaults.
type Options struct {
	MaxEvents  int
	FlushDelay time.Duration
}

// Store holds the event log and session log and is their single writer.
// Persistence failures degrade the store to in-memory-only operation; they
// are logged and never escape to the caller's hot path.
type Store struct {
	mu sync.Mutex

	eventsPath   string
	sessionsPath string
	maxEvents    int
	flushDelay   time.Duration

	events   []event.Event
	sessions []event.SessionData
	current  *event.SessionData

	// lastEventAt is the timestamp of the most recent append within the
	// current session, used to accumulate its active time. It resets to
	// zero at every session boundary.
	lastEventAt int64

	saveTimer *time.Timer
}

// Open loads (or initializes) a store rooted at dir with default options.
// A missing or unreadable snapshot yields a clean empty store, never an
// error.
func Open(dir string) (*Store, error) {
	return OpenWithOptions(dir, Options{})
}

// OpenWithOptions is Open with explicit tuning, used by tests.
func OpenWithOptions(dir string, opts Options) (*Store, error) {
	if opts.MaxEvents <= 0 {
		opts.MaxEvents = DefaultMaxEvents
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = DefaultFlushDelay
	}
	s, err := newAt(dir, opts)
	if err != nil {
		return nil, err
	}
	s.load()
	return s, nil
}

// Append inserts ev at the tail of the log, updates the current session and
// schedules persistence: synchronous for critical events (session-boundary
// information must not be lost), debounced for everything else.
func (s *Store) Append(ev event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	s.truncateLocked()

	if s.current != nil {
		s.current.TotalEvents++
		end := ev.Timestamp
		s.current.EndTime = &end
		if gap := ev.Timestamp - s.lastEventAt; s.lastEventAt > 0 && gap > 0 && gap < activityGap.Milliseconds() {
			s.current.ActiveTime += gap
		}
	}
	s.lastEventAt = ev.Timestamp

	if event.Critical(ev.Type) {
		s.cancelTimerLocked()
		s.persistLocked()
		return
	}
	s.scheduleFlushLocked()
}

// Query returns events within the optional inclusive bounds, in append
// order. The returned slice is a copy.
func (s *Store) Query(start, end *int64) []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]event.Event, 0, len(s.events))
	for _, ev := range s.events {
		if start != nil && ev.Timestamp < *start {
			continue
		}
		if end != nil && ev.Timestamp > *end {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Events returns a copy of the full event log in append order.
func (s *Store) Events() []event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of events currently in the log.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Flush persists the full in-memory state now, cancelling any pending
// debounced flush.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.persistLocked()
}

// Clear wipes both logs and persists the empty state. Unlike background
// persistence, failures are returned so user-initiated clears can report
// them.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.events = nil
	s.sessions = nil
	s.current = nil
	s.lastEventAt = 0
	return s.persistErrLocked()
}

// Prune drops events and archived sessions strictly older than cutoff,
// persisting only when something was removed. It returns the evicted events
// so callers can archive them. The open session is never pruned.
func (s *Store) Prune(cutoff int64) (evicted []event.Event, removedSessions int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0:0]
	for _, ev := range s.events {
		if ev.Timestamp < cutoff {
			evicted = append(evicted, ev)
			continue
		}
		kept = append(kept, ev)
	}

	keptSessions := s.sessions[:0:0]
	for _, sess := range s.sessions {
		last := sess.StartTime
		if sess.EndTime != nil {
			last = *sess.EndTime
		}
		if last < cutoff {
			removedSessions++
			continue
		}
		keptSessions = append(keptSessions, sess)
	}

	if len(evicted) == 0 && removedSessions == 0 {
		return nil, 0
	}
	s.events = kept
	s.sessions = keptSessions
	s.persistLocked()
	return evicted, removedSessions
}

// Close ends the current session, cancels pending timers and performs the
// final synchronous write.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCurrentLocked(time.Now().UnixMilli())
	s.cancelTimerLocked()
	return s.persistErrLocked()
}

// truncateLocked enforces the hard memory cap: past maxEvents the log is cut
// to the most recent 80% of the cap. This is a bound, not a retention
// policy.
func (s *Store) truncateLocked() {
	if len(s.events) <= s.maxEvents {
		return
	}
	keep := s.maxEvents * 8 / 10
	s.events = append(s.events[:0:0], s.events[len(s.events)-keep:]...)
}

// scheduleFlushLocked (re)arms the debounce timer. The previous timer is
// replaced, never stacked.
func (s *Store) scheduleFlushLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.flushDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.persistLocked()
	})
}

func (s *Store) cancelTimerLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}
