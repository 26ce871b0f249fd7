// Package normalize turns noisy raw editor notifications into discrete
// activity events: it coalesces edit bursts, tracks focus and idleness, and
// instruments command invocations.
package normalize

import (
	"strings"
	"sync"
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
)

const (
	// DefaultQuietWindow is how long a file must stay untouched before its
	// buffered edits are flushed as one event.
	DefaultQuietWindow = time.Second

	// DefaultIdleTimeout is how long without a focus change before a
	// synthetic focus-lost event is emitted.
	DefaultIdleTimeout = 5 * time.Minute

	// maxEditChars caps inbound edit character counts, for payload safety.
	maxEditChars = 100 * 1024

	// maxLineCount caps inbound file line counts the same way.
	maxLineCount = 1000
)

// Sink receives normalized events. *store.Store satisfies it.
type Sink interface {
	Append(event.Event)
}

// ContextFunc supplies the session and workspace identity attached to every
// emitted event.
type ContextFunc func() (sessionID, workspaceID, projectName string)

// Options tune a Normalizer. Zero values select the defaults.
type Options struct {
	QuietWindow time.Duration
	IdleTimeout time.Duration
}

// Normalizer owns the per-file edit buffers and the idle timer. All timers
// are replaced, never stacked.
type Normalizer struct {
	mu sync.Mutex

	sink    Sink
	context ContextFunc
	quiet   time.Duration
	idle    time.Duration

	buffers map[string]*editBuffer
	timers  map[string]*time.Timer

	idleTimer *time.Timer
	stopped   bool
}

// editBuffer accumulates a burst of edits to one file. Ephemeral, never
// persisted.
type editBuffer struct {
	language  string
	added     int
	deleted   int
	editCount int
}

// New returns a started Normalizer emitting into sink.
func New(sink Sink, context ContextFunc, opts Options) *Normalizer {
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = DefaultQuietWindow
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	n := &Normalizer{
		sink:    sink,
		context: context,
		quiet:   opts.QuietWindow,
		idle:    opts.IdleTimeout,
		buffers: make(map[string]*editBuffer),
		timers:  make(map[string]*time.Timer),
	}
	n.mu.Lock()
	n.resetIdleLocked()
	n.mu.Unlock()
	return n
}

// Record emits one event of the given type. Closing a file first flushes any
// buffered edits for it; a focus-gained notification resets the idle timer.
func (n *Normalizer) Record(t event.Type, p event.Payload) {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	if fp, ok := p.(event.FilePayload); ok {
		fp.LineCount = clamp(fp.LineCount, maxLineCount)
		p = fp
	}
	var pending *event.EditPayload
	if t == event.FileClose {
		if fp, ok := p.(event.FilePayload); ok {
			pending = n.popBufferLocked(fileNameOrUnknown(fp.FileName))
		}
	}
	if t == event.EditorFocusGained {
		n.resetIdleLocked()
	}
	n.mu.Unlock()

	if pending != nil {
		n.emit(event.FileEdit, *pending)
	}
	n.emit(t, p)
}

// RecordEdit merges one raw edit notification into the file's buffer. The
// buffer flushes as a single file.edit event after the quiet window elapses
// with no further edits to that file.
func (n *Normalizer) RecordEdit(path, language string, added, deleted int) {
	path = fileNameOrUnknown(path)
	added = clamp(added, maxEditChars)
	deleted = clamp(deleted, maxEditChars)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}

	buf, ok := n.buffers[path]
	if !ok {
		buf = &editBuffer{}
		n.buffers[path] = buf
	}
	buf.added += added
	buf.deleted += deleted
	buf.editCount++
	if language != "" {
		buf.language = language
	}

	if t, ok := n.timers[path]; ok {
		t.Stop()
	}
	n.timers[path] = time.AfterFunc(n.quiet, func() {
		n.flushFile(path)
	})
}

// Flush drains every edit buffer now, emitting pending coalesced edits.
// Used on disposal so no in-flight data is lost.
func (n *Normalizer) Flush() {
	n.mu.Lock()
	pending := n.popAllLocked()
	n.mu.Unlock()

	for _, p := range pending {
		n.emit(event.FileEdit, p)
	}
}

// Stop cancels the idle timer and all per-file timers, then flushes the edit
// buffers. The normalizer ignores further notifications afterwards.
func (n *Normalizer) Stop() {
	n.mu.Lock()
	if n.idleTimer != nil {
		n.idleTimer.Stop()
		n.idleTimer = nil
	}
	pending := n.popAllLocked()
	n.stopped = true
	n.mu.Unlock()

	for _, p := range pending {
		n.emit(event.FileEdit, p)
	}
}

// flushFile is the per-file quiet-window timer callback.
func (n *Normalizer) flushFile(path string) {
	n.mu.Lock()
	p := n.popBufferLocked(path)
	n.mu.Unlock()

	if p != nil {
		n.emit(event.FileEdit, *p)
	}
}

// popBufferLocked removes the buffer and timer for path and returns the
// coalesced payload. An all-zero buffer yields nil: no event is emitted.
func (n *Normalizer) popBufferLocked(path string) *event.EditPayload {
	buf, ok := n.buffers[path]
	if !ok {
		return nil
	}
	delete(n.buffers, path)
	if t, ok := n.timers[path]; ok {
		t.Stop()
		delete(n.timers, path)
	}

	if buf.added == 0 && buf.deleted == 0 {
		return nil
	}

	changeType := "replace"
	switch {
	case buf.deleted == 0:
		changeType = "insert"
	case buf.added == 0:
		changeType = "delete"
	}

	return &event.EditPayload{
		FileName:          path,
		Language:          buf.language,
		CharactersAdded:   buf.added,
		CharactersDeleted: buf.deleted,
		ChangeCount:       buf.editCount,
		ChangeType:        changeType,
	}
}

func (n *Normalizer) popAllLocked() []event.EditPayload {
	var out []event.EditPayload
	for path := range n.buffers {
		if p := n.popBufferLocked(path); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// resetIdleLocked replaces the inactivity timer. When it fires without an
// intervening focus change, a synthetic focus-lost event is emitted.
func (n *Normalizer) resetIdleLocked() {
	if n.idleTimer != nil {
		n.idleTimer.Stop()
	}
	n.idleTimer = time.AfterFunc(n.idle, func() {
		n.mu.Lock()
		stopped := n.stopped
		n.mu.Unlock()
		if stopped {
			return
		}
		n.emit(event.EditorFocusLost, event.GenericPayload{
			Details: map[string]string{"reason": "inactivity"},
		})
	})
}

// emit builds the full event envelope and hands it to the sink.
func (n *Normalizer) emit(t event.Type, p event.Payload) {
	ts := time.Now().UnixMilli()
	sessionID, workspaceID, projectName := n.context()
	n.sink.Append(event.Event{
		ID:          event.NewID(ts),
		Timestamp:   ts,
		Type:        t,
		Payload:     p,
		SessionID:   sessionID,
		WorkspaceID: workspaceID,
		ProjectName: projectName,
	})
}

func fileNameOrUnknown(path string) string {
	if strings.TrimSpace(path) == "" {
		return "unknown"
	}
	return path
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
