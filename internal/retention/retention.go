// Package retention evicts events and sessions older than the configured
// horizon, archiving evicted events to compressed files first.
package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/fakeyudi/codetrack/internal/event"
	"github.com/fakeyudi/codetrack/internal/store"
)

// DefaultInterval is how often the background sweep runs.
const DefaultInterval = time.Hour

// Manager periodically drops data older than the retention horizon.
type Manager struct {
	store      *store.Store
	days       int
	archiveDir string // "" disables archiving
	interval   time.Duration
}

// New returns a Manager keeping the last days of data. When archiveDir is
// non-empty, evicted events are compressed into it before being dropped.
func New(s *store.Store, days int, archiveDir string) *Manager {
	if days <= 0 {
		days = 30
	}
	return &Manager{
		store:      s,
		days:       days,
		archiveDir: archiveDir,
		interval:   DefaultInterval,
	}
}

// Run sweeps once immediately, then hourly until ctx is cancelled.
// Background sweep failures are logged, never surfaced.
func (m *Manager) Run(ctx context.Context) {
	m.sweep()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// Sweep evicts data older than the horizon now. It returns how many events
// were dropped, for user-initiated invocations.
func (m *Manager) Sweep() int {
	return m.sweep()
}

func (m *Manager) sweep() int {
	cutoff := time.Now().AddDate(0, 0, -m.days).UnixMilli()
	evicted, removedSessions := m.store.Prune(cutoff)
	if len(evicted) == 0 && removedSessions == 0 {
		return 0
	}

	if m.archiveDir != "" && len(evicted) > 0 {
		if path, err := archive(m.archiveDir, evicted); err != nil {
			// Archiving never blocks eviction.
			log.Printf("codetrack: archiving evicted events: %v", err)
		} else {
			log.Printf("codetrack: archived %d evicted events to %s", len(evicted), path)
		}
	}
	log.Printf("codetrack: retention dropped %d events, %d sessions (older than %d days)",
		len(evicted), removedSessions, m.days)
	return len(evicted)
}

// archiveDoc is the layout of one archive file.
type archiveDoc struct {
	ArchivedAt int64         `json:"archivedAt"`
	Events     []event.Event `json:"events"`
}

// archive compresses events into archiveDir/events-<timestamp>.json.zst and
// returns the archive path.
func archive(archiveDir string, events []event.Event) (string, error) {
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	name := fmt.Sprintf("events-%s.json.zst", time.Now().Format("20060102T150405"))
	path := filepath.Join(archiveDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	encoder, err := zstd.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("create zstd encoder: %w", err)
	}

	doc := archiveDoc{ArchivedAt: time.Now().UnixMilli(), Events: events}
	if err := json.NewEncoder(encoder).Encode(doc); err != nil {
		encoder.Close()
		return "", fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finalize compression: %w", err)
	}
	return path, nil
}
