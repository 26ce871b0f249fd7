package normalize

import (
	"strings"
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
)

// categoryPrefixes maps command id prefixes to coarse categories. First
// match wins.
var categoryPrefixes = []struct {
	prefix   string
	category string
}{
	{"git.", "git"},
	{"debug.", "debug"},
	{"editor.", "editor"},
	{"workbench.", "editor"},
	{"file.", "file"},
	{"explorer.", "file"},
	{"search.", "search"},
	{"terminal.", "terminal"},
	{"task.", "task"},
}

// Categorize returns the coarse category for a command id.
func Categorize(commandID string) string {
	for _, cp := range categoryPrefixes {
		if strings.HasPrefix(commandID, cp.prefix) {
			return cp.category
		}
	}
	return "general"
}

// InvokeCommand is the single instrumentation boundary for command dispatch:
// it runs fn, records one command.execute event carrying the elapsed
// wall-clock duration, and returns fn's error. Success and failure are
// tracked identically.
func (n *Normalizer) InvokeCommand(commandID string, fn func() error) error {
	if strings.TrimSpace(commandID) == "" {
		commandID = "unknown"
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	n.Record(event.CommandExecute, event.CommandPayload{
		Command:    commandID,
		Category:   Categorize(commandID),
		DurationMs: elapsed.Milliseconds(),
		Succeeded:  err == nil,
	})
	return err
}

// RecordCommand records an already-measured command invocation, for hosts
// that time the dispatch themselves.
func (n *Normalizer) RecordCommand(commandID string, duration time.Duration, succeeded bool) {
	if strings.TrimSpace(commandID) == "" {
		commandID = "unknown"
	}
	n.Record(event.CommandExecute, event.CommandPayload{
		Command:    commandID,
		Category:   Categorize(commandID),
		DurationMs: duration.Milliseconds(),
		Succeeded:  succeeded,
	})
}
