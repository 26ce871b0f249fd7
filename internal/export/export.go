// Package export renders the full collected state as a portable snapshot,
// as JSON or as flattened CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
	"github.com/fakeyudi/codetrack/internal/stats"
	"github.com/fakeyudi/codetrack/internal/store"
)

// snapshotVersion tags export documents.
const snapshotVersion = "1"

// statsWindowDays is the window the embedded stats block covers.
const statsWindowDays = 30

// Snapshot is the complete export document.
type Snapshot struct {
	ExportDate  int64               `json:"exportDate"`
	Version     string              `json:"version"`
	TotalEvents int                 `json:"totalEvents"`
	TimeRange   TimeRange           `json:"timeRange"`
	Events      []event.Event       `json:"events"`
	Sessions    []event.SessionData `json:"sessions"`
	Stats       stats.Stats         `json:"stats"`
	Metadata    Metadata            `json:"metadata"`
}

// TimeRange bounds the exported events, epoch milliseconds. Zero when the
// log is empty.
type TimeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Metadata identifies where the snapshot came from.
type Metadata struct {
	HostVersion string `json:"hostVersion"`
	ToolVersion string `json:"toolVersion"`
	Platform    string `json:"platform"`
}

// NewMetadata fills in the running platform.
func NewMetadata(hostVersion, toolVersion string) Metadata {
	return Metadata{
		HostVersion: hostVersion,
		ToolVersion: toolVersion,
		Platform:    runtime.GOOS,
	}
}

// Build assembles a snapshot of everything the store holds, including the
// open session, with a 30-day stats block.
func Build(st *store.Store, meta Metadata) Snapshot {
	events := st.Events()
	sessions := st.Sessions()
	if cur := st.CurrentSession(); cur != nil {
		sessions = append(sessions, *cur)
	}

	var tr TimeRange
	for _, ev := range events {
		if tr.Start == 0 || ev.Timestamp < tr.Start {
			tr.Start = ev.Timestamp
		}
		if ev.Timestamp > tr.End {
			tr.End = ev.Timestamp
		}
	}

	return Snapshot{
		ExportDate:  time.Now().UnixMilli(),
		Version:     snapshotVersion,
		TotalEvents: len(events),
		TimeRange:   tr,
		Events:      events,
		Sessions:    sessions,
		Stats:       stats.ComputeNow(events, statsWindowDays),
		Metadata:    meta,
	}
}

// RenderJSON encodes the snapshot as indented JSON.
func RenderJSON(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export snapshot: %w", err)
	}
	return data, nil
}

// ParseJSON decodes a snapshot previously rendered by RenderJSON.
func ParseJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parsing export snapshot: %w", err)
	}
	return s, nil
}

// csvHeader is the fixed flattened-CSV column set.
var csvHeader = []string{"timestamp", "type", "fileName", "language", "sessionId", "workspaceId"}

// RenderCSV flattens the snapshot's events into CSV with fixed columns.
func RenderCSV(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, ev := range s.Events {
		record := []string{
			strconv.FormatInt(ev.Timestamp, 10),
			string(ev.Type),
			ev.FileName(),
			ev.Language(),
			ev.SessionID,
			ev.WorkspaceID,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}
