// Package sync pushes unsynced events and sessions to the remote activity
// API. Delivery is at-least-once behind a monotonically advancing watermark;
// the remote side deduplicates by event id.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
	"github.com/fakeyudi/codetrack/internal/store"
)

// DefaultInterval is how often the background loop attempts a sync.
const DefaultInterval = 5 * time.Minute

// Status classifies the outcome of one sync attempt.
type Status string

const (
	StatusNoNewData Status = "no_new_data" // nothing past the watermark; no network call made
	StatusSynced    Status = "synced"
	StatusFailed    Status = "failed"
)

// Result is the structured outcome of one sync attempt. Failures never
// escape as errors from the background loop; callers inspect the result.
type Result struct {
	Status   Status `json:"status"`
	Events   int    `json:"events"`
	Sessions int    `json:"sessions"`
	Error    string `json:"error,omitempty"`
}

// payload is the wire format POSTed to the remote endpoint.
type payload struct {
	Events   []event.Event       `json:"events"`
	Sessions []event.SessionData `json:"sessions"`
}

// response is the expected remote reply.
type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// stateDoc persists the watermark across restarts.
type stateDoc struct {
	LastSyncTime int64 `json:"lastSyncTime"`
}

// Client submits batches to the remote collaborator API.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
	statePath  string

	mu        stdsync.Mutex
	watermark int64 // epoch ms; data at or below is already synchronized
}

// New returns a Client for apiURL, restoring the watermark from statePath.
// A missing or unreadable state file starts the watermark at zero.
func New(apiURL, token, statePath string) *Client {
	c := &Client{
		apiURL:     apiURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		statePath:  statePath,
	}
	c.watermark = loadWatermark(statePath)
	return c
}

// Watermark returns the timestamp boundary below which data is considered
// already synchronized.
func (c *Client) Watermark() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watermark
}

// Sync selects everything newer than the watermark and submits it. With
// nothing to send it reports StatusNoNewData without a network call. On
// confirmed success the watermark advances to the submission time, so no
// batch is re-sent unless the clock moves backward; on any failure the
// watermark is left unchanged and the next interval retries.
func (c *Client) Sync(ctx context.Context, st *store.Store) Result {
	c.mu.Lock()
	watermark := c.watermark
	c.mu.Unlock()

	after := watermark + 1
	events := st.Query(&after, nil)

	var sessions []event.SessionData
	for _, sess := range st.Sessions() {
		if sess.StartTime > watermark {
			sessions = append(sessions, sess)
		}
	}
	if cur := st.CurrentSession(); cur != nil && cur.StartTime > watermark {
		sessions = append(sessions, *cur)
	}

	if len(events) == 0 && len(sessions) == 0 {
		return Result{Status: StatusNoNewData}
	}

	submittedAt := time.Now().UnixMilli()
	if err := c.submit(ctx, payload{Events: events, Sessions: sessions}); err != nil {
		return Result{
			Status:   StatusFailed,
			Events:   len(events),
			Sessions: len(sessions),
			Error:    err.Error(),
		}
	}

	c.mu.Lock()
	c.watermark = submittedAt
	c.mu.Unlock()
	c.saveWatermark(submittedAt)

	return Result{Status: StatusSynced, Events: len(events), Sessions: len(sessions)}
}

// Run attempts a sync every interval until ctx is cancelled. Failures are
// logged and retried on the normal interval; there is no backoff.
func (c *Client) Run(ctx context.Context, st *store.Store, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if res := c.Sync(ctx, st); res.Status == StatusFailed {
				log.Printf("codetrack: sync failed: %s", res.Error)
			}
		}
	}
}

func (c *Client) submit(ctx context.Context, p payload) error {
	if p.Events == nil {
		p.Events = []event.Event{}
	}
	if p.Sessions == nil {
		p.Sessions = []event.SessionData{}
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding sync payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/activity/sync", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("authentication failed (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("decoding sync response: %w", err)
	}
	if !r.Success {
		if r.Error == "" {
			r.Error = "remote rejected batch"
		}
		return fmt.Errorf("remote error: %s", r.Error)
	}
	return nil
}

func loadWatermark(path string) int64 {
	if path == "" {
		return 0
	}
	var doc stateDoc
	data, err := readFile(path)
	if err != nil {
		return 0
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("codetrack: parsing %s: %v (resetting watermark)", path, err)
		return 0
	}
	return doc.LastSyncTime
}

// saveWatermark is best-effort: a failed write only risks re-sending, which
// the remote dedup absorbs.
func (c *Client) saveWatermark(ts int64) {
	if c.statePath == "" {
		return
	}
	data, _ := json.Marshal(stateDoc{LastSyncTime: ts})
	if err := writeFile(c.statePath, data); err != nil {
		log.Printf("codetrack: persisting sync state: %v", err)
	}
}
