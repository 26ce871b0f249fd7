package sync_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
	"github.com/fakeyudi/codetrack/internal/store"
	csync "github.com/fakeyudi/codetrack/internal/sync"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenWithOptions(t.TempDir(), store.Options{FlushDelay: time.Hour})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	now := time.Now().UnixMilli()
	st.Append(event.Event{ID: "e1", Timestamp: now - 2000, Type: event.FileSave, Payload: event.GenericPayload{}, SessionID: "s"})
	st.Append(event.Event{ID: "e2", Timestamp: now - 1000, Type: event.FileEdit, Payload: event.EditPayload{FileName: "a.go", CharactersAdded: 1, ChangeType: "insert"}, SessionID: "s"})
	return st
}

func TestSyncSubmitsAndAdvancesWatermark(t *testing.T) {
	var calls atomic.Int64
	var gotAuth string
	var gotBody struct {
		Events   []event.Event       `json:"events"`
		Sessions []event.SessionData `json:"sessions"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/activity/sync" {
			t.Errorf("path = %q, want /activity/sync", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	st := seededStore(t)
	client := csync.New(srv.URL, "secret-token", filepath.Join(t.TempDir(), "sync-state.json"))

	res := client.Sync(context.Background(), st)
	if res.Status != csync.StatusSynced {
		t.Fatalf("status = %s (%s), want synced", res.Status, res.Error)
	}
	if res.Events != 2 {
		t.Errorf("synced %d events, want 2", res.Events)
	}
	if calls.Load() != 1 {
		t.Errorf("made %d network calls, want 1", calls.Load())
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if len(gotBody.Events) != 2 || gotBody.Events[0].ID != "e1" {
		t.Errorf("submitted events = %+v", gotBody.Events)
	}
	if client.Watermark() == 0 {
		t.Error("watermark did not advance after confirmed success")
	}
}

// Property from the contract: a second sync with no new data reports so
// without any network call.
func TestSyncIdempotentWhenNothingNew(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	st := seededStore(t)
	client := csync.New(srv.URL, "tok", filepath.Join(t.TempDir(), "sync-state.json"))

	if res := client.Sync(context.Background(), st); res.Status != csync.StatusSynced {
		t.Fatalf("first sync status = %s", res.Status)
	}
	if res := client.Sync(context.Background(), st); res.Status != csync.StatusNoNewData {
		t.Fatalf("second sync status = %s, want no_new_data", res.Status)
	}
	if calls.Load() != 1 {
		t.Fatalf("made %d network calls, want exactly 1", calls.Load())
	}
}

func TestSyncAuthFailureLeavesWatermark(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	st := seededStore(t)
	client := csync.New(srv.URL, "bad-token", filepath.Join(t.TempDir(), "sync-state.json"))

	res := client.Sync(context.Background(), st)
	if res.Status != csync.StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if res.Error == "" {
		t.Error("failure result carries no error message")
	}
	if client.Watermark() != 0 {
		t.Errorf("watermark = %d, want unchanged 0 after failure", client.Watermark())
	}
}

func TestSyncRemoteRejectionIsStructured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "quota exceeded"})
	}))
	defer srv.Close()

	st := seededStore(t)
	client := csync.New(srv.URL, "tok", filepath.Join(t.TempDir(), "sync-state.json"))

	res := client.Sync(context.Background(), st)
	if res.Status != csync.StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if res.Error == "" || client.Watermark() != 0 {
		t.Errorf("res = %+v, watermark = %d", res, client.Watermark())
	}
}

func TestSyncNetworkErrorIsStructured(t *testing.T) {
	st := seededStore(t)
	// Nothing listens here.
	client := csync.New("http://127.0.0.1:1", "tok", filepath.Join(t.TempDir(), "sync-state.json"))

	res := client.Sync(context.Background(), st)
	if res.Status != csync.StatusFailed {
		t.Fatalf("status = %s, want failed (never a crash)", res.Status)
	}
}

func TestWatermarkPersistsAcrossClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	st := seededStore(t)
	statePath := filepath.Join(t.TempDir(), "sync-state.json")

	first := csync.New(srv.URL, "tok", statePath)
	if res := first.Sync(context.Background(), st); res.Status != csync.StatusSynced {
		t.Fatalf("first sync status = %s", res.Status)
	}

	second := csync.New(srv.URL, "tok", statePath)
	if second.Watermark() != first.Watermark() {
		t.Errorf("restored watermark = %d, want %d", second.Watermark(), first.Watermark())
	}
	if res := second.Sync(context.Background(), st); res.Status != csync.StatusNoNewData {
		t.Errorf("restored client status = %s, want no_new_data", res.Status)
	}
}
