package collector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchSpool tails the notification spool file and feeds each JSON line to
// the service until ctx is cancelled. The editor collaborator appends one
// notification object per line; malformed lines are skipped with a log
// entry, never fatally.
func WatchSpool(ctx context.Context, path string, svc *Service) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating spool directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating spool watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file so creation and rotation are
	// observed too.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching spool directory: %w", err)
	}

	// Start from the current end of the file: on (re)start, old lines were
	// already ingested in a previous run.
	offset := int64(0)
	if info, err := os.Stat(path); err == nil {
		offset = info.Size()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			offset = drainSpool(path, offset, svc)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; keep watching.
		}
	}
}

// drainSpool reads lines appended past offset and returns the new offset.
// A truncated (rotated) file restarts from the beginning.
func drainSpool(path string, offset int64, svc *Service) int64 {
	f, err := os.Open(path)
	if err != nil {
		return offset
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() < offset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset
	}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// A partial trailing line stays unconsumed until the writer
			// finishes it.
			if errors.Is(err, io.EOF) {
				return offset
			}
			return offset
		}
		offset += int64(len(line))

		var raw Raw
		if err := json.Unmarshal(line, &raw); err != nil {
			log.Printf("codetrack: skipping malformed spool line: %v", err)
			continue
		}
		svc.HandleNotification(raw)
	}
}
