// Package collector wires the normalizer, store and session lifecycle into
// one service owned by the host, and ingests raw notifications from the
// editor spool.
package collector

import (
	"fmt"
	"sync"

	"github.com/fakeyudi/codetrack/internal/config"
	"github.com/fakeyudi/codetrack/internal/normalize"
	"github.com/fakeyudi/codetrack/internal/store"
)

// Service is the collector's explicit lifecycle object: constructed by the
// host, fed notifications while running, disposed exactly once.
type Service struct {
	cfg  config.Config
	st   *store.Store
	norm *normalize.Normalizer

	mu          sync.Mutex
	sessionID   string // last started session; kept after close so late buffer flushes stay attributed
	workspaceID string
	projectName string
	disposed    bool
}

// Options tune the service, mainly for tests.
type Options struct {
	Store     store.Options
	Normalize normalize.Options
}

// New opens the store under dataDir, starts the initial session and returns
// a running service.
func New(cfg config.Config, dataDir string) (*Service, error) {
	return NewWithOptions(cfg, dataDir, Options{})
}

// NewWithOptions is New with explicit tuning.
func NewWithOptions(cfg config.Config, dataDir string, opts Options) (*Service, error) {
	st, err := store.OpenWithOptions(dataDir, opts.Store)
	if err != nil {
		return nil, fmt.Errorf("opening event store: %w", err)
	}

	svc := &Service{cfg: cfg, st: st}
	svc.norm = normalize.New(st, svc.context, opts.Normalize)

	sess := st.StartSession("", "")
	svc.mu.Lock()
	svc.sessionID = sess.ID
	svc.mu.Unlock()

	return svc, nil
}

// Store exposes the underlying event store for read paths (stats, export,
// sync).
func (s *Service) Store() *store.Store {
	return s.st
}

// InvokeCommand routes a command dispatch through the instrumentation
// boundary: fn runs, its duration and outcome are recorded, its error is
// returned unchanged.
func (s *Service) InvokeCommand(commandID string, fn func() error) error {
	if !s.cfg.EnableTracking {
		return fn()
	}
	return s.norm.InvokeCommand(commandID, fn)
}

// Dispose shuts the collector down: close the current session, cancel all
// pending timers, flush edit buffers, then write the final snapshot. Safe to
// call once; later notifications are ignored.
func (s *Service) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	s.mu.Unlock()

	s.st.EndSession()
	s.norm.Stop()
	return s.st.Close()
}

// context supplies the identity attached to every emitted event.
func (s *Service) context() (sessionID, workspaceID, projectName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, s.workspaceID, s.projectName
}

// startSession opens a fresh session for the given workspace, closing the
// previous one.
func (s *Service) startSession(workspaceID, projectName string) {
	sess := s.st.StartSession(workspaceID, projectName)
	s.mu.Lock()
	s.sessionID = sess.ID
	s.workspaceID = workspaceID
	s.projectName = projectName
	s.mu.Unlock()
}
