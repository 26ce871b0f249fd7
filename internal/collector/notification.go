package collector

import (
	"time"

	"github.com/fakeyudi/codetrack/internal/event"
)

// Raw is one environment notification as written to the spool by the editor
// collaborator, one JSON object per line. Fields beyond Kind are optional;
// missing metadata is normalized to safe defaults downstream.
type Raw struct {
	Kind string `json:"kind"`

	Path        string `json:"path,omitempty"`
	Language    string `json:"language,omitempty"`
	LineCount   int    `json:"lineCount,omitempty"`
	CharCount   int    `json:"charCount,omitempty"`
	RenamedFrom string `json:"renamedFrom,omitempty"`

	AddedChars   int `json:"addedChars,omitempty"`
	DeletedChars int `json:"deletedChars,omitempty"`

	CommandID  string `json:"commandId,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Succeeded  *bool  `json:"succeeded,omitempty"`

	Name      string `json:"name,omitempty"`      // debug configuration name
	DebugKind string `json:"debugKind,omitempty"` // launch configuration type

	Branch  string `json:"branch,omitempty"`
	Message string `json:"message,omitempty"`

	Query       string `json:"query,omitempty"`
	ResultCount int    `json:"resultCount,omitempty"`

	WorkspaceID string            `json:"workspaceId,omitempty"`
	ProjectName string            `json:"projectName,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// Notification kinds accepted from the spool.
const (
	KindFileOpen   = "file.open"
	KindFileClose  = "file.close"
	KindFileSave   = "file.save"
	KindFileEdit   = "file.edit"
	KindFileCreate = "file.create"
	KindFileDelete = "file.delete"
	KindFileRename = "file.rename"

	KindEditorSwitch = "editor.switch"
	KindFocusGained  = "focus.gained"
	KindFocusLost    = "focus.lost"

	KindCommand = "command"

	KindDebugStart = "debug.start"
	KindDebugStop  = "debug.stop"

	KindTerminalOpen  = "terminal.open"
	KindTerminalClose = "terminal.close"

	KindTaskStart = "task.start"
	KindTaskEnd   = "task.end"

	KindWorkspaceAdd    = "workspace.add"
	KindWorkspaceRemove = "workspace.remove"

	KindGitCommit       = "git.commit"
	KindGitBranchSwitch = "git.branch"

	KindSearch = "search"
)

// HandleNotification maps one raw notification onto the normalizer. Unknown
// kinds become generic events; a malformed notification never aborts the
// pipeline. No-op while tracking is disabled or after disposal.
func (s *Service) HandleNotification(raw Raw) {
	if !s.cfg.EnableTracking {
		return
	}
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		return
	}

	switch raw.Kind {
	case KindFileEdit:
		s.norm.RecordEdit(raw.Path, raw.Language, raw.AddedChars, raw.DeletedChars)

	case KindFileOpen, KindFileClose, KindFileSave, KindFileCreate, KindFileDelete, KindFileRename, KindEditorSwitch:
		s.norm.Record(fileEventType(raw.Kind), event.FilePayload{
			FileName:    orUnknown(raw.Path),
			Language:    raw.Language,
			LineCount:   raw.LineCount,
			CharCount:   raw.CharCount,
			RenamedFrom: raw.RenamedFrom,
		})

	case KindFocusGained:
		s.norm.Record(event.EditorFocusGained, event.GenericPayload{Details: raw.Details})
	case KindFocusLost:
		s.norm.Record(event.EditorFocusLost, event.GenericPayload{Details: raw.Details})

	case KindCommand:
		succeeded := true
		if raw.Succeeded != nil {
			succeeded = *raw.Succeeded
		}
		s.norm.RecordCommand(raw.CommandID, time.Duration(raw.DurationMs)*time.Millisecond, succeeded)

	case KindDebugStart:
		s.norm.Record(event.DebugStart, event.DebugPayload{Name: raw.Name, Kind: raw.DebugKind})
	case KindDebugStop:
		s.norm.Record(event.DebugStop, event.DebugPayload{Name: raw.Name, Kind: raw.DebugKind})

	case KindTerminalOpen:
		s.norm.Record(event.TerminalOpen, event.GenericPayload{Details: raw.Details})
	case KindTerminalClose:
		s.norm.Record(event.TerminalClose, event.GenericPayload{Details: raw.Details})

	case KindTaskStart:
		s.norm.Record(event.TaskStart, event.GenericPayload{Details: raw.Details})
	case KindTaskEnd:
		s.norm.Record(event.TaskEnd, event.GenericPayload{Details: raw.Details})

	case KindWorkspaceAdd:
		// A workspace change opens a fresh session; the open event belongs
		// to the new session.
		s.startSession(raw.WorkspaceID, raw.ProjectName)
		s.norm.Record(event.WorkspaceOpen, event.GenericPayload{Details: raw.Details})
	case KindWorkspaceRemove:
		s.norm.Record(event.WorkspaceClose, event.GenericPayload{Details: raw.Details})

	case KindGitCommit:
		s.norm.Record(event.GitCommit, event.GitPayload{Branch: raw.Branch, Message: raw.Message})
	case KindGitBranchSwitch:
		s.norm.Record(event.GitBranchSwitch, event.GitPayload{Branch: raw.Branch})

	case KindSearch:
		s.norm.Record(event.SearchPerform, event.SearchPayload{Query: raw.Query, ResultCount: raw.ResultCount})

	default:
		details := make(map[string]string, len(raw.Details)+1)
		for k, v := range raw.Details {
			details[k] = v
		}
		details["kind"] = raw.Kind
		s.norm.Record(event.Generic, event.GenericPayload{Details: details})
	}
}

func fileEventType(kind string) event.Type {
	switch kind {
	case KindFileOpen:
		return event.FileOpen
	case KindFileClose:
		return event.FileClose
	case KindFileSave:
		return event.FileSave
	case KindFileCreate:
		return event.FileCreate
	case KindFileDelete:
		return event.FileDelete
	case KindFileRename:
		return event.FileRename
	default:
		return event.EditorSwitch
	}
}

func orUnknown(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
}
