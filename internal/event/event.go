// Package event defines the activity event model shared by the collector,
// store, statistics engine and sync client.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Type identifies the kind of developer action an event records.
type Type string

const (
	FileOpen   Type = "file.open"
	FileClose  Type = "file.close"
	FileSave   Type = "file.save"
	FileEdit   Type = "file.edit"
	FileCreate Type = "file.create"
	FileDelete Type = "file.delete"
	FileRename Type = "file.rename"

	EditorSwitch      Type = "editor.switch"
	EditorFocusGained Type = "editor.focus_gained"
	EditorFocusLost   Type = "editor.focus_lost"

	CommandExecute Type = "command.execute"

	DebugStart Type = "debug.start"
	DebugStop  Type = "debug.stop"

	TerminalOpen  Type = "terminal.open"
	TerminalClose Type = "terminal.close"

	ExtensionActivate   Type = "extension.activate"
	ExtensionDeactivate Type = "extension.deactivate"

	WorkspaceOpen  Type = "workspace.open"
	WorkspaceClose Type = "workspace.close"

	TaskStart Type = "task.start"
	TaskEnd   Type = "task.end"

	GitCommit       Type = "git.commit"
	GitBranchSwitch Type = "git.branch_switch"

	SearchPerform Type = "search.perform"

	Generic Type = "generic"
)

// Event is one normalized, timestamped record of a discrete developer action.
// Events are immutable once created.
type Event struct {
	ID          string  `json:"id"`
	Timestamp   int64   `json:"timestamp"` // epoch milliseconds
	Type        Type    `json:"type"`
	Payload     Payload `json:"payload"`
	SessionID   string  `json:"sessionId"`
	WorkspaceID string  `json:"workspaceId,omitempty"`
	ProjectName string  `json:"projectName,omitempty"`
}

// NewID returns an event id built from the event timestamp and a random
// suffix. Uniqueness is best-effort, not cryptographic.
func NewID(timestamp int64) string {
	return fmt.Sprintf("%d-%s", timestamp, uuid.NewString()[:8])
}

// Payload is the closed set of event payload shapes. The concrete shape is
// determined by the event's Type; anything without a dedicated shape uses
// GenericPayload.
type Payload interface {
	isPayload()
}

// FilePayload describes the file a file-lifecycle or editor-switch event
// refers to.
type FilePayload struct {
	FileName    string `json:"fileName"`
	Language    string `json:"language,omitempty"`
	LineCount   int    `json:"lineCount,omitempty"`
	CharCount   int    `json:"charCount,omitempty"`
	RenamedFrom string `json:"renamedFrom,omitempty"` // file.rename only
}

// EditPayload carries the coalesced result of a burst of edits to one file.
type EditPayload struct {
	FileName          string `json:"fileName"`
	Language          string `json:"language,omitempty"`
	CharactersAdded   int    `json:"charactersAdded"`
	CharactersDeleted int    `json:"charactersDeleted"`
	ChangeCount       int    `json:"changeCount"`
	ChangeType        string `json:"changeType"` // "insert", "delete" or "replace"
}

// CommandPayload records one instrumented command invocation.
type CommandPayload struct {
	Command    string `json:"command"`
	Category   string `json:"category"`
	DurationMs int64  `json:"durationMs"`
	Succeeded  bool   `json:"succeeded"`
}

// DebugPayload describes a debug session boundary.
type DebugPayload struct {
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"` // launch configuration type
}

// GitPayload describes a git action.
type GitPayload struct {
	Branch  string `json:"branch,omitempty"`
	Message string `json:"message,omitempty"`
}

// SearchPayload describes a workspace search.
type SearchPayload struct {
	Query       string `json:"query"`
	ResultCount int    `json:"resultCount,omitempty"`
}

// GenericPayload is the fallback shape for event types without a dedicated
// payload (terminal, task, extension, workspace and focus events).
type GenericPayload struct {
	Details map[string]string `json:"details,omitempty"`
}

func (FilePayload) isPayload()    {}
func (EditPayload) isPayload()    {}
func (CommandPayload) isPayload() {}
func (DebugPayload) isPayload()   {}
func (GitPayload) isPayload()     {}
func (SearchPayload) isPayload()  {}
func (GenericPayload) isPayload() {}

// eventJSON is the wire form of Event with the payload kept raw so it can be
// decoded into the shape selected by Type.
type eventJSON struct {
	ID          string          `json:"id"`
	Timestamp   int64           `json:"timestamp"`
	Type        Type            `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	SessionID   string          `json:"sessionId"`
	WorkspaceID string          `json:"workspaceId,omitempty"`
	ProjectName string          `json:"projectName,omitempty"`
}

// UnmarshalJSON decodes the payload into the concrete shape dictated by the
// event type. Unknown or absent payloads decode to GenericPayload so old or
// foreign documents never fail to load.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.ID = raw.ID
	e.Timestamp = raw.Timestamp
	e.Type = raw.Type
	e.SessionID = raw.SessionID
	e.WorkspaceID = raw.WorkspaceID
	e.ProjectName = raw.ProjectName

	payload, err := decodePayload(raw.Type, raw.Payload)
	if err != nil {
		return fmt.Errorf("decoding %s payload: %w", raw.Type, err)
	}
	e.Payload = payload
	return nil
}

func decodePayload(t Type, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 {
		return GenericPayload{}, nil
	}

	decode := func(v Payload) (Payload, error) {
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	switch t {
	case FileOpen, FileClose, FileSave, FileCreate, FileDelete, FileRename, EditorSwitch:
		p, err := decode(&FilePayload{})
		if err != nil {
			return nil, err
		}
		return *p.(*FilePayload), nil
	case FileEdit:
		p, err := decode(&EditPayload{})
		if err != nil {
			return nil, err
		}
		return *p.(*EditPayload), nil
	case CommandExecute:
		p, err := decode(&CommandPayload{})
		if err != nil {
			return nil, err
		}
		return *p.(*CommandPayload), nil
	case DebugStart, DebugStop:
		p, err := decode(&DebugPayload{})
		if err != nil {
			return nil, err
		}
		return *p.(*DebugPayload), nil
	case GitCommit, GitBranchSwitch:
		p, err := decode(&GitPayload{})
		if err != nil {
			return nil, err
		}
		return *p.(*GitPayload), nil
	case SearchPerform:
		p, err := decode(&SearchPayload{})
		if err != nil {
			return nil, err
		}
		return *p.(*SearchPayload), nil
	default:
		p, err := decode(&GenericPayload{})
		if err != nil {
			return nil, err
		}
		return *p.(*GenericPayload), nil
	}
}

// FileName returns the file name an event refers to, or "" for events that
// do not carry one.
func (e Event) FileName() string {
	switch p := e.Payload.(type) {
	case FilePayload:
		return p.FileName
	case EditPayload:
		return p.FileName
	}
	return ""
}

// Language returns the language id an event carries, or "".
func (e Event) Language() string {
	switch p := e.Payload.(type) {
	case FilePayload:
		return p.Language
	case EditPayload:
		return p.Language
	}
	return ""
}
