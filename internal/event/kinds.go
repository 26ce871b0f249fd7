package event

// Critical reports whether an event marks a session boundary that must be
// persisted synchronously rather than on the debounce timer.
func Critical(t Type) bool {
	switch t {
	case WorkspaceOpen, WorkspaceClose, DebugStart, GitCommit:
		return true
	}
	return false
}

// Active reports whether an event type counts toward active time.
func Active(t Type) bool {
	switch t {
	case FileEdit, EditorSwitch, CommandExecute, EditorFocusGained:
		return true
	}
	return false
}

// Coding reports whether an event type counts toward coding time.
func Coding(t Type) bool {
	return t == FileEdit || t == FileSave
}

// MaxWeight is the top of the per-event productivity weight scale.
const MaxWeight = 5

// weights assigns each event type a productivity weight in [0, MaxWeight].
// Creation and commits weigh highest; passive, close and lost-focus events
// contribute nothing.
var weights = map[Type]int{
	FileCreate: 5,
	GitCommit:  5,

	FileEdit: 4,
	FileSave: 4,

	CommandExecute:  3,
	DebugStart:      3,
	TaskStart:       3,
	GitBranchSwitch: 3,

	EditorSwitch:      2,
	EditorFocusGained: 2,
	SearchPerform:     2,
	FileRename:        2,

	FileOpen:          1,
	FileDelete:        1,
	DebugStop:         1,
	TerminalOpen:      1,
	WorkspaceOpen:     1,
	ExtensionActivate: 1,
	TaskEnd:           1,

	FileClose:           0,
	TerminalClose:       0,
	EditorFocusLost:     0,
	WorkspaceClose:      0,
	ExtensionDeactivate: 0,
	Generic:             0,
}

// Weight returns the productivity weight of an event type. Unknown types
// weigh zero.
func Weight(t Type) int {
	return weights[t]
}
