package event

import "github.com/google/uuid"

// SessionData is one contiguous span of tracked activity. At most one
// session is open at any instant; all others live in the archived session
// log. EndTime tracks the last observed activity while the session is open
// and becomes final when the session is closed.
type SessionData struct {
	ID          string `json:"id"`
	StartTime   int64  `json:"startTime"` // epoch milliseconds
	EndTime     *int64 `json:"endTime,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	TotalEvents int    `json:"totalEvents"`
	ActiveTime  int64  `json:"activeTime"` // accumulated milliseconds
}

// NewSession returns an open session starting now.
func NewSession(startTime int64, workspaceID, projectName string) SessionData {
	return SessionData{
		ID:          uuid.New().String(),
		StartTime:   startTime,
		WorkspaceID: workspaceID,
		ProjectName: projectName,
	}
}
