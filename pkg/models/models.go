package models

// Project is a top-level workspace grouping conversations. Exactly one
// project is active at a time; the backend designates the initial one.
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Session is a single conversation thread. Its Scenario and Project are
// fixed at creation and never change afterwards.
type Session struct {
	SessionID   string `json:"session_id"`
	Scenario    string `json:"scenario"`
	Project     string `json:"project"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Label returns the human-facing name of the session, falling back to the
// opaque id when no display name was set.
func (s Session) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.SessionID
}
