// Package state owns the selection state of the client: which project is
// active, which scenarios and conversations are available, and which
// conversation is selected or being created. All mutation goes through
// explicit operations on Machine; the UI event loop is the only caller, so
// no locking is needed.
package state

import (
	"github.com/google/uuid"

	"github.com/alertavert/majordomo-cli/pkg/models"
)

// Selection is the tagged state of the conversation picker: either a draft
// conversation whose scenario is still editable, or a confirmed session
// whose scenario is derived and read-only. Session is nil while nothing is
// confirmed.
type Selection struct {
	Creating      bool
	DraftScenario string
	Session       *models.Session
}

// Machine tracks projects, scenarios, and the per-project conversation
// list. Session fetches are versioned with a generation counter so a
// late-arriving list for a stale project is discarded rather than applied.
type Machine struct {
	projects []models.Project
	active   string

	scenarios []string

	sessions   []models.Session
	selected   int // index into sessions; -1 while none confirmed
	generation uint64

	creating      bool
	draftScenario string
}

// NewMachine returns an empty machine; lists are populated asynchronously
// and the UI tolerates the window where they are empty.
func NewMachine() *Machine {
	return &Machine{selected: -1}
}

// ApplyProjects installs the project list and the backend-designated
// active project, and returns the generation for the dependent session
// fetch.
func (m *Machine) ApplyProjects(active string, projects []models.Project) uint64 {
	m.projects = projects
	return m.setActive(active)
}

// SetActiveProject replaces the active project. The session list becomes
// stale immediately: it is cleared along with any confirmed selection, and
// the returned generation must accompany the replacement fetch.
func (m *Machine) SetActiveProject(name string) uint64 {
	return m.setActive(name)
}

func (m *Machine) setActive(name string) uint64 {
	m.active = name
	m.sessions = nil
	m.selected = -1
	m.generation++
	return m.generation
}

// ApplySessions installs a fetched session list. The list is replaced
// wholesale and the selection resets to the first entry. A result whose
// generation no longer matches is discarded; the caller learns about the
// discard through the return value.
func (m *Machine) ApplySessions(generation uint64, sessions []models.Session) bool {
	if generation != m.generation {
		return false
	}
	m.sessions = sessions
	if len(m.sessions) > 0 {
		m.selected = 0
	} else {
		m.selected = -1
	}
	return true
}

// ApplyScenarios installs the scenario list. It is fetched once and
// immutable afterwards.
func (m *Machine) ApplyScenarios(scenarios []string) {
	m.scenarios = scenarios
	if m.creating && m.draftScenario == "" && len(scenarios) > 0 {
		m.draftScenario = scenarios[0]
	}
}

func (m *Machine) ActiveProject() string      { return m.active }
func (m *Machine) Projects() []models.Project { return m.projects }
func (m *Machine) Scenarios() []string        { return m.scenarios }
func (m *Machine) Sessions() []models.Session { return m.sessions }
func (m *Machine) Generation() uint64         { return m.generation }

// Selection returns the current tagged selection.
func (m *Machine) Selection() Selection {
	sel := Selection{Creating: m.creating, DraftScenario: m.draftScenario}
	if session, ok := m.Current(); ok {
		sel.Session = &session
	}
	return sel
}

// Current returns the confirmed conversation, if any.
func (m *Machine) Current() (models.Session, bool) {
	if m.selected < 0 || m.selected >= len(m.sessions) {
		return models.Session{}, false
	}
	return m.sessions[m.selected], true
}

// SelectedIndex returns the index of the confirmed conversation, or -1.
func (m *Machine) SelectedIndex() int { return m.selected }

// Scenario resolves the scenario for the next submission: the draft
// scenario while creating, otherwise the selected conversation's scenario.
func (m *Machine) Scenario() string {
	if m.creating {
		return m.draftScenario
	}
	if session, ok := m.Current(); ok {
		return session.Scenario
	}
	return ""
}

// BeginNewConversation opens a draft. The scenario selector becomes the
// only mutable field; it starts from the current scenario so confirming
// without touching it keeps the user's context.
func (m *Machine) BeginNewConversation() {
	m.creating = true
	m.draftScenario = ""
	if session, ok := m.Current(); ok {
		m.draftScenario = session.Scenario
	}
	if m.draftScenario == "" && len(m.scenarios) > 0 {
		m.draftScenario = m.scenarios[0]
	}
}

// SelectScenario picks the draft scenario. Outside of creation the
// scenario is derived from the confirmed conversation and cannot change.
func (m *Machine) SelectScenario(name string) error {
	if !m.creating {
		return ErrScenarioLocked
	}
	m.draftScenario = name
	return nil
}

// ConfirmNewConversation commits the draft: a new conversation bound to
// the draft scenario and the active project is appended and selected.
func (m *Machine) ConfirmNewConversation(name string) (models.Session, error) {
	if !m.creating {
		return models.Session{}, ErrNotCreating
	}
	if m.draftScenario == "" {
		return models.Session{}, ErrNoScenario
	}
	if m.active == "" {
		return models.Session{}, ErrNoActiveProject
	}

	session := models.Session{
		SessionID:   uuid.NewString(),
		Scenario:    m.draftScenario,
		Project:     m.active,
		DisplayName: name,
	}
	m.sessions = append(m.sessions, session)
	m.selected = len(m.sessions) - 1
	m.creating = false
	m.draftScenario = ""
	return session, nil
}

// CancelNewConversation discards the draft without touching the list.
func (m *Machine) CancelNewConversation() {
	m.creating = false
	m.draftScenario = ""
}

// SelectConversation confirms the conversation at index i.
func (m *Machine) SelectConversation(i int) error {
	if i < 0 || i >= len(m.sessions) {
		return ErrNoSuchConversation
	}
	m.selected = i
	return nil
}

// CanDelete reports whether deletion is currently offered. The last
// remaining conversation can never be deleted.
func (m *Machine) CanDelete() bool { return len(m.sessions) > 1 }

// DeleteConversation removes the selected conversation and snaps the
// selection back to index 0. Deleting the last conversation is refused so
// the list never empties through deletion.
func (m *Machine) DeleteConversation() error {
	if len(m.sessions) <= 1 {
		return ErrLastConversation
	}
	if m.selected < 0 || m.selected >= len(m.sessions) {
		return ErrNoSuchConversation
	}
	m.sessions = append(m.sessions[:m.selected], m.sessions[m.selected+1:]...)
	m.selected = 0
	return nil
}
