// Package tui is the interactive client: a single bubbletea event loop
// that owns all selection and interaction state. UI callbacks and async
// I/O completions interleave on the one logical thread, so no state is
// ever mutated concurrently.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alertavert/majordomo-cli/internal/audio"
	"github.com/alertavert/majordomo-cli/internal/conversation"
	"github.com/alertavert/majordomo-cli/internal/state"
	"github.com/alertavert/majordomo-cli/pkg/models"
)

// Gateway is the slice of the remote client the TUI needs for its list
// fetches. Prompt and audio submission go through the orchestrator.
type Gateway interface {
	ListScenarios(ctx context.Context) ([]string, error)
	ListProjects(ctx context.Context) (string, []models.Project, error)
	ListSessions(ctx context.Context, project string) ([]models.Session, error)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("63"))

	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	recStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	responseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type model struct {
	ctx      context.Context
	gateway  Gateway
	machine  *state.Machine
	orch     *conversation.Orchestrator
	recorder *audio.Recorder

	prompt    textarea.Model
	nameInput textinput.Model
	response  viewport.Model
	spinner   *Spinner

	recording bool
	errMsg    string

	ready  bool
	width  int
	height int
}

func newModel(ctx context.Context, gateway Gateway, machine *state.Machine, orch *conversation.Orchestrator, recorder *audio.Recorder) model {
	prompt := textarea.New()
	prompt.Placeholder = "Your request..."
	prompt.ShowLineNumbers = false
	prompt.Focus()

	nameInput := textinput.New()
	nameInput.Placeholder = "conversation name"

	return model{
		ctx:       ctx,
		gateway:   gateway,
		machine:   machine,
		orch:      orch,
		recorder:  recorder,
		prompt:    prompt,
		nameInput: nameInput,
		spinner:   NewSpinner(),
	}
}

func (m model) Init() tea.Cmd {
	// The three initial fetches are independent; completion order is not
	// guaranteed. The session fetch for the not-yet-known project is a
	// no-op by the empty-project guard and its completion is discarded
	// by generation once the real project lands.
	return tea.Batch(
		textarea.Blink,
		loadScenariosCmd(m.ctx, m.gateway),
		loadProjectsCmd(m.ctx, m.gateway),
		loadSessionsCmd(m.ctx, m.gateway, m.machine.ActiveProject(), m.machine.Generation()),
		tickCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.updateResponseView()
		return m, nil

	case tickMsg:
		if m.orch.State().Loading || m.recording {
			m.spinner.Next()
		}
		return m, tickCmd()

	case scenariosLoadedMsg:
		if msg.Err != nil {
			m.errMsg = fmt.Sprintf("Could not retrieve scenarios: %v", msg.Err)
			return m, nil
		}
		m.machine.ApplyScenarios(msg.Scenarios)
		return m, nil

	case projectsLoadedMsg:
		if msg.Err != nil {
			m.errMsg = fmt.Sprintf("Could not retrieve projects: %v", msg.Err)
			return m, nil
		}
		generation := m.machine.ApplyProjects(msg.Active, msg.Projects)
		return m, loadSessionsCmd(m.ctx, m.gateway, msg.Active, generation)

	case sessionsLoadedMsg:
		// A completion for a superseded project is dropped whole, its
		// error included.
		if msg.Generation != m.machine.Generation() {
			return m, nil
		}
		if msg.Err != nil {
			m.errMsg = fmt.Sprintf("Could not retrieve conversations: %v", msg.Err)
			return m, nil
		}
		m.machine.ApplySessions(msg.Generation, msg.Sessions)
		return m, nil

	case promptResultMsg:
		if m.orch.ApplyResult(conversation.Result(msg)) {
			m.errMsg = m.orch.State().Err
			m.updateResponseView()
		}
		return m, nil

	case transcriptMsg:
		m.orch.ApplyTranscript(conversation.Transcript(msg))
		cycle := m.orch.State()
		m.errMsg = cycle.Err
		if msg.Err == nil {
			m.prompt.SetValue(cycle.Draft)
		}
		return m, nil

	case recordingFailedMsg:
		m.errMsg = fmt.Sprintf("Audio recording error: %v", msg.Err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.machine.Selection().Creating {
		return m.handleCreatingKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+s":
		return m.submitPrompt()

	case "ctrl+n":
		m.machine.BeginNewConversation()
		m.nameInput.SetValue("")
		m.nameInput.Focus()
		m.prompt.Blur()
		return m, textinput.Blink

	case "ctrl+d":
		// The delete action is only offered while more than one
		// conversation remains.
		if m.machine.CanDelete() {
			if err := m.machine.DeleteConversation(); err != nil {
				m.errMsg = fmt.Sprintf("Error: %v", err)
			}
		}
		return m, nil

	case "ctrl+p":
		return m.cycleProject()

	case "ctrl+j":
		m.cycleConversation(1)
		return m, nil

	case "ctrl+k":
		m.cycleConversation(-1)
		return m, nil

	case "ctrl+r":
		return m.toggleRecording()
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m model) handleCreatingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "enter":
		if _, err := m.machine.ConfirmNewConversation(strings.TrimSpace(m.nameInput.Value())); err != nil {
			m.errMsg = fmt.Sprintf("Error: %v", err)
		}
		m.nameInput.Blur()
		m.nameInput.SetValue("")
		m.prompt.Focus()
		return m, textarea.Blink

	case "esc":
		m.machine.CancelNewConversation()
		m.nameInput.Blur()
		m.nameInput.SetValue("")
		m.prompt.Focus()
		return m, textarea.Blink

	case "left":
		m.cycleScenario(-1)
		return m, nil

	case "right":
		m.cycleScenario(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m model) submitPrompt() (tea.Model, tea.Cmd) {
	session, ok := m.machine.Current()
	if !ok {
		m.errMsg = "No conversation selected"
		return m, nil
	}

	text := strings.TrimSpace(m.prompt.Value())
	seq, err := m.orch.BeginSubmit(text)
	if err != nil {
		m.errMsg = fmt.Sprintf("Error: %v", err)
		return m, nil
	}
	m.errMsg = ""
	m.updateResponseView()
	return m, submitCmd(m.ctx, m.orch, seq, session, m.machine.Scenario(), text)
}

func (m model) cycleProject() (tea.Model, tea.Cmd) {
	projects := m.machine.Projects()
	if len(projects) < 2 {
		return m, nil
	}
	current := 0
	for i, project := range projects {
		if project.Name == m.machine.ActiveProject() {
			current = i
			break
		}
	}
	next := projects[(current+1)%len(projects)].Name
	generation := m.machine.SetActiveProject(next)
	return m, loadSessionsCmd(m.ctx, m.gateway, next, generation)
}

func (m *model) cycleConversation(direction int) {
	sessions := m.machine.Sessions()
	if len(sessions) == 0 {
		return
	}
	index := m.machine.SelectedIndex()
	if index < 0 {
		index = 0
	}
	index = (index + direction + len(sessions)) % len(sessions)
	if err := m.machine.SelectConversation(index); err != nil {
		m.errMsg = fmt.Sprintf("Error: %v", err)
	}
}

func (m *model) cycleScenario(direction int) {
	scenarios := m.machine.Scenarios()
	if len(scenarios) == 0 {
		return
	}
	current := 0
	for i, scenario := range scenarios {
		if scenario == m.machine.Scenario() {
			current = i
			break
		}
	}
	next := scenarios[(current+direction+len(scenarios))%len(scenarios)]
	if err := m.machine.SelectScenario(next); err != nil {
		m.errMsg = fmt.Sprintf("Error: %v", err)
	}
}

func (m model) toggleRecording() (tea.Model, tea.Cmd) {
	if m.recording {
		m.recording = false
		m.orch.BeginTranscription()
		m.errMsg = ""
		return m, stopRecordingCmd(m.ctx, m.recorder, m.orch)
	}

	if err := m.recorder.Start(m.ctx); err != nil {
		m.errMsg = fmt.Sprintf("Audio recording error: %v", err)
		return m, nil
	}
	m.recording = true
	return m, nil
}

func (m *model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	promptHeight := 6
	// Header, selector, prompt label, error line, and footer take the
	// rest of the vertical budget.
	responseHeight := m.height - promptHeight - 8
	if responseHeight < 3 {
		responseHeight = 3
	}

	m.prompt.SetWidth(m.width - 2)
	m.prompt.SetHeight(promptHeight)

	if !m.ready {
		m.response = viewport.New(m.width-2, responseHeight)
		m.ready = true
	} else {
		m.response.Width = m.width - 2
		m.response.Height = responseHeight
	}
}

func (m *model) updateResponseView() {
	if !m.ready {
		return
	}
	wrapped := responseStyle.Width(m.response.Width).Render(m.orch.State().Response)
	m.response.SetContent(wrapped)
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Majordomo — your helpful code bot"))
	b.WriteString("\n")
	b.WriteString(m.renderSelector())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Your request:"))
	b.WriteString("\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n\n")

	if m.orch.State().Loading {
		b.WriteString(fmt.Sprintf("%s %s", valueStyle.Render(m.spinner.View()), dimStyle.Render("Waiting for the bot...")))
	} else {
		b.WriteString(labelStyle.Render("Response:"))
		b.WriteString("\n")
		b.WriteString(m.response.View())
	}
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m model) renderSelector() string {
	var parts []string

	project := m.machine.ActiveProject()
	if project == "" {
		project = "..."
	}
	parts = append(parts, labelStyle.Render("Project: ")+valueStyle.Render(project))

	selection := m.machine.Selection()
	if selection.Creating {
		scenario := selection.DraftScenario
		if scenario == "" {
			scenario = "..."
		}
		parts = append(parts, labelStyle.Render("Scenario: ")+valueStyle.Render("‹ "+scenario+" ›"))
		parts = append(parts, labelStyle.Render("New conversation: ")+m.nameInput.View())
		return strings.Join(parts, dimStyle.Render("  •  ")) +
			"\n" + dimStyle.Render("enter: create • esc: cancel • ←/→: scenario")
	}

	scenario := m.machine.Scenario()
	if scenario == "" {
		scenario = "..."
	}
	parts = append(parts, labelStyle.Render("Scenario: ")+valueStyle.Render(scenario))

	sessions := m.machine.Sessions()
	if session, ok := m.machine.Current(); ok {
		label := fmt.Sprintf("%s (%d/%d)", session.Label(), m.machine.SelectedIndex()+1, len(sessions))
		parts = append(parts, labelStyle.Render("Conversation: ")+valueStyle.Render(label))
	} else {
		parts = append(parts, labelStyle.Render("Conversation: ")+dimStyle.Render("loading..."))
	}

	if m.recording {
		parts = append(parts, recStyle.Render("● REC"))
	}
	return strings.Join(parts, dimStyle.Render("  •  "))
}

func (m model) renderFooter() string {
	info := "ctrl+s: ask • ctrl+r: speak • ctrl+n: new conversation • ctrl+j/k: switch conversation • ctrl+p: switch project"
	if m.machine.CanDelete() {
		info += " • ctrl+d: delete"
	}
	info += " • esc: quit"
	return dimStyle.Render(info)
}

// Run starts the interactive client and blocks until it exits.
func Run(ctx context.Context, gateway Gateway, orch *conversation.Orchestrator, recorder *audio.Recorder) error {
	p := tea.NewProgram(
		newModel(ctx, gateway, state.NewMachine(), orch, recorder),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
