package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alertavert/majordomo-cli/internal/audio"
	"github.com/alertavert/majordomo-cli/internal/conversation"
	"github.com/alertavert/majordomo-cli/pkg/models"
)

// Message types for async operations. Every network exchange runs inside
// a tea.Cmd and reports back through one of these; Update is the only
// place state changes.
type (
	// scenariosLoadedMsg carries the scenario list fetch outcome.
	scenariosLoadedMsg struct {
		Scenarios []string
		Err       error
	}

	// projectsLoadedMsg carries the project list fetch outcome.
	projectsLoadedMsg struct {
		Active   string
		Projects []models.Project
		Err      error
	}

	// sessionsLoadedMsg carries a session list fetch outcome, tagged
	// with the generation of the project it was requested for so stale
	// completions can be discarded.
	sessionsLoadedMsg struct {
		Project    string
		Generation uint64
		Sessions   []models.Session
		Err        error
	}

	// promptResultMsg is a completed prompt submission.
	promptResultMsg conversation.Result

	// transcriptMsg is a completed audio transcription round-trip.
	transcriptMsg conversation.Transcript

	// recordingFailedMsg reports a capture fault on stop; no payload
	// ever reached the backend.
	recordingFailedMsg struct {
		Err error
	}

	// tickMsg drives the spinner animation.
	tickMsg time.Time
)

func loadScenariosCmd(ctx context.Context, gateway Gateway) tea.Cmd {
	return func() tea.Msg {
		scenarios, err := gateway.ListScenarios(ctx)
		return scenariosLoadedMsg{Scenarios: scenarios, Err: err}
	}
}

func loadProjectsCmd(ctx context.Context, gateway Gateway) tea.Cmd {
	return func() tea.Msg {
		active, projects, err := gateway.ListProjects(ctx)
		return projectsLoadedMsg{Active: active, Projects: projects, Err: err}
	}
}

func loadSessionsCmd(ctx context.Context, gateway Gateway, project string, generation uint64) tea.Cmd {
	return func() tea.Msg {
		sessions, err := gateway.ListSessions(ctx, project)
		return sessionsLoadedMsg{
			Project:    project,
			Generation: generation,
			Sessions:   sessions,
			Err:        err,
		}
	}
}

func submitCmd(ctx context.Context, orch *conversation.Orchestrator, seq uint64, session models.Session, scenario, prompt string) tea.Cmd {
	return func() tea.Msg {
		return promptResultMsg(orch.Submit(ctx, seq, session, scenario, prompt))
	}
}

// stopRecordingCmd ends the capture and, when a payload came out, sends it
// straight on for transcription.
func stopRecordingCmd(ctx context.Context, recorder *audio.Recorder, orch *conversation.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		payload, err := recorder.Stop()
		if err != nil {
			return recordingFailedMsg{Err: err}
		}
		return transcriptMsg(orch.Transcribe(ctx, payload))
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
