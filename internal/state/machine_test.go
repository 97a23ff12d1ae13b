package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alertavert/majordomo-cli/pkg/models"
)

func sessionsFor(project string, names ...string) []models.Session {
	sessions := make([]models.Session, 0, len(names))
	for _, name := range names {
		sessions = append(sessions, models.Session{
			SessionID:   name,
			Scenario:    "web_developer",
			Project:     project,
			DisplayName: name,
		})
	}
	return sessions
}

func TestEmptyMachineTolerated(t *testing.T) {
	m := NewMachine()

	require.Empty(t, m.Sessions())
	require.Equal(t, "", m.Scenario())
	_, ok := m.Current()
	require.False(t, ok)
	require.False(t, m.CanDelete())
}

func TestApplyProjectsSetsActiveAndBumpsGeneration(t *testing.T) {
	m := NewMachine()

	gen := m.ApplyProjects("alpha", []models.Project{{Name: "alpha"}, {Name: "beta"}})
	require.Equal(t, "alpha", m.ActiveProject())
	require.Equal(t, gen, m.Generation())

	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "one")))
	require.Equal(t, 0, m.SelectedIndex())
}

func TestStaleSessionListIsDiscarded(t *testing.T) {
	m := NewMachine()

	genAlpha := m.ApplyProjects("alpha", []models.Project{{Name: "alpha"}, {Name: "beta"}})
	genBeta := m.SetActiveProject("beta")

	// The fetch for alpha resolves after beta became active.
	require.False(t, m.ApplySessions(genAlpha, sessionsFor("alpha", "stale-1", "stale-2")))
	require.Empty(t, m.Sessions())

	require.True(t, m.ApplySessions(genBeta, sessionsFor("beta", "fresh")))
	require.Len(t, m.Sessions(), 1)
	require.Equal(t, "beta", m.Sessions()[0].Project)
}

func TestSettledListMatchesMostRecentProject(t *testing.T) {
	m := NewMachine()

	gens := make(map[string]uint64)
	for _, project := range []string{"p1", "p2", "p3"} {
		gens[project] = m.SetActiveProject(project)
	}

	// Resolve out of order: p3 first, then the stragglers.
	require.True(t, m.ApplySessions(gens["p3"], sessionsFor("p3", "s3")))
	require.False(t, m.ApplySessions(gens["p1"], sessionsFor("p1", "s1")))
	require.False(t, m.ApplySessions(gens["p2"], sessionsFor("p2", "s2")))

	require.Len(t, m.Sessions(), 1)
	require.Equal(t, "p3", m.Sessions()[0].Project)
}

func TestProjectChangeClearsSelection(t *testing.T) {
	m := NewMachine()

	gen := m.SetActiveProject("alpha")
	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "one", "two")))
	require.NoError(t, m.SelectConversation(1))

	m.SetActiveProject("beta")
	_, ok := m.Current()
	require.False(t, ok)
	require.Empty(t, m.Sessions())
}

func TestScenarioLockedOutsideCreation(t *testing.T) {
	m := NewMachine()
	m.ApplyScenarios([]string{"web_developer", "project_manager"})

	gen := m.SetActiveProject("alpha")
	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "one")))

	require.ErrorIs(t, m.SelectScenario("project_manager"), ErrScenarioLocked)
	require.Equal(t, "web_developer", m.Scenario())
}

func TestCreateConversationFlow(t *testing.T) {
	m := NewMachine()
	m.ApplyScenarios([]string{"web_developer", "project_manager"})

	gen := m.SetActiveProject("alpha")
	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "one")))

	m.BeginNewConversation()
	require.True(t, m.Selection().Creating)
	// Draft starts from the confirmed conversation's scenario.
	require.Equal(t, "web_developer", m.Scenario())

	require.NoError(t, m.SelectScenario("project_manager"))
	session, err := m.ConfirmNewConversation("Plan sprint")
	require.NoError(t, err)

	require.Equal(t, "project_manager", session.Scenario)
	require.Equal(t, "alpha", session.Project)
	require.Equal(t, "Plan sprint", session.DisplayName)
	require.NotEmpty(t, session.SessionID)

	// New conversations append at the end and become selected.
	require.Len(t, m.Sessions(), 2)
	require.Equal(t, 1, m.SelectedIndex())
	require.False(t, m.Selection().Creating)

	// Scenario is now derived from the confirmed conversation.
	require.Equal(t, "project_manager", m.Scenario())
}

func TestCancelCreationLeavesListUntouched(t *testing.T) {
	m := NewMachine()
	m.ApplyScenarios([]string{"web_developer"})

	gen := m.SetActiveProject("alpha")
	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "one")))

	m.BeginNewConversation()
	m.CancelNewConversation()

	require.Len(t, m.Sessions(), 1)
	require.False(t, m.Selection().Creating)
	require.Equal(t, 0, m.SelectedIndex())
}

func TestConfirmRequiresDraftState(t *testing.T) {
	m := NewMachine()

	_, err := m.ConfirmNewConversation("nope")
	require.ErrorIs(t, err, ErrNotCreating)

	m.BeginNewConversation()
	_, err = m.ConfirmNewConversation("no scenario yet")
	require.ErrorIs(t, err, ErrNoScenario)

	m.ApplyScenarios([]string{"web_developer"})
	_, err = m.ConfirmNewConversation("no project yet")
	require.ErrorIs(t, err, ErrNoActiveProject)
}

func TestDeleteLastConversationRefused(t *testing.T) {
	m := NewMachine()

	gen := m.SetActiveProject("alpha")
	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "only")))

	require.False(t, m.CanDelete())
	require.ErrorIs(t, m.DeleteConversation(), ErrLastConversation)
	require.Len(t, m.Sessions(), 1)
}

func TestDeleteSnapsSelectionToFirst(t *testing.T) {
	m := NewMachine()

	gen := m.SetActiveProject("alpha")
	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "one", "two", "three")))
	require.NoError(t, m.SelectConversation(2))

	require.True(t, m.CanDelete())
	require.NoError(t, m.DeleteConversation())

	require.Len(t, m.Sessions(), 2)
	require.Equal(t, 0, m.SelectedIndex())
	require.Equal(t, "one", m.Sessions()[0].DisplayName)
}

func TestSelectConversationBounds(t *testing.T) {
	m := NewMachine()

	gen := m.SetActiveProject("alpha")
	require.True(t, m.ApplySessions(gen, sessionsFor("alpha", "one")))

	require.ErrorIs(t, m.SelectConversation(-1), ErrNoSuchConversation)
	require.ErrorIs(t, m.SelectConversation(1), ErrNoSuchConversation)
	require.NoError(t, m.SelectConversation(0))
}
