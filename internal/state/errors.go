package state

import "errors"

var (
	// ErrScenarioLocked means a scenario change was attempted outside of
	// conversation creation; a confirmed conversation's scenario is
	// derived from the conversation and read-only.
	ErrScenarioLocked = errors.New("scenario can only be chosen while creating a conversation")

	// ErrNotCreating means a draft operation ran with no draft open.
	ErrNotCreating = errors.New("no conversation is being created")

	// ErrNoScenario means a conversation cannot be created because no
	// scenario is available to bind it to.
	ErrNoScenario = errors.New("no scenario selected")

	// ErrNoActiveProject means a conversation cannot be created before
	// the active project is known.
	ErrNoActiveProject = errors.New("no active project")

	// ErrLastConversation guards deletion of the only remaining
	// conversation; the list never goes empty through deletion.
	ErrLastConversation = errors.New("cannot delete the last conversation")

	// ErrNoSuchConversation reports an out-of-range selection.
	ErrNoSuchConversation = errors.New("no such conversation")
)
