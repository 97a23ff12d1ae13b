package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoScenarios means the backend returned an empty scenario list.
	// A client cannot operate without at least one scenario, so this is
	// an application failure rather than an empty UI state.
	ErrNoScenarios = errors.New("no scenarios found")

	// ErrNoActiveProject means the backend did not designate an active
	// project in its /projects response.
	ErrNoActiveProject = errors.New("no active project found")
)

// BackendError reports an exchange the backend completed but rejected,
// either through the transport status or through the payload's own status
// field. Message carries the backend-provided detail when one exists.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("error (%d): %s", e.Status, http.StatusText(e.Status))
}
