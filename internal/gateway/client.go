package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/alertavert/majordomo-cli/pkg/models"
)

// Client performs request/response exchanges against the Majordomo
// assistant service. It owns no state beyond the transport; every call
// returns an outcome for the caller to apply.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the service at baseURL. Every request is
// bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// ListScenarios fetches the available scenario names.
func (c *Client) ListScenarios(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/scenarios", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to retrieve scenarios: %s", resp.Status)
	}

	var body struct {
		Scenarios []string `json:"scenarios"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding scenarios: %w", err)
	}
	if len(body.Scenarios) == 0 {
		return nil, ErrNoScenarios
	}
	return body.Scenarios, nil
}

// ListProjects fetches the known projects and the name of the active one.
func (c *Client) ListProjects(ctx context.Context) (string, []models.Project, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/projects", nil)
	if err != nil {
		return "", nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("failed to retrieve projects: %s", resp.Status)
	}

	var body struct {
		ActiveProject string           `json:"active_project"`
		Projects      []models.Project `json:"projects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", nil, fmt.Errorf("error decoding projects: %w", err)
	}
	if body.ActiveProject == "" {
		return "", nil, ErrNoActiveProject
	}
	return body.ActiveProject, body.Projects, nil
}

// ListSessions fetches the conversations scoped to project. An empty
// project name is a guard, not an error: no request is made and the caller
// gets nothing to apply. An empty backend list is papered over with two
// fixed placeholder sessions so the UI always has something to select;
// callers cannot tell placeholders from real data.
func (c *Client) ListSessions(ctx context.Context, project string) ([]models.Session, error) {
	if project == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/projects/%s/sessions", c.base, url.PathEscape(project))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to retrieve sessions: %s", resp.Status)
	}

	var sessions []models.Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("error decoding sessions: %w", err)
	}
	if len(sessions) == 0 {
		return placeholderSessions(project), nil
	}
	return sessions, nil
}

// SubmitPrompt sends a prompt tagged with its scenario and session and
// returns the assistant's response text. The payload's own status field is
// checked in addition to the transport status; the surfaced error prefers
// the message embedded in the payload over the generic status phrase.
func (c *Client) SubmitPrompt(ctx context.Context, prompt, scenario, session string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"prompt":   prompt,
		"scenario": scenario,
		"session":  session,
	})
	if err != nil {
		return "", fmt.Errorf("error encoding prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/prompt", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Message  string `json:"message"`
		Response string `json:"response"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || body.Response == "error" {
		return "", &BackendError{Status: resp.StatusCode, Message: body.Message}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("error decoding response: %w", decodeErr)
	}
	return body.Message, nil
}

// SubmitAudio sends an encoded recording as a single multipart attachment
// and returns the transcribed text.
func (c *Client) SubmitAudio(ctx context.Context, payload []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "audio.mp3")
	if err != nil {
		return "", fmt.Errorf("error building audio attachment: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("error building audio attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("error building audio attachment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/command", &buf)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	var body struct {
		Message string `json:"message"`
	}
	// Failure responses still carry a message body worth surfacing, so
	// the decode error only matters on the success path.
	decodeErr := json.Unmarshal(raw, &body)

	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Status: resp.StatusCode, Message: body.Message}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("error decoding transcription: %w", decodeErr)
	}
	return body.Message, nil
}

func placeholderSessions(project string) []models.Session {
	return []models.Session{
		{
			SessionID:   "build-ui",
			Scenario:    "web_developer",
			Project:     project,
			DisplayName: "Build UI",
		},
		{
			SessionID:   "manage-projects",
			Scenario:    "project_manager",
			Project:     project,
			DisplayName: "Manage Projects",
		},
	}
}
