package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alertavert/majordomo-cli/pkg/models"
)

type fakeGateway struct {
	promptResponse string
	promptErr      error
	audioText      string
	audioErr       error

	lastPrompt   string
	lastScenario string
	lastSession  string
}

func (f *fakeGateway) SubmitPrompt(ctx context.Context, prompt, scenario, session string) (string, error) {
	f.lastPrompt = prompt
	f.lastScenario = scenario
	f.lastSession = session
	return f.promptResponse, f.promptErr
}

func (f *fakeGateway) SubmitAudio(ctx context.Context, payload []byte) (string, error) {
	return f.audioText, f.audioErr
}

type fakeRecorder struct {
	exchanges int
	err       error
}

func (f *fakeRecorder) RecordExchange(session models.Session, prompt, response string) error {
	f.exchanges++
	return f.err
}

func demoSession() models.Session {
	return models.Session{SessionID: "demo-1", Scenario: "web_developer", Project: "majordomo"}
}

func TestSubmitSuccess(t *testing.T) {
	gw := &fakeGateway{promptResponse: "hi there"}
	o := New(gw, nil)

	seq, err := o.BeginSubmit("hello")
	require.NoError(t, err)
	require.True(t, o.State().Loading)
	require.Equal(t, ResponsePlaceholder, o.State().Response)

	result := o.Submit(context.Background(), seq, demoSession(), "web_developer", "hello")
	require.True(t, o.ApplyResult(result))

	require.Equal(t, "hello", gw.lastPrompt)
	require.Equal(t, "web_developer", gw.lastScenario)
	require.Equal(t, "demo-1", gw.lastSession)

	cycle := o.State()
	require.False(t, cycle.Loading)
	require.Equal(t, "hi there", cycle.Response)
	require.Empty(t, cycle.Err)
}

func TestSubmitFailureKeepsPriorResponse(t *testing.T) {
	gw := &fakeGateway{promptResponse: "first answer"}
	o := New(gw, nil)

	seq, err := o.BeginSubmit("hello")
	require.NoError(t, err)
	require.True(t, o.ApplyResult(o.Submit(context.Background(), seq, demoSession(), "web_developer", "hello")))
	require.Equal(t, "first answer", o.State().Response)

	gw.promptErr = errors.New("error (429): rate limited")
	seq, err = o.BeginSubmit("again")
	require.NoError(t, err)
	// In flight: loading, response reset, no error yet.
	require.True(t, o.State().Loading)
	require.Empty(t, o.State().Err)

	require.True(t, o.ApplyResult(o.Submit(context.Background(), seq, demoSession(), "web_developer", "again")))

	cycle := o.State()
	require.False(t, cycle.Loading)
	require.Contains(t, cycle.Err, "rate limited")
	// The placeholder from cycle start stays; the error never silently
	// replaces it with stale content.
	require.Equal(t, ResponsePlaceholder, cycle.Response)
}

func TestLoadingDropsOnEveryPath(t *testing.T) {
	for name, gw := range map[string]*fakeGateway{
		"success": {promptResponse: "ok"},
		"failure": {promptErr: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			o := New(gw, nil)
			seq, err := o.BeginSubmit("hello")
			require.NoError(t, err)
			require.True(t, o.State().Loading)
			require.True(t, o.ApplyResult(o.Submit(context.Background(), seq, demoSession(), "web_developer", "hello")))
			require.False(t, o.State().Loading)
		})
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	gw := &fakeGateway{promptResponse: "slow answer"}
	o := New(gw, nil)

	staleSeq, err := o.BeginSubmit("first")
	require.NoError(t, err)
	staleResult := o.Submit(context.Background(), staleSeq, demoSession(), "web_developer", "first")

	// A second submission supersedes the first before it resolves.
	gw.promptResponse = "fresh answer"
	freshSeq, err := o.BeginSubmit("second")
	require.NoError(t, err)

	require.False(t, o.ApplyResult(staleResult))
	require.True(t, o.State().Loading)

	require.True(t, o.ApplyResult(o.Submit(context.Background(), freshSeq, demoSession(), "web_developer", "second")))
	require.Equal(t, "fresh answer", o.State().Response)
}

func TestEmptyPromptRejected(t *testing.T) {
	o := New(&fakeGateway{}, nil)
	_, err := o.BeginSubmit("")
	require.ErrorIs(t, err, ErrEmptyPrompt)
	require.False(t, o.State().Loading)
}

func TestSuccessfulExchangeIsRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	o := New(&fakeGateway{promptResponse: "hi"}, rec)

	seq, err := o.BeginSubmit("hello")
	require.NoError(t, err)
	require.True(t, o.ApplyResult(o.Submit(context.Background(), seq, demoSession(), "web_developer", "hello")))
	require.Equal(t, 1, rec.exchanges)
	require.Empty(t, o.State().Err)
}

func TestRecorderFailureSurfacesWithoutBlockingResponse(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	o := New(&fakeGateway{promptResponse: "hi"}, rec)

	seq, err := o.BeginSubmit("hello")
	require.NoError(t, err)
	require.True(t, o.ApplyResult(o.Submit(context.Background(), seq, demoSession(), "web_developer", "hello")))

	cycle := o.State()
	require.Equal(t, "hi", cycle.Response)
	require.Contains(t, cycle.Err, "disk full")
}

func TestFailedExchangeIsNotRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	o := New(&fakeGateway{promptErr: errors.New("down")}, rec)

	seq, err := o.BeginSubmit("hello")
	require.NoError(t, err)
	require.True(t, o.ApplyResult(o.Submit(context.Background(), seq, demoSession(), "web_developer", "hello")))
	require.Equal(t, 0, rec.exchanges)
}

func TestTranscriptSuccessFillsDraft(t *testing.T) {
	o := New(&fakeGateway{audioText: "list open tickets"}, nil)

	o.BeginTranscription()
	o.ApplyTranscript(o.Transcribe(context.Background(), []byte("audio")))

	cycle := o.State()
	require.Equal(t, "list open tickets", cycle.Draft)
	require.Empty(t, cycle.Err)
	require.False(t, cycle.Loading)
}

func TestTranscriptFailureLeavesDraftAlone(t *testing.T) {
	o := New(&fakeGateway{audioErr: errors.New("microphone blocked")}, nil)
	o.SetDraft("typed so far")

	o.BeginTranscription()
	o.ApplyTranscript(Transcript{Err: errors.New("microphone blocked")})

	cycle := o.State()
	require.Equal(t, "typed so far", cycle.Draft)
	require.Contains(t, cycle.Err, "microphone blocked")
	require.False(t, cycle.Loading)
	require.Equal(t, ResponsePlaceholder, cycle.Response)
}

func TestTranscriptFailureDoesNotTouchLoadingResponse(t *testing.T) {
	gw := &fakeGateway{promptResponse: "hi"}
	o := New(gw, nil)

	seq, err := o.BeginSubmit("hello")
	require.NoError(t, err)
	require.True(t, o.ApplyResult(o.Submit(context.Background(), seq, demoSession(), "web_developer", "hello")))

	o.ApplyTranscript(Transcript{Err: errors.New("capture fault")})
	cycle := o.State()
	require.Equal(t, "hi", cycle.Response)
	require.False(t, cycle.Loading)
	require.Contains(t, cycle.Err, "capture fault")
}
