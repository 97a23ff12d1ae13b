// Package conversation coordinates a full interaction cycle with the
// assistant: submit a prompt bound to the selected scenario and session,
// track loading state, and reconcile success and failure outcomes into
// user-visible state. State is mutated only from the UI event loop; the
// gateway calls themselves run in background commands and touch nothing.
package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/alertavert/majordomo-cli/pkg/models"
)

// ResponsePlaceholder is shown while a submission is in flight.
const ResponsePlaceholder = "Bot says..."

var ErrEmptyPrompt = errors.New("nothing to submit")

// Gateway is the slice of the remote client the orchestrator needs.
type Gateway interface {
	SubmitPrompt(ctx context.Context, prompt, scenario, session string) (string, error)
	SubmitAudio(ctx context.Context, payload []byte) (string, error)
}

// Recorder persists completed exchanges. Nil disables recording.
type Recorder interface {
	RecordExchange(session models.Session, prompt, response string) error
}

// Cycle is the user-visible state of the interaction round-trip. Loading
// and a response update never overlap: Loading turns true at cycle start
// and false exactly once, on success or failure alike. Err holds at most
// one active message, replaced (never appended) by the next outcome.
type Cycle struct {
	Loading  bool
	Response string
	Err      string
	Draft    string
}

// Result is the outcome of one prompt submission. Seq ties it back to the
// cycle it belongs to; a result from a superseded submission is discarded.
type Result struct {
	Seq      uint64
	Session  models.Session
	Prompt   string
	Response string
	Err      error
}

// Transcript is the outcome of one audio transcription round-trip.
type Transcript struct {
	Text string
	Err  error
}

// Orchestrator owns the interaction cycle state.
type Orchestrator struct {
	gateway  Gateway
	recorder Recorder

	seq   uint64
	cycle Cycle
}

func New(gateway Gateway, recorder Recorder) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		cycle:   Cycle{Response: ResponsePlaceholder},

		recorder: recorder,
	}
}

// State returns the current cycle state.
func (o *Orchestrator) State() Cycle { return o.cycle }

// SetDraft replaces the draft prompt text.
func (o *Orchestrator) SetDraft(text string) { o.cycle.Draft = text }

// BeginSubmit opens an interaction cycle for the given prompt: loading
// turns on, the previous error is cleared, and the response resets to a
// neutral placeholder. The returned sequence number must accompany the
// eventual result; a newer submission supersedes any still in flight.
func (o *Orchestrator) BeginSubmit(prompt string) (uint64, error) {
	if prompt == "" {
		return 0, ErrEmptyPrompt
	}
	o.seq++
	o.cycle.Loading = true
	o.cycle.Err = ""
	o.cycle.Response = ResponsePlaceholder
	return o.seq, nil
}

// Submit performs the prompt exchange. It mutates no orchestrator state
// and is safe to run outside the event loop.
func (o *Orchestrator) Submit(ctx context.Context, seq uint64, session models.Session, scenario, prompt string) Result {
	response, err := o.gateway.SubmitPrompt(ctx, prompt, scenario, session.SessionID)
	return Result{
		Seq:      seq,
		Session:  session,
		Prompt:   prompt,
		Response: response,
		Err:      err,
	}
}

// ApplyResult folds a submission outcome into the cycle. Loading drops on
// every path. Stale results are discarded entirely and leave the cycle of
// the newer submission untouched; the return value reports whether the
// result was applied.
func (o *Orchestrator) ApplyResult(r Result) bool {
	if r.Seq != o.seq {
		return false
	}
	o.cycle.Loading = false
	if r.Err != nil {
		// The response keeps its prior value; error and last good
		// response may coexist on screen.
		o.cycle.Err = fmt.Sprintf("Error: %v", r.Err)
		return true
	}
	o.cycle.Response = r.Response
	o.cycle.Err = ""
	if o.recorder != nil {
		if err := o.recorder.RecordExchange(r.Session, r.Prompt, r.Response); err != nil {
			o.cycle.Err = fmt.Sprintf("Could not record transcript: %v", err)
		}
	}
	return true
}

// BeginTranscription clears the previous error before an audio round-trip.
// Transcription runs independently of the shared loading flag: recording
// and prompt submission are distinct activities.
func (o *Orchestrator) BeginTranscription() {
	o.cycle.Err = ""
}

// Transcribe performs the audio exchange. Like Submit it mutates nothing.
func (o *Orchestrator) Transcribe(ctx context.Context, payload []byte) Transcript {
	text, err := o.gateway.SubmitAudio(ctx, payload)
	return Transcript{Text: text, Err: err}
}

// ApplyTranscript folds a transcription outcome into the cycle: success
// lands in the draft prompt for a transcribe-then-edit-then-submit
// workflow, failure lands in the error message. Loading and the response
// are never touched.
func (o *Orchestrator) ApplyTranscript(tr Transcript) {
	if tr.Err != nil {
		o.cycle.Err = fmt.Sprintf("Cannot convert audio: %v", tr.Err)
		return
	}
	o.cycle.Draft = tr.Text
}
