package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

var (
	// ErrCaptureUnavailable means the capture probe failed at startup;
	// recording can never succeed in this process.
	ErrCaptureUnavailable = errors.New("audio capture unavailable")

	// ErrAlreadyRecording is returned when Start is called while a
	// recording is active. Callers are expected to gate on Recording().
	ErrAlreadyRecording = errors.New("a recording is already in progress")

	// ErrNotRecording is returned by Stop when nothing was started.
	ErrNotRecording = errors.New("no recording in progress")
)

// Config selects the capture subprocess and its input.
type Config struct {
	Command     string
	InputFormat string
	InputDevice string
}

// Recorder captures microphone audio through an external encoder process
// and yields the encoded payload on stop. Only one recording may be active
// at a time.
type Recorder struct {
	cfg      Config
	probeErr error

	mu      sync.Mutex
	current *captureSession
}

// NewRecorder builds a recorder and probes the capture capability once;
// a failed probe makes every later Start fail with ErrCaptureUnavailable.
func NewRecorder(cfg Config) *Recorder {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	r := &Recorder{cfg: cfg}
	if _, err := exec.LookPath(cfg.Command); err != nil {
		r.probeErr = fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	return r
}

// Recording reports whether a capture is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Start begins a new capture. The recording keeps running until Stop,
// independent of ctx, which only bounds process startup.
func (r *Recorder) Start(ctx context.Context) error {
	if r.probeErr != nil {
		return r.probeErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return ErrAlreadyRecording
	}

	session, err := startCapture(ctx, r.cfg)
	if err != nil {
		return err
	}
	r.current = session
	return nil
}

// Stop ends the active capture and returns the encoded audio payload.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	session := r.current
	r.current = nil
	r.mu.Unlock()

	if session == nil {
		return nil, ErrNotRecording
	}
	return session.stop()
}

type captureSession struct {
	process *os.Process
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	waitErr <-chan error
}

func startCapture(ctx context.Context, cfg Config) (*captureSession, error) {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", "1",
		"-f", "mp3",
		"-",
	}

	var out, errOut bytes.Buffer
	cmd := exec.Command(cfg.Command, args...)
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// A device or permission problem makes the encoder exit right away;
	// surface that as a start failure instead of an empty recording.
	select {
	case err := <-waitErr:
		detail := bytes.TrimSpace(errOut.Bytes())
		if len(detail) > 0 {
			return nil, fmt.Errorf("capture exited before recording started: %s", detail)
		}
		if err != nil {
			return nil, fmt.Errorf("capture exited before recording started: %w", err)
		}
		return nil, errors.New("capture exited before recording started")
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waitErr
		return nil, ctx.Err()
	case <-time.After(250 * time.Millisecond):
	}

	return &captureSession{
		process: cmd.Process,
		out:     &out,
		errOut:  &errOut,
		waitErr: waitErr,
	}, nil
}

func (s *captureSession) stop() ([]byte, error) {
	_ = s.process.Signal(os.Interrupt)

	var waitErr error
	select {
	case err := <-s.waitErr:
		waitErr = normalizeStopErr(err)
	case <-time.After(1200 * time.Millisecond):
		_ = s.process.Kill()
		waitErr = normalizeStopErr(<-s.waitErr)
	}

	if waitErr != nil {
		if detail := bytes.TrimSpace(s.errOut.Bytes()); len(detail) > 0 {
			return nil, fmt.Errorf("capture failed: %w: %s", waitErr, detail)
		}
		return nil, fmt.Errorf("capture failed: %w", waitErr)
	}

	payload := s.out.Bytes()
	if len(payload) == 0 {
		return nil, errors.New("capture produced no audio")
	}
	return payload, nil
}

// normalizeStopErr drops the exit error produced by interrupting the
// encoder; a non-zero exit on interrupt is the normal stop path.
func normalizeStopErr(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
