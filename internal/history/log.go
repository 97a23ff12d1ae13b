// Package history keeps a local transcript of conversations: one JSONL
// file per project, appended on every successful exchange and queried with
// DuckDB by the `history` command.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alertavert/majordomo-cli/pkg/models"
)

// Entry is one line of the transcript log.
type Entry struct {
	SessionID   string    `json:"session_id"`
	SessionName string    `json:"session_name,omitempty"`
	Project     string    `json:"project"`
	Scenario    string    `json:"scenario"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// Log appends transcript entries under a base directory.
type Log struct {
	dir string
	mu  sync.Mutex
}

func NewLog(dir string) *Log {
	return &Log{dir: dir}
}

// Dir returns the base directory of the log.
func (l *Log) Dir() string { return l.dir }

// RecordExchange appends the prompt and its response to the project's
// transcript file, creating the directory and file as needed.
func (l *Log) RecordExchange(session models.Session, prompt, response string) error {
	now := time.Now().UTC()
	entries := []Entry{
		{
			SessionID:   session.SessionID,
			SessionName: session.DisplayName,
			Project:     session.Project,
			Scenario:    session.Scenario,
			Role:        "user",
			Content:     prompt,
			Timestamp:   now,
		},
		{
			SessionID:   session.SessionID,
			SessionName: session.DisplayName,
			Project:     session.Project,
			Scenario:    session.Scenario,
			Role:        "assistant",
			Content:     response,
			Timestamp:   now,
		},
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	path := filepath.Join(l.dir, sanitizeName(session.Project)+".jsonl")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("append transcript entry: %w", err)
		}
	}
	return nil
}

// sanitizeName maps a project name onto a safe file name.
func sanitizeName(name string) string {
	if name == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
