// Package calllog records every LLM attempt for traceability. Records are
// appended as JSON lines to a per-day file under the home directory, so a
// failed triage run can be replayed from its exact prompts and replies.
package calllog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opentriage/triage/internal/classify"
)

// Call is one recorded LLM attempt.
type Call struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	Repo        string `json:"repo,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty"`
	RequestID   string `json:"request_id"`
	Attempt     int    `json:"attempt"`

	// Model info
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Token usage
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// Outcome
	Reply      string   `json:"reply,omitempty"`
	Violations []string `json:"violations,omitempty"`
	Error      string   `json:"error,omitempty"`
	Success    bool     `json:"success"`
}

// Recorder appends calls to JSONL files in dir.
type Recorder struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger

	// Issue context applied to every record.
	Repo        string
	IssueNumber int
}

// NewRecorder creates a recorder writing under dir (created on demand).
func NewRecorder(dir string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{dir: dir, logger: logger}
}

// Attempt adapts a classification attempt record and appends it.
// Recording failures are logged, never fatal: losing a log line must not
// fail a triage run.
func (r *Recorder) Attempt(rec classify.AttemptRecord) {
	call := Call{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		LatencyMs:    int(rec.Latency.Milliseconds()),
		Repo:         r.Repo,
		IssueNumber:  r.IssueNumber,
		RequestID:    rec.RequestID,
		Attempt:      rec.Attempt,
		Provider:     rec.Provider,
		Model:        rec.Model,
		InputTokens:  rec.PromptTokens,
		OutputTokens: rec.CompletionTokens,
		Reply:        rec.Reply,
		Violations:   rec.Violations,
		Error:        rec.TransportError,
		Success:      rec.Valid,
	}

	if err := r.append(call); err != nil {
		r.logger.Warn("failed to record LLM call", "error", err)
	}
}

func (r *Recorder) append(call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create call log dir: %w", err)
	}

	line, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to marshal call: %w", err)
	}

	path := filepath.Join(r.dir, call.Timestamp.Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open call log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write call log: %w", err)
	}
	return nil
}
