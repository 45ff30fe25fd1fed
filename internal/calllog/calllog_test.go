package calllog

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opentriage/triage/internal/classify"
)

func TestRecorder_AppendsJSONL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "calls")
	r := NewRecorder(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Repo = "acme/widgets"
	r.IssueNumber = 42

	r.Attempt(classify.AttemptRecord{
		RequestID:        "req-1",
		Attempt:          1,
		Provider:         "mock",
		Model:            "test-model",
		Latency:          1500 * time.Millisecond,
		PromptTokens:     100,
		CompletionTokens: 20,
		Reply:            `{"type":"bug"}`,
		Violations:       classify.Violations{"required field \"steps\" (Steps) is missing"},
	})
	r.Attempt(classify.AttemptRecord{
		RequestID: "req-2",
		Attempt:   2,
		Provider:  "mock",
		Reply:     `{"type":"bug"}`,
		Valid:     true,
	})

	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open call log: %v", err)
	}
	defer f.Close()

	var calls []Call
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var c Call
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		calls = append(calls, c)
	}

	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	first := calls[0]
	if first.Repo != "acme/widgets" || first.IssueNumber != 42 {
		t.Fatalf("issue context = %q #%d", first.Repo, first.IssueNumber)
	}
	if first.LatencyMs != 1500 || first.InputTokens != 100 || first.OutputTokens != 20 {
		t.Fatalf("call = %+v", first)
	}
	if first.Success || len(first.Violations) != 1 {
		t.Fatalf("first attempt should record the violation: %+v", first)
	}
	if !calls[1].Success {
		t.Fatalf("second attempt should be recorded as success")
	}
	if first.ID == calls[1].ID {
		t.Fatalf("call IDs should be unique")
	}
}
