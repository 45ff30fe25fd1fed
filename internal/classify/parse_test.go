package classify

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseReply_BareObject(t *testing.T) {
	raw, err := parseReply(`{"type": "bug"}`)
	if err != nil {
		t.Fatalf("parseReply() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if m["type"] != "bug" {
		t.Fatalf("type = %v, want bug", m["type"])
	}
}

func TestParseReply_CodeFenced(t *testing.T) {
	reply := "```json\n{\"type\": \"question\"}\n```"
	raw, err := parseReply(reply)
	if err != nil {
		t.Fatalf("parseReply() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if m["type"] != "question" {
		t.Fatalf("type = %v, want question", m["type"])
	}
}

func TestParseReply_ProseWrapped(t *testing.T) {
	reply := `Here is the classification you asked for:

{"type": "feature", "priority": "p3"}

Let me know if you need anything else.`
	raw, err := parseReply(reply)
	if err != nil {
		t.Fatalf("parseReply() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if m["priority"] != "p3" {
		t.Fatalf("priority = %v, want p3", m["priority"])
	}
}

func TestParseReply_SkipsUnparseableSpan(t *testing.T) {
	reply := `{broken} some prose {"type": "bug", "note": "uses } in a string"}`
	raw, err := parseReply(reply)
	if err != nil {
		t.Fatalf("parseReply() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if m["type"] != "bug" {
		t.Fatalf("type = %v, want bug", m["type"])
	}
}

func TestParseReply_NoObject(t *testing.T) {
	for _, reply := range []string{"", "I could not classify this issue.", "[1, 2, 3]"} {
		if _, err := parseReply(reply); err == nil {
			t.Fatalf("parseReply(%q) should fail", reply)
		} else if !strings.Contains(err.Error(), "no parseable JSON object") {
			t.Fatalf("parseReply(%q) error = %v", reply, err)
		}
	}
}
