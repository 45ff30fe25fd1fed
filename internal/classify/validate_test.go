package classify

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/opentriage/triage/internal/forms"
)

func testTemplates() map[string]*forms.TemplateSchema {
	return map[string]*forms.TemplateSchema{
		"bug_report": {
			Key:  "bug_report",
			Name: "Bug Report",
			Fields: []forms.FieldDescriptor{
				{Kind: forms.KindMarkdown, Label: "Thanks for reporting!"},
				{Key: "steps", Kind: forms.KindTextarea, Label: "Steps to Reproduce", Required: true},
				{Key: "expected", Kind: forms.KindTextarea, Label: "Expected Behavior"},
				{Key: "severity", Kind: forms.KindDropdown, Label: "Severity",
					Options: []string{"Crash", "Wrong behavior", "Cosmetic"}},
				{Key: "platforms", Kind: forms.KindCheckboxes, Label: "Affected platforms", Required: true,
					Options: []string{"Linux", "macOS", "Windows"}},
			},
		},
		"feature_request": {
			Key:  "feature_request",
			Name: "Feature Request",
			Fields: []forms.FieldDescriptor{
				{Key: "motivation", Kind: forms.KindTextarea, Label: "Motivation", Required: true},
			},
		},
	}
}

func mustValidate(t *testing.T, reply string) (*Validated, Violations) {
	t.Helper()
	return Validate(json.RawMessage(reply), testTemplates())
}

func hasViolationContaining(vio Violations, substr string) bool {
	for _, v := range vio {
		if strings.Contains(v, substr) {
			return true
		}
	}
	return false
}

func TestValidate_AcceptsConformingReply(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "p1",
		"confidence": 0.9,
		"title": "Crash on startup",
		"template_key": "bug_report",
		"fields": {
			"steps": "1. launch\n2. observe crash",
			"severity": "Crash",
			"platforms": "Linux, macOS"
		}
	}`
	got, vio := mustValidate(t, reply)
	if !vio.Empty() {
		t.Fatalf("unexpected violations: %v", vio)
	}
	if got.Type != "bug" || got.Priority != "p1" || got.TemplateKey != "bug_report" {
		t.Fatalf("Validated = %+v", got)
	}

	wantLabels := []string{"bug", "p1", "triaged"}
	labels := got.Labels()
	for i, want := range wantLabels {
		if labels[i] != want {
			t.Fatalf("Labels()[%d] = %q, want %q", i, labels[i], want)
		}
	}
}

func TestValidate_CoercesInvalidPriorityAndCollectsMissingField(t *testing.T) {
	// A bad priority alone is not a violation, but the missing required
	// field still rejects the candidate; both behaviors in one reply.
	reply := `{
		"type": "bug",
		"priority": "p9",
		"template_key": "bug_report",
		"fields": {"platforms": "Linux"}
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if len(vio) != 1 {
		t.Fatalf("violations = %v, want exactly the missing-field entry", vio)
	}
	if !hasViolationContaining(vio, `required field "steps"`) {
		t.Fatalf("violations = %v, want missing steps", vio)
	}
}

func TestValidate_CoercedPriorityOnOtherwiseValidReply(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "urgent",
		"template_key": "bug_report",
		"fields": {"steps": "repro here", "platforms": "Windows"}
	}`
	got, vio := mustValidate(t, reply)
	if !vio.Empty() {
		t.Fatalf("unexpected violations: %v", vio)
	}
	if got.Priority != DefaultPriority {
		t.Fatalf("Priority = %q, want coerced %q", got.Priority, DefaultPriority)
	}
}

func TestValidate_EmptyPriorityCoerced(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "",
		"template_key": "bug_report",
		"fields": {"steps": "repro here", "platforms": "Windows"}
	}`
	got, vio := mustValidate(t, reply)
	if !vio.Empty() {
		t.Fatalf("unexpected violations: %v", vio)
	}
	if got.Priority != DefaultPriority {
		t.Fatalf("Priority = %q, want coerced %q", got.Priority, DefaultPriority)
	}
	for _, label := range got.Labels() {
		if label == "" {
			t.Fatalf("Labels() = %v, contains empty label", got.Labels())
		}
	}
}

func TestValidate_MissingPriorityIsViolation(t *testing.T) {
	reply := `{
		"type": "bug",
		"template_key": "bug_report",
		"fields": {"steps": "x", "platforms": "Linux"}
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if !hasViolationContaining(vio, "priority") {
		t.Fatalf("violations = %v, want missing priority", vio)
	}
}

func TestValidate_UnknownTypeIsViolation(t *testing.T) {
	reply := `{
		"type": "task",
		"priority": "p2",
		"template_key": "bug_report",
		"fields": {"steps": "x", "platforms": "Linux"}
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if !hasViolationContaining(vio, "type") {
		t.Fatalf("violations = %v, want type enum failure", vio)
	}
}

func TestValidate_UnknownTemplateKeyListsAvailable(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "p2",
		"template_key": "nonexistent",
		"fields": {}
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if !hasViolationContaining(vio, "bug_report, feature_request") {
		t.Fatalf("violations = %v, want available keys listed", vio)
	}
}

func TestValidate_DropdownRequiresExactMatch(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "p2",
		"template_key": "bug_report",
		"fields": {"steps": "x", "platforms": "Linux", "severity": "crash"}
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if !hasViolationContaining(vio, `"severity" must be exactly one of`) {
		t.Fatalf("violations = %v, want dropdown membership failure", vio)
	}
}

func TestValidate_CheckboxTokensMustBeDeclaredOptions(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "p2",
		"template_key": "bug_report",
		"fields": {"steps": "x", "platforms": "Linux, BeOS"}
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if !hasViolationContaining(vio, `"BeOS"`) {
		t.Fatalf("violations = %v, want unknown checkbox token", vio)
	}
}

func TestValidate_CheckboxListValueAccepted(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "p2",
		"template_key": "bug_report",
		"fields": {"steps": "x", "platforms": ["Linux", "Windows"]}
	}`
	_, vio := mustValidate(t, reply)
	if !vio.Empty() {
		t.Fatalf("unexpected violations: %v", vio)
	}
}

func TestValidate_AllViolationsCollected(t *testing.T) {
	// One reply, multiple independent failures; all must surface so a
	// single correction turn can fix everything.
	reply := `{
		"type": "bug",
		"priority": "p2",
		"template_key": "bug_report",
		"fields": {"severity": "Meh", "platforms": "Amiga"}
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if len(vio) < 3 {
		t.Fatalf("violations = %v, want missing steps + severity + platforms", vio)
	}
}

func TestValidate_FieldsMustBeObject(t *testing.T) {
	reply := `{
		"type": "bug",
		"priority": "p2",
		"template_key": "bug_report",
		"fields": ["steps", "x"]
	}`
	got, vio := mustValidate(t, reply)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if !hasViolationContaining(vio, "fields") {
		t.Fatalf("violations = %v, want fields type failure", vio)
	}
}

func TestValidate_NonObjectReply(t *testing.T) {
	got, vio := mustValidate(t, `["not", "an", "object"]`)
	if got != nil {
		t.Fatalf("expected rejection, got %+v", got)
	}
	if vio.Empty() {
		t.Fatalf("expected violations for a non-object reply")
	}
}
