// Package classify maps a free-form issue onto a repository's structured
// issue-form templates using an LLM, validating and repairing the model's
// structured output until it conforms or the attempt budget runs out.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opentriage/triage/internal/forms"
)

// IssueTypes is the closed set of accepted classifications.
var IssueTypes = []string{"bug", "enhancement", "feature", "question"}

// Priorities is the closed set of accepted priorities, p0 (critical)
// through p4 (trivial).
var Priorities = []string{"p0", "p1", "p2", "p3", "p4"}

// DefaultPriority is what an invalid-but-present priority coerces to.
// This is the one documented permissive policy in the validator; every
// other ambiguity is a visible failure.
const DefaultPriority = "p2"

// Request carries one issue to classify. Immutable once constructed; each
// classification run builds its own Request and template set.
type Request struct {
	Title          string
	Description    string
	ExistingLabels []string
	Templates      map[string]*forms.TemplateSchema
}

// Candidate is the model's latest parsed reply. It is created fresh each
// attempt and discarded on validation failure.
type Candidate struct {
	Type        string         `json:"type"`
	Priority    string         `json:"priority"`
	Confidence  float64        `json:"confidence"`
	Title       string         `json:"title"`
	TemplateKey string         `json:"template_key"`
	Fields      map[string]any `json:"fields"`
}

// Validated is a Candidate that passed every check. Priority is always a
// member of Priorities (coerced if necessary).
type Validated struct {
	Type        string         `json:"type"`
	Priority    string         `json:"priority"`
	Confidence  float64        `json:"confidence"`
	Title       string         `json:"title"`
	TemplateKey string         `json:"template_key"`
	Fields      map[string]any `json:"fields"`
}

// Labels returns the label set a publisher should apply for this
// classification.
func (v *Validated) Labels() []string {
	return []string{v.Type, v.Priority, "triaged"}
}

// Violations is the complete ordered list of reasons a candidate failed.
// Each entry is phrased so it can be re-injected verbatim as a corrective
// instruction to the model; the full set is always reported together so
// one correction turn can fix everything.
type Violations []string

func (v Violations) Empty() bool { return len(v) == 0 }

// Join renders the violations as a bulleted list for feedback messages
// and diagnostics.
func (v Violations) Join() string {
	return "- " + strings.Join(v, "\n- ")
}

// ErrRetriesExhausted is the terminal classification failure: the attempt
// budget ran out with violations still present.
var ErrRetriesExhausted = errors.New("classification retries exhausted")

// ExhaustedError carries full diagnostic context for a terminal failure:
// the last raw model reply and the last violation set.
type ExhaustedError struct {
	Attempts   int
	LastReply  string
	Violations Violations
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("classification retries exhausted after %d attempts; last violations:\n%s",
		e.Attempts, e.Violations.Join())
}

func (e *ExhaustedError) Unwrap() error { return ErrRetriesExhausted }
