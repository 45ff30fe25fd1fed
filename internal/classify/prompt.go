package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opentriage/triage/internal/forms"
	"github.com/opentriage/triage/internal/providers"
)

const systemPrompt = `You are an issue triage assistant. You read a free-form issue
submission and map it onto one of the repository's structured issue-form templates.

Reply with ONLY a single JSON object, no markdown fences and no commentary, with
these keys:
  type:         one of "bug", "enhancement", "feature", "question"
  priority:     one of "p0" (critical) through "p4" (trivial)
  confidence:   your confidence from 0.0 to 1.0
  title:        a cleaned-up issue title
  template_key: the key of the template that best fits the issue
  fields:       an object mapping the selected template's field keys to values

For dropdown fields the value must equal one of the declared options exactly.
For checkbox fields the value is a list of the selected options (or a
comma-separated string). Required fields must have non-empty values; if the
submission does not state a required detail, summarize what is known rather
than leaving it empty.`

// modelField is the minimized field shape serialized for the model.
// Markdown blocks are omitted: they carry no values to fill.
type modelField struct {
	Key      string   `json:"key"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type modelTemplate struct {
	Key    string       `json:"key"`
	Name   string       `json:"name"`
	Fields []modelField `json:"fields"`
}

// BuildConversation seeds the repair loop's conversation: one system
// instruction and one user message carrying the issue plus the minimized
// schemas of every available template.
func BuildConversation(req *Request) []providers.Message {
	return []providers.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(req)},
	}
}

func userPrompt(req *Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Issue title: %s\n\n", req.Title)
	fmt.Fprintf(&b, "Issue description:\n%s\n\n", req.Description)
	if len(req.ExistingLabels) > 0 {
		fmt.Fprintf(&b, "Labels already on the issue: %s\n\n", strings.Join(req.ExistingLabels, ", "))
	}

	b.WriteString("Available templates:\n")
	b.Write(serializeTemplates(req.Templates))
	return b.String()
}

// serializeTemplates renders the template schemas as indented JSON, sorted
// by template key so identical requests produce identical prompts.
func serializeTemplates(templates map[string]*forms.TemplateSchema) []byte {
	minimized := make([]modelTemplate, 0, len(templates))
	for _, key := range templateKeys(templates) {
		schema := templates[key]
		mt := modelTemplate{Key: schema.Key, Name: schema.Name}
		for _, f := range schema.Fields {
			if f.Kind == forms.KindMarkdown {
				continue
			}
			mt.Fields = append(mt.Fields, modelField{
				Key:      f.Key,
				Type:     string(f.Kind),
				Label:    f.Label,
				Required: f.Required,
				Options:  f.Options,
			})
		}
		minimized = append(minimized, mt)
	}

	out, err := json.MarshalIndent(minimized, "", "  ")
	if err != nil {
		// Template schemas are plain structs; this cannot fail in practice.
		return []byte("[]")
	}
	return out
}

// feedback builds the corrective user message appended after an invalid
// attempt. All violations are reported together so the model can fix them
// in one turn.
func feedback(vio Violations) string {
	return fmt.Sprintf(`Your previous reply was not a valid classification. Fix ALL of the
following problems and reply again with ONLY the corrected JSON object:
%s`, vio.Join())
}
