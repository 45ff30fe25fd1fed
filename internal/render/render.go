// Package render turns a validated field-value map back into the issue
// body laid out by the original template. Rendering is deterministic:
// the same inputs always produce byte-identical output.
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/opentriage/triage/internal/forms"
)

const (
	checkedMarker   = "- [x] "
	uncheckedMarker = "- [ ] "
)

// Render emits one block per descriptor in the template's declared order,
// then an image block if any references were supplied. Blocks are joined
// with a blank line; blocks that come out empty are dropped after
// emission. Only optional-empty fields can reach that state; empty
// required fields were already rejected by the validator.
func Render(schema *forms.TemplateSchema, fields map[string]any, images []string) string {
	blocks := make([]string, 0, len(schema.Fields)+1)

	for _, desc := range schema.Fields {
		blocks = append(blocks, renderField(desc, fields[desc.Key]))
	}

	if len(images) > 0 {
		lines := make([]string, len(images))
		for i, url := range images {
			lines[i] = fmt.Sprintf("![image](%s)", url)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	nonEmpty := blocks[:0]
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			nonEmpty = append(nonEmpty, b)
		}
	}

	return strings.Join(nonEmpty, "\n\n")
}

func renderField(desc forms.FieldDescriptor, value any) string {
	switch desc.Kind {
	case forms.KindMarkdown:
		// Literal block text, verbatim.
		return desc.Label

	case forms.KindCheckboxes:
		selected := make(map[string]bool)
		for _, token := range forms.SplitSelections(value) {
			selected[token] = true
		}

		// The full declared option set is always enumerated, unchecked
		// options included.
		lines := make([]string, 0, len(desc.Options)+1)
		lines = append(lines, heading(desc.Label))
		for _, opt := range desc.Options {
			marker := uncheckedMarker
			if selected[opt] {
				marker = checkedMarker
			}
			lines = append(lines, marker+opt)
		}
		return strings.Join(lines, "\n")

	default:
		text := valueText(value)
		if text == "" {
			return ""
		}
		return heading(desc.Label) + "\n\n" + text
	}
}

func heading(label string) string {
	return "### " + label
}

// valueText serializes a field value. Strings pass through verbatim;
// anything else becomes compact JSON.
func valueText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

var imagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)

// ExtractImages collects embedded-image URLs from an issue body, in
// order of appearance. These are re-appended to the rendered body so
// attachments survive the rewrite.
func ExtractImages(body string) []string {
	matches := imagePattern.FindAllStringSubmatch(body, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls
}
