package render

import (
	"reflect"
	"strings"
	"testing"

	"github.com/opentriage/triage/internal/forms"
)

func bugSchema() *forms.TemplateSchema {
	return &forms.TemplateSchema{
		Key:  "bug_report",
		Name: "Bug Report",
		Fields: []forms.FieldDescriptor{
			{Kind: forms.KindMarkdown, Label: "Thanks for reporting!"},
			{Key: "steps", Kind: forms.KindTextarea, Label: "Steps to Reproduce", Required: true},
			{Key: "expected", Kind: forms.KindTextarea, Label: "Expected Behavior"},
			{Key: "platforms", Kind: forms.KindCheckboxes, Label: "Affected platforms",
				Options: []string{"A", "B", "C"}},
		},
	}
}

func TestRender_FullBody(t *testing.T) {
	fields := map[string]any{
		"steps":     "1. launch\n2. crash",
		"expected":  "No crash",
		"platforms": "A, C",
	}

	got := Render(bugSchema(), fields, nil)
	want := strings.Join([]string{
		"Thanks for reporting!",
		"",
		"### Steps to Reproduce",
		"",
		"1. launch\n2. crash",
		"",
		"### Expected Behavior",
		"",
		"No crash",
		"",
		"### Affected platforms",
		"- [x] A",
		"- [ ] B",
		"- [x] C",
	}, "\n")
	if got != want {
		t.Fatalf("Render() =\n%s\n\nwant:\n%s", got, want)
	}
}

func TestRender_Deterministic(t *testing.T) {
	fields := map[string]any{"steps": "x", "platforms": []any{"B"}}
	first := Render(bugSchema(), fields, []string{"https://example.com/a.png"})
	second := Render(bugSchema(), fields, []string{"https://example.com/a.png"})
	if first != second {
		t.Fatalf("rendering is not deterministic:\n%s\n%s", first, second)
	}
}

func TestRender_EmptyOptionalBlockDropped(t *testing.T) {
	fields := map[string]any{"steps": "x", "platforms": "A"}
	got := Render(bugSchema(), fields, nil)
	if strings.Contains(got, "Expected Behavior") {
		t.Fatalf("empty optional field should be dropped:\n%s", got)
	}
}

func TestRender_CheckboxesEnumerateAllOptions(t *testing.T) {
	fields := map[string]any{"steps": "x"}
	got := Render(bugSchema(), fields, nil)
	for _, line := range []string{"- [ ] A", "- [ ] B", "- [ ] C"} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in:\n%s", line, got)
		}
	}
}

func TestRender_NonStringValueSerialized(t *testing.T) {
	fields := map[string]any{"steps": float64(42)}
	got := Render(bugSchema(), fields, nil)
	if !strings.Contains(got, "### Steps to Reproduce\n\n42") {
		t.Fatalf("non-string value not serialized:\n%s", got)
	}
}

func TestRender_ImagesAppended(t *testing.T) {
	fields := map[string]any{"steps": "x"}
	got := Render(bugSchema(), fields, []string{
		"https://example.com/a.png",
		"https://example.com/b.png",
	})
	want := "![image](https://example.com/a.png)\n![image](https://example.com/b.png)"
	if !strings.HasSuffix(got, want) {
		t.Fatalf("image block missing or misplaced:\n%s", got)
	}
}

func TestExtractImages(t *testing.T) {
	body := `Some text

![screenshot](https://example.com/shot.png)

more text ![](https://example.com/inline.gif) trailing`

	got := ExtractImages(body)
	want := []string{"https://example.com/shot.png", "https://example.com/inline.gif"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractImages() = %v, want %v", got, want)
	}
}

func TestExtractImages_None(t *testing.T) {
	if got := ExtractImages("plain text, no images"); len(got) != 0 {
		t.Fatalf("ExtractImages() = %v, want none", got)
	}
}

// Rendering a body and re-rendering from the same values must agree with
// the template's declared heading order.
func TestRender_HeadingOrderFollowsTemplate(t *testing.T) {
	fields := map[string]any{
		"steps":    "x",
		"expected": "y",
	}
	got := Render(bugSchema(), fields, nil)
	steps := strings.Index(got, "### Steps to Reproduce")
	expected := strings.Index(got, "### Expected Behavior")
	if steps < 0 || expected < 0 || steps > expected {
		t.Fatalf("headings out of order:\n%s", got)
	}
}
