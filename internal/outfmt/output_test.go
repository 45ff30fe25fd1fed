package outfmt

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutputTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"labels": []string{"bug", "p1"}}

	if err := OutputTo(&buf, FormatJSON, data); err != nil {
		t.Fatalf("OutputTo() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"labels"`) {
		t.Fatalf("output = %s", buf.String())
	}
}

func TestOutputTo_YAML(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"labels": []string{"bug", "p1"}}

	if err := OutputTo(&buf, FormatYAML, data); err != nil {
		t.Fatalf("OutputTo() error = %v", err)
	}
	if !strings.Contains(buf.String(), "labels:") {
		t.Fatalf("output = %s", buf.String())
	}
}

func TestOutputTo_UnknownFormat(t *testing.T) {
	if err := OutputTo(&bytes.Buffer{}, Format("xml"), nil); err == nil {
		t.Fatalf("OutputTo() should reject unknown formats")
	}
}
