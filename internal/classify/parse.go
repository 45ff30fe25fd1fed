package classify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseReply extracts the first parseable brace-delimited JSON object from
// a model reply, with lightweight recovery for markdown code fences and
// surrounding prose.
func parseReply(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("no parseable JSON object found: reply is empty")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	candidates = append(candidates, extractObjectCandidates(content)...)

	for _, candidate := range candidates {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize reply JSON: %w", err)
		}
		return normalized, nil
	}

	return nil, fmt.Errorf("no parseable JSON object found in reply")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractObjectCandidates returns every brace-balanced {...} span of the
// reply in order of appearance, so a parseable object is found even when
// an earlier span is junk. Braces inside JSON strings are skipped.
func extractObjectCandidates(content string) []string {
	var spans []string
	for start := 0; start < len(content); {
		open := strings.Index(content[start:], "{")
		if open < 0 {
			break
		}
		open += start

		depth := 0
		end := -1
		inString := false
		escaped := false
	scan:
		for i := open; i < len(content); i++ {
			c := content[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = i
					break scan
				}
			}
		}
		if end < 0 {
			break
		}

		spans = append(spans, strings.TrimSpace(content[open:end+1]))
		start = end + 1
	}
	return spans
}
