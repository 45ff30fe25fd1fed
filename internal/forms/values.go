package forms

import "strings"

// SplitSelections normalizes a checkbox field value into its selected
// option tokens. A list value is used as is; a string is split on commas.
// Tokens are whitespace-trimmed and empty tokens dropped. Both the
// validator and the renderer use this, so a value that validates always
// renders the same selection set.
func SplitSelections(value any) []string {
	var tokens []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			tokens = append(tokens, s)
		}
	}

	switch v := value.(type) {
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			add(part)
		}
	}
	return tokens
}
