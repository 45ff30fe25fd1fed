package classify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opentriage/triage/internal/forms"
)

// Validate checks a parsed candidate reply against the available template
// schemas. Every check is evaluated and every violation collected; there
// is no fail-fast. A Validated is returned only when the violation set is
// empty.
//
// Envelope shape (presence, JSON types, the closed type set) is enforced
// by the compiled response schema. Domain checks (template existence,
// required field values, option membership) are phrased so the repair
// loop can feed them back to the model verbatim.
func Validate(raw json.RawMessage, templates map[string]*forms.TemplateSchema) (*Validated, Violations) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, Violations{fmt.Sprintf("reply is not valid JSON: %v", err)}
	}

	var vio Violations
	if err := envelopeSchema.Validate(doc); err != nil {
		vio = append(vio, flattenSchemaError(err)...)
	}

	m, ok := doc.(map[string]any)
	if !ok {
		// Already reported by the envelope schema; nothing else is checkable.
		return nil, vio
	}

	// A present priority outside the closed set coerces to the default
	// mid-level value; empty counts as outside. This is a documented
	// permissive policy, not a violation. A missing or non-string priority
	// is still rejected by the envelope schema above.
	priority, _ := m["priority"].(string)
	if !contains(Priorities, priority) {
		priority = DefaultPriority
	}

	var schema *forms.TemplateSchema
	if key, _ := m["template_key"].(string); key != "" {
		var known bool
		if schema, known = templates[key]; !known {
			vio = append(vio, fmt.Sprintf("template_key %q does not exist; choose one of: %s",
				key, strings.Join(templateKeys(templates), ", ")))
		}
	}

	fields, fieldsIsMap := m["fields"].(map[string]any)
	if schema != nil && fieldsIsMap {
		vio = append(vio, fieldViolations(schema, fields)...)
	}

	if !vio.Empty() {
		return nil, vio
	}

	var cand Candidate
	if err := json.Unmarshal(raw, &cand); err != nil {
		return nil, Violations{fmt.Sprintf("reply does not decode as a classification: %v", err)}
	}
	return &Validated{
		Type:        cand.Type,
		Priority:    priority,
		Confidence:  cand.Confidence,
		Title:       cand.Title,
		TemplateKey: cand.TemplateKey,
		Fields:      cand.Fields,
	}, nil
}

// fieldViolations checks the supplied field values against the selected
// template's descriptors.
func fieldViolations(schema *forms.TemplateSchema, fields map[string]any) Violations {
	var vio Violations

	for _, desc := range schema.Fields {
		if desc.Kind == forms.KindMarkdown {
			continue
		}

		value, present := fields[desc.Key]

		if desc.Required {
			switch {
			case !present:
				vio = append(vio, fmt.Sprintf("required field %q (%s) is missing; provide a non-empty value",
					desc.Key, desc.Label))
				continue
			case desc.Kind == forms.KindCheckboxes:
				if len(forms.SplitSelections(value)) == 0 {
					vio = append(vio, fmt.Sprintf("required field %q (%s) has no selections; select at least one option",
						desc.Key, desc.Label))
					continue
				}
			default:
				s, isStr := value.(string)
				if !isStr {
					vio = append(vio, fmt.Sprintf("required field %q (%s) must be a string value",
						desc.Key, desc.Label))
					continue
				}
				if strings.TrimSpace(s) == "" {
					vio = append(vio, fmt.Sprintf("required field %q (%s) is empty; provide a non-empty value",
						desc.Key, desc.Label))
					continue
				}
			}
		}

		if !present {
			continue
		}

		switch desc.Kind {
		case forms.KindDropdown:
			s, isStr := value.(string)
			if !isStr || !contains(desc.Options, s) {
				vio = append(vio, fmt.Sprintf("field %q must be exactly one of: %s",
					desc.Key, quoteJoin(desc.Options)))
			}
		case forms.KindCheckboxes:
			for _, token := range forms.SplitSelections(value) {
				if !contains(desc.Options, token) {
					vio = append(vio, fmt.Sprintf("field %q contains %q which is not one of the declared options: %s",
						desc.Key, token, quoteJoin(desc.Options)))
				}
			}
		}
	}

	return vio
}

// flattenSchemaError converts a jsonschema validation error tree into one
// violation string per leaf cause.
func flattenSchemaError(err error) Violations {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return Violations{err.Error()}
	}
	var vio Violations
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "response"
			} else {
				loc = "response field " + strings.TrimPrefix(strings.ReplaceAll(loc, "/", "."), ".")
			}
			vio = append(vio, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return vio
}

func templateKeys(templates map[string]*forms.TemplateSchema) []string {
	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func quoteJoin(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	return strings.Join(quoted, ", ")
}
