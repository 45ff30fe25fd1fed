package forms

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrSchemaMalformed indicates a template document that cannot be
// normalized. It is fatal: triage aborts before any model call.
var ErrSchemaMalformed = errors.New("template schema malformed")

// rawTemplate mirrors the issue-form YAML layout.
type rawTemplate struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Body        []rawItem `yaml:"body"`
}

type rawItem struct {
	Type        string         `yaml:"type"`
	ID          string         `yaml:"id"`
	Attributes  rawAttributes  `yaml:"attributes"`
	Validations rawValidations `yaml:"validations"`
}

type rawAttributes struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
	// Options entries are either plain strings or objects with a "label"
	// key, depending on the form author. Decoded loosely and filtered in
	// optionLabel.
	Options []yaml.Node `yaml:"options"`
}

type rawValidations struct {
	Required bool `yaml:"required"`
}

// Normalize parses a raw template document and produces its schema.
// It is deterministic: identical input yields identical descriptor order
// and keys. Duplicate derived keys within one template are rejected
// rather than silently overwriting each other.
func Normalize(key string, doc []byte) (*TemplateSchema, error) {
	var raw rawTemplate
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("%w: template %q: %v", ErrSchemaMalformed, key, err)
	}
	if len(raw.Body) == 0 {
		return nil, fmt.Errorf("%w: template %q has no body items", ErrSchemaMalformed, key)
	}

	schema := &TemplateSchema{
		Key:    key,
		Name:   raw.Name,
		Fields: make([]FieldDescriptor, 0, len(raw.Body)),
	}

	seen := make(map[string]string) // key -> label that produced it
	for i, item := range raw.Body {
		desc, err := normalizeItem(key, i, item)
		if err != nil {
			return nil, err
		}

		if desc.Key != "" {
			if prev, dup := seen[desc.Key]; dup {
				return nil, fmt.Errorf("%w: template %q: labels %q and %q both derive field key %q",
					ErrSchemaMalformed, key, prev, desc.Label, desc.Key)
			}
			seen[desc.Key] = desc.Label
		}

		schema.Fields = append(schema.Fields, desc)
	}

	return schema, nil
}

func normalizeItem(tmpl string, idx int, item rawItem) (FieldDescriptor, error) {
	kind := ItemKind(item.Type)
	if kind == "text" { // older documents name single-line inputs "text"
		kind = KindInput
	}
	switch kind {
	case KindMarkdown:
		return FieldDescriptor{
			Kind:  KindMarkdown,
			Label: item.Attributes.Value,
		}, nil

	case KindInput, KindTextarea, KindDropdown, KindCheckboxes:
		if item.Attributes.Label == "" && item.ID == "" {
			return FieldDescriptor{}, fmt.Errorf("%w: template %q: item %d (%s) has neither id nor label",
				ErrSchemaMalformed, tmpl, idx, item.Type)
		}

		desc := FieldDescriptor{
			Key:      item.ID,
			Kind:     kind,
			Label:    item.Attributes.Label,
			Required: item.Validations.Required,
		}
		if desc.Key == "" {
			desc.Key = Slug(desc.Label)
		}

		if desc.Kind == KindDropdown || desc.Kind == KindCheckboxes {
			desc.Options = collectOptions(item.Attributes.Options)
		}
		return desc, nil

	default:
		return FieldDescriptor{}, fmt.Errorf("%w: template %q: item %d has unknown type %q",
			ErrSchemaMalformed, tmpl, idx, item.Type)
	}
}

// collectOptions extracts option labels in declaration order. Empty and
// unrecognized entries are skipped, not errors.
func collectOptions(nodes []yaml.Node) []string {
	var opts []string
	for _, n := range nodes {
		if label := optionLabel(n); label != "" {
			opts = append(opts, label)
		}
	}
	return opts
}

func optionLabel(n yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return strings.TrimSpace(n.Value)
	case yaml.MappingNode:
		var obj struct {
			Label string `yaml:"label"`
		}
		if err := n.Decode(&obj); err != nil {
			return ""
		}
		return strings.TrimSpace(obj.Label)
	default:
		return ""
	}
}

// Slug derives a stable field key from a label: lowercased, with runs of
// non-alphanumeric characters collapsed to a single underscore.
func Slug(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	pendingSep := false
	for _, r := range strings.ToLower(label) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
