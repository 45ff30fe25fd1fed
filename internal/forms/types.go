// Package forms normalizes issue-form template documents into ordered,
// typed field descriptors.
//
// A template document is the YAML issue-form definition stored in a
// repository (name, description, and an ordered body of items). The body
// items become FieldDescriptors in declaration order; that order is what
// the renderer later uses to lay out the final issue body.
package forms

// ItemKind is a closed set of form-item variants. Each descriptor carries
// only the fields relevant to its kind, so callers branch on Kind instead
// of probing for optional attributes.
type ItemKind string

const (
	KindMarkdown   ItemKind = "markdown"
	KindInput      ItemKind = "input"
	KindTextarea   ItemKind = "textarea"
	KindDropdown   ItemKind = "dropdown"
	KindCheckboxes ItemKind = "checkboxes"
)

// FieldDescriptor is the normalized representation of one form item.
type FieldDescriptor struct {
	// Key is the stable field identifier, unique within a template.
	// Empty for markdown items, which never carry values.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`

	Kind ItemKind `json:"kind" yaml:"kind"`

	// Label is the field's display label. For markdown items it holds the
	// literal block text.
	Label string `json:"label" yaml:"label"`

	Required bool `json:"required,omitempty" yaml:"required,omitempty"`

	// Options holds the declared option labels, in declaration order.
	// Only present for dropdown and checkboxes items.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// TemplateSchema is the normalized form of one template document.
type TemplateSchema struct {
	// Key identifies the template (typically the file stem, e.g. "bug_report").
	Key string `json:"key" yaml:"key"`

	// Name is the template's display name.
	Name string `json:"name" yaml:"name"`

	// Fields is the ordered descriptor sequence, matching the template's
	// declared item order.
	Fields []FieldDescriptor `json:"fields" yaml:"fields"`
}

// Field returns the descriptor with the given key, if any.
func (s *TemplateSchema) Field(key string) (FieldDescriptor, bool) {
	for _, f := range s.Fields {
		if f.Key != "" && f.Key == key {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}
